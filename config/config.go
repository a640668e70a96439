// Package config holds the static machine description: leadscrew, stepper,
// encoder, pin assignment, timing and gearbox.
//
// Machine is plain data so it can be built into the firmware image with
// Default or read from a YAML file on the host with Load.
package config

import (
	"errors"

	"goels/core"
)

// Leadscrew pitch. Exactly one of TPI and HMM is set.
type Leadscrew struct {
	TPI int `yaml:"tpi"` // threads per inch
	HMM int `yaml:"hmm"` // pitch in hundredths of a millimetre
}

// Stepper is the drive resolution, pin assignment and polarity.
type Stepper struct {
	Microsteps int `yaml:"microsteps"`
	Resolution int `yaml:"resolution"` // full steps per motor revolution

	// Feed settings may use a different microstep setting from threading.
	// Zero means the same as Microsteps and Resolution.
	FeedMicrosteps int `yaml:"feed_microsteps"`
	FeedResolution int `yaml:"feed_resolution"`

	StepPin   uint32 `yaml:"step_pin"`
	DirPin    uint32 `yaml:"dir_pin"`
	EnablePin uint32 `yaml:"enable_pin"`
	AlarmPin  uint32 `yaml:"alarm_pin"`

	InvertStep   bool `yaml:"invert_step"`
	InvertDir    bool `yaml:"invert_dir"`
	InvertEnable bool `yaml:"invert_enable"`
	InvertAlarm  bool `yaml:"invert_alarm"`
	UseAlarm     bool `yaml:"use_alarm"`

	MaxBufferedSteps int32 `yaml:"max_buffered_steps"`
}

// Encoder is the spindle encoder.
type Encoder struct {
	Resolution int    `yaml:"resolution"` // counts per spindle revolution
	Reverse    bool   `yaml:"reverse"`
	PinA       uint32 `yaml:"pin_a"`
	PinB       uint32 `yaml:"pin_b"`
}

// Timing of both execution contexts.
type Timing struct {
	StepperCycleUS int `yaml:"stepper_cycle_us"`
	UIRefreshHz    int `yaml:"ui_refresh_hz"`
	RPMCalcHz      int `yaml:"rpm_calc_hz"`
	StatusPeriodUS int `yaml:"status_period_us"`
	TelemetryEvery int `yaml:"telemetry_every"` // UI ticks per status frame, 0 disables
}

// Gearbox is the optional I2C gearbox peripheral.
type Gearbox struct {
	Enabled bool   `yaml:"enabled"`
	Address uint16 `yaml:"address"`
	SDAPin  uint32 `yaml:"sda_pin"`
	SCLPin  uint32 `yaml:"scl_pin"`
	BaudHz  uint32 `yaml:"baud_hz"`

	GearA  core.Ratio `yaml:"gear_a"`
	GearB  core.Ratio `yaml:"gear_b"`
	GearC  core.Ratio `yaml:"gear_c"`
	Feed   core.Ratio `yaml:"feed"`
	Thread core.Ratio `yaml:"thread"`
}

// Machine is the complete static configuration.
type Machine struct {
	Leadscrew Leadscrew `yaml:"leadscrew"`
	Stepper   Stepper   `yaml:"stepper"`
	Encoder   Encoder   `yaml:"encoder"`
	Timing    Timing    `yaml:"timing"`
	Gearbox   Gearbox   `yaml:"gearbox"`
}

// Default returns the stock machine: an 8 TPI leadscrew driven by a
// 200 step motor at 8 microsteps, with a 6144 count reversed encoder.
func Default() Machine {
	return Machine{
		Leadscrew: Leadscrew{TPI: 8},
		Stepper: Stepper{
			Microsteps:       8,
			Resolution:       200,
			StepPin:          6,
			DirPin:           7,
			EnablePin:        8,
			AlarmPin:         9,
			InvertEnable:     true,
			InvertAlarm:      true,
			UseAlarm:         true,
			MaxBufferedSteps: core.DefaultMaxBufferedSteps,
		},
		Encoder: Encoder{
			Resolution: 6144,
			Reverse:    true,
			PinA:       28,
			PinB:       27,
		},
		Timing: Timing{
			StepperCycleUS: 5,
			UIRefreshHz:    100,
			RPMCalcHz:      2,
			StatusPeriodUS: 1000,
			TelemetryEvery: 50,
		},
		Gearbox: Gearbox{
			Address: 0x55,
			SDAPin:  4,
			SCLPin:  5,
			BaudHz:  100000,
			GearA:   core.NewRatio(1, 1),
			GearB:   core.NewRatio(1, 2),
			GearC:   core.NewRatio(1, 4),
			Feed:    core.NewRatio(1, 1),
			Thread:  core.NewRatio(1, 1),
		},
	}
}

// Validate checks every value against its supported range.
func (m *Machine) Validate() error {
	t := m.Timing
	if t.StepperCycleUS < 5 || t.StepperCycleUS > 100 {
		return errors.New("stepper_cycle_us must be between 5 and 100")
	}
	if t.UIRefreshHz < 3 || t.UIRefreshHz > 100 {
		return errors.New("ui_refresh_hz must be between 3 and 100")
	}
	if t.RPMCalcHz < 1 || t.RPMCalcHz > 10 {
		return errors.New("rpm_calc_hz must be between 1 and 10")
	}
	if t.StatusPeriodUS < t.StepperCycleUS {
		return errors.New("status_period_us must not be shorter than stepper_cycle_us")
	}
	if t.TelemetryEvery < 0 {
		return errors.New("telemetry_every must not be negative")
	}

	s := m.Stepper
	if s.Microsteps < 1 || s.Microsteps > 256 {
		return errors.New("stepper microsteps must be between 1 and 256")
	}
	if s.Resolution < 1 || s.Resolution > 2000 {
		return errors.New("stepper resolution must be between 1 and 2000")
	}
	if s.FeedMicrosteps < 0 || s.FeedMicrosteps > 256 {
		return errors.New("stepper feed_microsteps must be between 1 and 256")
	}
	if s.FeedResolution < 0 || s.FeedResolution > 2000 {
		return errors.New("stepper feed_resolution must be between 1 and 2000")
	}
	if s.MaxBufferedSteps <= 0 {
		return errors.New("max_buffered_steps must be positive")
	}

	if m.Encoder.Resolution < 100 || m.Encoder.Resolution > 10000 {
		return errors.New("encoder resolution must be between 100 and 10000")
	}

	l := m.Leadscrew
	switch {
	case l.TPI != 0 && l.HMM != 0:
		return errors.New("leadscrew tpi and hmm may not both be set")
	case l.TPI == 0 && l.HMM == 0:
		return errors.New("leadscrew needs either tpi or hmm")
	case l.TPI != 0 && (l.TPI < 4 || l.TPI > 40):
		return errors.New("leadscrew tpi must be between 4 and 40")
	case l.HMM != 0 && (l.HMM < 50 || l.HMM > 700):
		return errors.New("leadscrew hmm must be between 50 and 700")
	}

	if m.Gearbox.Enabled {
		g := m.Gearbox
		if g.Address == 0 || g.Address > 0x7f {
			return errors.New("gearbox address must be a 7-bit I2C address")
		}
		if g.BaudHz == 0 {
			return errors.New("gearbox baud_hz must be positive")
		}
		for _, r := range []core.Ratio{g.GearA, g.GearB, g.GearC, g.Feed, g.Thread} {
			if r.Den <= 0 || r.Num <= 0 {
				return errors.New("gearbox ratios must be positive")
			}
		}
	}
	return nil
}

func (m *Machine) stepsPerRev(feed bool) int64 {
	s := m.Stepper
	micro, res := s.Microsteps, s.Resolution
	if feed {
		if s.FeedMicrosteps != 0 {
			micro = s.FeedMicrosteps
		}
		if s.FeedResolution != 0 {
			res = s.FeedResolution
		}
	}
	return int64(micro) * int64(res)
}

// ThreadTPI is the steps-per-count ratio that cuts tpi threads per inch.
func (m *Machine) ThreadTPI(tpi int) core.Ratio {
	steps := m.stepsPerRev(false)
	enc := int64(m.Encoder.Resolution)
	if m.Leadscrew.TPI != 0 {
		return core.NewRatio(int64(m.Leadscrew.TPI)*steps, int64(tpi)*enc)
	}
	// 1 inch is 2540 hundredths of a millimetre
	return core.NewRatio(2540*steps, int64(tpi)*enc*int64(m.Leadscrew.HMM))
}

// ThreadHMM is the steps-per-count ratio that cuts a pitch of hmm
// hundredths of a millimetre.
func (m *Machine) ThreadHMM(hmm int) core.Ratio {
	return m.hmmRatio(hmm, false)
}

// FeedHMM is the steps-per-count ratio for a feed of hmm hundredths of a
// millimetre per spindle revolution.
func (m *Machine) FeedHMM(hmm int) core.Ratio {
	return m.hmmRatio(hmm, true)
}

// FeedThou is the steps-per-count ratio for a feed of thou thousandths of
// an inch per spindle revolution.
func (m *Machine) FeedThou(thou int) core.Ratio {
	steps := m.stepsPerRev(true)
	enc := int64(m.Encoder.Resolution)
	if m.Leadscrew.TPI != 0 {
		return core.NewRatio(int64(thou)*int64(m.Leadscrew.TPI)*steps, 1000*enc)
	}
	// thou/1000 inch = thou*254/100 hundredths of a millimetre
	return core.NewRatio(int64(thou)*254*steps, 100*enc*int64(m.Leadscrew.HMM))
}

func (m *Machine) hmmRatio(hmm int, feed bool) core.Ratio {
	steps := m.stepsPerRev(feed)
	enc := int64(m.Encoder.Resolution)
	if m.Leadscrew.TPI != 0 {
		return core.NewRatio(int64(hmm)*int64(m.Leadscrew.TPI)*steps, 2540*enc)
	}
	return core.NewRatio(int64(hmm)*steps, enc*int64(m.Leadscrew.HMM))
}

// GearRatio returns the configured ratio for gear 'A', 'B' or 'C' and the
// null ratio for anything else.
func (g *Gearbox) GearRatio(gear byte) core.Ratio {
	switch gear {
	case 'A':
		return g.GearA
	case 'B':
		return g.GearB
	case 'C':
		return g.GearC
	}
	return core.Ratio{}
}

// EncoderConfig converts the encoder section for core.NewEncoder.
func (m *Machine) EncoderConfig() core.EncoderConfig {
	return core.EncoderConfig{
		Resolution: uint32(m.Encoder.Resolution),
		MaxCount:   core.DefaultEncoderMaxCount,
		Reverse:    m.Encoder.Reverse,
		RefreshHz:  uint32(m.Timing.RPMCalcHz),
	}
}

// StepperPins converts the stepper section for core.NewGPIOStepperBackend.
func (m *Machine) StepperPins() core.StepperPins {
	s := m.Stepper
	return core.StepperPins{
		Step:         core.GPIOPin(s.StepPin),
		Dir:          core.GPIOPin(s.DirPin),
		Enable:       core.GPIOPin(s.EnablePin),
		Alarm:        core.GPIOPin(s.AlarmPin),
		InvertStep:   s.InvertStep,
		InvertDir:    s.InvertDir,
		InvertEnable: s.InvertEnable,
		InvertAlarm:  s.InvertAlarm,
		UseEnable:    true,
		UseAlarm:     s.UseAlarm,
	}
}
