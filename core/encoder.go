package core

import "errors"

// DefaultEncoderMaxCount is the wrap modulus of the 24-bit spindle counter.
const DefaultEncoderMaxCount = 0x01000000

// EncoderConfig is the static encoder setup.
type EncoderConfig struct {
	Resolution uint32 // counts per spindle revolution
	MaxCount   int32  // wrap modulus, power of two; 0 selects DefaultEncoderMaxCount
	Reverse    bool   // invert the counting sense
	RefreshHz  uint32 // RPM recompute rate
}

// Encoder turns a raw Counter into a PositionSource.
type Encoder struct {
	counter    Counter
	resolution uint32
	maxCount   int32
	reverse    bool
	refreshHz  uint32

	previous int32
	rpm      uint16

	// RefreshTimer recomputes RPM once per refresh period when scheduled.
	RefreshTimer Timer
}

// NewEncoder validates cfg and returns an encoder reading counter.
func NewEncoder(counter Counter, cfg EncoderConfig) (*Encoder, error) {
	if counter == nil {
		return nil, errors.New("encoder counter is nil")
	}
	if cfg.Resolution == 0 {
		return nil, errors.New("encoder resolution must be positive")
	}
	if cfg.RefreshHz == 0 {
		return nil, errors.New("encoder refresh rate must be positive")
	}
	if cfg.MaxCount == 0 {
		cfg.MaxCount = DefaultEncoderMaxCount
	}
	if cfg.MaxCount < 0 || cfg.MaxCount&(cfg.MaxCount-1) != 0 {
		return nil, errors.New("encoder max count must be a power of two")
	}
	e := &Encoder{
		counter:    counter,
		resolution: cfg.Resolution,
		maxCount:   cfg.MaxCount,
		reverse:    cfg.Reverse,
		refreshHz:  cfg.RefreshHz,
	}
	e.previous = e.Position()
	e.RefreshTimer.Handler = e.refreshEvent
	return e, nil
}

// Position returns the counter reduced to [0, MaxCount).
func (e *Encoder) Position() int32 {
	raw := e.counter.Count()
	if e.reverse {
		raw = -raw
	}
	return int32(raw & uint32(e.maxCount-1))
}

// MaxCount returns the wrap modulus.
func (e *Encoder) MaxCount() int32 {
	return e.maxCount
}

// RPM returns the speed computed by the last Refresh.
func (e *Encoder) RPM() uint16 {
	return e.rpm
}

// Refresh recomputes RPM from the count change since the previous call.
// Only the magnitude of the change is used.
func (e *Encoder) Refresh() {
	pos := e.Position()
	delta := pos - e.previous
	half := e.maxCount / 2
	if delta > half {
		delta -= e.maxCount
	} else if delta < -half {
		delta += e.maxCount
	}
	e.previous = pos
	if delta < 0 {
		delta = -delta
	}

	rpm := uint64(delta) * uint64(e.refreshHz) * 60 / uint64(e.resolution)
	if rpm > 0xffff {
		rpm = 0xffff
	}
	e.rpm = uint16(rpm)
}

// RefreshPeriod returns the RPM timer period in scheduler ticks.
func (e *Encoder) RefreshPeriod() uint32 {
	return TimerFreq / e.refreshHz
}

func (e *Encoder) refreshEvent(t *Timer) uint8 {
	e.Refresh()
	t.WakeTime += e.RefreshPeriod()
	return SF_RESCHEDULE
}
