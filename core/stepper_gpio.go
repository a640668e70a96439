package core

import "errors"

// StepperPins is the line assignment and polarity of a step/dir drive
type StepperPins struct {
	Step   GPIOPin
	Dir    GPIOPin
	Enable GPIOPin
	Alarm  GPIOPin

	InvertStep   bool
	InvertDir    bool
	InvertEnable bool
	InvertAlarm  bool
	UseEnable    bool
	UseAlarm     bool
}

// GPIOStepperBackend drives the step and direction lines through a
// GPIODriver, one edge per call.
type GPIOStepperBackend struct {
	gpio GPIODriver
	pins StepperPins
}

// NewGPIOStepperBackend creates a backend on gpio with the given pins
func NewGPIOStepperBackend(gpio GPIODriver, pins StepperPins) *GPIOStepperBackend {
	return &GPIOStepperBackend{gpio: gpio, pins: pins}
}

// Init configures the drive lines. Outputs start inactive.
func (b *GPIOStepperBackend) Init() error {
	if b.gpio == nil {
		return errors.New("stepper GPIO driver is nil")
	}
	if err := b.gpio.ConfigureOutput(b.pins.Step); err != nil {
		return err
	}
	if err := b.gpio.ConfigureOutput(b.pins.Dir); err != nil {
		return err
	}
	b.SetStep(false)
	b.SetDirection(false)

	if b.pins.UseEnable {
		if err := b.gpio.ConfigureOutput(b.pins.Enable); err != nil {
			return err
		}
		b.SetEnable(false)
	}
	if b.pins.UseAlarm {
		// Alarm outputs are usually open collector
		if err := b.gpio.ConfigureInputPullUp(b.pins.Alarm); err != nil {
			return err
		}
	}
	return nil
}

// SetStep drives the step line
func (b *GPIOStepperBackend) SetStep(high bool) {
	b.gpio.SetPin(b.pins.Step, high != b.pins.InvertStep)
}

// SetDirection drives the direction line
func (b *GPIOStepperBackend) SetDirection(dir bool) {
	b.gpio.SetPin(b.pins.Dir, dir != b.pins.InvertDir)
}

// SetEnable drives the enable line if one is wired
func (b *GPIOStepperBackend) SetEnable(on bool) {
	if !b.pins.UseEnable {
		return
	}
	b.gpio.SetPin(b.pins.Enable, on != b.pins.InvertEnable)
}

// Alarm reads the alarm input if one is wired
func (b *GPIOStepperBackend) Alarm() bool {
	if !b.pins.UseAlarm {
		return false
	}
	return b.gpio.ReadPin(b.pins.Alarm) != b.pins.InvertAlarm
}

// GetName returns the backend name
func (b *GPIOStepperBackend) GetName() string {
	return "GPIO"
}

// GetInfo returns backend performance information
func (b *GPIOStepperBackend) GetInfo() StepperBackendInfo {
	return StepperBackendInfo{
		Name:        b.GetName(),
		MaxStepRate: 100000, // one edge per 5us tick
		MinPulseNs:  5000,
	}
}
