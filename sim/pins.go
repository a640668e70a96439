package sim

import (
	"errors"

	"goels/core"
)

// Pins is an in-memory GPIO bank that counts the pulses a stepper driver
// would see on its step and direction lines. It implements
// core.GPIODriver.
type Pins struct {
	step, dir             core.GPIOPin
	invertStep, invertDir bool

	level      map[core.GPIOPin]bool
	configured map[core.GPIOPin]bool

	steps    int64
	pulses   uint64
	reversal uint64
}

// NewPins watches the step and direction lines of pins
func NewPins(pins core.StepperPins) *Pins {
	return &Pins{
		step:       pins.Step,
		dir:        pins.Dir,
		invertStep: pins.InvertStep,
		invertDir:  pins.InvertDir,
		level:      make(map[core.GPIOPin]bool),
		configured: make(map[core.GPIOPin]bool),
	}
}

func (p *Pins) configure(pin core.GPIOPin) error {
	if p.configured[pin] {
		return errors.New("pin " + core.Itoa(int(pin)) + " already configured")
	}
	p.configured[pin] = true
	return nil
}

// ConfigureOutput claims pin as an output
func (p *Pins) ConfigureOutput(pin core.GPIOPin) error {
	return p.configure(pin)
}

// ConfigureInputPullUp claims pin as an input idling high
func (p *Pins) ConfigureInputPullUp(pin core.GPIOPin) error {
	if err := p.configure(pin); err != nil {
		return err
	}
	p.level[pin] = true
	return nil
}

// SetPin drives an output. A rising edge on the step line counts one step
// in the direction currently on the direction line.
func (p *Pins) SetPin(pin core.GPIOPin, value bool) error {
	if !p.configured[pin] {
		return errors.New("pin " + core.Itoa(int(pin)) + " not configured")
	}
	if pin == p.step {
		was := p.level[pin] != p.invertStep
		now := value != p.invertStep
		if now && !was {
			p.pulses++
			if p.level[p.dir] != p.invertDir {
				p.steps++
			} else {
				p.steps--
			}
		}
	}
	if pin == p.dir && p.level[pin] != value {
		p.reversal++
	}
	p.level[pin] = value
	return nil
}

// ReadPin returns the line level
func (p *Pins) ReadPin(pin core.GPIOPin) bool {
	return p.level[pin]
}

// Drive forces an input level, e.g. to raise the drive alarm
func (p *Pins) Drive(pin core.GPIOPin, level bool) {
	p.level[pin] = level
}

// Steps returns the net signed step count
func (p *Pins) Steps() int64 {
	return p.steps
}

// Pulses returns the number of step pulses in either direction
func (p *Pins) Pulses() uint64 {
	return p.pulses
}

// Reversals returns the number of direction line changes
func (p *Pins) Reversals() uint64 {
	return p.reversal
}
