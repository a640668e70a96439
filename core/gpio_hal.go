package core

// GPIOPin is a hardware pin number
type GPIOPin uint32

// GPIODriver is the pin bank the GPIO step backend drives: step, direction
// and enable outputs plus the drive's alarm input. The firmware backs it
// with machine.Pin; the simulator counts the edges it sees.
type GPIODriver interface {
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp claims an input that idles high, the usual
	// wiring for an open-collector alarm line
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin must be safe to call from the motion context: no allocation,
	// no configuration side effects
	SetPin(pin GPIOPin, value bool) error

	ReadPin(pin GPIOPin) bool
}
