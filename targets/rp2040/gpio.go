//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	"goels/core"
)

const (
	// numGPIO is the GPIO count of the RP2040 (GPIO0-GPIO29)
	numGPIO = 30

	// GPIOx_CTRL output override field
	gpioOutoverPos    = 8
	gpioOutoverInvert = 1
)

// RPGPIODriver implements core.GPIODriver over machine.Pin
type RPGPIODriver struct {
	configured [numGPIO]bool
}

// NewRPGPIODriver creates the driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= numGPIO {
		return errors.New("gpio " + core.Itoa(int(pin)) + " out of range")
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
	d.configured[pin] = true
	return nil
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

// ConfigureInputPullUp configures a pin as an input with pull-up
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

// SetPin drives a configured output. It runs on the motion core, so it
// never configures a pin itself.
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= numGPIO || !d.configured[pin] {
		return errors.New("gpio not configured")
	}
	machine.Pin(pin).Set(value)
	return nil
}

// ReadPin reads the pin level
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	if pin >= numGPIO {
		return false
	}
	return machine.Pin(pin).Get()
}

// invertOutput sets the pad output override to invert, so a peripheral
// driving pin sees active-low wiring as active-high. Call it after the
// pin function is selected, which rewrites the control register.
func invertOutput(pin machine.Pin) {
	ctrl := (*volatile.Register32)(unsafe.Pointer(uintptr(unsafe.Pointer(&rp.IO_BANK0.GPIO0_CTRL)) + uintptr(pin)*8))
	ctrl.ReplaceBits(gpioOutoverInvert, 0x3, gpioOutoverPos)
}
