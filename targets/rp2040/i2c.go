//go:build rp2040

package main

import (
	"machine"

	"goels/config"
)

// InitGearboxBus configures I2C0 on the gearbox pins. machine.I2C satisfies
// drivers.I2C, so the result goes straight to gearbox.New.
func InitGearboxBus(cfg config.Gearbox) (*machine.I2C, error) {
	bus := machine.I2C0
	err := bus.Configure(machine.I2CConfig{
		Frequency: cfg.BaudHz,
		SDA:       machine.Pin(cfg.SDAPin),
		SCL:       machine.Pin(cfg.SCLPin),
	})
	if err != nil {
		return nil, err
	}
	return bus, nil
}
