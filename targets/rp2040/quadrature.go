//go:build rp2040

package main

import (
	"machine"

	"goels/core"
)

// Quadrature decodes the spindle encoder from pin-change interrupts on
// the A and B lines. The interrupts are taken on the core that calls
// Init; the count is read by the motion core.
type Quadrature struct {
	a, b    machine.Pin
	decoder *core.QuadratureDecoder
}

// NewQuadrature creates a decoder on pins a and b
func NewQuadrature(a, b machine.Pin) *Quadrature {
	return &Quadrature{a: a, b: b}
}

// Init configures the pins and enables their interrupts
func (q *Quadrature) Init() error {
	q.a.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	q.b.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	q.decoder = core.NewQuadratureDecoder(q.a.Get(), q.b.Get())

	if err := q.a.SetInterrupt(machine.PinRising|machine.PinFalling, q.edge); err != nil {
		return err
	}
	return q.b.SetInterrupt(machine.PinRising|machine.PinFalling, q.edge)
}

func (q *Quadrature) edge(machine.Pin) {
	q.decoder.Update(q.a.Get(), q.b.Get())
}

// Count implements core.Counter
func (q *Quadrature) Count() uint32 {
	return q.decoder.Count()
}

// Faults returns the number of missed edges
func (q *Quadrature) Faults() uint32 {
	return q.decoder.Faults()
}
