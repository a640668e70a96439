// Package gearbox reads the state of the optional gearbox selector over I2C.
//
// The peripheral answers a 4 byte read: direction ('F' or 'R'), gear
// ('A', 'B' or 'C'), mode ('F' feed or 'T' thread) and a CRC-8 of the
// first three bytes.
package gearbox

import (
	"errors"

	"tinygo.org/x/drivers"

	"goels/config"
	"goels/core"
	"goels/protocol"
)

// FrameSize is the length of a gearbox reply
const FrameSize = 4

// ErrChecksum is returned when a reply fails its CRC. The previous state
// is kept.
var ErrChecksum = errors.New("gearbox checksum mismatch")

// State is the decoded selector position
type State struct {
	Reverse    bool
	Gear       byte // 'A', 'B' or 'C'
	Thread     bool // threading rather than feeding
	DriveRatio core.Ratio
}

// Gearbox polls the selector and keeps the last good state
type Gearbox struct {
	bus   drivers.I2C
	cfg   config.Gearbox
	state State
	rx    [FrameSize]byte

	Rejects uint32 // replies dropped on checksum
}

// New returns a gearbox on bus. The initial state is forward feeding in
// gear A.
func New(bus drivers.I2C, cfg config.Gearbox) (*Gearbox, error) {
	if bus == nil {
		return nil, errors.New("gearbox I2C bus is nil")
	}
	g := &Gearbox{bus: bus, cfg: cfg}
	g.state = State{Gear: 'A'}
	g.state.DriveRatio = g.driveRatio()
	return g, nil
}

// State returns the last good state
func (g *Gearbox) State() State {
	return g.state
}

// Read queries the peripheral. On a bus error or a bad checksum the
// previous state is returned with the error. Unrecognised field values
// leave that field unchanged.
func (g *Gearbox) Read() (State, error) {
	if err := g.bus.Tx(g.cfg.Address, nil, g.rx[:]); err != nil {
		return g.state, err
	}

	crc := protocol.CRC8(g.rx[:FrameSize-1])
	if crc != g.rx[FrameSize-1] {
		g.Rejects++
		core.RecordEvent(core.EvtGearboxReject, core.GetTime(), uint32(g.rx[FrameSize-1]), uint32(crc))
		return g.state, ErrChecksum
	}

	switch g.rx[0] {
	case 'F':
		g.state.Reverse = false
	case 'R':
		g.state.Reverse = true
	}
	switch g.rx[1] {
	case 'A', 'B', 'C':
		g.state.Gear = g.rx[1]
	}
	switch g.rx[2] {
	case 'F':
		g.state.Thread = false
	case 'T':
		g.state.Thread = true
	}
	g.state.DriveRatio = g.driveRatio()
	return g.state, nil
}

func (g *Gearbox) driveRatio() core.Ratio {
	mode := g.cfg.Feed
	if g.state.Thread {
		mode = g.cfg.Thread
	}
	return g.cfg.GearRatio(g.state.Gear).Mul(mode)
}
