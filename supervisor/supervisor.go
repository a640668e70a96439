// Package supervisor is the slow side of the leadscrew: it runs once per UI
// refresh tick against any core.Controller, applies gearbox changes,
// watches for a step overrun and emits status telemetry.
package supervisor

import (
	"errors"
	"io"

	"goels/core"
	"goels/gearbox"
	"goels/protocol"
)

// GearboxReader is the gearbox as the supervisor sees it
type GearboxReader interface {
	Read() (gearbox.State, error)
}

// Config tunes the supervisor
type Config struct {
	// TelemetryEvery is the number of ticks between status frames.
	// Zero disables telemetry.
	TelemetryEvery int

	// OnOverrun runs once on each rising edge of the overrun flag
	OnOverrun func()

	// StatusDrops reports the motion context status drop count for
	// telemetry. Optional.
	StatusDrops func() uint32
}

// servicer is implemented by controllers that need a per-tick service
// call (multicore.Proxy)
type servicer interface {
	Service()
}

type dropCounter interface {
	CommandDrops() uint32
}

// Supervisor drives a controller from the supervisory context
type Supervisor struct {
	ctrl    core.Controller
	cfg     Config
	gearbox GearboxReader
	out     io.Writer

	feed   core.Ratio
	thread core.Ratio

	gear       gearbox.State
	haveGear   bool
	wasOverrun bool

	ticks   uint32
	frames  protocol.FrameWriter
	scratch protocol.ScratchOutput

	Panics   uint32 // overrun rising edges seen
	Frames   uint32 // telemetry frames written
	GearErrs uint32 // failed gearbox reads
}

// New returns a supervisor for ctrl
func New(ctrl core.Controller, cfg Config) (*Supervisor, error) {
	if ctrl == nil {
		return nil, errors.New("supervisor controller is nil")
	}
	if cfg.TelemetryEvery < 0 {
		return nil, errors.New("supervisor telemetry interval must not be negative")
	}
	return &Supervisor{ctrl: ctrl, cfg: cfg}, nil
}

// SetGearbox attaches a gearbox. Its state is applied on the next tick.
func (s *Supervisor) SetGearbox(g GearboxReader) {
	s.gearbox = g
	s.haveGear = false
}

// SetTelemetry sets the writer that receives status frames
func (s *Supervisor) SetTelemetry(w io.Writer) {
	s.out = w
}

// SetFeeds sets the feed ratios used in feed and thread mode and sends the
// one matching the current gearbox mode
func (s *Supervisor) SetFeeds(feed, thread core.Ratio) {
	s.feed, s.thread = feed, thread
	s.ctrl.SetFeed(s.selectedFeed())
}

// Ticks returns the number of ticks run
func (s *Supervisor) Ticks() uint32 {
	return s.ticks
}

// Tick runs one supervisory pass. The returned error is informational: a
// failed gearbox read or telemetry write never stops the loop.
func (s *Supervisor) Tick() error {
	s.ticks++

	if sv, ok := s.ctrl.(servicer); ok {
		sv.Service()
	}

	var err error
	if s.gearbox != nil {
		err = s.pollGearbox()
	}

	overrun := s.ctrl.IsOverrun()
	if overrun && !s.wasOverrun {
		s.Panics++
		core.DebugPrintln("[SUPERVISOR] step backlog overrun, drive disabled")
		if s.cfg.OnOverrun != nil {
			s.cfg.OnOverrun()
		}
	}
	s.wasOverrun = overrun

	if s.out != nil && s.cfg.TelemetryEvery > 0 && s.ticks%uint32(s.cfg.TelemetryEvery) == 0 {
		if werr := s.writeStatus(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func (s *Supervisor) pollGearbox() error {
	st, err := s.gearbox.Read()
	if err != nil {
		s.GearErrs++
		core.DebugPrintln("[GEARBOX] read failed: " + err.Error())
		return err
	}

	last := s.gear
	first := !s.haveGear
	s.gear, s.haveGear = st, true

	if first || st.Thread != last.Thread {
		s.ctrl.SetFeed(s.selectedFeed())
	}
	if first || st.Reverse != last.Reverse {
		s.ctrl.SetReverse(st.Reverse)
	}
	if first || st.DriveRatio != last.DriveRatio {
		s.ctrl.SetDriveRatio(st.DriveRatio)
		if !first && st.Gear != last.Gear {
			core.DebugPrintln("[GEARBOX] gear " + string(st.Gear))
		}
	}
	return nil
}

func (s *Supervisor) selectedFeed() core.Ratio {
	if s.haveGear && s.gear.Thread {
		return s.thread
	}
	return s.feed
}

func (s *Supervisor) writeStatus() error {
	r := protocol.StatusReport{
		RPM:     s.ctrl.RPM(),
		Alarm:   s.ctrl.IsAlarm(),
		PowerOn: s.ctrl.IsPowerOn(),
		Overrun: s.ctrl.IsOverrun(),
	}
	if dc, ok := s.ctrl.(dropCounter); ok {
		r.CommandDrops = dc.CommandDrops()
	}
	if s.cfg.StatusDrops != nil {
		r.StatusDrops = s.cfg.StatusDrops()
	}

	s.scratch.Reset()
	if err := s.frames.EncodeStatus(&s.scratch, r); err != nil {
		return err
	}
	if _, err := s.out.Write(s.scratch.Result()); err != nil {
		return err
	}
	s.Frames++
	return nil
}
