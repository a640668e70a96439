package supervisor

import (
	"bytes"
	"errors"
	"testing"

	"goels/core"
	"goels/gearbox"
	"goels/protocol"
)

type fakeController struct {
	feeds    []core.Ratio
	reverses []bool
	ratios   []core.Ratio
	serviced int
	status   core.Status
	drops    uint32
}

func (c *fakeController) SetFeed(r core.Ratio)       { c.feeds = append(c.feeds, r) }
func (c *fakeController) SetReverse(r bool)          { c.reverses = append(c.reverses, r) }
func (c *fakeController) SetPowerOn(on bool)         { c.status.PowerOn = on }
func (c *fakeController) SetDriveRatio(r core.Ratio) { c.ratios = append(c.ratios, r) }
func (c *fakeController) RPM() uint16                { return c.status.RPM }
func (c *fakeController) IsAlarm() bool              { return c.status.Alarm }
func (c *fakeController) IsPowerOn() bool            { return c.status.PowerOn }
func (c *fakeController) IsOverrun() bool            { return c.status.Overrun }
func (c *fakeController) Service()                   { c.serviced++ }
func (c *fakeController) CommandDrops() uint32       { return c.drops }

type fakeGearbox struct {
	state gearbox.State
	err   error
}

func (g *fakeGearbox) Read() (gearbox.State, error) {
	return g.state, g.err
}

var (
	feedRatio   = core.NewRatio(1, 48)
	threadRatio = core.NewRatio(25, 96)
)

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("Expected error for nil controller")
	}
	if _, err := New(&fakeController{}, Config{TelemetryEvery: -1}); err == nil {
		t.Error("Expected error for negative telemetry interval")
	}
}

func TestTickServicesController(t *testing.T) {
	ctrl := &fakeController{}
	s, _ := New(ctrl, Config{})
	for i := 0; i < 3; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}
	if ctrl.serviced != 3 {
		t.Errorf("Expected 3 service calls, got %d", ctrl.serviced)
	}
	if s.Ticks() != 3 {
		t.Errorf("Expected 3 ticks, got %d", s.Ticks())
	}
}

func TestGearboxAppliedOnFirstTick(t *testing.T) {
	ctrl := &fakeController{}
	s, _ := New(ctrl, Config{})
	s.SetFeeds(feedRatio, threadRatio)

	gb := &fakeGearbox{state: gearbox.State{Gear: 'B', Thread: true, Reverse: true, DriveRatio: core.NewRatio(1, 2)}}
	s.SetGearbox(gb)
	s.Tick()

	if n := len(ctrl.feeds); n != 2 || ctrl.feeds[1] != threadRatio {
		t.Errorf("Expected thread feed after first read, got %v", ctrl.feeds)
	}
	if len(ctrl.reverses) != 1 || !ctrl.reverses[0] {
		t.Errorf("Expected reverse applied, got %v", ctrl.reverses)
	}
	if len(ctrl.ratios) != 1 || ctrl.ratios[0] != core.NewRatio(1, 2) {
		t.Errorf("Expected drive ratio 1/2, got %v", ctrl.ratios)
	}

	// unchanged state sends nothing
	s.Tick()
	if len(ctrl.feeds) != 2 || len(ctrl.reverses) != 1 || len(ctrl.ratios) != 1 {
		t.Errorf("Expected no commands for unchanged gearbox, got %d/%d/%d",
			len(ctrl.feeds), len(ctrl.reverses), len(ctrl.ratios))
	}
}

func TestGearboxChanges(t *testing.T) {
	ctrl := &fakeController{}
	s, _ := New(ctrl, Config{})
	s.SetFeeds(feedRatio, threadRatio)
	gb := &fakeGearbox{state: gearbox.State{Gear: 'A', DriveRatio: core.One()}}
	s.SetGearbox(gb)
	s.Tick()
	ctrl.feeds, ctrl.reverses, ctrl.ratios = nil, nil, nil

	gb.state.Gear = 'C'
	gb.state.DriveRatio = core.NewRatio(1, 4)
	s.Tick()
	if len(ctrl.ratios) != 1 || ctrl.ratios[0] != core.NewRatio(1, 4) {
		t.Errorf("Expected drive ratio 1/4, got %v", ctrl.ratios)
	}
	if len(ctrl.feeds) != 0 || len(ctrl.reverses) != 0 {
		t.Errorf("Expected only a drive ratio change, got feeds %v reverses %v", ctrl.feeds, ctrl.reverses)
	}

	gb.state.Thread = true
	s.Tick()
	if len(ctrl.feeds) != 1 || ctrl.feeds[0] != threadRatio {
		t.Errorf("Expected thread feed, got %v", ctrl.feeds)
	}
}

func TestGearboxErrorKeepsRunning(t *testing.T) {
	ctrl := &fakeController{}
	s, _ := New(ctrl, Config{})
	s.SetGearbox(&fakeGearbox{err: gearbox.ErrChecksum})

	err := s.Tick()
	if !errors.Is(err, gearbox.ErrChecksum) {
		t.Errorf("Expected checksum error, got %v", err)
	}
	if s.GearErrs != 1 {
		t.Errorf("Expected 1 gearbox error, got %d", s.GearErrs)
	}
	if ctrl.serviced != 1 {
		t.Error("Expected controller serviced despite gearbox error")
	}
	if len(ctrl.ratios) != 0 {
		t.Errorf("Expected no drive ratio on failed read, got %v", ctrl.ratios)
	}
}

func TestOverrunRisingEdge(t *testing.T) {
	ctrl := &fakeController{}
	calls := 0
	s, _ := New(ctrl, Config{OnOverrun: func() { calls++ }})

	s.Tick()
	ctrl.status.Overrun = true
	s.Tick()
	s.Tick()
	if calls != 1 {
		t.Errorf("Expected one overrun callback, got %d", calls)
	}

	ctrl.status.Overrun = false
	s.Tick()
	ctrl.status.Overrun = true
	s.Tick()
	if calls != 2 || s.Panics != 2 {
		t.Errorf("Expected second callback after re-arm, got calls %d panics %d", calls, s.Panics)
	}
}

func TestTelemetryFrames(t *testing.T) {
	ctrl := &fakeController{status: core.Status{RPM: 600, PowerOn: true}, drops: 3}
	var buf bytes.Buffer
	s, _ := New(ctrl, Config{TelemetryEvery: 2, StatusDrops: func() uint32 { return 5 }})
	s.SetTelemetry(&buf)

	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if s.Frames != 2 {
		t.Fatalf("Expected 2 frames, got %d", s.Frames)
	}

	var reports []protocol.StatusReport
	dec := protocol.NewDecoder(func(r protocol.StatusReport) {
		reports = append(reports, r)
	})
	dec.Receive(protocol.NewSliceInputBuffer(buf.Bytes()))
	if len(reports) != 2 {
		t.Fatalf("Expected 2 decoded reports, got %d", len(reports))
	}
	r := reports[1]
	if r.RPM != 600 || !r.PowerOn || r.Overrun || r.CommandDrops != 3 || r.StatusDrops != 5 {
		t.Errorf("Unexpected report %+v", r)
	}
	if reports[0].Sequence+1 != r.Sequence {
		t.Errorf("Expected consecutive sequence numbers, got %d and %d", reports[0].Sequence, r.Sequence)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("unplugged") }

func TestTelemetryWriteError(t *testing.T) {
	s, _ := New(&fakeController{}, Config{TelemetryEvery: 1})
	s.SetTelemetry(failingWriter{})
	if err := s.Tick(); err == nil {
		t.Error("Expected telemetry write error")
	}
	if s.Frames != 0 {
		t.Errorf("Expected no frames counted, got %d", s.Frames)
	}
}
