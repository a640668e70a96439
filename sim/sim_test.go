package sim

import (
	"bytes"
	"testing"

	"goels/config"
	"goels/core"
	"goels/protocol"
)

func TestSpindleCarriesFractions(t *testing.T) {
	s := NewSpindle(6144, false)
	s.SetRPM(1)
	s.AdvanceTo(1000000)
	if got := s.Total(); got != 102 {
		t.Errorf("Expected 102 counts after 1s at 1 rpm, got %d", got)
	}
	s.AdvanceTo(2000000)
	if got := s.Total(); got != 204 {
		t.Errorf("Expected 204 counts after 2s, got %d", got)
	}
}

func TestSpindleReversedMount(t *testing.T) {
	s := NewSpindle(1000, true)
	s.SetRPM(60)
	s.AdvanceTo(1000000)
	if s.Total() != 1000 {
		t.Fatalf("Expected 1000 counts, got %d", s.Total())
	}
	if s.Count() != uint32(0xFFFFFFFF-999) {
		t.Errorf("Expected raw counter to run backwards, got %#x", s.Count())
	}
	s.SetRPM(-60)
	s.AdvanceTo(1500000)
	if s.Total() != 500 {
		t.Errorf("Expected 500 counts after reversing, got %d", s.Total())
	}
}

func TestPinsCountEdges(t *testing.T) {
	pins := core.StepperPins{Step: 1, Dir: 2, InvertDir: true}
	p := NewPins(pins)
	if err := p.SetPin(1, true); err == nil {
		t.Error("Expected error for unconfigured pin")
	}
	p.ConfigureOutput(1)
	p.ConfigureOutput(2)
	if err := p.ConfigureOutput(1); err == nil {
		t.Error("Expected error configuring a pin twice")
	}

	// inverted direction: low line means positive
	p.SetPin(2, false)
	p.SetPin(1, true)
	p.SetPin(1, false)
	p.SetPin(1, true)
	p.SetPin(1, true)
	if p.Steps() != 2 || p.Pulses() != 2 {
		t.Errorf("Expected 2 forward steps, got %d steps %d pulses", p.Steps(), p.Pulses())
	}

	p.SetPin(1, false)
	p.SetPin(2, true)
	p.SetPin(1, true)
	if p.Steps() != 1 {
		t.Errorf("Expected net 1 step after reversing, got %d", p.Steps())
	}
	if p.Reversals() != 1 {
		t.Errorf("Expected 1 reversal, got %d", p.Reversals())
	}
}

func newRig(t *testing.T, mutate func(*config.Machine)) *Rig {
	t.Helper()
	m := config.Default()
	if mutate != nil {
		mutate(&m)
	}
	r, err := NewRig(m)
	if err != nil {
		t.Fatalf("NewRig failed: %v", err)
	}
	return r
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRigThreadsAtSpeed(t *testing.T) {
	r := newRig(t, nil)
	feed := r.Machine.ThreadTPI(8)
	r.Supervisor.SetFeeds(feed, feed)
	if err := r.Run(r.TickUS()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if r.Engine.Multiplier() != feed {
		t.Fatalf("Expected feed %s to reach the engine, got %s", feed, r.Engine.Multiplier())
	}

	base := r.Mark()
	r.Spindle.SetRPM(600)
	if err := r.Run(1000000); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rep := r.Report(base)
	if rep.Revolutions != 10 {
		t.Errorf("Expected 10 revolutions, got %v", rep.Revolutions)
	}
	if rep.Expected != 16000 {
		t.Errorf("Expected 16000 steps for 10 turns at 8 tpi, got %d", rep.Expected)
	}
	if abs(rep.Lag) > 2 {
		t.Errorf("Expected the leadscrew to keep up, lag %d (emitted %d)", rep.Lag, rep.Emitted)
	}
	if rep.Overrun {
		t.Error("Unexpected overrun")
	}
	if rep.RPM != 600 {
		t.Errorf("Expected status rpm 600, got %d", rep.RPM)
	}
	if rep.StatusDrops != 0 {
		t.Errorf("Expected every status push drained, got %d drops", rep.StatusDrops)
	}
	if r.Proxy.RPM() != 600 {
		t.Errorf("Expected supervisory side to see rpm 600, got %d", r.Proxy.RPM())
	}
}

func TestRigFollowsSpindleReversal(t *testing.T) {
	r := newRig(t, nil)
	feed := r.Machine.FeedThou(10)
	r.Supervisor.SetFeeds(feed, feed)
	r.Run(r.TickUS())
	base := r.Mark()

	r.Spindle.SetRPM(300)
	r.Run(500000)
	r.Spindle.SetRPM(-300)
	r.Run(200000)

	rep := r.Report(base)
	if rep.Expected <= 0 {
		t.Fatalf("Expected net forward travel, got %d", rep.Expected)
	}
	if abs(rep.Lag) > 2 {
		t.Errorf("Expected lag within 2 steps, got %d", rep.Lag)
	}
	if r.Pins.Reversals() == 0 {
		t.Error("Expected the direction line to change")
	}
}

func TestRigReverseCommand(t *testing.T) {
	r := newRig(t, nil)
	feed := r.Machine.ThreadTPI(8)
	r.Supervisor.SetFeeds(feed, feed)
	r.Proxy.SetReverse(true)
	r.Run(r.TickUS())
	base := r.Mark()

	r.Spindle.SetRPM(120)
	r.Run(500000)
	rep := r.Report(base)
	if rep.Expected >= 0 || rep.Emitted >= 0 {
		t.Errorf("Expected reverse travel, got expected %d emitted %d", rep.Expected, rep.Emitted)
	}
}

func TestRigOverrunDisablesDrive(t *testing.T) {
	r := newRig(t, func(m *config.Machine) {
		m.Stepper.MaxBufferedSteps = 20
	})
	r.Supervisor.SetFeeds(core.NewRatio(4, 1), core.NewRatio(4, 1))
	r.Run(r.TickUS())

	r.Spindle.SetRPM(600)
	r.Run(50000)
	if !r.Guard.Tripped() {
		t.Fatal("Expected the backlog guard to trip")
	}
	if r.Drive.Enabled() {
		t.Error("Expected the drive disabled after overrun")
	}
	if !r.Proxy.IsOverrun() {
		t.Error("Expected overrun in the supervisory status")
	}
	if r.Supervisor.Panics != 1 {
		t.Errorf("Expected one overrun panic, got %d", r.Supervisor.Panics)
	}

	// power cycle clears the latch
	r.Spindle.SetRPM(0)
	r.Proxy.SetPowerOn(false)
	r.Proxy.SetPowerOn(true)
	r.Run(5 * r.TickUS())
	if r.Guard.Tripped() || !r.Drive.Enabled() {
		t.Error("Expected power cycle to clear the overrun")
	}
}

func TestRigTelemetry(t *testing.T) {
	r := newRig(t, func(m *config.Machine) {
		m.Timing.TelemetryEvery = 10
	})
	var buf bytes.Buffer
	r.SetTelemetry(&buf)
	feed := r.Machine.ThreadTPI(8)
	r.Supervisor.SetFeeds(feed, feed)
	r.Spindle.SetRPM(600)
	r.Run(1000000)

	var last protocol.StatusReport
	n := 0
	dec := protocol.NewDecoder(func(rep protocol.StatusReport) {
		last = rep
		n++
	})
	dec.Receive(protocol.NewSliceInputBuffer(buf.Bytes()))
	if n != 10 {
		t.Fatalf("Expected 10 frames, got %d", n)
	}
	if last.RPM == 0 || !last.PowerOn {
		t.Errorf("Unexpected last report %+v", last)
	}
	if dec.Gaps != 0 || dec.BadFrames != 0 {
		t.Errorf("Expected a clean stream, got gaps %d bad %d", dec.Gaps, dec.BadFrames)
	}
}

func TestNewRigRejectsBadConfig(t *testing.T) {
	m := config.Default()
	m.Timing.StepperCycleUS = 1
	if _, err := NewRig(m); err == nil {
		t.Error("Expected error for invalid machine")
	}
}
