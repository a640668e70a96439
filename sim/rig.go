package sim

import (
	"errors"
	"io"
	"sync"

	"goels/config"
	"goels/core"
	"goels/multicore"
	"goels/supervisor"
)

// Rig is a complete leadscrew running on a virtual clock. The motion
// context and the supervisory context each run on their own goroutine and
// meet once per UI tick.
type Rig struct {
	Machine config.Machine

	Spindle *Spindle
	Pins    *Pins

	Encoder    *core.Encoder
	Drive      *core.StepperDrive
	Guard      *core.BacklogGuard
	Engine     *core.Engine
	Channel    *multicore.Channel
	Motion     *multicore.Motion
	Proxy      *multicore.Proxy
	Supervisor *supervisor.Supervisor

	sched   core.Scheduler
	now     uint32
	tickUS  uint32
	started bool

	// motion hands each status push to the supervisory goroutine and
	// waits for the drain, standing in for the inter-core interrupt
	statusReq chan struct{}
	statusAck chan struct{}
}

// NewRig builds a rig for m
func NewRig(m config.Machine) (*Rig, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	r := &Rig{
		Machine:   m,
		statusReq: make(chan struct{}),
		statusAck: make(chan struct{}),
	}

	r.Spindle = NewSpindle(uint32(m.Encoder.Resolution), m.Encoder.Reverse)
	enc, err := core.NewEncoder(r.Spindle, m.EncoderConfig())
	if err != nil {
		return nil, err
	}
	r.Encoder = enc

	pins := m.StepperPins()
	r.Pins = NewPins(pins)
	backend := core.NewGPIOStepperBackend(r.Pins, pins)
	if err := backend.Init(); err != nil {
		return nil, err
	}
	if r.Drive, err = core.NewStepperDrive(backend); err != nil {
		return nil, err
	}
	r.Guard = core.NewBacklogGuard(r.Drive, m.Stepper.MaxBufferedSteps)
	if r.Engine, err = core.NewEngine(r.Encoder, r.Drive, r.Guard); err != nil {
		return nil, err
	}

	r.Channel = multicore.NewChannel()
	r.Motion, err = multicore.NewMotion(r.Engine, r.Channel, multicore.MotionConfig{
		CyclePeriodUS:  uint32(m.Timing.StepperCycleUS),
		StatusPeriodUS: uint32(m.Timing.StatusPeriodUS),
		Encoder:        r.Encoder,
	})
	if err != nil {
		return nil, err
	}
	r.Proxy = multicore.NewProxy(r.Channel)
	r.Supervisor, err = supervisor.New(r.Proxy, supervisor.Config{
		TelemetryEvery: m.Timing.TelemetryEvery,
		StatusDrops:    r.Motion.StatusDrops,
	})
	if err != nil {
		return nil, err
	}

	r.tickUS = uint32(1000000 / m.Timing.UIRefreshHz)
	return r, nil
}

// SetTelemetry sends status frames to w
func (r *Rig) SetTelemetry(w io.Writer) {
	r.Supervisor.SetTelemetry(w)
}

// Now returns the virtual time in microseconds
func (r *Rig) Now() uint32 {
	return r.now
}

// TickUS returns the UI tick period
func (r *Rig) TickUS() uint32 {
	return r.tickUS
}

// Run advances the rig by at least us microseconds, in whole UI ticks.
// Callers may change the spindle speed or send commands between calls.
func (r *Rig) Run(us uint32) error {
	if r.tickUS == 0 {
		return errors.New("rig not initialised")
	}
	if !r.started {
		r.Motion.Start(&r.sched, r.now)
		r.started = true
	}

	var supErr error
	for elapsed := uint32(0); elapsed < us; elapsed += r.tickUS {
		end := r.now + r.tickUS

		var wg sync.WaitGroup
		motionDone := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer close(motionDone)
			r.runMotion(end)
		}()
		go func() {
			defer wg.Done()
			if err := r.Supervisor.Tick(); err != nil && supErr == nil {
				supErr = err
			}
			r.serviceStatus(motionDone)
		}()
		wg.Wait()

		r.now = end
	}
	return supErr
}

// serviceStatus drains status whenever the status doorbell rings, the way
// the inter-core interrupt does on the firmware, until motion is done
func (r *Rig) serviceStatus(motionDone <-chan struct{}) {
	for {
		select {
		case <-r.statusReq:
			r.Proxy.CheckStatus()
			r.statusAck <- struct{}{}
		case <-r.Channel.StatusBell.C():
			r.Proxy.CheckStatus()
		case <-motionDone:
			r.Proxy.CheckStatus()
			return
		}
	}
}

// runMotion dispatches every motion timer due before end
func (r *Rig) runMotion(end uint32) {
	for {
		next, ok := r.sched.Next()
		if !ok || int32(next-end) >= 0 {
			break
		}
		r.Spindle.AdvanceTo(next)
		core.SetTime(next)
		r.sched.Dispatch(next)
		if r.Channel.StatusBell.Raised() {
			r.statusReq <- struct{}{}
			<-r.statusAck
		}
	}
	r.Spindle.AdvanceTo(end)
}

// Report summarises a run
type Report struct {
	Revolutions  float64
	Emitted      int64 // net steps seen on the step line
	Expected     int64 // steps the spindle travel calls for
	Lag          int64 // Expected - Emitted
	Pulses       uint64
	Cycles       uint32
	CommandDrops uint32
	StatusDrops  uint32 // status pushes that found the queue full
	Overrun      bool   // as seen by the supervisory side
	RPM          uint16 // last encoder measurement
}

// Baseline marks the spindle count and step count that later reports
// measure from
type Baseline struct {
	counts int64
	steps  int64
}

// Mark returns the current baseline
func (r *Rig) Mark() Baseline {
	return Baseline{counts: r.Spindle.Total(), steps: r.Pins.Steps()}
}

// Report measures travel since b against the engine multiplier
func (r *Rig) Report(b Baseline) Report {
	counts := r.Spindle.Total() - b.counts
	emitted := r.Pins.Steps() - b.steps
	expected := r.Engine.Multiplier().Scale(counts)
	return Report{
		Revolutions:  float64(counts) / float64(r.Machine.Encoder.Resolution),
		Emitted:      emitted,
		Expected:     expected,
		Lag:          expected - emitted,
		Pulses:       r.Pins.Pulses(),
		Cycles:       r.Motion.Cycles(),
		CommandDrops: r.Proxy.CommandDrops(),
		StatusDrops:  r.Motion.StatusDrops(),
		Overrun:      r.Proxy.IsOverrun(),
		RPM:          r.Encoder.RPM(),
	}
}
