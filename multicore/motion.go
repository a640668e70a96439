package multicore

import (
	"errors"
	"sync/atomic"

	"goels/core"
)

// Default motion context periods in microseconds
const (
	DefaultCyclePeriodUS  = 5
	DefaultStatusPeriodUS = 1000
)

// MotionConfig sets the motion context timer periods
type MotionConfig struct {
	CyclePeriodUS  uint32
	StatusPeriodUS uint32

	// Encoder, if set, has its RPM refresh timer scheduled by Start
	Encoder *core.Encoder
}

// Motion runs the engine inside the motion context. Commands are applied
// only at the start of a cycle; status is pushed from its own timer.
type Motion struct {
	engine *core.Engine
	ch     *Channel
	cfg    MotionConfig

	cycleTimer  core.Timer
	statusTimer core.Timer

	cycles      atomic.Uint32
	statusDrops atomic.Uint32
}

// NewMotion binds engine to ch
func NewMotion(engine *core.Engine, ch *Channel, cfg MotionConfig) (*Motion, error) {
	if engine == nil || ch == nil {
		return nil, errors.New("motion context needs an engine and a channel")
	}
	if cfg.CyclePeriodUS == 0 {
		cfg.CyclePeriodUS = DefaultCyclePeriodUS
	}
	if cfg.StatusPeriodUS == 0 {
		cfg.StatusPeriodUS = DefaultStatusPeriodUS
	}
	m := &Motion{engine: engine, ch: ch, cfg: cfg}
	m.cycleTimer.Handler = m.cycleEvent
	m.statusTimer.Handler = m.statusEvent
	return m, nil
}

// CheckQueues applies every queued command in per-kind FIFO order and
// returns how many were applied
func (m *Motion) CheckQueues() int {
	n := 0
	for {
		v, ok := m.ch.DrainFeed()
		if !ok {
			break
		}
		m.engine.SetFeed(v)
		n++
	}
	for {
		v, ok := m.ch.DrainReverse()
		if !ok {
			break
		}
		m.engine.SetReverse(v)
		n++
	}
	for {
		v, ok := m.ch.DrainPower()
		if !ok {
			break
		}
		m.engine.SetPowerOn(v)
		n++
	}
	for {
		v, ok := m.ch.DrainDriveRatio()
		if !ok {
			break
		}
		m.engine.SetDriveRatio(v)
		n++
	}
	return n
}

// Cycle drains pending commands, then runs one engine cycle
func (m *Motion) Cycle() {
	if m.ch.CommandBell.Raised() {
		m.CheckQueues()
	}
	m.engine.Cycle()
	m.cycles.Add(1)
}

// PushStatus publishes the engine status. A full queue drops the snapshot;
// the next push supersedes it.
func (m *Motion) PushStatus() bool {
	if m.ch.PushStatus(m.engine.Status()) {
		return true
	}
	m.statusDrops.Add(1)
	core.RecordEvent(core.EvtStatusDrop, core.GetTime(), m.statusDrops.Load(), 0)
	return false
}

// StatusDrops returns the number of dropped status snapshots
func (m *Motion) StatusDrops() uint32 {
	return m.statusDrops.Load()
}

// Cycles returns the number of control cycles run
func (m *Motion) Cycles() uint32 {
	return m.cycles.Load()
}

// Start schedules the control cycle, the status push and the encoder RPM
// refresh on s, all relative to now
func (m *Motion) Start(s *core.Scheduler, now uint32) {
	m.cycleTimer.WakeTime = now + core.TimerFromUS(m.cfg.CyclePeriodUS)
	s.Add(&m.cycleTimer)

	m.statusTimer.WakeTime = now + core.TimerFromUS(m.cfg.StatusPeriodUS)
	s.Add(&m.statusTimer)

	if enc := m.cfg.Encoder; enc != nil {
		enc.RefreshTimer.WakeTime = now + enc.RefreshPeriod()
		s.Add(&enc.RefreshTimer)
	}
}

// Stop removes the motion timers from s
func (m *Motion) Stop(s *core.Scheduler) {
	s.Remove(&m.cycleTimer)
	s.Remove(&m.statusTimer)
	if enc := m.cfg.Encoder; enc != nil {
		s.Remove(&enc.RefreshTimer)
	}
}

func (m *Motion) cycleEvent(t *core.Timer) uint8 {
	m.Cycle()
	t.WakeTime += core.TimerFromUS(m.cfg.CyclePeriodUS)
	return core.SF_RESCHEDULE
}

func (m *Motion) statusEvent(t *core.Timer) uint8 {
	m.PushStatus()
	t.WakeTime += core.TimerFromUS(m.cfg.StatusPeriodUS)
	return core.SF_RESCHEDULE
}
