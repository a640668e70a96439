package core

import "errors"

// Engine locks the leadscrew to the spindle. Cycle is called once per
// control period from the motion context; the setters and getters
// implement Controller for single-context builds.
type Engine struct {
	encoder PositionSource
	drive   *StepperDrive
	guard   *BacklogGuard

	feed       Ratio
	driveRatio Ratio
	direction  int8
	powerOn    bool
	multiplier Ratio

	previousPosition   int32
	previousFeed       Ratio
	previousDriveRatio Ratio
	previousDirection  int8
}

// NewEngine creates an engine with a null feed, unit drive ratio, forward
// direction and the drive powered on.
func NewEngine(encoder PositionSource, drive *StepperDrive, guard *BacklogGuard) (*Engine, error) {
	if encoder == nil || drive == nil || guard == nil {
		return nil, errors.New("engine needs an encoder, a drive and a backlog guard")
	}
	e := &Engine{
		encoder:    encoder,
		drive:      drive,
		guard:      guard,
		feed:       Ratio{0, 1},
		driveRatio: One(),
		direction:  1,
		// Forces a resync on the first synchronized cycle
		previousFeed: Ratio{0, 1},
	}
	e.updateMultiplier()
	e.SetPowerOn(true)
	return e, nil
}

// Cycle runs one control period
func (e *Engine) Cycle() {
	m := e.multiplier
	if m.IsZero() {
		e.drive.Settle()
		return
	}
	if e.drive.Busy() {
		return
	}

	position := e.encoder.Position()
	target := int32(m.Scale(int64(position)))

	resync := e.feed != e.previousFeed || e.direction != e.previousDirection || e.driveRatio != e.previousDriveRatio
	if resync {
		// Parameter change: snap instead of commanding the jump
		e.drive.Resync(target)
		RecordEvent(EvtResync, GetTime(), uint32(target), 0)
	} else {
		// Counter wrapped since the last cycle: shift the issued count by
		// one revolution of output so the wrap is not read as motion
		maxCount := e.encoder.MaxCount()
		half := maxCount / 2
		if position < e.previousPosition && e.previousPosition-position > half {
			e.drive.IncrementCurrentPosition(-int32(m.Scale(int64(maxCount))))
			RecordEvent(EvtCounterWrap, GetTime(), uint32(e.previousPosition), uint32(position))
		}
		if position > e.previousPosition && position-e.previousPosition > half {
			e.drive.IncrementCurrentPosition(int32(m.Scale(int64(maxCount))))
			RecordEvent(EvtCounterWrap, GetTime(), uint32(e.previousPosition), uint32(position))
		}
	}

	e.previousPosition = position
	e.previousFeed = e.feed
	e.previousDirection = e.direction
	e.previousDriveRatio = e.driveRatio

	e.drive.SetDesiredPosition(target)
	if e.drive.Enabled() && e.guard.Check() {
		RecordEvent(EvtOverrun, GetTime(), uint32(e.drive.DesiredPosition()), uint32(e.drive.CurrentPosition()))
	}
	e.drive.Move()
}

// Target returns the step count the last cycle commanded
func (e *Engine) Target() int32 {
	return e.drive.DesiredPosition()
}

// Multiplier returns feed x drive ratio x direction
func (e *Engine) Multiplier() Ratio {
	return e.multiplier
}

// SetFeed selects the leadscrew turns per spindle turn. A zero ratio stops
// synchronization.
func (e *Engine) SetFeed(feed Ratio) {
	e.feed = feed.Normalized()
	e.updateMultiplier()
}

// SetReverse selects the feed direction
func (e *Engine) SetReverse(reverse bool) {
	if reverse {
		e.direction = -1
	} else {
		e.direction = 1
	}
	e.updateMultiplier()
}

// SetDriveRatio sets the gearbox or servo reduction. Negative ratios are
// treated as null.
func (e *Engine) SetDriveRatio(ratio Ratio) {
	ratio = ratio.Normalized()
	if ratio.Num < 0 {
		ratio = Ratio{0, 1}
	}
	e.driveRatio = ratio
	e.updateMultiplier()
}

// SetPowerOn enables or disables the drive. Powering on also clears a
// latched overrun.
func (e *Engine) SetPowerOn(on bool) {
	e.powerOn = on
	if on {
		e.guard.Reset()
	}
	e.drive.SetEnabled(on)
}

// RPM returns the spindle speed
func (e *Engine) RPM() uint16 {
	return e.encoder.RPM()
}

// IsAlarm reports the drive alarm input
func (e *Engine) IsAlarm() bool {
	return e.drive.IsAlarm()
}

// IsPowerOn reports the commanded power state
func (e *Engine) IsPowerOn() bool {
	return e.powerOn
}

// IsOverrun reports a latched backlog fault
func (e *Engine) IsOverrun() bool {
	return e.guard.Tripped()
}

// Status returns the current snapshot
func (e *Engine) Status() Status {
	return Status{
		RPM:     e.RPM(),
		Alarm:   e.IsAlarm(),
		PowerOn: e.IsPowerOn(),
		Overrun: e.IsOverrun(),
	}
}

func (e *Engine) updateMultiplier() {
	m := e.feed.Mul(e.driveRatio)
	if e.direction < 0 {
		m = m.Neg()
	}
	e.multiplier = m
}

var _ Controller = (*Engine)(nil)
