package core

// Leadscrew stepper drive.
// Tracks the commanded (desired) and issued (current) step counts and moves
// the output toward the desired count one tick at a time.

import (
	"errors"
)

// Step/direction line states. Two ticks per pulse: raise step, then lower it
// and count the step.
const (
	STEP0_DIR0 = 0 // step low, direction negative
	STEP0_DIR1 = 1 // step low, direction positive
	STEP1_DIR0 = 2 // step high, direction negative
	STEP1_DIR1 = 3 // step high, direction positive
)

// StepperDrive owns the leadscrew step accounting
type StepperDrive struct {
	desired int32
	current int32
	state   uint8
	enabled bool

	// Hardware backend
	Backend StepperBackend
	edge    EdgeStepper
	train   PulseTrain

	// batch mode direction currently latched on the direction line
	trainDir bool
}

// NewStepperDrive wraps a backend. PulseTrain backends run in batch mode;
// any other backend must support single edges.
func NewStepperDrive(backend StepperBackend) (*StepperDrive, error) {
	if backend == nil {
		return nil, errors.New("stepper backend is nil")
	}
	d := &StepperDrive{Backend: backend, state: STEP0_DIR0}
	if train, ok := backend.(PulseTrain); ok {
		d.train = train
		backend.SetDirection(false)
		return d, nil
	}
	edge, ok := backend.(EdgeStepper)
	if !ok {
		return nil, errors.New("stepper backend supports neither edges nor pulse trains")
	}
	d.edge = edge
	edge.SetStep(false)
	edge.SetDirection(false)
	return d, nil
}

// SetDesiredPosition sets the step count the drive moves toward
func (d *StepperDrive) SetDesiredPosition(steps int32) {
	d.desired = steps
}

// DesiredPosition returns the commanded step count
func (d *StepperDrive) DesiredPosition() int32 {
	return d.desired
}

// CurrentPosition returns the issued step count
func (d *StepperDrive) CurrentPosition() int32 {
	return d.current
}

// SetCurrentPosition overwrites the issued step count without moving
func (d *StepperDrive) SetCurrentPosition(steps int32) {
	d.current = steps
}

// Resync makes steps the issued count without moving. A pulse already
// raised on the step line is still lowered and counted by the next Move,
// so the count is offset to land on steps when it does.
func (d *StepperDrive) Resync(steps int32) {
	switch d.state {
	case STEP1_DIR0:
		steps++
	case STEP1_DIR1:
		steps--
	}
	d.current = steps
}

// Settle lowers a raised step line and counts that step. Called whenever
// ticks stop so the line never stays asserted.
func (d *StepperDrive) Settle() {
	switch d.state {
	case STEP1_DIR0:
		d.edge.SetStep(false)
		d.current--
		d.state = STEP0_DIR0
	case STEP1_DIR1:
		d.edge.SetStep(false)
		d.current++
		d.state = STEP0_DIR1
	}
}

// IncrementCurrentPosition shifts the issued step count without moving
func (d *StepperDrive) IncrementCurrentPosition(delta int32) {
	d.current += delta
}

// SetEnabled drives the enable line. A disabled drive follows the desired
// count without pulsing.
func (d *StepperDrive) SetEnabled(enabled bool) {
	if !enabled {
		d.Settle()
	}
	d.enabled = enabled
	d.Backend.SetEnable(enabled)
}

// Enabled reports the enable state
func (d *StepperDrive) Enabled() bool {
	return d.enabled
}

// IsAlarm reports the drive alarm input
func (d *StepperDrive) IsAlarm() bool {
	return d.Backend.Alarm()
}

// Busy reports whether a pulse train is still running. Edge backends are
// never busy between ticks.
func (d *StepperDrive) Busy() bool {
	if d.train != nil {
		return d.train.Busy()
	}
	return false
}

// State returns the step/direction line state
func (d *StepperDrive) State() uint8 {
	return d.state
}

// Move advances the drive by one tick
func (d *StepperDrive) Move() {
	if !d.enabled {
		d.Settle()
		d.current = d.desired
		return
	}
	if d.train != nil {
		d.moveBatch()
		return
	}

	switch d.state {
	case STEP0_DIR0:
		if d.desired < d.current {
			d.edge.SetStep(true)
			d.state = STEP1_DIR0
		} else if d.desired > d.current {
			d.edge.SetDirection(true)
			d.state = STEP0_DIR1
		}

	case STEP0_DIR1:
		if d.desired > d.current {
			d.edge.SetStep(true)
			d.state = STEP1_DIR1
		} else if d.desired < d.current {
			d.edge.SetDirection(false)
			d.state = STEP0_DIR0
		}

	case STEP1_DIR0:
		d.edge.SetStep(false)
		d.current--
		d.state = STEP0_DIR0

	case STEP1_DIR1:
		d.edge.SetStep(false)
		d.current++
		d.state = STEP0_DIR1
	}
}

// moveBatch queues up to MaxBatchSteps pulses when the train is idle. The
// direction line only changes between trains.
func (d *StepperDrive) moveBatch() {
	if d.train.Busy() {
		return
	}
	delta := d.desired - d.current
	if delta == 0 {
		return
	}
	dir := delta > 0
	if delta < 0 {
		delta = -delta
	}
	if delta > MaxBatchSteps {
		delta = MaxBatchSteps
	}
	if dir != d.trainDir {
		d.train.SetDirection(dir)
		d.trainDir = dir
	}
	d.train.QueueSteps(uint16(delta))
	if dir {
		d.current += delta
	} else {
		d.current -= delta
	}
}
