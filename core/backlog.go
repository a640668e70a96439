package core

// DefaultMaxBufferedSteps is the default backlog limit.
const DefaultMaxBufferedSteps = 100

// BacklogGuard trips when the drive falls too far behind its desired count.
// A trip disables the drive and stays latched until Reset.
type BacklogGuard struct {
	drive    *StepperDrive
	maxSteps int32
	tripped  bool
}

// NewBacklogGuard watches drive with the given limit
func NewBacklogGuard(drive *StepperDrive, maxSteps int32) *BacklogGuard {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxBufferedSteps
	}
	return &BacklogGuard{drive: drive, maxSteps: maxSteps}
}

// Exceeded reports whether |desired-current| is over the limit
func (g *BacklogGuard) Exceeded() bool {
	backlog := int64(g.drive.DesiredPosition()) - int64(g.drive.CurrentPosition())
	if backlog < 0 {
		backlog = -backlog
	}
	return backlog > int64(g.maxSteps)
}

// Check disables the drive and latches the fault when the backlog is over
// the limit. It returns true on an overrun.
func (g *BacklogGuard) Check() bool {
	if !g.Exceeded() {
		return false
	}
	g.drive.SetEnabled(false)
	g.tripped = true
	return true
}

// Tripped reports the latched fault
func (g *BacklogGuard) Tripped() bool {
	return g.tripped
}

// Reset clears the latch. The caller re-enables the drive.
func (g *BacklogGuard) Reset() {
	g.tripped = false
}

// MaxSteps returns the configured limit
func (g *BacklogGuard) MaxSteps() int32 {
	return g.maxSteps
}
