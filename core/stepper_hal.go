package core

// StepperBackend is the hardware side of the leadscrew drive.
// Implementations can use GPIO, PIO, or other methods
type StepperBackend interface {
	// Init configures the step, direction, enable and alarm lines
	Init() error

	// SetDirection sets the direction output
	// dir: true = positive (count up), false = negative
	// Callers only change direction while no pulse is in flight
	SetDirection(dir bool)

	// SetEnable drives the enable output, polarity handled by the backend
	SetEnable(on bool)

	// Alarm reports whether the drive's alarm input is asserted
	Alarm() bool

	// GetName returns backend implementation name
	GetName() string
}

// EdgeStepper emits step pulses one edge at a time. StepperDrive calls
// SetStep(true) on one tick and SetStep(false) on the next.
type EdgeStepper interface {
	StepperBackend
	SetStep(high bool)
}

// PulseTrain emits batches of step pulses in hardware.
type PulseTrain interface {
	StepperBackend

	// QueueSteps starts count pulses in the current direction
	QueueSteps(count uint16)

	// Busy reports whether previously queued pulses are still being emitted
	Busy() bool
}

// MaxBatchSteps bounds the pulses queued on a PulseTrain in one tick.
const MaxBatchSteps = 32

// StepperBackendInfo provides information about available backends
type StepperBackendInfo struct {
	Name        string
	MaxStepRate uint32 // Maximum steps/second
	MinPulseNs  uint32 // Minimum step pulse width (ns)
	Batched     bool   // Backend is a PulseTrain
}
