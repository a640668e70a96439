package core

import "testing"

type bareBackend struct{}

func (bareBackend) Init() error           { return nil }
func (bareBackend) SetDirection(dir bool) {}
func (bareBackend) SetEnable(on bool)     {}
func (bareBackend) Alarm() bool           { return false }
func (bareBackend) GetName() string       { return "bare" }

func newEnabledDrive(t *testing.T) (*StepperDrive, *recordingStepper) {
	t.Helper()
	stepper := &recordingStepper{}
	drive, err := NewStepperDrive(stepper)
	if err != nil {
		t.Fatalf("NewStepperDrive failed: %v", err)
	}
	drive.SetEnabled(true)
	return drive, stepper
}

func TestNewStepperDriveRejectsBackends(t *testing.T) {
	if _, err := NewStepperDrive(nil); err == nil {
		t.Error("Expected error for nil backend")
	}
	if _, err := NewStepperDrive(bareBackend{}); err == nil {
		t.Error("Expected error for backend without edge or train support")
	}
}

func TestStepperForwardPulses(t *testing.T) {
	drive, stepper := newEnabledDrive(t)
	drive.SetDesiredPosition(3)

	// One tick to set direction, then two ticks per step
	for i := 0; i < 7; i++ {
		drive.Move()
	}
	if drive.CurrentPosition() != 3 {
		t.Errorf("Expected current 3, got %d", drive.CurrentPosition())
	}
	if stepper.rising != 3 {
		t.Errorf("Expected 3 step pulses, got %d", stepper.rising)
	}
	if !stepper.dir {
		t.Error("Expected direction line asserted for forward motion")
	}
	if drive.State() != STEP0_DIR1 {
		t.Errorf("Expected state STEP0_DIR1, got %d", drive.State())
	}

	// Idle at target
	drive.Move()
	drive.Move()
	if stepper.rising != 3 || drive.CurrentPosition() != 3 {
		t.Errorf("Expected no motion at target, got %d pulses at %d", stepper.rising, drive.CurrentPosition())
	}
}

func TestStepperReversePulses(t *testing.T) {
	drive, stepper := newEnabledDrive(t)
	drive.SetDesiredPosition(-2)

	expected := []struct {
		state   uint8
		current int32
	}{
		{STEP1_DIR0, 0},
		{STEP0_DIR0, -1},
		{STEP1_DIR0, -1},
		{STEP0_DIR0, -2},
	}
	for i, want := range expected {
		drive.Move()
		if drive.State() != want.state || drive.CurrentPosition() != want.current {
			t.Errorf("Tick %d: expected state %d at %d, got state %d at %d",
				i, want.state, want.current, drive.State(), drive.CurrentPosition())
		}
	}
	if stepper.rising != 2 {
		t.Errorf("Expected 2 step pulses, got %d", stepper.rising)
	}
}

func TestStepperDirectionChangesOnlyWithStepLow(t *testing.T) {
	drive, stepper := newEnabledDrive(t)
	drive.SetDesiredPosition(5)
	drive.Move() // direction
	drive.Move() // step high
	if drive.State() != STEP1_DIR1 {
		t.Fatalf("Expected STEP1_DIR1, got %d", drive.State())
	}

	drive.SetDesiredPosition(-5)
	dirWrites := stepper.dirWrites
	drive.Move()
	if stepper.step || drive.CurrentPosition() != 1 {
		t.Errorf("Expected pulse to complete at 1, got step=%v current=%d", stepper.step, drive.CurrentPosition())
	}
	if stepper.dirWrites != dirWrites {
		t.Error("Direction changed while the step line was high")
	}

	drive.Move()
	if drive.State() != STEP0_DIR0 || stepper.dir {
		t.Errorf("Expected direction cleared in STEP0_DIR0, got state %d dir=%v", drive.State(), stepper.dir)
	}
}

func TestStepperDisabledFollowsDesired(t *testing.T) {
	drive, stepper := newEnabledDrive(t)
	drive.SetEnabled(false)
	if stepper.enable {
		t.Error("Expected enable line low")
	}

	drive.SetDesiredPosition(1234)
	drive.Move()
	if drive.CurrentPosition() != 1234 {
		t.Errorf("Expected current to follow desired, got %d", drive.CurrentPosition())
	}
	if stepper.rising != 0 {
		t.Errorf("Expected no pulses while disabled, got %d", stepper.rising)
	}
}

func TestStepperResyncAccountsForRaisedStep(t *testing.T) {
	tests := []struct {
		name    string
		desired int32
	}{
		{"forward", 1},
		{"backward", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drive, stepper := newEnabledDrive(t)
			drive.SetDesiredPosition(tt.desired)
			for drive.State() < STEP1_DIR0 {
				drive.Move()
			}

			drive.Resync(100)
			drive.SetDesiredPosition(100)
			drive.Move()
			if drive.CurrentPosition() != 100 || stepper.step {
				t.Errorf("Expected current 100 with step low, got %d (step %v)", drive.CurrentPosition(), stepper.step)
			}
			if stepper.rising != 1 {
				t.Errorf("Expected only the original pulse, got %d", stepper.rising)
			}
		})
	}
}

func TestStepperSettle(t *testing.T) {
	drive, stepper := newEnabledDrive(t)
	drive.Settle()
	if drive.CurrentPosition() != 0 || drive.State() != STEP0_DIR0 {
		t.Errorf("Expected settle on an idle drive to do nothing, got %d state %d", drive.CurrentPosition(), drive.State())
	}

	drive.SetDesiredPosition(-2)
	drive.Move()
	if !stepper.step {
		t.Fatal("Expected step line raised")
	}
	drive.SetEnabled(false)
	if stepper.step || drive.State() != STEP0_DIR0 || drive.CurrentPosition() != -1 {
		t.Errorf("Expected disable to finish the pulse, got step %v state %d current %d",
			stepper.step, drive.State(), drive.CurrentPosition())
	}
}

func TestStepperBatchMode(t *testing.T) {
	train := &fakeTrain{busyFor: 2}
	drive, err := NewStepperDrive(train)
	if err != nil {
		t.Fatalf("NewStepperDrive failed: %v", err)
	}
	drive.SetEnabled(true)
	drive.SetDesiredPosition(70)

	drive.Move()
	if len(train.queued) != 1 || train.queued[0] != MaxBatchSteps || !train.queuedDirs[0] {
		t.Fatalf("Expected one forward batch of %d, got %v %v", MaxBatchSteps, train.queued, train.queuedDirs)
	}
	if drive.CurrentPosition() != MaxBatchSteps {
		t.Errorf("Expected current %d, got %d", MaxBatchSteps, drive.CurrentPosition())
	}

	// Busy: nothing queued, direction untouched even though the target reversed
	drive.SetDesiredPosition(0)
	drive.Move()
	drive.Move()
	if len(train.queued) != 1 || !train.dir {
		t.Errorf("Expected no new batch while busy, got %v dir=%v", train.queued, train.dir)
	}

	drive.Move()
	if len(train.queued) != 2 || train.queued[1] != 32 || train.queuedDirs[1] {
		t.Errorf("Expected reverse batch of 32, got %v %v", train.queued, train.queuedDirs)
	}
	if drive.CurrentPosition() != 0 {
		t.Errorf("Expected current 0, got %d", drive.CurrentPosition())
	}
}

func TestStepperBatchPartial(t *testing.T) {
	train := &fakeTrain{}
	drive, _ := NewStepperDrive(train)
	drive.SetEnabled(true)
	drive.SetDesiredPosition(-5)
	drive.Move()
	drive.Move()
	if len(train.queued) != 1 || train.queued[0] != 5 || train.queuedDirs[0] {
		t.Errorf("Expected one reverse batch of 5, got %v %v", train.queued, train.queuedDirs)
	}
	if drive.CurrentPosition() != -5 {
		t.Errorf("Expected current -5, got %d", drive.CurrentPosition())
	}
}

func TestGPIOStepperBackendPolarity(t *testing.T) {
	gpio := newMemGPIO()
	pins := StepperPins{
		Step: 6, Dir: 7, Enable: 8, Alarm: 9,
		InvertDir: true, InvertEnable: true, InvertAlarm: true,
		UseEnable: true, UseAlarm: true,
	}
	b := NewGPIOStepperBackend(gpio, pins)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !gpio.outputs[6] || !gpio.outputs[7] || !gpio.outputs[8] || !gpio.pullups[9] {
		t.Fatalf("Expected pins configured, got outputs=%v pullups=%v", gpio.outputs, gpio.pullups)
	}

	b.SetStep(true)
	if !gpio.levels[6] {
		t.Error("Expected step pin high")
	}
	b.SetDirection(true)
	if gpio.levels[7] {
		t.Error("Expected inverted direction pin low")
	}
	b.SetEnable(true)
	if gpio.levels[8] {
		t.Error("Expected inverted enable pin low")
	}

	// Pulled-up idle line with inverted sense is not an alarm
	if b.Alarm() {
		t.Error("Expected no alarm with idle line")
	}
	gpio.levels[9] = false
	if !b.Alarm() {
		t.Error("Expected alarm with line pulled low")
	}
}

func TestGPIOStepperBackendDrivesEngineLines(t *testing.T) {
	gpio := newMemGPIO()
	b := NewGPIOStepperBackend(gpio, StepperPins{Step: 1, Dir: 2})
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	drive, err := NewStepperDrive(b)
	if err != nil {
		t.Fatalf("NewStepperDrive failed: %v", err)
	}
	drive.SetEnabled(true)
	drive.SetDesiredPosition(2)
	for i := 0; i < 5; i++ {
		drive.Move()
	}
	// Init and drive setup each write low, then high/low per pulse
	if gpio.setsPerPin[1] != 2+2*2 {
		t.Errorf("Expected 6 writes to the step pin, got %d", gpio.setsPerPin[1])
	}
	if b.Alarm() {
		t.Error("Expected no alarm without an alarm line")
	}
}
