package core

// Hardware fakes shared by the core tests

type fakeCounter struct {
	count uint32
}

func (c *fakeCounter) Count() uint32 { return c.count }

// fakeSource is a PositionSource with a settable position
type fakeSource struct {
	position int32
	maxCount int32
	rpm      uint16
}

func (s *fakeSource) Position() int32 { return s.position }
func (s *fakeSource) MaxCount() int32 { return s.maxCount }
func (s *fakeSource) RPM() uint16     { return s.rpm }

// recordingStepper is an EdgeStepper that records line activity
type recordingStepper struct {
	step      bool
	dir       bool
	enable    bool
	alarm     bool
	rising    int // step rising edges
	dirWrites int
}

func (r *recordingStepper) Init() error { return nil }
func (r *recordingStepper) SetStep(high bool) {
	if high && !r.step {
		r.rising++
	}
	r.step = high
}
func (r *recordingStepper) SetDirection(dir bool) {
	r.dir = dir
	r.dirWrites++
}
func (r *recordingStepper) SetEnable(on bool) { r.enable = on }
func (r *recordingStepper) Alarm() bool       { return r.alarm }
func (r *recordingStepper) GetName() string   { return "recording" }

// activity returns the step rising edges and direction writes so far
func (r *recordingStepper) activity() (int, int) {
	return r.rising, r.dirWrites
}

// fakeTrain is a PulseTrain that stays busy for a set number of polls
type fakeTrain struct {
	dir        bool
	enable     bool
	queued     []uint16
	queuedDirs []bool
	busyPolls  int
	busyFor    int
}

func (f *fakeTrain) Init() error           { return nil }
func (f *fakeTrain) SetDirection(dir bool) { f.dir = dir }
func (f *fakeTrain) SetEnable(on bool)     { f.enable = on }
func (f *fakeTrain) Alarm() bool           { return false }
func (f *fakeTrain) GetName() string       { return "train" }
func (f *fakeTrain) QueueSteps(count uint16) {
	f.queued = append(f.queued, count)
	f.queuedDirs = append(f.queuedDirs, f.dir)
	f.busyPolls = f.busyFor
}
func (f *fakeTrain) Busy() bool {
	if f.busyPolls > 0 {
		f.busyPolls--
		return true
	}
	return false
}

// memGPIO is an in-memory GPIODriver
type memGPIO struct {
	levels     map[GPIOPin]bool
	outputs    map[GPIOPin]bool
	pullups    map[GPIOPin]bool
	setsPerPin map[GPIOPin]int
}

func newMemGPIO() *memGPIO {
	return &memGPIO{
		levels:     make(map[GPIOPin]bool),
		outputs:    make(map[GPIOPin]bool),
		pullups:    make(map[GPIOPin]bool),
		setsPerPin: make(map[GPIOPin]int),
	}
}

func (m *memGPIO) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *memGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	m.pullups[pin] = true
	m.levels[pin] = true
	return nil
}

func (m *memGPIO) SetPin(pin GPIOPin, value bool) error {
	m.levels[pin] = value
	m.setsPerPin[pin]++
	return nil
}

func (m *memGPIO) ReadPin(pin GPIOPin) bool {
	return m.levels[pin]
}

// newTestEngine builds an engine over a fake source and a recording stepper
func newTestEngine(maxCount int32, maxBuffered int32) (*Engine, *fakeSource, *StepperDrive, *recordingStepper) {
	src := &fakeSource{maxCount: maxCount}
	stepper := &recordingStepper{}
	drive, err := NewStepperDrive(stepper)
	if err != nil {
		panic(err)
	}
	guard := NewBacklogGuard(drive, maxBuffered)
	engine, err := NewEngine(src, drive, guard)
	if err != nil {
		panic(err)
	}
	return engine, src, drive, stepper
}
