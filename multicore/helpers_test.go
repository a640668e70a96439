package multicore

import (
	"testing"

	"goels/core"
)

type spindle struct {
	position int32
	rpm      uint16
}

func (s *spindle) Position() int32 { return s.position }
func (s *spindle) MaxCount() int32 { return 4096 }
func (s *spindle) RPM() uint16     { return s.rpm }

type lines struct {
	step, dir, enable, alarm bool
	pulses                   int
}

func (l *lines) Init() error           { return nil }
func (l *lines) SetDirection(dir bool) { l.dir = dir }
func (l *lines) SetEnable(on bool)     { l.enable = on }
func (l *lines) Alarm() bool           { return l.alarm }
func (l *lines) GetName() string       { return "lines" }
func (l *lines) SetStep(high bool) {
	if high && !l.step {
		l.pulses++
	}
	l.step = high
}

func newEngine(t *testing.T) (*core.Engine, *spindle, *core.StepperDrive, *lines) {
	t.Helper()
	src := &spindle{}
	out := &lines{}
	drive, err := core.NewStepperDrive(out)
	if err != nil {
		t.Fatalf("NewStepperDrive failed: %v", err)
	}
	engine, err := core.NewEngine(src, drive, core.NewBacklogGuard(drive, 100))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, src, drive, out
}
