//go:build rp2040

// Firmware for an RP2040 leadscrew controller. Core 1 runs the motion
// context; core 0 runs the supervisor, the gearbox and telemetry.
package main

import (
	"machine"
	"time"

	"goels/config"
	"goels/core"
	"goels/gearbox"
	"goels/multicore"
	"goels/supervisor"
)

// Power-up feed selections
const (
	defaultFeedThou  = 5
	defaultThreadTPI = 20
)

var recovered uint32

func main() {
	// Clear any watchdog left running across a reset
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	InitUSB()
	core.SetDebugWriter(debugLine)
	core.TimerInit()

	m := config.Default()
	if err := m.Validate(); err != nil {
		halt("config", err)
	}

	gpio := NewRPGPIODriver()
	quad := NewQuadrature(machine.Pin(m.Encoder.PinA), machine.Pin(m.Encoder.PinB))
	if err := quad.Init(); err != nil {
		halt("encoder", err)
	}
	enc, err := core.NewEncoder(quad, m.EncoderConfig())
	if err != nil {
		halt("encoder", err)
	}

	backend := NewPIOPulseTrain(0, 0, gpio, m.StepperPins())
	if err := backend.Init(); err != nil {
		halt("stepper", err)
	}
	drive, err := core.NewStepperDrive(backend)
	if err != nil {
		halt("stepper", err)
	}
	guard := core.NewBacklogGuard(drive, m.Stepper.MaxBufferedSteps)
	engine, err := core.NewEngine(enc, drive, guard)
	if err != nil {
		halt("engine", err)
	}

	ch := multicore.NewChannel()
	motion, err := multicore.NewMotion(engine, ch, multicore.MotionConfig{
		CyclePeriodUS:  uint32(m.Timing.StepperCycleUS),
		StatusPeriodUS: uint32(m.Timing.StatusPeriodUS),
		Encoder:        enc,
	})
	if err != nil {
		halt("motion", err)
	}
	proxy := multicore.NewProxy(ch)

	sup, err := supervisor.New(proxy, supervisor.Config{
		TelemetryEvery: m.Timing.TelemetryEvery,
		StatusDrops:    motion.StatusDrops,
		OnOverrun: func() {
			core.DebugPrintln("[PANIC] step backlog exceeded, power cycle to resume")
		},
	})
	if err != nil {
		halt("supervisor", err)
	}
	sup.SetTelemetry(&usbTelemetry{})

	if m.Gearbox.Enabled {
		if bus, err := InitGearboxBus(m.Gearbox); err != nil {
			core.DebugPrintln("[GEARBOX] bus init failed: " + err.Error())
		} else if g, err := gearbox.New(bus, m.Gearbox); err == nil {
			sup.SetGearbox(g)
		}
	}
	sup.SetFeeds(m.FeedThou(defaultFeedThou), m.ThreadTPI(defaultThreadTPI))

	machine.Core1.Start(func() {
		runMotion(motion)
	})

	period := time.Second / time.Duration(m.Timing.UIRefreshHz)
	next := time.Now()
	for {
		superviseOnce(sup, proxy)
		next = next.Add(period)
		time.Sleep(time.Until(next))
	}
}

// runMotion is the core 1 loop. It never blocks: every timer handler is a
// bounded poll.
func runMotion(motion *multicore.Motion) {
	var sched core.Scheduler
	motion.Start(&sched, UpdateSystemTime())
	for {
		sched.Dispatch(UpdateSystemTime())
	}
}

// superviseOnce runs one supervisor tick. A panic powers the drive down
// and the loop carries on.
func superviseOnce(sup *supervisor.Supervisor, proxy *multicore.Proxy) {
	defer func() {
		if r := recover(); r != nil {
			recovered++
			core.DebugPrintln("[SUPERVISOR] recovered from panic, drive powered off")
			core.DumpEvents()
			proxy.SetPowerOn(false)
		}
	}()
	if err := sup.Tick(); err != nil {
		core.DebugPrintln("[SUPERVISOR] " + err.Error())
	}
}

// halt reports a fatal setup error forever
func halt(stage string, err error) {
	for {
		debugLine("[FATAL] " + stage + ": " + err.Error())
		time.Sleep(time.Second)
	}
}
