//go:build rp2040

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"goels/core"
)

// Pulse train program. Command word:
//
//	Bits 0-15: pulse count minus one
//	Bit 16:    direction line level
//
// At a 1 MHz state machine clock the direction line settles 5 us before
// the first step edge, and each pulse is 4 us high and 5 us low.
func buildPulseTrainProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),            // 1: out x, 16
		asm.Out(rp2pio.OutDestPins, 1).Delay(4).Encode(), // 2: out pins, 1 [4] (direction)
		// pulse:
		asm.Set(rp2pio.SetDestPins, 1).Delay(3).Encode(), // 3: set pins, 1 [3]
		asm.Set(rp2pio.SetDestPins, 0).Delay(3).Encode(), // 4: set pins, 0 [3]
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),         // 5: jmp x--, pulse
		// .wrap
	}
}

const (
	pulseTrainOrigin   = 0 // jump targets above are absolute
	pulseTrainClkDiv   = 125
	pulseTrainSetupUS  = 7 // pull, out x and the direction hold
	pulseTrainPeriodUS = 9 // cycles per pulse at 1 MHz
)

// pulseTrainDuration is the time in us the program needs for one command
// word of count pulses
func pulseTrainDuration(count uint16) uint32 {
	return pulseTrainSetupUS + uint32(count)*pulseTrainPeriodUS
}

// PIOPulseTrain is a core.PulseTrain on an RP2040 PIO state machine.
// Step and direction belong to the PIO; enable and alarm stay on GPIO.
type PIOPulseTrain struct {
	pio  *rp2pio.PIO
	sm   rp2pio.StateMachine
	gpio core.GPIODriver
	pins core.StepperPins

	direction bool
	busyUntil uint32
}

// NewPIOPulseTrain creates a backend on state machine smNum of PIO pioNum
func NewPIOPulseTrain(pioNum, smNum uint8, gpio core.GPIODriver, pins core.StepperPins) *PIOPulseTrain {
	hw := rp2pio.PIO0
	if pioNum != 0 {
		hw = rp2pio.PIO1
	}
	return &PIOPulseTrain{
		pio:  hw,
		sm:   hw.StateMachine(smNum),
		gpio: gpio,
		pins: pins,
	}
}

// Init loads the program, hands the step and direction pins to the PIO and
// configures the enable and alarm lines
func (b *PIOPulseTrain) Init() error {
	if !b.sm.TryClaim() {
		return errors.New("PIO state machine already claimed")
	}

	program := buildPulseTrainProgram()
	offset, err := b.pio.AddProgram(program, pulseTrainOrigin)
	if err != nil {
		return err
	}

	step := machine.Pin(b.pins.Step)
	dir := machine.Pin(b.pins.Dir)
	step.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	dir.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	if b.pins.InvertStep {
		invertOutput(step)
	}
	if b.pins.InvertDir {
		invertOutput(dir)
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(step, 1)
	cfg.SetOutPins(dir, 1)
	// shift right so the count comes out first, explicit pull
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset, offset+uint8(len(program))-1)
	cfg.SetClkDivIntFrac(pulseTrainClkDiv, 0)

	b.sm.Init(offset, cfg)
	// pin directions only take effect after Init
	b.sm.SetPindirsConsecutive(step, 1, true)
	b.sm.SetPindirsConsecutive(dir, 1, true)
	b.sm.SetPinsConsecutive(step, 1, false)
	b.sm.SetPinsConsecutive(dir, 1, false)
	b.sm.SetEnabled(true)

	if b.pins.UseEnable {
		if err := b.gpio.ConfigureOutput(b.pins.Enable); err != nil {
			return err
		}
		b.SetEnable(false)
	}
	if b.pins.UseAlarm {
		if err := b.gpio.ConfigureInputPullUp(b.pins.Alarm); err != nil {
			return err
		}
	}
	return nil
}

// SetDirection latches the direction sent with the next train
func (b *PIOPulseTrain) SetDirection(dir bool) {
	b.direction = dir
}

// QueueSteps starts count pulses. The drive only calls it when Busy is
// false, so the FIFO always has room.
func (b *PIOPulseTrain) QueueSteps(count uint16) {
	if count == 0 {
		return
	}
	cmd := uint32(count - 1)
	if b.direction {
		cmd |= 1 << 16
	}
	if b.sm.IsTxFIFOFull() {
		return
	}
	b.sm.TxPut(cmd)
	b.busyUntil = GetHardwareTime() + pulseTrainDuration(count)
}

// Busy reports whether the state machine still has pulses to emit
func (b *PIOPulseTrain) Busy() bool {
	if !b.sm.IsTxFIFOEmpty() {
		return true
	}
	return int32(GetHardwareTime()-b.busyUntil) < 0
}

// SetEnable drives the enable line
func (b *PIOPulseTrain) SetEnable(on bool) {
	if !b.pins.UseEnable {
		return
	}
	b.gpio.SetPin(b.pins.Enable, on != b.pins.InvertEnable)
}

// Alarm reads the drive alarm input
func (b *PIOPulseTrain) Alarm() bool {
	if !b.pins.UseAlarm {
		return false
	}
	return b.gpio.ReadPin(b.pins.Alarm) != b.pins.InvertAlarm
}

// Stop abandons any queued pulses
func (b *PIOPulseTrain) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
	b.busyUntil = GetHardwareTime()
}

// GetName returns the backend name
func (b *PIOPulseTrain) GetName() string {
	return "PIO"
}

// GetInfo returns backend performance information
func (b *PIOPulseTrain) GetInfo() core.StepperBackendInfo {
	return core.StepperBackendInfo{
		Name:        b.GetName(),
		MaxStepRate: 1000000 / pulseTrainPeriodUS,
		MinPulseNs:  4000,
		Batched:     true,
	}
}

var _ core.PulseTrain = (*PIOPulseTrain)(nil)
