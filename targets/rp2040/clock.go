//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"goels/core"
)

// RP2040 timer peripheral: a free running 64-bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareTime returns the low 32 bits of the microsecond counter. It
// ticks at core.TimerFreq and is readable from either core.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime returns the full 64-bit counter
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return uint64(high1)<<32 | uint64(low)
		}
	}
}

// UpdateSystemTime copies the hardware counter into the core clock
func UpdateSystemTime() uint32 {
	now := GetHardwareTime()
	core.SetTime(now)
	return now
}
