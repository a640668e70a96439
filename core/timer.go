package core

import "sync/atomic"

// TimerFreq is the tick rate of the system clock and of every Scheduler.
const (
	TimerFreq = 1000000 // 1 MHz, one tick per microsecond
)

var (
	systemTicks atomic.Uint32
	bootTime    uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return systemTicks.Load()
}

// SetTime sets the current system time. Target clock code calls it from its
// tick source; tests call it directly.
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// GetUptime returns ticks elapsed since TimerInit
func GetUptime() uint32 {
	return GetTime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerFromHz returns the period of a rate in timer ticks
func TimerFromHz(hz uint32) uint32 {
	if hz == 0 {
		return 0
	}
	return TimerFreq / hz
}

// TimerInit records the boot time
func TimerInit() {
	bootTime = GetTime()
}

// timeBefore reports whether a is earlier than b on the wrapping tick clock.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
