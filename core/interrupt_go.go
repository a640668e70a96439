//go:build !tinygo

package core

// State stands in for the saved interrupt mask on hosted builds
type State uintptr

// disableInterrupts is a no-op on hosted builds, where each scheduler is
// only touched by the goroutine that owns it
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {}
