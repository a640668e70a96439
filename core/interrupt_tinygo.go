//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts on the calling core and returns the
// previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the mask saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
