package multicore

import "sync/atomic"

// Doorbell is an edge-triggered "messages waiting" signal. The sender rings
// it after a push; the receiver clears it once its queues are empty.
//
// On the firmware the receiving core polls Raised from its timer loop or
// services it from the inter-core interrupt. Hosted goroutines block on C.
type Doorbell struct {
	raised atomic.Bool
	wake   chan struct{}
}

// NewDoorbell creates a lowered doorbell
func NewDoorbell() *Doorbell {
	return &Doorbell{wake: make(chan struct{}, 1)}
}

// Ring raises the doorbell. It never blocks.
func (d *Doorbell) Ring() {
	d.raised.Store(true)
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Raised reports whether the doorbell is up
func (d *Doorbell) Raised() bool {
	return d.raised.Load()
}

// Clear lowers the doorbell
func (d *Doorbell) Clear() {
	d.raised.Store(false)
}

// C delivers a value after each Ring that found no wakeup pending.
func (d *Doorbell) C() <-chan struct{} {
	return d.wake
}
