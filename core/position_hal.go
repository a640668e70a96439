package core

// Counter is the raw hardware rotary count (quadrature peripheral, PIO
// program or interrupt-driven decoder). It wraps at 2^32.
type Counter interface {
	Count() uint32
}

// PositionSource is an absolute rotary position with a known wrap modulus
// and a periodically recomputed rate.
type PositionSource interface {
	// Position returns the current count in [0, MaxCount). It may decrease
	// when the spindle turns backwards. Never blocks.
	Position() int32

	// MaxCount returns the constant wrap modulus.
	MaxCount() int32

	// RPM returns the last computed spindle speed.
	RPM() uint16
}
