// Package sim is a virtual lathe: a spindle encoder and a step/direction
// driver simulated on a microsecond clock, wired to the real motion and
// supervisory code.
package sim

import "sync/atomic"

const usPerMinute = 60 * 1000000

// Spindle is a quadrature counter turning at a set speed. It implements
// core.Counter.
type Spindle struct {
	resolution int64 // counts per revolution
	sense      int64 // -1 when the encoder is mounted reversed

	rpm   int64
	last  uint32
	accum int64

	total atomic.Int64
}

// NewSpindle returns a stopped spindle. reversed mirrors an encoder that
// counts down when the spindle turns forward.
func NewSpindle(resolution uint32, reversed bool) *Spindle {
	s := &Spindle{resolution: int64(resolution), sense: 1}
	if reversed {
		s.sense = -1
	}
	return s
}

// SetRPM sets the speed. Negative turns the spindle backwards.
func (s *Spindle) SetRPM(rpm int32) {
	s.rpm = int64(rpm)
}

// RPM returns the set speed
func (s *Spindle) RPM() int32 {
	return int32(s.rpm)
}

// AdvanceTo moves the spindle to time now (microseconds). Fractional
// counts carry over to the next call.
func (s *Spindle) AdvanceTo(now uint32) {
	dt := int64(now - s.last)
	s.last = now
	s.accum += s.rpm * s.resolution * dt
	counts := s.accum / usPerMinute
	s.accum -= counts * usPerMinute
	if counts != 0 {
		s.total.Add(counts)
	}
}

// Total returns the signed number of counts turned, forward positive
func (s *Spindle) Total() int64 {
	return s.total.Load()
}

// Revolutions returns Total in spindle turns
func (s *Spindle) Revolutions() float64 {
	return float64(s.Total()) / float64(s.resolution)
}

// Count returns the raw hardware counter
func (s *Spindle) Count() uint32 {
	return uint32(s.sense * s.Total())
}
