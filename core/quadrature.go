package core

import "sync/atomic"

const quadInvalid = 2

// quadStep maps previous<<2|current line state (A<<1|B) to a count step.
// A leading B counts up.
var quadStep = [16]int8{
	0, -1, 1, quadInvalid,
	1, 0, quadInvalid, -1,
	-1, quadInvalid, 0, 1,
	quadInvalid, 1, -1, 0,
}

// QuadratureDecoder counts every edge of an A/B encoder (four counts per
// line). Update is called from the pin-change interrupt; Count may be read
// from any core. It implements Counter.
type QuadratureDecoder struct {
	state  uint8
	count  atomic.Uint32
	faults atomic.Uint32
}

// NewQuadratureDecoder starts a decoder from the current line levels
func NewQuadratureDecoder(a, b bool) *QuadratureDecoder {
	return &QuadratureDecoder{state: quadState(a, b)}
}

// Update feeds the current line levels. A transition where both lines
// changed means an edge was missed; it counts as a fault and no step.
func (q *QuadratureDecoder) Update(a, b bool) {
	cur := quadState(a, b)
	switch step := quadStep[q.state<<2|cur]; step {
	case 0:
	case quadInvalid:
		q.faults.Add(1)
	default:
		q.count.Add(uint32(int32(step)))
	}
	q.state = cur
}

// Count returns the raw wrapping count
func (q *QuadratureDecoder) Count() uint32 {
	return q.count.Load()
}

// Faults returns the number of missed-edge transitions seen
func (q *QuadratureDecoder) Faults() uint32 {
	return q.faults.Load()
}

func quadState(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s
}
