package protocol

import "errors"

// Integers in a telemetry payload are variable-length quantities: 7 bits
// per byte, most significant group first, high bit set on every byte but
// the last. A leading group with bits 0x60 set is negative.

var (
	ErrVLQTruncated = errors.New("vlq: value runs past end of frame")
	ErrVLQOverlong  = errors.New("vlq: more than 5 bytes")
)

const vlqMaxBytes = 5

// vlqLen returns the number of bytes needed for v
func vlqLen(v int32) int {
	n := 1
	for n < vlqMaxBytes {
		shift := 7*n - 2
		if int64(v) >= -(int64(1)<<shift) && int64(v) < int64(3)<<shift {
			break
		}
		n++
	}
	return n
}

// EncodeVLQInt appends v to output
func EncodeVLQInt(output OutputBuffer, v int32) {
	var b [vlqMaxBytes]byte
	n := vlqLen(v)
	for i := 0; i < n; i++ {
		b[i] = byte(v>>(7*(n-1-i))) & 0x7F
		if i < n-1 {
			b[i] |= 0x80
		}
	}
	output.Output(b[:n])
}

// EncodeVLQUint appends v to output. Values above 2^31 travel as their
// negative int32 image and come back intact through DecodeVLQUint.
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value from the front of *data and advances it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrVLQTruncated
	}
	v := uint32(buf[0] & 0x7F)
	if buf[0]&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 0
	for buf[i]&0x80 != 0 {
		i++
		if i >= len(buf) {
			return 0, ErrVLQTruncated
		}
		if i >= vlqMaxBytes {
			return 0, ErrVLQOverlong
		}
		v = v<<7 | uint32(buf[i]&0x7F)
	}
	*data = buf[i+1:]
	return int32(v), nil
}

// DecodeVLQUint is DecodeVLQInt for unsigned fields
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}
