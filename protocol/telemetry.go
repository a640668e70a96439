package protocol

import "errors"

// Message ids carried as the first VLQ of a frame payload
const (
	MsgStatus = 1
)

// Status flag bits
const (
	FlagAlarm   = 1 << 0
	FlagPowerOn = 1 << 1
	FlagOverrun = 1 << 2
)

var (
	ErrUnknownMessage = errors.New("unknown telemetry message")
	ErrFrameTooLarge  = errors.New("telemetry frame too large")
)

// StatusReport is one status telemetry message
type StatusReport struct {
	Sequence     uint8
	RPM          uint16
	Alarm        bool
	PowerOn      bool
	Overrun      bool
	CommandDrops uint32
	StatusDrops  uint32
}

// Flags packs the boolean fields
func (r StatusReport) Flags() uint32 {
	var f uint32
	if r.Alarm {
		f |= FlagAlarm
	}
	if r.PowerOn {
		f |= FlagPowerOn
	}
	if r.Overrun {
		f |= FlagOverrun
	}
	return f
}

// FrameWriter frames payloads with a rolling sequence number
type FrameWriter struct {
	seq uint8
}

// EncodeFrame writes one frame around the payload produced by frameData
func (w *FrameWriter) EncodeFrame(output OutputBuffer, frameData func(output OutputBuffer)) error {
	cursor := output.CurPosition()

	seq := MessageDest | (w.seq & MessageSeqMask)
	output.Output([]byte{0, seq})
	frameData(output)

	changed := len(output.DataSince(cursor))
	if changed+MessageTrailerSize > MessageLengthMax {
		return ErrFrameTooLarge
	}
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	w.seq++
	return nil
}

// EncodeStatus writes a status frame
func (w *FrameWriter) EncodeStatus(output OutputBuffer, r StatusReport) error {
	return w.EncodeFrame(output, func(out OutputBuffer) {
		EncodeVLQUint(out, MsgStatus)
		EncodeVLQUint(out, uint32(r.RPM))
		EncodeVLQUint(out, r.Flags())
		EncodeVLQUint(out, r.CommandDrops)
		EncodeVLQUint(out, r.StatusDrops)
	})
}

// StatusHandler receives decoded status reports
type StatusHandler func(r StatusReport)

// Decoder parses telemetry frames from a byte stream, resynchronizing on
// the sync byte after any framing or checksum error
type Decoder struct {
	handler      StatusHandler
	synchronized bool
	expectSeq    uint8
	haveSeq      bool

	Frames    uint32 // frames accepted
	BadFrames uint32 // framing, checksum or payload errors
	Gaps      uint32 // sequence discontinuities
}

// NewDecoder creates a decoder delivering reports to handler
func NewDecoder(handler StatusHandler) *Decoder {
	return &Decoder{handler: handler, synchronized: true}
}

// Receive consumes complete frames from input. Incomplete trailing data is
// left in the buffer for the next call.
func (d *Decoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			d.synchronized = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}
		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]
		d.trackSequence(seq & MessageSeqMask)
		if err := d.parseFrame(seq&MessageSeqMask, frame); err != nil {
			d.BadFrames++
			continue
		}
		d.Frames++
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.BadFrames++
}

func (d *Decoder) trackSequence(seq uint8) {
	if d.haveSeq && seq != d.expectSeq {
		d.Gaps++
	}
	d.expectSeq = (seq + 1) & MessageSeqMask
	d.haveSeq = true
}

func (d *Decoder) parseFrame(seq uint8, frame []byte) error {
	id, err := DecodeVLQUint(&frame)
	if err != nil {
		return err
	}
	if id != MsgStatus {
		return ErrUnknownMessage
	}

	var fields [4]uint32
	for i := range fields {
		if fields[i], err = DecodeVLQUint(&frame); err != nil {
			return err
		}
	}
	r := StatusReport{
		Sequence:     seq,
		RPM:          uint16(fields[0]),
		Alarm:        fields[1]&FlagAlarm != 0,
		PowerOn:      fields[1]&FlagPowerOn != 0,
		Overrun:      fields[1]&FlagOverrun != 0,
		CommandDrops: fields[2],
		StatusDrops:  fields[3],
	}
	if d.handler != nil {
		d.handler(r)
	}
	return nil
}
