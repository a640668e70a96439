// Package protocol implements the wire formats of the leadscrew controller:
// the status telemetry frames sent to a host and the checksum of the
// gearbox query.
package protocol

// Version is the telemetry protocol version
const Version = "0.1.0"

// Frame constants. A frame is
//
//	[len][seq][payload...][crc16 hi][crc16 lo][0x7E]
//
// where len counts the whole frame and the CRC covers len, seq and payload.
const (
	MessageMax         = 512 // Scratch output size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence mask
	MessageSeqMask = 0x0F
)
