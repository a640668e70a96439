package protocol

// CRC8 calculates CRC-8 with polynomial 0x07, initial value 0, no
// reflection and no final xor. The gearbox appends it to every reply.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
