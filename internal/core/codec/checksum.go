package codec

import "encoding/binary"

// Checksum returns the Internet one's-complement checksum of b. Words are
// read big-endian; an odd trailing byte is treated as the high byte of a
// zero-padded word.
func Checksum(b []byte) uint16 {
	var sum uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// Verify reports whether b, including its embedded checksum field, sums to
// 0xffff.
func Verify(b []byte) bool {
	return Checksum(b) == 0
}
