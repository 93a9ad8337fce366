package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// TrailerSize is the size of the checksum trailer written by AppendCRC32C.
const TrailerSize = 4

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// AppendCRC32C appends the little-endian checksum of buf to buf.
func AppendCRC32C(buf []byte) []byte {
	return binary.LittleEndian.AppendUint32(buf, CRC32C(buf))
}

// SplitCRC32C separates the body of data from its checksum trailer and
// reports whether the trailer matches. Data shorter than the trailer never
// matches.
func SplitCRC32C(data []byte) (body []byte, ok bool) {
	if len(data) < TrailerSize {
		return nil, false
	}
	body = data[:len(data)-TrailerSize]
	return body, binary.LittleEndian.Uint32(data[len(body):]) == CRC32C(body)
}
