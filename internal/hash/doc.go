// Package hash provides the checksum used by binary map dumps and remote
// uploads.
//
// All checksums use CRC32-Castagnoli (CRC32C), which Go's hash/crc32
// computes with hardware instructions where available (SSE4.2 on x86-64,
// the CRC extension on ARM64).
//
// A dump carries its checksum as a little-endian trailer:
//
//	buf = hash.AppendCRC32C(buf)
//	body, ok := hash.SplitCRC32C(buf)
//
// The table is computed once at package init.
package hash
