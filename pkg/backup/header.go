// Package backup keeps zstd-compressed snapshots of asset files before they
// are patched in place, so a bad patch can be rolled back.
package backup

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Magic bytes identifying a snapshot header.
var Magic = [4]byte{0x42, 0x46, 0x42, 0x4b} // "BFBK"

// HeaderSize is the fixed binary size of a snapshot header.
const HeaderSize = 28 // 4 + 4 + 8 + 8 + 4 bytes

// MaxLength is the largest file a snapshot holds.
const MaxLength = math.MaxInt32

// headerLength is the byte count following the HeaderLength field.
const headerLength = HeaderSize - 8

// Header describes the original file a snapshot holds.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // Original file size
	CompressedLength uint64 // Size of the zstd stream that follows
	Checksum         uint32 // CRC-32 (IEEE) of the original file
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.HeaderLength != headerLength {
		return fmt.Errorf("invalid header length: expected %d, got %d", headerLength, h.HeaderLength)
	}
	if h.Length > MaxLength {
		return fmt.Errorf("content length %d exceeds the %d byte limit", h.Length, MaxLength)
	}
	if h.Length > 0 && h.CompressedLength == 0 {
		return fmt.Errorf("compressed size is zero for %d bytes of content", h.Length)
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to buf, which must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
	binary.LittleEndian.PutUint32(buf[24:28], h.Checksum)
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(buf[4:8])
	h.Length = binary.LittleEndian.Uint64(buf[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(buf[16:24])
	h.Checksum = binary.LittleEndian.Uint32(buf[24:28])
}
