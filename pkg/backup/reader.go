package backup

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
)

// Reader decompresses a snapshot.
type Reader struct {
	header    *Header
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the snapshot header from r and returns a
// reader for the original content.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{
		header: &Header{},
	}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader.zReader = zstd.NewReader(r)
	return reader, nil
}

// Header returns the snapshot header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.zReader.Read(p)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// ReadAll decodes a complete snapshot and verifies its length and checksum.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	// The header is untrusted, so read at most one byte past its length
	// instead of allocating it up front.
	data, err := io.ReadAll(io.LimitReader(reader, int64(reader.header.Length)+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if uint64(len(data)) != reader.header.Length {
		return nil, fmt.Errorf("length mismatch: expected %d bytes, got %d", reader.header.Length, len(data))
	}
	if sum := crc32.ChecksumIEEE(data); sum != reader.header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %08x, got %08x", reader.header.Checksum, sum)
	}
	return data, nil
}
