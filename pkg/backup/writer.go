package backup

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
)

// DefaultCompressionLevel favours speed; snapshots are written on every patch run.
const DefaultCompressionLevel = zstd.BestSpeed

// Writer compresses a snapshot into an io.WriteSeeker.
type Writer struct {
	dst     io.WriteSeeker
	zWriter *zstd.Writer
	header  *Header
	crc     hash.Hash32
	written uint64
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter writes a placeholder header to dst and returns a writer for the
// snapshot content. The header is completed by Close.
func NewWriter(dst io.WriteSeeker, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:   dst,
		level: DefaultCompressionLevel,
		crc:   crc32.NewIEEE(),
		header: &Header{
			Magic:        Magic,
			HeaderLength: headerLength,
		},
	}
	for _, opt := range opts {
		opt(w)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses p.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.zWriter.Write(p)
	w.crc.Write(p[:n])
	w.written += uint64(n)
	return n, err
}

// Close flushes the compressor and rewrites the header with the final
// sizes and checksum.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	w.header.Length = w.written
	w.header.CompressedLength = uint64(pos) - HeaderSize
	w.header.Checksum = w.crc.Sum32()

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}
	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := w.dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	return nil
}

// Header returns the snapshot header. It is complete after Close.
func (w *Writer) Header() *Header {
	return w.header
}

// Encode writes data to dst as a complete snapshot.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	if int64(len(data)) > MaxLength {
		return fmt.Errorf("content length %d exceeds the %d byte limit", len(data), MaxLength)
	}
	w, err := NewWriter(dst, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return w.Close()
}
