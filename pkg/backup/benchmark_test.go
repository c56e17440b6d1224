package backup

import (
	"bytes"
	"testing"

	"github.com/DataDog/zstd"
)

// skeletonLike returns data shaped like a bone record array: mostly small
// little-endian integers with a repeating unused field.
func skeletonLike(size int) []byte {
	data := make([]byte, size)
	for i := 0; i+12 <= size; i += 12 {
		data[i] = byte(i / 12)
		data[i+4], data[i+5] = 0xcd, 0xab
		data[i+8] = byte(i/12 - 1)
	}
	return data
}

// BenchmarkSnapshotLevels compares compression levels on skeleton-like data.
func BenchmarkSnapshotLevels(b *testing.B) {
	data := skeletonLike(256 * 1024)

	for _, bc := range []struct {
		name  string
		level int
	}{
		{"BestSpeed", zstd.BestSpeed},
		{"Default", zstd.DefaultCompression},
	} {
		b.Run(bc.name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var buf bytes.Buffer
				if err := Encode(&seekableBuffer{Buffer: &buf}, data, WithCompressionLevel(bc.level)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkHeader benchmarks header operations.
func BenchmarkHeader(b *testing.B) {
	header := &Header{
		Magic:            Magic,
		HeaderLength:     headerLength,
		Length:           1024 * 1024,
		CompressedLength: 512 * 1024,
		Checksum:         0x1234abcd,
	}

	b.Run("EncodeTo", func(b *testing.B) {
		buf := make([]byte, HeaderSize)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			header.EncodeTo(buf)
		}
	})

	data, _ := header.MarshalBinary()

	b.Run("DecodeFrom", func(b *testing.B) {
		h := &Header{}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			h.DecodeFrom(data)
		}
	})
}

// BenchmarkReadAll benchmarks decoding and verifying a snapshot.
func BenchmarkReadAll(b *testing.B) {
	data := skeletonLike(1024 * 1024)
	var buf bytes.Buffer
	if err := Encode(&seekableBuffer{Buffer: &buf}, data); err != nil {
		b.Fatal(err)
	}
	encoded := buf.Bytes()

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadAll(bytes.NewReader(encoded)); err != nil {
			b.Fatal(err)
		}
	}
}
