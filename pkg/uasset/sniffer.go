package uasset

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/goopsie/bonefix/pkg/skeleton"
)

const (
	// BoneRecordSize is the byte size of one bone record in a skeleton data file.
	BoneRecordSize = 12

	// AnimationSlotSize is the byte size of one bone index in an animation's
	// bone index table.
	AnimationSlotSize = 4

	// countFieldSize is the width of every count field this package reads.
	countFieldSize = 4

	// minNameRecordSize is a name record holding a single byte of text.
	minNameRecordSize = countFieldSize + 1 + 4
)

var (
	// NameCountMarker precedes the name count field in a header file.
	NameCountMarker = []byte{0x00, 0x22, 0x00, 0x80}

	// HeaderEndMarker ends the header block that precedes the name records.
	HeaderEndMarker = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	// RootParentMarker is the root bone's parent index (-1) as stored on disk.
	RootParentMarker = []byte{0xff, 0xff, 0xff, 0xff}
)

// Region locates a counted array inside a file.
type Region struct {
	Offset int // byte offset of the first element
	Count  int // number of elements
}

// Sniffer discovers the offsets of the structures this package understands.
// Readers and writers never search file bytes themselves, so a parser built
// on a documented schema can replace the heuristic search without touching
// any caller.
type Sniffer interface {
	// NameTable returns the offset of the first name record and the name count.
	NameTable(header []byte, order binary.ByteOrder) (Region, error)

	// BoneArray returns the offset of the first bone record and the bone count.
	BoneArray(data []byte, order binary.ByteOrder) (Region, error)

	// AnimationIndexTable returns the offset of the first bone index slot
	// and the slot count of an animation data file.
	AnimationIndexTable(data []byte, order binary.ByteOrder) (Region, error)
}

// PatternSniffer finds structures with byte-pattern searches. It relies on
// markers that happen to precede the structures in cooked files and may be
// fooled by a coincidental match earlier in the file.
type PatternSniffer struct{}

// NameTable locates the name count after NameCountMarker and the first name
// record 8 bytes after HeaderEndMarker.
func (PatternSniffer) NameTable(header []byte, order binary.ByteOrder) (Region, error) {
	marker := bytes.Index(header, NameCountMarker)
	if marker < 0 {
		return Region{}, skeleton.Formatf("name count marker % x not found", NameCountMarker)
	}
	countAt := marker + len(NameCountMarker)
	count, err := readCount(header, countAt, order)
	if err != nil {
		return Region{}, err
	}

	end := bytes.Index(header, HeaderEndMarker)
	if end < 0 {
		return Region{}, skeleton.Formatf("header end marker not found")
	}
	start := end + len(HeaderEndMarker)
	if start > len(header) {
		return Region{}, skeleton.Formatf("name records start at %d past end of file (%d bytes)", start, len(header))
	}
	if fit := (len(header) - start) / minNameRecordSize; count > fit {
		return Region{}, skeleton.Formatf("name count %d exceeds the %d records that fit after offset %d", count, fit, start)
	}

	return Region{Offset: start, Count: count}, nil
}

// BoneArray locates the root bone's parent field. The array starts 8 bytes
// before it and the bone count sits directly in front of the array.
func (PatternSniffer) BoneArray(data []byte, order binary.ByteOrder) (Region, error) {
	marker := bytes.Index(data, RootParentMarker)
	if marker < 0 {
		return Region{}, skeleton.Formatf("root bone marker not found")
	}
	start := marker - 8
	count, err := readCount(data, start-countFieldSize, order)
	if err != nil {
		return Region{}, err
	}
	if err := checkSpan(data, start, count, BoneRecordSize); err != nil {
		return Region{}, err
	}
	return Region{Offset: start, Count: count}, nil
}

// AnimationIndexTable locates the first three bone indices 0, 1, 2, which
// open every animation's bone index table. The slot count sits directly in
// front of the table.
func (PatternSniffer) AnimationIndexTable(data []byte, order binary.ByteOrder) (Region, error) {
	pattern := animationPattern(order)
	marker := bytes.Index(data, pattern)
	if marker < 0 {
		return Region{}, ErrPatternNotFound
	}
	count, err := readCount(data, marker-countFieldSize, order)
	if err != nil {
		return Region{}, err
	}
	if err := checkSpan(data, marker, count, AnimationSlotSize); err != nil {
		return Region{}, err
	}
	return Region{Offset: marker, Count: count}, nil
}

func animationPattern(order binary.ByteOrder) []byte {
	p := make([]byte, 3*AnimationSlotSize)
	for i := 0; i < 3; i++ {
		order.PutUint32(p[i*AnimationSlotSize:], uint32(i))
	}
	return p
}

func readCount(data []byte, at int, order binary.ByteOrder) (int, error) {
	if at < 0 || at+countFieldSize > len(data) {
		return 0, skeleton.Formatf("count field at offset %d outside file (%d bytes)", at, len(data))
	}
	count := order.Uint32(data[at : at+countFieldSize])
	if count > math.MaxInt32 {
		return 0, skeleton.Formatf("count %d at offset %d is implausible", count, at)
	}
	return int(count), nil
}

func checkSpan(data []byte, start, count, size int) error {
	end := int64(start) + int64(count)*int64(size)
	if start < 0 || end > int64(len(data)) {
		return skeleton.Formatf("%d records of %d bytes at offset %d exceed file size %d", count, size, start, len(data))
	}
	return nil
}
