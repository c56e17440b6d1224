package uasset

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goopsie/bonefix/pkg/skeleton"
)

var (
	// ErrCountChange is returned when a bone order would change the number
	// of records stored in a data file. Count changes need new file space,
	// which in-place patching cannot provide.
	ErrCountChange = fmt.Errorf("%w: bone count change", skeleton.ErrFormat)

	// ErrPatternNotFound is returned when an animation's bone index table
	// could not be located.
	ErrPatternNotFound = fmt.Errorf("%w: animation bone index pattern not found", skeleton.ErrFormat)
)

// PatchBoneOrder overwrites the name index and parent index of every bone
// record in data. The unused middle field of each record is left alone.
// All preconditions are checked before the first byte changes.
func PatchBoneOrder(data []byte, order skeleton.BoneOrder, opts ...Option) error {
	if len(order) == 0 {
		return nil
	}
	cfg := newConfig(opts)

	region, err := cfg.sniffer.BoneArray(data, cfg.byteOrder)
	if err != nil {
		return err
	}
	if region.Count != len(order) {
		return fmt.Errorf("%w: file holds %d bone records, order has %d", ErrCountChange, region.Count, len(order))
	}
	for i, b := range order {
		if b.NameIndex < 0 || int64(b.NameIndex) > math.MaxUint32 {
			return skeleton.Formatf("bone %d: name index %d does not fit a record", i, b.NameIndex)
		}
		if int64(b.ParentIndex) < math.MinInt32 || int64(b.ParentIndex) > math.MaxInt32 {
			return skeleton.Formatf("bone %d: parent index %d does not fit a record", i, b.ParentIndex)
		}
	}

	for i, b := range order {
		rec := data[region.Offset+i*BoneRecordSize : region.Offset+(i+1)*BoneRecordSize]
		cfg.byteOrder.PutUint32(rec[0:4], uint32(b.NameIndex))
		cfg.byteOrder.PutUint32(rec[8:12], uint32(int32(b.ParentIndex)))
	}
	return nil
}

// PatchAnimationBoneIndices replaces slot i of an animation's bone index
// table with t[i]. It returns the number of slots rewritten. A nil
// translation is a no-op.
func PatchAnimationBoneIndices(data []byte, t skeleton.IndexTranslation, opts ...Option) (int, error) {
	if t == nil {
		return 0, nil
	}
	cfg := newConfig(opts)

	region, err := cfg.sniffer.AnimationIndexTable(data, cfg.byteOrder)
	if err != nil {
		return 0, err
	}
	for i := 0; i < region.Count; i++ {
		if _, ok := t.Lookup(i); !ok {
			return 0, skeleton.Formatf("animation references bone %d but the translation covers %d bones", i, len(t))
		}
	}

	for i := 0; i < region.Count; i++ {
		at := region.Offset + i*AnimationSlotSize
		cfg.byteOrder.PutUint32(data[at:at+AnimationSlotSize], uint32(t[i]))
	}
	return region.Count, nil
}

// WriteBoneOrder patches the bone records of a skeleton data file in place.
// The array is located again from the current file contents rather than
// from offsets found by an earlier read.
func WriteBoneOrder(dataPath string, order skeleton.BoneOrder, opts ...Option) error {
	if len(order) == 0 {
		return nil
	}
	return patchFile(dataPath, func(data []byte) error {
		return PatchBoneOrder(data, order, opts...)
	})
}

// WriteAnimationBoneIndices patches the bone index table of an animation
// data file in place and returns the number of slots rewritten.
func WriteAnimationBoneIndices(animPath string, t skeleton.IndexTranslation, opts ...Option) (int, error) {
	if t == nil {
		return 0, nil
	}
	var n int
	err := patchFile(animPath, func(data []byte) error {
		var err error
		n, err = PatchAnimationBoneIndices(data, t, opts...)
		return err
	})
	return n, err
}

// patchFile reads the whole file, lets patch mutate a copy of the bytes and
// writes back only the changed span. The file length never changes.
func patchFile(path string, patch func(data []byte) error) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return skeleton.NotFoundf("asset file %s", path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	original, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	data := make([]byte, len(original))
	copy(data, original)

	if err := patch(data); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	start, end := changedSpan(original, data)
	if start == end {
		return nil
	}
	if _, err := f.WriteAt(data[start:end], int64(start)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// changedSpan returns the smallest [start, end) covering every differing byte.
func changedSpan(a, b []byte) (int, int) {
	start := 0
	for start < len(a) && a[start] == b[start] {
		start++
	}
	if start == len(a) {
		return 0, 0
	}
	end := len(a)
	for end > start && a[end-1] == b[end-1] {
		end--
	}
	return start, end
}
