// Package uassettest builds synthetic cooked asset files for tests.
//
// The files carry just enough structure for the pattern sniffer: a header
// with a name table, a skeleton data file with a bone record array and an
// animation data file with a bone index table, each wrapped in filler bytes
// that contain none of the markers.
package uassettest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/goopsie/bonefix/pkg/skeleton"
)

// UnusedField is written into the middle field of every bone record so
// tests can check that writers leave it alone.
const UnusedField = 0x0000abcd

// Leading names that are not bones, as real header files carry.
var leadingNames = []string{"None", "/Script/Engine"}

// Bone describes a bone by name and parent position.
type Bone struct {
	Name   string
	Parent int
}

// Header returns a header file declaring names in order.
func Header(names ...string) []byte {
	var buf []byte
	buf = append(buf, 'C', 'O', 'O', 'K', 0x01, 0x00, 0x00, 0x00)
	buf = append(buf, 0x00, 0x22, 0x00, 0x80)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(names)))
	buf = append(buf, 0x10, 0x20, 0x30, 0x40, 0x05, 0x06, 0x07, 0x08)
	buf = append(buf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	for i, name := range names {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)+1))
		buf = append(buf, name...)
		buf = append(buf, 0x00)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(0x1000+i))
	}
	buf = append(buf, 'T', 'A', 'I', 'L')
	return buf
}

// SkeletonData returns a data file holding order as its bone record array.
func SkeletonData(order skeleton.BoneOrder) []byte {
	var buf []byte
	buf = append(buf, 'D', 'A', 'T', 'A', 0x01, 0x02, 0x03, 0x04, 0x11, 0x12, 0x13, 0x14)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(order)))
	for _, b := range order {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(b.NameIndex))
		buf = binary.LittleEndian.AppendUint32(buf, UnusedField)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(b.ParentIndex)))
	}
	buf = append(buf, 0x21, 0x22, 0x23, 0x24, 'E', 'N', 'D', '!')
	return buf
}

// AnimationData returns an animation data file whose bone index table has
// count slots holding 0, 1, ..., count-1.
func AnimationData(count int) []byte {
	var buf []byte
	buf = append(buf, 'A', 'N', 'I', 'M', 0x09, 0x08, 0x07, 0x06)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(count))
	for i := 0; i < count; i++ {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(i))
	}
	buf = append(buf, 0x31, 0x32, 0x33, 0x34)
	return buf
}

// AnimationIndices decodes the bone index table written by AnimationData.
func AnimationIndices(data []byte) []int {
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	out := make([]int, count)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint32(data[12+4*i:]))
	}
	return out
}

// Skeleton builds a header and data file for bones. Bone names are declared
// after a few non-bone names, so name indices differ from bone positions.
func Skeleton(bones []Bone) (header, data []byte) {
	names := append([]string{}, leadingNames...)
	order := make(skeleton.BoneOrder, len(bones))
	for i, b := range bones {
		order[i] = skeleton.Bone{NameIndex: len(names), ParentIndex: b.Parent}
		names = append(names, b.Name)
	}
	names = append(names, "ArrayProperty")
	return Header(names...), SkeletonData(order)
}

// Tables returns the name table and bone order Skeleton encodes.
func Tables(bones []Bone) (skeleton.NameTable, skeleton.BoneOrder) {
	names := make(skeleton.NameTable)
	for i, n := range leadingNames {
		names[i] = n
	}
	order := make(skeleton.BoneOrder, len(bones))
	for i, b := range bones {
		idx := len(names)
		names[idx] = b.Name
		order[i] = skeleton.Bone{NameIndex: idx, ParentIndex: b.Parent}
	}
	names[len(names)] = "ArrayProperty"
	return names, order
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tb.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteSkeleton writes the asset pair for bones as dir/stem.uasset and
// dir/stem.uexp.
func WriteSkeleton(tb testing.TB, dir, stem string, bones []Bone) (headerPath, dataPath string) {
	tb.Helper()
	header, data := Skeleton(bones)
	return WriteFile(tb, dir, stem+".uasset", header), WriteFile(tb, dir, stem+".uexp", data)
}
