// Package mapping persists the target bone layout a skeleton is remapped to.
//
// A mapping is derived once from an original, unmodified asset pair and
// stored as JSON next to the mod it belongs to:
//
//	{
//	  "bone_count": 3,
//	  "bones": [
//	    { "bone_name": "root", "bone_index": 0 },
//	    ...
//	  ]
//	}
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goopsie/bonefix/pkg/skeleton"
	"github.com/goopsie/bonefix/pkg/uasset"
)

// FileSuffix is appended to a skeleton's stem to name its mapping file.
const FileSuffix = "-map.json"

// Entry is the position a named bone occupies in the target layout.
type Entry struct {
	BoneName  string `json:"bone_name"`
	BoneIndex int    `json:"bone_index"`
}

// Mapping is a target bone layout.
type Mapping struct {
	BoneCount int     `json:"bone_count"`
	Bones     []Entry `json:"bones"`

	byName map[string]int
}

// FileName returns the mapping file name for a skeleton stem.
func FileName(skeletonStem string) string {
	return skeletonStem + FileSuffix
}

// FromBoneOrder builds a mapping whose entries follow order, resolving each
// bone's name through names.
func FromBoneOrder(order skeleton.BoneOrder, names skeleton.NameTable) (*Mapping, error) {
	m := &Mapping{
		BoneCount: len(order),
		Bones:     make([]Entry, len(order)),
	}
	for i, b := range order {
		name, err := names.Name(b.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		m.Bones[i] = Entry{BoneName: name, BoneIndex: i}
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.Bones)
}

// Index returns the target index of a bone name.
func (m *Mapping) Index(name string) (int, bool) {
	if m.byName == nil {
		if err := m.index(); err != nil {
			return 0, false
		}
	}
	i, ok := m.byName[name]
	return i, ok
}

// Names returns the bone names in entry order.
func (m *Mapping) Names() []string {
	names := make([]string, len(m.Bones))
	for i, e := range m.Bones {
		names[i] = e.BoneName
	}
	return names
}

// Validate checks that the declared count matches the entries and that
// names and indices are unique, with every index inside [0, bone_count).
func (m *Mapping) Validate() error {
	if m.BoneCount != len(m.Bones) {
		return skeleton.Formatf("bone_count %d does not match %d bone entries", m.BoneCount, len(m.Bones))
	}
	return m.index()
}

func (m *Mapping) index() error {
	byName := make(map[string]int, len(m.Bones))
	seen := make(map[int]string, len(m.Bones))
	for _, e := range m.Bones {
		if _, dup := byName[e.BoneName]; dup {
			return skeleton.Formatf("duplicate bone name %q", e.BoneName)
		}
		if e.BoneIndex < 0 || e.BoneIndex >= m.BoneCount {
			return skeleton.Formatf("bone %q: index %d outside [0, %d)", e.BoneName, e.BoneIndex, m.BoneCount)
		}
		if other, dup := seen[e.BoneIndex]; dup {
			return skeleton.Formatf("bones %q and %q share index %d", other, e.BoneName, e.BoneIndex)
		}
		byName[e.BoneName] = e.BoneIndex
		seen[e.BoneIndex] = e.BoneName
	}
	m.byName = byName
	return nil
}

// MarshalIndent encodes the mapping the way mapping files are written.
func (m *Mapping) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Parse decodes and validates a mapping record.
func Parse(data []byte) (*Mapping, error) {
	m := &Mapping{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(m); err != nil {
		return nil, skeleton.Formatf("decode mapping: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the mapping for order to path, creating parent directories.
func Save(path string, order skeleton.BoneOrder, names skeleton.NameTable) error {
	m, err := FromBoneOrder(order, names)
	if err != nil {
		return fmt.Errorf("build mapping: %w", err)
	}
	return Write(path, m)
}

// Write encodes m to path, creating parent directories.
func Write(path string, m *Mapping) error {
	data, err := m.MarshalIndent()
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Load reads a mapping file.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, skeleton.NotFoundf("mapping file %s", path)
		}
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// Derive builds a mapping from the original asset pair in referenceDir
// whose stem is skeletonStem, saves it to mappingPath and returns what was
// loaded back from disk, so the persisted and in-memory forms never differ.
func Derive(referenceDir, skeletonStem, mappingPath string, opts ...uasset.Option) (*Mapping, error) {
	headerPath, dataPath, err := uasset.LocateExactPair(referenceDir, skeletonStem)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("locate original skeleton: %w", err)
	}
	if headerPath == "" || dataPath == "" {
		return nil, skeleton.NotFoundf("original %s%s and %s%s not both present in %s; place the original pair in the mapping folder",
			skeletonStem, uasset.HeaderExt, skeletonStem, uasset.DataExt, referenceDir)
	}

	names, order, err := uasset.ReadSkeleton(headerPath, dataPath, opts...)
	if err != nil {
		return nil, err
	}
	if err := Save(mappingPath, order, names); err != nil {
		return nil, err
	}
	return Load(mappingPath)
}
