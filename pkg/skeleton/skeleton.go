// Package skeleton defines the bone hierarchy types shared by the asset
// readers, the mapping store and the remapper.
//
// A skeleton is recovered from a cooked asset pair: the header file carries a
// name table, the data file carries an ordered array of bone records. A bone's
// position in that array is its index; parents are referenced by index.
package skeleton

import (
	"fmt"
	"strings"
)

// RootBoneName is the name every skeleton's first bone must resolve to.
const RootBoneName = "root"

// NoParent is the parent index stored for the root bone.
const NoParent = -1

// NameTable maps a name index to its declared name.
// Indices are dense and 0-based, assigned in declaration order.
type NameTable map[int]string

// Name resolves a name index.
func (t NameTable) Name(index int) (string, error) {
	name, ok := t[index]
	if !ok {
		return "", Formatf("name index %d not in name table (%d names)", index, len(t))
	}
	return name, nil
}

// Bone is a single bone record.
type Bone struct {
	NameIndex   int
	ParentIndex int // NoParent for the root
}

// IsRoot reports whether the bone has no parent.
func (b Bone) IsRoot() bool {
	return b.ParentIndex == NoParent
}

// BoneOrder is an ordered bone array. A bone's position is its index.
type BoneOrder []Bone

// Clone returns a copy that shares no memory with o.
func (o BoneOrder) Clone() BoneOrder {
	if o == nil {
		return nil
	}
	c := make(BoneOrder, len(o))
	copy(c, o)
	return c
}

// RootName resolves the name of the first bone.
func (o BoneOrder) RootName(names NameTable) (string, error) {
	if len(o) == 0 {
		return "", Invariantf("bone order is empty")
	}
	return names.Name(o[0].NameIndex)
}

// Validate checks that every name index resolves and every parent index is
// either NoParent or a valid index into the same order.
func (o BoneOrder) Validate(names NameTable) error {
	for i, b := range o {
		if _, err := names.Name(b.NameIndex); err != nil {
			return fmt.Errorf("bone %d: %w", i, err)
		}
		if b.ParentIndex == NoParent {
			continue
		}
		if b.ParentIndex < 0 || b.ParentIndex >= len(o) {
			return Invariantf("bone %d: parent index %d outside [0, %d)", i, b.ParentIndex, len(o))
		}
	}
	return nil
}

// Names resolves every bone name in order.
func (o BoneOrder) Names(names NameTable) ([]string, error) {
	out := make([]string, len(o))
	for i, b := range o {
		name, err := names.Name(b.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		out[i] = name
	}
	return out, nil
}

// Format renders the order one bone per line, the way the inspect command
// prints it.
func (o BoneOrder) Format(names NameTable) string {
	var sb strings.Builder
	for i, b := range o {
		name, ok := names[b.NameIndex]
		if !ok {
			name = fmt.Sprintf("<name %d>", b.NameIndex)
		}
		fmt.Fprintf(&sb, "%4d  %-32s parent %d\n", i, name, b.ParentIndex)
	}
	return sb.String()
}

// IndexTranslation maps an old bone index to its new index: t[old] = new.
// It is produced once per remap and not modified afterwards.
type IndexTranslation []int

// Lookup returns the new index for an old index.
func (t IndexTranslation) Lookup(old int) (int, bool) {
	if old < 0 || old >= len(t) {
		return 0, false
	}
	return t[old], true
}
