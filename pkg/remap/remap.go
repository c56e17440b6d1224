// Package remap reorders a skeleton's bones to match a target mapping.
//
// Bones named in the mapping move to the mapping's index. Bones the mapping
// does not know ("extra" bones, usually added by a mod) are appended after
// the mapped slots in their original relative order. Parent references are
// rewritten through the resulting index translation, which is also what
// dependent animations are patched with.
package remap

import (
	"fmt"

	"github.com/goopsie/bonefix/pkg/mapping"
	"github.com/goopsie/bonefix/pkg/skeleton"
)

// Result is the outcome of one remap.
type Result struct {
	// Order is the new bone order. Its length is the mapping's bone count
	// plus the number of extra bones.
	Order skeleton.BoneOrder

	// Translation maps every old index that took part in the remap to its
	// new index.
	Translation skeleton.IndexTranslation

	// Extras lists the old indices of bones missing from the mapping, in
	// the order they were appended.
	Extras []int

	// Gaps lists mapping slots no source bone filled. They hold a zero
	// bone record.
	Gaps []int

	// Warnings holds the count mismatch, if any.
	Warnings []skeleton.CountMismatch
}

// Truncated reports whether source bones were dropped before remapping.
func (r *Result) Truncated() bool {
	for _, w := range r.Warnings {
		if w.Dropped > 0 {
			return true
		}
	}
	return false
}

// Remap computes the new bone order of old under m.
//
// When the mapping has fewer bones than old, old is truncated from its tail
// to the mapping's length first; the dropped bones take no further part and
// have no translation entry. old itself is never modified.
//
// The first bone must be named "root"; otherwise ErrInvariant is returned
// and no result is produced.
func Remap(m *mapping.Mapping, old skeleton.BoneOrder, names skeleton.NameTable) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}

	res := &Result{}
	work := old
	if m.Len() != len(old) {
		w := skeleton.CountMismatch{Mapping: m.Len(), Source: len(old)}
		if m.Len() < len(old) {
			w.Dropped = len(old) - m.Len()
			work = old[:m.Len()].Clone()
		}
		res.Warnings = append(res.Warnings, w)
	}

	rootName, err := work.RootName(names)
	if err != nil {
		return nil, err
	}
	if rootName != skeleton.RootBoneName {
		return nil, skeleton.Invariantf("first bone is %q, expected %q", rootName, skeleton.RootBoneName)
	}
	if err := work.Validate(names); err != nil {
		return nil, err
	}

	// Pass 1: assign every old index its new index.
	res.Translation = make(skeleton.IndexTranslation, len(work))
	claimed := make(map[int]int, len(work))
	for i, b := range work {
		name := names[b.NameIndex]
		if j, ok := m.Index(name); ok {
			if prev, dup := claimed[j]; dup {
				return nil, skeleton.Invariantf("bones %d and %d are both named %q", prev, i, name)
			}
			claimed[j] = i
			res.Translation[i] = j
			continue
		}
		res.Extras = append(res.Extras, i)
	}
	for k, i := range res.Extras {
		res.Translation[i] = m.BoneCount + k
	}

	// Pass 2: place bones and rewrite parents through the finished translation.
	res.Order = make(skeleton.BoneOrder, m.BoneCount+len(res.Extras))
	filled := make([]bool, len(res.Order))
	for i, b := range work {
		parent := skeleton.NoParent
		if !b.IsRoot() {
			parent = res.Translation[b.ParentIndex]
		}
		j := res.Translation[i]
		res.Order[j] = skeleton.Bone{NameIndex: b.NameIndex, ParentIndex: parent}
		filled[j] = true
	}
	for j := 0; j < m.BoneCount; j++ {
		if !filled[j] {
			res.Gaps = append(res.Gaps, j)
		}
	}

	return res, nil
}
