// Package uasset reads and patches the bone structures of cooked asset pairs.
//
// A pair is a header file (.uasset) holding the name table and a data file
// (.uexp) holding the payload. Only two substructures are understood: the
// name records of the header and the bone record array of a skeleton's data
// file, plus the bone index table of an animation's data file. Everything
// else is left untouched.
package uasset

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/goopsie/bonefix/pkg/skeleton"
)

// nameRecordOverhead is the length prefix plus the 4 trailing bytes of a name record.
const nameRecordOverhead = 8

// ReadNameTable parses the name records of a header file.
func ReadNameTable(header []byte, opts ...Option) (skeleton.NameTable, error) {
	cfg := newConfig(opts)

	region, err := cfg.sniffer.NameTable(header, cfg.byteOrder)
	if err != nil {
		return nil, err
	}

	// Not sized from region.Count: a custom sniffer may pass an unchecked count.
	names := make(skeleton.NameTable)
	offset := region.Offset
	for i := 0; i < region.Count; i++ {
		if offset+countFieldSize > len(header) {
			return nil, skeleton.Formatf("name %d: length field at offset %d past end of file", i, offset)
		}
		length := int(int32(cfg.byteOrder.Uint32(header[offset : offset+countFieldSize])))
		if length <= 0 {
			return nil, skeleton.Formatf("name %d: unsupported length %d at offset %d", i, length, offset)
		}

		textStart := offset + countFieldSize
		textEnd := textStart + length
		if textEnd > len(header) {
			return nil, skeleton.Formatf("name %d: %d bytes at offset %d past end of file", i, length, textStart)
		}

		// Final byte is the null terminator.
		raw := header[textStart : textEnd-1]
		if !utf8.Valid(raw) {
			return nil, skeleton.Formatf("name %d: invalid UTF-8 at offset %d", i, textStart)
		}
		names[i] = string(raw)
		offset += nameRecordOverhead + length
	}

	return names, nil
}

// ReadBoneOrder parses the bone record array of a skeleton data file.
func ReadBoneOrder(data []byte, opts ...Option) (skeleton.BoneOrder, error) {
	cfg := newConfig(opts)

	region, err := cfg.sniffer.BoneArray(data, cfg.byteOrder)
	if err != nil {
		return nil, err
	}

	order := make(skeleton.BoneOrder, region.Count)
	for i := range order {
		rec := data[region.Offset+i*BoneRecordSize : region.Offset+(i+1)*BoneRecordSize]
		order[i] = skeleton.Bone{
			NameIndex:   int(cfg.byteOrder.Uint32(rec[0:4])),
			ParentIndex: int(int32(cfg.byteOrder.Uint32(rec[8:12]))),
		}
	}

	return order, nil
}

// ReadNameTableFile reads and parses a header file.
func ReadNameTableFile(path string, opts ...Option) (skeleton.NameTable, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	names, err := ReadNameTable(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("read name table %s: %w", path, err)
	}
	return names, nil
}

// ReadBoneOrderFile reads and parses a skeleton data file.
func ReadBoneOrderFile(path string, opts ...Option) (skeleton.BoneOrder, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	order, err := ReadBoneOrder(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("read bone order %s: %w", path, err)
	}
	return order, nil
}

// ReadSkeleton reads the name table and bone order of an asset pair.
func ReadSkeleton(headerPath, dataPath string, opts ...Option) (skeleton.NameTable, skeleton.BoneOrder, error) {
	names, err := ReadNameTableFile(headerPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	order, err := ReadBoneOrderFile(dataPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	return names, order, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skeleton.NotFoundf("asset file %s", path)
		}
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}
