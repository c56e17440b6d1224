package uasset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HeaderExt is the extension of header asset files.
	HeaderExt = ".uasset"

	// DataExt is the extension of data asset files.
	DataExt = ".uexp"
)

// LocateAssetPair finds a header and data file in dir whose stem ends with
// baseName. An empty baseName matches any stem. Either path is empty when
// no such file exists; only a failure to list dir is an error.
func LocateAssetPair(dir, baseName string) (headerPath, dataPath string, err error) {
	return locate(dir, func(stem string) bool {
		return strings.HasSuffix(stem, baseName)
	})
}

// LocateExactPair is LocateAssetPair with the stem required to equal stem.
func LocateExactPair(dir, stem string) (headerPath, dataPath string, err error) {
	return locate(dir, func(s string) bool {
		return s == stem
	})
}

func locate(dir string, match func(stem string) bool) (string, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("list %s: %w", dir, err)
	}

	headers := make(map[string]string)
	datas := make(map[string]string)
	var stems []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if !match(stem) {
			continue
		}
		switch ext {
		case HeaderExt:
			headers[stem] = filepath.Join(dir, name)
			stems = append(stems, stem)
		case DataExt:
			datas[stem] = filepath.Join(dir, name)
			stems = append(stems, stem)
		}
	}

	// Entries are sorted, so prefer the first stem that has both halves.
	for _, stem := range stems {
		if headers[stem] != "" && datas[stem] != "" {
			return headers[stem], datas[stem], nil
		}
	}

	var headerPath, dataPath string
	for _, stem := range stems {
		if headerPath == "" {
			headerPath = headers[stem]
		}
		if dataPath == "" {
			dataPath = datas[stem]
		}
	}
	return headerPath, dataPath, nil
}

// PairPaths returns the header and data paths sharing the stem of path.
func PairPaths(path string) (headerPath, dataPath string) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + HeaderExt, stem + DataExt
}
