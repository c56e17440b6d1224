package modbuild

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanMods returns the names of the mod folders directly under modsDir,
// skipping hidden ones.
func ScanMods(modsDir string) ([]string, error) {
	entries, err := os.ReadDir(modsDir)
	if err != nil {
		return nil, fmt.Errorf("list mods: %w", err)
	}

	var mods []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		mods = append(mods, e.Name())
	}
	return mods, nil
}

// ScanFiles walks modDir and returns every regular file below it in
// lexical order.
func ScanFiles(modDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(modDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", modDir, err)
	}

	sort.Strings(files)
	return files, nil
}
