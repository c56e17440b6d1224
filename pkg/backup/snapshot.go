package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Ext is appended to a file's path to name its snapshot.
const Ext = ".bak"

// Path returns the snapshot path for path.
func Path(path string) string {
	return path + Ext
}

// Snapshot stores the current contents of path in its snapshot file. An
// existing snapshot is kept, so it always holds the file as it was before
// the first patch. It reports whether a new snapshot was written.
func Snapshot(path string) (bool, error) {
	snapPath := Path(path)
	if _, err := os.Stat(snapPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat snapshot: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	tmp := snapPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Errorf("create snapshot: %w", err)
	}
	if err := Encode(f, data); err != nil {
		f.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, snapPath); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("finalize snapshot: %w", err)
	}
	return true, nil
}

// Restore overwrites path with its snapshot and removes the snapshot.
func Restore(path string) error {
	snapPath := Path(path)
	f, err := os.Open(snapPath)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	data, err := ReadAll(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", snapPath, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Remove(snapPath); err != nil {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Find walks root and returns the original paths of every snapshot below it.
func Find(root string) ([]string, error) {
	var originals []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, Ext) {
			return nil
		}
		originals = append(originals, strings.TrimSuffix(path, Ext))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return originals, nil
}
