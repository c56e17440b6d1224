package modbuild

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ModConfigName is the per-mod record kept in the mod's mapping folder.
const ModConfigName = "modconfig.json"

// contentDir marks where cooked content paths become relative.
const contentDir = "Content/"

// ModConfig records where a mod's content lives and which cooked files it
// takes from the cook folder.
type ModConfig struct {
	ModContentPath string   `json:"mod_content_path"`
	ModFiles       []string `json:"mod_files"`
}

// ReadModConfig reads the record in mappingModDir. It returns nil without
// an error when the mod has no record yet.
func ReadModConfig(mappingModDir string) (*ModConfig, error) {
	data, err := os.ReadFile(filepath.Join(mappingModDir, ModConfigName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mod config: %w", err)
	}

	mc := &ModConfig{}
	if err := json.Unmarshal(data, mc); err != nil {
		return nil, fmt.Errorf("parse mod config: %w", err)
	}
	return mc, nil
}

// UpdateModConfig fills in whatever existing lacks from the mod's files and
// writes the record back to mappingModDir. Without an existing record every
// file below a Content folder is listed relative to it.
func UpdateModConfig(existing *ModConfig, mappingModDir string, modFiles []string) (*ModConfig, error) {
	mc := &ModConfig{}

	if existing != nil && existing.ModContentPath != "" {
		mc.ModContentPath = existing.ModContentPath
	} else if len(modFiles) > 0 {
		if prefix, _, ok := splitContent(modFiles[0]); ok {
			mc.ModContentPath = prefix
		}
	}

	if existing != nil {
		mc.ModFiles = existing.ModFiles
	} else {
		for _, f := range modFiles {
			if _, rel, ok := splitContent(f); ok {
				mc.ModFiles = append(mc.ModFiles, rel)
			}
		}
	}
	if mc.ModFiles == nil {
		mc.ModFiles = []string{}
	}

	if err := os.MkdirAll(mappingModDir, 0755); err != nil {
		return nil, fmt.Errorf("create mapping dir: %w", err)
	}
	data, err := json.MarshalIndent(mc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal mod config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(mappingModDir, ModConfigName), append(data, '\n'), 0644); err != nil {
		return nil, fmt.Errorf("write mod config: %w", err)
	}
	return mc, nil
}

// CopyCookedFiles copies every listed file from cookContentFolder into the
// mod's content path.
func CopyCookedFiles(mc *ModConfig, cookContentFolder string) (int, error) {
	if mc.ModContentPath == "" {
		return 0, nil
	}
	copied := 0
	for _, rel := range mc.ModFiles {
		src := filepath.Join(cookContentFolder, filepath.FromSlash(rel))
		dst := filepath.Join(filepath.FromSlash(mc.ModContentPath), filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", rel, err)
		}
		copied++
	}
	return copied, nil
}

// splitContent splits path after its first Content folder into the prefix
// (ending in "Content/") and the slash-separated remainder.
func splitContent(path string) (prefix, rel string, ok bool) {
	p := filepath.ToSlash(path)
	i := strings.Index(p, contentDir)
	if i < 0 {
		return "", "", false
	}
	end := i + len(contentDir)
	return p[:end], p[end:], true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
