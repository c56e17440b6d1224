// Package config loads the bonefix tool configuration.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "bonefix.yaml"

// Config controls a build run.
type Config struct {
	ModsDir           string `yaml:"mods_dir"`
	MappingDir        string `yaml:"mapping_dir"`
	CookContentFolder string `yaml:"cook_content_folder"`
	BoneFix           bool   `yaml:"bone_fix"`
	KeepSkeleton      bool   `yaml:"keep_skeleton"`
	Backup            bool   `yaml:"backup"`
	AnimSearchPattern string `yaml:"anim_search_pattern"`
	SkeletonSuffix    string `yaml:"skeleton_suffix"`
	Endian            string `yaml:"byte_order"`
	Verbose           bool   `yaml:"verbose"`

	animPattern *regexp.Regexp
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ModsDir:           "mods",
		MappingDir:        "mapping",
		BoneFix:           true,
		KeepSkeleton:      true,
		Backup:            true,
		AnimSearchPattern: ".*",
		SkeletonSuffix:    "Skeleton",
		Endian:            "little",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks option values and compiles the animation pattern.
func (c *Config) Validate() error {
	if c.ModsDir == "" {
		return fmt.Errorf("mods_dir is required")
	}
	if c.MappingDir == "" {
		return fmt.Errorf("mapping_dir is required")
	}
	re, err := regexp.Compile(c.AnimSearchPattern)
	if err != nil {
		return fmt.Errorf("anim_search_pattern: %w", err)
	}
	c.animPattern = re
	if _, err := parseByteOrder(c.Endian); err != nil {
		return err
	}
	return nil
}

// IsAnimation reports whether a file name is an animation data file this
// run should patch. The pattern is matched at the start of the name.
func (c *Config) IsAnimation(name string) bool {
	if !strings.HasSuffix(name, ".uexp") {
		return false
	}
	if c.animPattern == nil {
		if err := c.Validate(); err != nil {
			return false
		}
	}
	loc := c.animPattern.FindStringIndex(name)
	return loc != nil && loc[0] == 0
}

// ByteOrder returns the configured byte order.
func (c *Config) ByteOrder() binary.ByteOrder {
	order, err := parseByteOrder(c.Endian)
	if err != nil {
		return binary.LittleEndian
	}
	return order
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("byte_order must be 'little' or 'big', got %q", s)
	}
}
