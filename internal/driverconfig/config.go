// Package driverconfig loads the driver-level configuration spec §6 names:
// "Types.nim-style configuration consumed by the core from its driver:
// {sourceFile, debug|release, verbose}". Grounded on
// funvibe-funxy/internal/ext/config.go's yaml.v3 struct-tag loading
// convention, extended with a cache-directory override (spec §4.7's on-disk
// artifact needs a directory to live in, and the spec leaves its location
// to the driver).
package driverconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the record the core consumes from its driver (spec §6).
type Config struct {
	SourceFile string `yaml:"sourceFile"`
	Debug      bool   `yaml:"debug"`
	Verbose    bool   `yaml:"verbose"`

	// CacheDir overrides where compiled-bytecode artifacts are written and
	// read (spec §4.7). Defaults to a ".etchcache" directory alongside the
	// source file when empty.
	CacheDir string `yaml:"cacheDir,omitempty"`
}

// Default returns the configuration for running sourceFile with no project
// file present: debug info on, quiet, cache alongside the source.
func Default(sourceFile string) *Config {
	return &Config{SourceFile: sourceFile, Debug: true, CacheDir: defaultCacheDir(sourceFile)}
}

func defaultCacheDir(sourceFile string) string {
	return filepath.Join(filepath.Dir(sourceFile), ".etchcache")
}

// rawConfig mirrors Config with pointer-typed optional fields so Load can
// tell "absent from the file" apart from "explicitly false", which a plain
// bool field can't (yaml.v3 leaves an unmentioned bool at its zero value).
type rawConfig struct {
	SourceFile string `yaml:"sourceFile"`
	Debug      *bool  `yaml:"debug"`
	Verbose    *bool  `yaml:"verbose"`
	CacheDir   string `yaml:"cacheDir"`
}

// Load reads an optional etch.yaml project file at path, falling back to
// Default(sourceFile) field-by-field for anything the file doesn't set.
// A missing file is not an error — most invocations have none.
func Load(path, sourceFile string) (*Config, error) {
	cfg := Default(sourceFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("driverconfig: read %s: %w", path, err)
	}

	var fromFile rawConfig
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("driverconfig: parse %s: %w", path, err)
	}

	if fromFile.SourceFile != "" {
		cfg.SourceFile = fromFile.SourceFile
	}
	if fromFile.Debug != nil {
		cfg.Debug = *fromFile.Debug
	}
	if fromFile.Verbose != nil {
		cfg.Verbose = *fromFile.Verbose
	}
	if fromFile.CacheDir != "" {
		cfg.CacheDir = fromFile.CacheDir
	}
	return cfg, nil
}

// ReleaseOptimizationLevel is the bytecode compiler's optimization level
// when Debug is false (spec §6: "The release flag turns off debug-info
// emission and raises the bytecode compiler's optimization level").
// internal/compiler currently has one optimization pass (constant folding
// of baked globals, always on), so this is a marker other passes can key
// future optimization tiers off rather than a currently-branching value.
func (c *Config) ReleaseOptimizationLevel() int {
	if c.Debug {
		return 0
	}
	return 1
}
