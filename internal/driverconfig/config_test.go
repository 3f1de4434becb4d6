package driverconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/driverconfig"
)

func TestDefaultEnablesDebugAndDerivesCacheDir(t *testing.T) {
	cfg := driverconfig.Default("/tmp/proj/main.etch")
	if !cfg.Debug {
		t.Error("Default should enable debug info")
	}
	if cfg.CacheDir != filepath.Join("/tmp/proj", ".etchcache") {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, filepath.Join("/tmp/proj", ".etchcache"))
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := driverconfig.Load(filepath.Join(t.TempDir(), "nope.yaml"), "main.etch")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceFile != "main.etch" || !cfg.Debug {
		t.Errorf("cfg = %+v, want Default(main.etch)", cfg)
	}
}

func TestLoadPreservesDefaultDebugWhenFileOmitsIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etch.yaml")
	if err := os.WriteFile(path, []byte("cacheDir: /custom/cache\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := driverconfig.Load(path, "main.etch")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("omitting `debug:` from the project file must not disable it")
	}
	if cfg.CacheDir != "/custom/cache" {
		t.Errorf("CacheDir = %q, want /custom/cache", cfg.CacheDir)
	}
}

func TestLoadHonorsExplicitDebugFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etch.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := driverconfig.Load(path, "main.etch")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Debug {
		t.Error("explicit debug: false should disable debug info")
	}
	if cfg.ReleaseOptimizationLevel() != 1 {
		t.Errorf("ReleaseOptimizationLevel() = %d, want 1 in release mode", cfg.ReleaseOptimizationLevel())
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etch.yaml")
	if err := os.WriteFile(path, []byte("debug: [this is not a bool\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := driverconfig.Load(path, "main.etch"); err == nil {
		t.Fatal("expected an error parsing malformed YAML")
	}
}
