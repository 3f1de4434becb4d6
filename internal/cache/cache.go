package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Ext is the cache artifact's file extension.
const Ext = ".etchc"

// ComputeHash derives the artifact's source-hash field from the source text
// and the debug/release flag (spec §4.7: "The source-hash field ... is
// derived from the source text and the debug/release flag"), so toggling
// release mode alone invalidates a cache hit even with unchanged source.
func ComputeHash(source []byte, debug bool) [HashSize]byte {
	h := sha256.New()
	h.Write(source)
	if debug {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var out [HashSize]byte
	copy(out[:], h.Sum(nil)) // sha256 is exactly HashSize bytes; no NUL padding needed
	return out
}

// PathFor returns the cache file path for sourceFile under cacheDir.
func PathFor(cacheDir, sourceFile string) string {
	return filepath.Join(cacheDir, filepath.Base(sourceFile)+Ext)
}

// Load returns a cached Artifact for sourceFile, and whether it was usable.
// A cache hit (spec §4.7) requires: the artifact exists, the source file's
// modification time is not newer than the artifact's, and the embedded hash
// equals the hash of the current source text and debug flag.
func Load(cacheDir, sourceFile string, source []byte, debug bool) (*Artifact, bool, error) {
	cachePath := PathFor(cacheDir, sourceFile)

	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return nil, false, nil
	}
	srcInfo, err := os.Stat(sourceFile)
	if err != nil {
		return nil, false, fmt.Errorf("cache: stat source %s: %w", sourceFile, err)
	}
	if srcInfo.ModTime().After(cacheInfo.ModTime()) {
		return nil, false, nil
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s: %w", cachePath, err)
	}
	artifact, err := Decode(data)
	if err != nil {
		// A corrupt or foreign-version cache file is a miss, not a hard
		// error: the driver simply recompiles (spec §4.7 doesn't treat a
		// stale/bad cache as fatal).
		return nil, false, nil
	}
	if artifact.SourceHash != ComputeHash(source, debug) {
		return nil, false, nil
	}
	return artifact, true, nil
}

// Store writes artifact to cacheDir for sourceFile atomically: encode to a
// uuid-named temp file in the same directory, then os.Rename onto the final
// path, so a crash mid-write never leaves a reader-visible partial artifact
// (spec §5 "scoped acquisition ... released on every exit path").
func Store(cacheDir, sourceFile string, artifact *Artifact) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("cache: create cache dir %s: %w", cacheDir, err)
	}

	data, err := Encode(artifact)
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(cacheDir, fmt.Sprintf(".%s.tmp", uuid.New().String()))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("cache: write temp artifact: %w", err)
	}

	finalPath := PathFor(cacheDir, sourceFile)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: rename temp artifact onto %s: %w", finalPath, err)
	}
	return nil
}
