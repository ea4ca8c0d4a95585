// Package manifest persists the last-known content hash per compiled
// output unit between builds. The incremental engine diffs against it to
// decide which units to regenerate.
//
// The file format is JSON, but that is an implementation detail: the only
// contract is an exact round-trip. A missing or unreadable manifest is
// not an error; the build degrades to treating every unit as new.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/chartbook/internal/ctxlog"
)

// Record is the persisted state of one output unit.
type Record struct {
	UnitID      string    `json:"unit_id"`
	ContentHash string    `json:"content_hash"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Manifest maps unit IDs to their last-built records.
type Manifest struct {
	Records map[string]Record `json:"records"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Records: make(map[string]Record)}
}

// Set stores a fresh record for a unit, stamping the generation time.
func (m *Manifest) Set(unitID, contentHash string, now time.Time) {
	m.Records[unitID] = Record{UnitID: unitID, ContentHash: contentHash, GeneratedAt: now.UTC()}
}

// Load reads a manifest from disk. A missing file yields an empty
// manifest. A corrupt file is logged and also yields an empty manifest:
// over-building beats failing the build.
func Load(ctx context.Context, path string) *Manifest {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No manifest found, treating all units as new.", "path", path)
		return New()
	}
	if err != nil {
		logger.Warn("Manifest unreadable, treating all units as new.", "path", path, "error", err)
		return New()
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Warn("Manifest corrupt, treating all units as new.", "path", path, "error", err)
		return New()
	}
	if m.Records == nil {
		m.Records = make(map[string]Record)
	}
	logger.Debug("Manifest loaded.", "path", path, "units", len(m.Records))
	return &m
}

// Write persists the manifest atomically: the content lands in a temp
// file in the target directory and replaces the old manifest in a single
// rename. An interrupted build therefore leaves the previous manifest
// intact.
func (m *Manifest) Write(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace manifest %s: %w", path, err)
	}

	logger.Debug("Manifest written.", "path", path, "units", len(m.Records))
	return nil
}
