// Package incremental decides, per compiled output unit, whether it must
// be regenerated or can be skipped. It hashes each unit's compiled inputs,
// diffs against the persisted manifest, and classifies every unit as
// new, changed, unchanged, or removed.
package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/manifest"
)

// Status classifies one output unit relative to the previous build.
type Status string

const (
	// StatusNew means the manifest has no prior record; must generate.
	StatusNew Status = "new"
	// StatusChanged means the prior hash differs; must generate.
	StatusChanged Status = "changed"
	// StatusUnchanged means the prior hash matches; generation (and the
	// external renderer) can be skipped.
	StatusUnchanged Status = "unchanged"
	// StatusRemoved means a prior record has no current unit; its output
	// artifact should be deleted.
	StatusRemoved Status = "removed"
)

// Unit is one compilable output unit presented for classification.
type Unit struct {
	ID   string
	Hash string
}

// Decision is the classification of one unit.
type Decision struct {
	UnitID string
	Status Status
	// Hash is the current content hash; empty for removed units.
	Hash string
}

// NeedsGenerate reports whether the unit must be handed to the renderer.
func (d Decision) NeedsGenerate() bool {
	return d.Status == StatusNew || d.Status == StatusChanged
}

// HashContent computes the content hash over a unit's serialized input
// parts. Parts are length-prefix separated so that boundary shifts
// between parts cannot produce the same digest.
func HashContent(parts ...string) string {
	h := sha256.New()
	var sep [1]byte
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write(sep[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Classify diffs the current units against the prior manifest. Current
// units keep their input order; removed units follow, sorted by ID for a
// deterministic result. When force is set, comparison is bypassed and
// every current unit is classified changed.
func Classify(ctx context.Context, units []Unit, prior *manifest.Manifest, force bool) []Decision {
	logger := ctxlog.FromContext(ctx)

	decisions := make([]Decision, 0, len(units))
	current := make(map[string]bool, len(units))

	for _, u := range units {
		current[u.ID] = true
		switch {
		case force:
			decisions = append(decisions, Decision{UnitID: u.ID, Status: StatusChanged, Hash: u.Hash})
		default:
			rec, ok := prior.Records[u.ID]
			switch {
			case !ok:
				decisions = append(decisions, Decision{UnitID: u.ID, Status: StatusNew, Hash: u.Hash})
			case rec.ContentHash != u.Hash:
				decisions = append(decisions, Decision{UnitID: u.ID, Status: StatusChanged, Hash: u.Hash})
			default:
				decisions = append(decisions, Decision{UnitID: u.ID, Status: StatusUnchanged, Hash: u.Hash})
			}
		}
	}

	var removed []string
	for id := range prior.Records {
		if !current[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		decisions = append(decisions, Decision{UnitID: id, Status: StatusRemoved})
	}

	logger.Debug("Units classified.", "total", len(decisions), "force", force)
	return decisions
}

// NextManifest builds the manifest to persist after this run: one fresh
// record per currently-existing unit, removed entries dropped.
func NextManifest(decisions []Decision, now time.Time) *manifest.Manifest {
	m := manifest.New()
	for _, d := range decisions {
		if d.Status == StatusRemoved {
			continue
		}
		m.Set(d.UnitID, d.Hash, now)
	}
	return m
}
