package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// SnapshotPath returns the snapshot cache file for a provider.
func SnapshotPath(providerID string) string {
	return filepath.Join(config.SnapshotsDir(), providerID+".pb")
}

// SaveSnapshot persists a snapshot, replacing any previous one for the
// provider. The write is atomic: temp file plus rename, so a concurrent
// reader never sees a torn file.
func SaveSnapshot(snapshot models.UsageSnapshot) error {
	path := SnapshotPath(snapshot.Provider)
	if err := writeAtomic(path, EncodeSnapshot(snapshot.Normalize())); err != nil {
		return fmt.Errorf("caching snapshot for %s: %w", snapshot.Provider, err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot for a provider, or nil when
// absent or undecodable. Decode failures are deliberately silent — a
// corrupt cache entry is the same as no cache entry.
func LoadSnapshot(providerID string) *models.UsageSnapshot {
	data, err := os.ReadFile(SnapshotPath(providerID))
	if err != nil {
		return nil
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil
	}
	if len(snap.Periods) == 0 {
		return nil
	}
	return &snap
}

// ClearSnapshot removes the cached snapshot for a provider, or all
// snapshots when providerID is empty.
func ClearSnapshot(providerID string) {
	if providerID != "" {
		_ = os.Remove(SnapshotPath(providerID))
		return
	}
	entries, _ := os.ReadDir(config.SnapshotsDir())
	for _, e := range entries {
		_ = os.Remove(filepath.Join(config.SnapshotsDir(), e.Name()))
	}
}

// SnapshotStore adapts the snapshot functions to the fetch.Cache interface,
// enabling dependency injection in the fetch pipeline.
type SnapshotStore struct{}

func (SnapshotStore) Save(snapshot models.UsageSnapshot) error {
	return SaveSnapshot(snapshot)
}

func (SnapshotStore) Load(providerID string) *models.UsageSnapshot {
	return LoadSnapshot(providerID)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
