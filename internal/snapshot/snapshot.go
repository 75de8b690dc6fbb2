package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
)

// FormatGeneration is bumped whenever the snapshot shape changes. A stored
// snapshot with a different generation is discarded, never migrated.
const FormatGeneration = 1

// Snapshot is the single cached identity+profile pair from the last
// successful reconciliation.
type Snapshot struct {
	Generation int               `json:"generation"`
	SavedAt    time.Time         `json:"saved_at"`
	Token      string            `json:"token"`
	Identity   identity.Identity `json:"identity"`
	Profile    models.Profile    `json:"profile"`
}

// Store persists at most one snapshot on disk. Reads validate TTL and
// format generation; anything invalid reads as a miss.
type Store struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
}

// NewStore builds a snapshot store from config.
func NewStore(cfg config.SnapshotConfig) *Store {
	return &Store{path: cfg.Path, ttl: cfg.TTL}
}

// Read returns the cached snapshot, or ok=false when the slot is empty,
// stale, from another format generation, or unreadable.
func (s *Store) Read() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	if snap.Generation != FormatGeneration {
		return nil, false
	}
	if s.ttl > 0 && time.Since(snap.SavedAt) > s.ttl {
		return nil, false
	}
	return &snap, true
}

// Write stores the snapshot atomically (temp file + rename).
func (s *Store) Write(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Generation = FormatGeneration
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "encoding session snapshot")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating snapshot directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating snapshot temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.CodeInternal, err, "writing session snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.CodeInternal, err, "closing snapshot temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.CodeInternal, err, "replacing session snapshot")
	}
	return nil
}

// Clear removes the snapshot. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.CodeInternal, err, "removing session snapshot")
	}
	return nil
}
