package ssa

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Snapshot is a point-in-time capture of a run's species populations,
// durable enough to resume a scheduler from (within the limits noted on
// RestoreInto: it restores counts, not the RNG/digest state needed for
// exact rollback continuity).
type Snapshot struct {
	RunID   string           `json:"run_id"`
	SimTime float64          `json:"sim_time"`
	SimIter int64            `json:"sim_iter"`
	TakenAt int64            `json:"taken_at"`
	Counts  map[string]int64 `json:"counts"`
}

// ValidateSnapshot checks a snapshot references a species set compatible
// with net: every counted species must exist in the network.
func ValidateSnapshot(snap Snapshot, net *Network) error {
	if snap.RunID == "" {
		return fmt.Errorf("snapshot run_id is required")
	}
	for name := range snap.Counts {
		if _, ok := net.SpeciesCount(SpeciesName(name)); !ok {
			return fmt.Errorf("snapshot references unknown species %q", name)
		}
	}
	return nil
}

// NewSnapshot captures net's current counts under runID.
func NewSnapshot(runID string, net *Network, simTime float64, simIter int64, takenAt int64) Snapshot {
	species := net.SpeciesList()
	counts := make(map[string]int64, len(species))
	for _, s := range species {
		c, _ := net.SpeciesCount(s)
		counts[string(s)] = c
	}
	return Snapshot{
		RunID:   runID,
		SimTime: simTime,
		SimIter: simIter,
		TakenAt: takenAt,
		Counts:  counts,
	}
}

// RestoreInto writes snap's species counts back into net. Only counts are
// restored: the RNG state, the digest stack and the scheduler's sim
// time/iteration are not part of a Snapshot and are left untouched.
func RestoreInto(snap Snapshot, net *Network) error {
	for name, count := range snap.Counts {
		if err := net.SetSpeciesCount(SpeciesName(name), count); err != nil {
			return err
		}
	}
	return nil
}

var snapshotsBucket = []byte("snapshots")

// SnapshotStore is a durable, embedded store of Snapshots keyed by
// "<run_id>/<sim_iter>", backed by bbolt so a long simulation can resume
// after a process restart without an external database. The
// cronexpr-scheduled periodic snapshot job (cmd/achem-ssa-server) writes
// through this type.
type SnapshotStore struct {
	db *bbolt.DB
}

// OpenSnapshotStore opens (creating if absent) a bbolt database file at
// path and ensures the snapshots bucket exists.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening snapshot store: %v", ErrIOFailure, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: initializing snapshot bucket: %v", ErrIOFailure, err)
	}
	return &SnapshotStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *SnapshotStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

func snapshotKey(runID string, simIter int64) []byte {
	return []byte(fmt.Sprintf("%s/%020d", runID, simIter))
}

// Put durably writes a snapshot, keyed by (RunID, SimIter).
func (s *SnapshotStore) Put(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Put(snapshotKey(snap.RunID, snap.SimIter), data)
	})
	if err != nil {
		return fmt.Errorf("%w: writing snapshot: %v", ErrIOFailure, err)
	}
	return nil
}

// Latest returns the snapshot with the highest SimIter for runID, if any.
func (s *SnapshotStore) Latest(runID string) (Snapshot, bool, error) {
	var snap Snapshot
	found := false
	prefix := []byte(runID + "/")

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(snapshotsBucket).Cursor()
		var lastKey, lastVal []byte
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			lastKey, lastVal = k, v
		}
		if lastKey == nil {
			return nil
		}
		found = true
		return json.Unmarshal(lastVal, &snap)
	})
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: reading snapshot: %v", ErrIOFailure, err)
	}
	return snap, found, nil
}

// ListSnapshots returns every snapshot recorded for runID, oldest first.
func (s *SnapshotStore) ListSnapshots(runID string) ([]Snapshot, error) {
	var out []Snapshot
	prefix := []byte(runID + "/")

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(snapshotsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			out = append(out, snap)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing snapshots: %v", ErrIOFailure, err)
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
