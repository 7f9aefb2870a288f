package ssa

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSnapshotAndRestoreRoundTrip(t *testing.T) {
	net := buildDecayNetwork(t, 1.0, 100)

	snap := NewSnapshot("run-1", net, 3.5, 7, 1000)
	require.Equal(t, "run-1", snap.RunID)
	require.Equal(t, int64(100), snap.Counts["A"])
	require.Equal(t, int64(0), snap.Counts["B"])

	require.NoError(t, net.SetSpeciesCount("A", 5))
	require.NoError(t, net.SetSpeciesCount("B", 95))

	require.NoError(t, RestoreInto(snap, net))
	countA, _ := net.SpeciesCount("A")
	countB, _ := net.SpeciesCount("B")
	require.Equal(t, int64(100), countA)
	require.Equal(t, int64(0), countB)
}

func TestValidateSnapshotRejectsUnknownSpecies(t *testing.T) {
	net := buildDecayNetwork(t, 1.0, 100)
	snap := Snapshot{RunID: "run-1", Counts: map[string]int64{"Ghost": 1}}
	require.Error(t, ValidateSnapshot(snap, net))
}

func TestValidateSnapshotRejectsMissingRunID(t *testing.T) {
	net := buildDecayNetwork(t, 1.0, 100)
	snap := Snapshot{Counts: map[string]int64{"A": 1}}
	require.Error(t, ValidateSnapshot(snap, net))
}

func TestSnapshotStorePutAndLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	net := buildDecayNetwork(t, 1.0, 100)
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 1.0, 1, 100)))
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 2.0, 2, 200)))
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 3.0, 10, 300)))

	latest, found, err := store.Latest("run-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(10), latest.SimIter)
}

func TestSnapshotStoreLatestMissingRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Latest("does-not-exist")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSnapshotStoreListSnapshotsOrdered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	net := buildDecayNetwork(t, 1.0, 100)
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 1.0, 5, 100)))
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 2.0, 1, 200)))
	require.NoError(t, store.Put(NewSnapshot("run-2", net, 9.0, 1, 300)))

	list, err := store.ListSnapshots("run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(1), list[0].SimIter)
	require.Equal(t, int64(5), list[1].SimIter)
}

func TestSnapshotStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	net := buildDecayNetwork(t, 1.0, 100)

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(NewSnapshot("run-1", net, 1.0, 1, 100)))
	require.NoError(t, store.Close())

	reopened, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	latest, found, err := reopened.Latest("run-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), latest.SimIter)
}
