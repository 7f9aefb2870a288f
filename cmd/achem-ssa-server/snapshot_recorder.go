package main

import "github.com/daniacca/achem-ssa/internal/ssa"

// snapshotRecorder wraps an inner ssa.Recorder and durably snapshots the
// run's species counts every `every` firings, composing the same way
// ssa.NotifyingRecorder and ssa.MetricsRecorder wrap an inner recorder.
type snapshotRecorder struct {
	inner ssa.Recorder
	store *ssa.SnapshotStore
	runID string
	every int64
	net   *ssa.Network
	seen  int64
}

func newSnapshotRecorder(inner ssa.Recorder, store *ssa.SnapshotStore, runID string, every int64) *snapshotRecorder {
	return &snapshotRecorder{inner: inner, store: store, runID: runID, every: every}
}

func (s *snapshotRecorder) Initialize(net *ssa.Network) error {
	s.net = net
	return s.inner.Initialize(net)
}

func (s *snapshotRecorder) RecordStep(simTime float64, fired ssa.ReactionID) error {
	s.seen++
	if s.every > 0 && s.store != nil && s.seen%s.every == 0 {
		snap := ssa.NewSnapshot(s.runID, s.net, simTime, s.seen, snapshotTakenAt())
		if err := s.store.Put(snap); err != nil {
			return err
		}
	}
	return s.inner.RecordStep(simTime, fired)
}

func (s *snapshotRecorder) Flush() error { return s.inner.Flush() }
