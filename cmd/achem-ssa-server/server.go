package main

import (
	"time"

	"github.com/daniacca/achem-ssa/internal/ssa"
)

func snapshotTakenAt() int64 { return time.Now().Unix() }

// ssaLoggerAdapter adapts the server's Logger to the ssa.Logger interface
type ssaLoggerAdapter struct {
	logger *Logger
}

func (a *ssaLoggerAdapter) Debugf(format string, v ...any) { a.logger.Debugf(format, v...) }
func (a *ssaLoggerAdapter) Infof(format string, v ...any)  { a.logger.Infof(format, v...) }
func (a *ssaLoggerAdapter) Warnf(format string, v ...any)  { a.logger.Warnf(format, v...) }
func (a *ssaLoggerAdapter) Errorf(format string, v ...any) { a.logger.Errorf(format, v...) }

// Server hosts one or more concurrent scheduler runs over HTTP.
type Server struct {
	manager   *ssa.EngineManager
	notifiers *ssa.NotificationManager
	metrics   *ssa.Metrics
	snapshots *ssa.SnapshotStore

	snapshotEvery int64
	logger        *Logger
}

// NewServer creates a new server instance wired to metrics (may be nil to
// disable Prometheus collection entirely — Metrics is a nil-safe receiver).
func NewServer(logger *Logger, metrics *ssa.Metrics) *Server {
	return &Server{
		manager:   ssa.NewEngineManager(),
		notifiers: ssa.NewNotificationManager(),
		metrics:   metrics,
		logger:    logger,
	}
}

// ssaLogger adapts s's Logger to ssa.Logger, for schedulers created by run-facing handlers.
func (s *Server) ssaLogger() ssa.Logger {
	return &ssaLoggerAdapter{logger: s.logger}
}

// SetSnapshotStore attaches the durable snapshot store used by the
// periodic and on-demand snapshot endpoints.
func (s *Server) SetSnapshotStore(store *ssa.SnapshotStore) {
	s.snapshots = store
}

// SetSnapshotEvery sets how often (in firings) a run is snapshotted as
// part of its own trajectory recording; 0 disables firing-count snapshots.
func (s *Server) SetSnapshotEvery(every int64) {
	s.snapshotEvery = every
}

// snapshotAllActiveRuns durably persists the current state of every run
// the manager tracks, whatever its status, used by the cron-scheduled
// snapshot job.
func (s *Server) snapshotAllActiveRuns() {
	if s.snapshots == nil {
		return
	}
	for _, id := range s.manager.ListRuns() {
		run, ok := s.manager.GetRun(id)
		if !ok {
			continue
		}
		snap := ssa.NewSnapshot(run.ID, run.Net, run.Scheduler.SimTime(), run.Scheduler.SimIter(), snapshotTakenAt())
		if err := s.snapshots.Put(snap); err != nil {
			s.logger.Errorf("periodic snapshot failed: run_id=%s error=%v", id, err)
			continue
		}
		s.logger.Debugf("periodic snapshot taken: run_id=%s sim_iter=%d", id, run.Scheduler.SimIter())
	}
}
