package main

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"
)

// runSnapshotScheduler durably snapshots every active run according to
// cronSpec (gorhill/cronexpr syntax, e.g. "*/5 * * * *") until ctx is
// cancelled. A malformed or empty cronSpec disables the job entirely.
func runSnapshotScheduler(ctx context.Context, srv *Server, cronSpec string) {
	if cronSpec == "" {
		return
	}
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		srv.logger.Errorf("invalid snapshot-cron expression %q: %v (periodic snapshots disabled)", cronSpec, err)
		return
	}

	for {
		next := expr.Next(time.Now())
		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			srv.snapshotAllActiveRuns()
		}
	}
}
