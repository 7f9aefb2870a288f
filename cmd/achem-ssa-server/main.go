// Command achem-ssa-server hosts many concurrent reaction-network runs
// behind an HTTP API: load a network, seed it, drive it, and inspect its
// state, trajectory report, or Prometheus metrics while it runs.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/daniacca/achem-ssa/internal/ssa"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	metrics := ssa.NewMetrics(registry)

	srv := NewServer(logger, metrics)

	store, err := ssa.OpenSnapshotStore(cfg.SnapshotPath)
	if err != nil {
		logger.Fatalf("cannot open snapshot store: %v", err)
	}
	defer store.Close()
	srv.SetSnapshotStore(store)
	srv.SetSnapshotEvery(cfg.SnapshotEvery)

	if cfg.NetworkFile != "" {
		if err := preloadNetwork(srv, cfg); err != nil {
			logger.Fatalf("cannot preload network: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go runSnapshotScheduler(ctx, srv, cfg.SnapshotCron)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/networks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			srv.handleCreateNetwork(w, r)
		case http.MethodGet:
			srv.handleListNetworks(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/networks/", srv.handleNetworkRoutes)
	mux.HandleFunc("/notifiers", srv.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", srv.handleNotifiersRoutes)

	httpServer := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Infof("shutting down")
		_ = httpServer.Close()
	}()

	logger.Infof("listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// preloadNetwork loads cfg.NetworkFile and registers it as a run, ready
// for /seed and /run.
func preloadNetwork(srv *Server, cfg ServerConfig) error {
	networkCfg, net, err := loadInitialNetworkFromFile(cfg.NetworkFile)
	if err != nil {
		return err
	}

	recorder := ssa.NewNotifyingRecorder(ssa.NewNoOpRecorder(), srv.notifiers, srv.notifiers.ListNotifiers(), "")
	sched, err := ssa.NewScheduler(ssa.SchedulerConfig{
		Net:      net,
		MaxIter:  ssa.UnboundedIter,
		MaxTime:  ssa.UnboundedTime,
		Logger:   srv.ssaLogger(),
		Recorder: recorder,
	})
	if err != nil {
		return err
	}
	if err := sched.Init(); err != nil {
		return err
	}

	runID := srv.manager.CreateRun(net, sched)
	recorder.RunID = runID
	srv.logger.Infof("preloaded network %q as run_id=%s", networkCfg.Name, runID)
	return nil
}
