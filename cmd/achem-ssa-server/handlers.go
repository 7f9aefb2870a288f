package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/daniacca/achem-ssa/internal/ssa"
	"github.com/daniacca/achem-ssa/internal/ssa/notifiers"
)

// extractRunID extracts the run ID from a path like "/networks/{id}/...".
// Returns the run ID and the remaining path, or empty string if not found.
func extractRunID(path string) (string, string) {
	if !strings.HasPrefix(path, "/networks/") {
		return "", ""
	}
	rest := path[len("/networks/"):]
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return rest, ""
	}
	return rest[:idx], rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /networks
// Body: { "network": NetworkConfig, "seed": u64, "max_iter": i64, "max_time": f64 }
// max_iter/max_time are firm ceilings compared unconditionally against the
// run's progress; omitting one leaves it at 0, which halts the run before
// its first firing. Use ssa.UnboundedIter/ssa.UnboundedTime to uncap one.
type createNetworkRequest struct {
	Network ssa.NetworkConfig `json:"network"`
	Seed    uint64            `json:"seed"`
	MaxIter int64             `json:"max_iter"`
	MaxTime float64           `json:"max_time"`
}

func (s *Server) handleCreateNetwork(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	net, err := ssa.BuildNetworkFromConfig(req.Network, true)
	if err != nil {
		http.Error(w, "cannot build network: "+err.Error(), http.StatusBadRequest)
		return
	}

	var recorder ssa.Recorder = ssa.NewNoOpRecorder()
	var notifyRec *ssa.NotifyingRecorder
	if s.notifiers != nil {
		notifyRec = ssa.NewNotifyingRecorder(recorder, s.notifiers, s.notifiers.ListNotifiers(), "")
		recorder = notifyRec
	}
	var snapRec *snapshotRecorder
	if s.snapshots != nil && s.snapshotEvery > 0 {
		snapRec = newSnapshotRecorder(recorder, s.snapshots, "", s.snapshotEvery)
		recorder = snapRec
	}

	sched, err := ssa.NewScheduler(ssa.SchedulerConfig{
		Net:      net,
		Seed:     req.Seed,
		MaxIter:  req.MaxIter,
		MaxTime:  req.MaxTime,
		Recorder: recorder,
		Logger:   s.ssaLogger(),
	})
	if err != nil {
		http.Error(w, "cannot build scheduler: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sched.Init(); err != nil {
		http.Error(w, "cannot initialize scheduler: "+err.Error(), http.StatusInternalServerError)
		return
	}

	runID := s.manager.CreateRun(net, sched)
	if notifyRec != nil {
		notifyRec.RunID = runID
	}
	if snapRec != nil {
		snapRec.runID = runID
	}
	s.logger.Infof("network created: run_id=%s name=%s", runID, req.Network.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// GET /networks
func (s *Server) handleListNetworks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"runs": s.manager.ListRuns()})
}

// DELETE /networks/{id}
func (s *Server) handleDeleteNetwork(w http.ResponseWriter, runID string) {
	if err := s.manager.DeleteRun(runID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Infof("run deleted: run_id=%s", runID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("run deleted"))
}

// POST /networks/{id}/seed
// Body: { "counts": { "species": count, ... } }
type seedRequest struct {
	Counts map[string]int64 `json:"counts"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request, runID string) {
	defer r.Body.Close()

	run, ok := s.manager.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	for name, count := range req.Counts {
		if err := run.Net.SetSpeciesCount(ssa.SpeciesName(name), count); err != nil {
			http.Error(w, "cannot seed species "+name+": "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("seeded"))
}

// POST /networks/{id}/run?async=true|false
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, runID string) {
	run, ok := s.manager.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if run.Status() == ssa.RunStatusRunning {
		http.Error(w, "run is already in progress", http.StatusConflict)
		return
	}

	async := true
	if v := r.URL.Query().Get("async"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid async query param: must be true or false", http.StatusBadRequest)
			return
		}
		async = parsed
	}

	if s.metrics != nil {
		s.metrics.RunStarted()
		go func() {
			<-run.Done()
			s.metrics.RunEnded()
		}()
	}
	s.manager.Start(run)

	if !async {
		<-run.Done()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"run_id": runID, "status": string(run.Status())})
}

// GET /networks/{id}/state
func (s *Server) handleState(w http.ResponseWriter, runID string) {
	run, ok := s.manager.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	species := run.Net.SpeciesList()
	counts := make(map[string]int64, len(species))
	for _, sp := range species {
		c, _ := run.Net.SpeciesCount(sp)
		counts[string(sp)] = c
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"run_id":   runID,
		"status":   run.Status(),
		"sim_time": run.Scheduler.SimTime(),
		"sim_iter": run.Scheduler.SimIter(),
		"counts":   counts,
	})
}

// GET /networks/{id}/report
func (s *Server) handleReport(w http.ResponseWriter, runID string) {
	run, ok := s.manager.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	_, html := ssa.RenderFinalStateReport(runID, run.Net, run.Scheduler.SimIter(), run.Scheduler.SimTime())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// POST /networks/{id}/snapshot
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, runID string) {
	run, ok := s.manager.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if s.snapshots == nil {
		http.Error(w, "snapshot store not configured", http.StatusInternalServerError)
		return
	}

	snap := ssa.NewSnapshot(runID, run.Net, run.Scheduler.SimTime(), run.Scheduler.SimIter(), snapshotTakenAt())
	if err := s.snapshots.Put(snap); err != nil {
		s.logger.Errorf("failed to save snapshot: run_id=%s error=%v", runID, err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(snap)
}

// GET /networks/{id}/snapshot
// Returns the durable snapshot with the highest sim_iter, if any.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, runID string) {
	if s.snapshots == nil {
		http.Error(w, "snapshot store not configured", http.StatusInternalServerError)
		return
	}

	snap, found, err := s.snapshots.Latest(runID)
	if err != nil {
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "no snapshot found for run", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(snap)
}

// handleNetworkRoutes routes requests under /networks/{id}/...
func (s *Server) handleNetworkRoutes(w http.ResponseWriter, r *http.Request) {
	runID, remainingPath := extractRunID(r.URL.Path)
	if runID == "" {
		http.Error(w, "run ID is required in path: /networks/{id}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "/seed" && r.Method == http.MethodPost:
		s.handleSeed(w, r, runID)
	case remainingPath == "/run" && r.Method == http.MethodPost:
		s.handleRun(w, r, runID)
	case remainingPath == "/state" && r.Method == http.MethodGet:
		s.handleState(w, runID)
	case remainingPath == "/report" && r.Method == http.MethodGet:
		s.handleReport(w, runID)
	case remainingPath == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, runID)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, runID)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteNetwork(w, runID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	case strings.HasSuffix(r.URL.Path, "/ws") && r.Method == http.MethodGet:
		s.handleWebSocketUpgrade(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.notifiers.ListNotifiers()

	list := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		n, exists := s.notifiers.GetNotifier(id)
		if exists {
			list = append(list, map[string]string{"id": id, "type": n.Type()})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"notifiers": list})
}

// POST /notifiers
// Body: { "type": "webhook"|"websocket"|"mqtt", "id": "...", "config": { ... } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier ssa.Notifier
	var err error

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook url is required", http.StatusBadRequest)
			return
		}
		wh := notifiers.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		notifier = wh
	case "websocket":
		notifier = notifiers.NewWebSocketNotifier(req.ID)
	case "mqtt":
		broker, _ := req.Config["broker_url"].(string)
		topic, _ := req.Config["topic"].(string)
		if broker == "" || topic == "" {
			http.Error(w, "mqtt broker_url and topic are required", http.StatusBadRequest)
			return
		}
		qos := byte(0)
		if q, ok := req.Config["qos"].(float64); ok {
			qos = byte(q)
		}
		notifier, err = notifiers.NewMQTTNotifier(req.ID, broker, topic, qos)
		if err != nil {
			http.Error(w, "cannot connect to mqtt broker: "+err.Error(), http.StatusBadGateway)
			return
		}
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifiers.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Infof("notifier registered: id=%s type=%s", req.ID, req.Type)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if id == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.notifiers.UnregisterNotifier(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("notifier unregistered: id=%s", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// GET /notifiers/{id}/ws
// Upgrades the connection and registers it as a client of the named
// WebSocketNotifier, so it starts receiving NotificationEvent broadcasts.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/notifiers/"), "/ws")

	n, exists := s.notifiers.GetNotifier(id)
	if !exists {
		http.Error(w, "notifier not found", http.StatusNotFound)
		return
	}
	wsn, ok := n.(*notifiers.WebSocketNotifier)
	if !ok {
		http.Error(w, "notifier is not a websocket notifier", http.StatusBadRequest)
		return
	}

	upgrader := wsn.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: id=%s error=%v", id, err)
		return
	}
	wsn.RegisterClient(conn)
}
