package ssa

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a server hosting one or more
// runs exposes on its /metrics endpoint. A nil *Metrics is valid and
// every method becomes a no-op, so callers that don't want metrics don't
// need a conditional at every call site.
type Metrics struct {
	firingsTotal    *prometheus.CounterVec
	simTime         *prometheus.GaugeVec
	propensityTotal *prometheus.GaugeVec
	runsActive      prometheus.Gauge
}

// NewMetrics creates and registers the collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		firingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "achem_ssa",
			Name:      "firings_total",
			Help:      "Total number of reaction firings committed, by run and reaction.",
		}, []string{"run_id", "reaction_id"}),
		simTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "achem_ssa",
			Name:      "sim_time",
			Help:      "Current simulation clock of a run.",
		}, []string{"run_id"}),
		propensityTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "achem_ssa",
			Name:      "propensity_total",
			Help:      "Sum of all reaction propensities in a run, just after the last firing.",
		}, []string{"run_id"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "achem_ssa",
			Name:      "runs_active",
			Help:      "Number of scheduler runs currently executing.",
		}),
	}
	reg.MustRegister(m.firingsTotal, m.simTime, m.propensityTotal, m.runsActive)
	return m
}

func (m *Metrics) ObserveFiring(runID string, reactionID ReactionID, simTime float64) {
	if m == nil {
		return
	}
	m.firingsTotal.WithLabelValues(runID, string(reactionID)).Inc()
	m.simTime.WithLabelValues(runID).Set(simTime)
}

func (m *Metrics) ObservePropensityTotal(runID string, total float64) {
	if m == nil {
		return
	}
	m.propensityTotal.WithLabelValues(runID).Set(total)
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

func (m *Metrics) RunEnded() {
	if m == nil {
		return
	}
	m.runsActive.Dec()
}

// MetricsRecorder wraps an inner Recorder and feeds every step to a
// Metrics instance, the same composition pattern NotifyingRecorder uses
// for notification fan-out.
type MetricsRecorder struct {
	Inner   Recorder
	Metrics *Metrics
	RunID   string
	net     *Network
	prop    *PropensityIndex
}

// NewMetricsRecorder wraps inner so every recorded step also updates m.
// prop, if non-nil, supplies the post-firing total propensity gauge.
func NewMetricsRecorder(inner Recorder, m *Metrics, runID string, prop *PropensityIndex) *MetricsRecorder {
	return &MetricsRecorder{Inner: inner, Metrics: m, RunID: runID, prop: prop}
}

func (r *MetricsRecorder) Initialize(net *Network) error {
	r.net = net
	return r.Inner.Initialize(net)
}

func (r *MetricsRecorder) RecordStep(simTime float64, fired ReactionID) error {
	r.Metrics.ObserveFiring(r.RunID, fired, simTime)
	if r.prop != nil {
		r.Metrics.ObservePropensityTotal(r.RunID, r.prop.Total())
	}
	return r.Inner.RecordStep(simTime, fired)
}

func (r *MetricsRecorder) Flush() error { return r.Inner.Flush() }
