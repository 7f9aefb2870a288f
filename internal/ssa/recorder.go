package ssa

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NoOpRecorder discards every step, used when a caller only wants the
// final species counts and not a trajectory.
type NoOpRecorder struct{}

// NewNoOpRecorder returns a Recorder that records nothing.
func NewNoOpRecorder() Recorder { return &NoOpRecorder{} }

func (r *NoOpRecorder) Initialize(*Network) error            { return nil }
func (r *NoOpRecorder) RecordStep(float64, ReactionID) error { return nil }
func (r *NoOpRecorder) Flush() error                         { return nil }

// fragmentWriter writes a trajectory out as a sequence of numbered
// fragment files, rolling over to outfile.stem.<n>.outfile.ext once
// fragSize records have been written to the current fragment. fragSize
// 0 disables rollover (one fragment for the whole run; a negative size is
// rejected), mirroring
// set_outfile's "0 means no limit" convention in
// original_source/src/utils/trajectory.cpp.
type fragmentWriter struct {
	stem        string
	ext         string
	fragSize    int
	curFragID   int
	curInFrag   int
	numSteps    int
	file        *os.File
	buf         *bufio.Writer
	headerLine  string
}

func newFragmentWriter(outfile string, fragSize int) (*fragmentWriter, error) {
	if fragSize < 0 {
		return nil, fmt.Errorf("%w: fragment size must be >= 0, got %d", ErrInvalidFragmentSize, fragSize)
	}
	ext := filepath.Ext(outfile)
	stem := strings.TrimSuffix(outfile, ext)
	return &fragmentWriter{stem: stem, ext: ext, fragSize: fragSize}, nil
}

func (w *fragmentWriter) fragmentPath() string {
	if w.fragSize <= 0 {
		return w.stem + w.ext
	}
	return fmt.Sprintf("%s.%d%s", w.stem, w.curFragID, w.ext)
}

func (w *fragmentWriter) rollIfNeeded() error {
	if w.file != nil && w.fragSize > 0 && w.curInFrag >= w.fragSize {
		if err := w.closeCurrent(); err != nil {
			return err
		}
		w.curFragID++
		w.curInFrag = 0
	}
	if w.file == nil {
		f, err := os.Create(w.fragmentPath())
		if err != nil {
			return fmt.Errorf("%w: creating trajectory fragment: %v", ErrIOFailure, err)
		}
		w.file = f
		w.buf = bufio.NewWriter(f)
		if w.headerLine != "" {
			if _, err := w.buf.WriteString(w.headerLine); err != nil {
				return fmt.Errorf("%w: %v", ErrIOFailure, err)
			}
		}
	}
	return nil
}

func (w *fragmentWriter) writeLine(line string) error {
	if err := w.rollIfNeeded(); err != nil {
		return err
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	w.curInFrag++
	w.numSteps++
	return nil
}

func (w *fragmentWriter) closeCurrent() error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	w.file, w.buf = nil, nil
	return nil
}

// FullTraceRecorder writes one CSV line per firing: sim_time, reaction
// handle, and the per-species count delta that firing produced, restricted
// to the species the reaction's stoichiometry actually touches (a
// reactant/product pair on the same species with equal stoichiometry nets
// to zero and is omitted). Fragments per set_outfile.
type FullTraceRecorder struct {
	writer *fragmentWriter
	net    *Network
}

// NewFullTraceRecorder creates a full-event trace recorder writing to
// outfile, rolling fragments every fragSize records (0 disables rollover).
func NewFullTraceRecorder(outfile string, fragSize int) (*FullTraceRecorder, error) {
	w, err := newFragmentWriter(outfile, fragSize)
	if err != nil {
		return nil, err
	}
	return &FullTraceRecorder{writer: w}, nil
}

func (r *FullTraceRecorder) Initialize(net *Network) error {
	r.net = net
	r.writer.headerLine = "sim_time,reaction,deltas\n"
	return r.writer.rollIfNeeded()
}

func (r *FullTraceRecorder) RecordStep(simTime float64, fired ReactionID) error {
	rxn, err := r.net.reactionByID(fired)
	if err != nil {
		return err
	}

	order := make([]SpeciesName, 0, len(rxn.Reactants)+len(rxn.Products))
	deltas := make(map[SpeciesName]int64, len(rxn.Reactants)+len(rxn.Products))
	add := func(s SpeciesName, d int64) {
		if _, seen := deltas[s]; !seen {
			order = append(order, s)
		}
		deltas[s] += d
	}
	for _, e := range rxn.Reactants {
		add(e.Species, -int64(e.Stoichiometry))
	}
	for _, e := range rxn.Products {
		add(e.Species, int64(e.Stoichiometry))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%g,%s,", simTime, fired)
	wrote := false
	for _, s := range order {
		if d := deltas[s]; d != 0 {
			if wrote {
				b.WriteByte(';')
			}
			fmt.Fprintf(&b, "%s:%+d", s, d)
			wrote = true
		}
	}
	b.WriteByte('\n')
	return r.writer.writeLine(b.String())
}

func (r *FullTraceRecorder) Flush() error { return r.writer.closeCurrent() }

// TimeSampler records species counts at fixed simulation-time intervals
// rather than every firing: a step is recorded the first time sim_time
// reaches or passes the next sample boundary.
type TimeSampler struct {
	writer   *fragmentWriter
	net      *Network
	species  []SpeciesName
	interval float64
	nextMark float64
}

// NewTimeSampler creates a recorder sampling every interval units of
// simulation time, fragmenting every fragSize samples.
func NewTimeSampler(outfile string, interval float64, fragSize int) (*TimeSampler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("ssa: time sampler interval must be positive, got %g", interval)
	}
	w, err := newFragmentWriter(outfile, fragSize)
	if err != nil {
		return nil, err
	}
	return &TimeSampler{writer: w, interval: interval}, nil
}

func (s *TimeSampler) Initialize(net *Network) error {
	s.net = net
	s.species = net.SpeciesList()
	s.nextMark = 0
	header := "sim_time"
	for _, sp := range s.species {
		header += "," + string(sp)
	}
	s.writer.headerLine = header + "\n"
	if err := s.writer.rollIfNeeded(); err != nil {
		return err
	}
	if err := s.writeSample(0); err != nil {
		return err
	}
	s.nextMark = s.interval
	return nil
}

func (s *TimeSampler) RecordStep(simTime float64, _ ReactionID) error {
	for simTime >= s.nextMark {
		if err := s.writeSample(s.nextMark); err != nil {
			return err
		}
		s.nextMark += s.interval
	}
	return nil
}

func (s *TimeSampler) writeSample(at float64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%g", at)
	for _, sp := range s.species {
		count, _ := s.net.SpeciesCount(sp)
		fmt.Fprintf(&b, ",%d", count)
	}
	b.WriteByte('\n')
	return s.writer.writeLine(b.String())
}

func (s *TimeSampler) Flush() error { return s.writer.closeCurrent() }

// IterSampler records species counts every N firings.
type IterSampler struct {
	writer  *fragmentWriter
	net     *Network
	species []SpeciesName
	every   int
	seen    int
}

// NewIterSampler creates a recorder sampling every `every` firings,
// fragmenting every fragSize samples.
func NewIterSampler(outfile string, every int, fragSize int) (*IterSampler, error) {
	if every <= 0 {
		return nil, fmt.Errorf("ssa: iteration sampler interval must be positive, got %d", every)
	}
	w, err := newFragmentWriter(outfile, fragSize)
	if err != nil {
		return nil, err
	}
	return &IterSampler{writer: w, every: every}, nil
}

func (s *IterSampler) Initialize(net *Network) error {
	s.net = net
	s.species = net.SpeciesList()
	header := "sim_iter,sim_time"
	for _, sp := range s.species {
		header += "," + string(sp)
	}
	s.writer.headerLine = header + "\n"
	return s.writer.rollIfNeeded()
}

func (s *IterSampler) RecordStep(simTime float64, _ ReactionID) error {
	s.seen++
	if s.seen%s.every != 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d,%g", s.seen, simTime)
	for _, sp := range s.species {
		count, _ := s.net.SpeciesCount(sp)
		fmt.Fprintf(&b, ",%d", count)
	}
	b.WriteByte('\n')
	return s.writer.writeLine(b.String())
}

func (s *IterSampler) Flush() error { return s.writer.closeCurrent() }

// NotifyingRecorder wraps an inner Recorder and additionally enqueues a
// NotificationEvent to a NotificationManager for every recorded step —
// the live-streaming path for the websocket/webhook/MQTT notifiers.
type NotifyingRecorder struct {
	Inner       Recorder
	Manager     *NotificationManager
	NotifierIDs []string
	RunID       string
	Net         *Network
	simIter     int64
}

// NewNotifyingRecorder wraps inner so every recorded step also fans out
// through manager to notifierIDs.
func NewNotifyingRecorder(inner Recorder, manager *NotificationManager, notifierIDs []string, runID string) *NotifyingRecorder {
	return &NotifyingRecorder{
		Inner:       inner,
		Manager:     manager,
		NotifierIDs: notifierIDs,
		RunID:       runID,
	}
}

func (n *NotifyingRecorder) Initialize(net *Network) error {
	n.Net = net
	return n.Inner.Initialize(net)
}

func (n *NotifyingRecorder) RecordStep(simTime float64, fired ReactionID) error {
	n.simIter++
	if n.Manager != nil && len(n.NotifierIDs) > 0 {
		r, err := n.Net.reactionByID(fired)
		if err == nil {
			event := NewNotificationEvent(n.RunID, n.Net, r, simTime, n.simIter)
			n.Manager.Enqueue(event, n.NotifierIDs)
		}
	}
	return n.Inner.RecordStep(simTime, fired)
}

func (n *NotifyingRecorder) Flush() error { return n.Inner.Flush() }
