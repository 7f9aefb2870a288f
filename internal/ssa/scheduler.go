package ssa

import (
	"fmt"
	"math"
	"sync/atomic"
)

// UnboundedIter and UnboundedTime opt a Scheduler out of the corresponding
// ceiling. MaxIter/MaxTime are compared unconditionally against simIter/t,
// so the zero value of each (0 and 0.0) is a real ceiling, not "no limit":
// a scheduler built with MaxIter 0 runs zero iterations, matching Forward's
// very first call finding simIter (0) >= MaxIter (0). Callers that want an
// open-ended run must set these explicitly.
const (
	UnboundedIter int64   = math.MaxInt64
	UnboundedTime float64 = math.MaxFloat64
)

// Status is the outcome of Scheduler.Schedule, mirroring the
// Sim_Method::result_t enum from original_source/src/sim_methods/ssa_direct.cpp.
type Status int

const (
	// StatusSuccess means a next reaction was scheduled and Forward can fire it.
	StatusSuccess Status = iota
	// StatusEmpty means the propensity index is empty (no reactions at all).
	StatusEmpty
	// StatusInactive means the network has gone quiescent: every reaction
	// has zero propensity, or the next event would fall beyond MaxTime.
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusEmpty:
		return "Empty"
	case StatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// Recorder receives one call per firing during a forward run. Implementations
// live in recorder.go (full trace, time/iteration sampling, notifying wrapper).
type Recorder interface {
	Initialize(net *Network) error
	RecordStep(simTime float64, fired ReactionID) error
	Flush() error
}

// Scheduler runs the SSA Direct method over a Network: it samples which
// reaction fires and when, applies it, and maintains a rollback stack of
// Digests so a caller can step backward and forward exactly. Grounded on
// original_source/src/sim_methods/ssa_direct.cpp's SSA_Direct class.
type Scheduler struct {
	net    *Network
	prop   *PropensityIndex
	rng    *RNGPair
	logger Logger

	// MaxIter and MaxTime are firm ceilings, compared unconditionally: use
	// UnboundedIter/UnboundedTime to opt out of one or the other.
	MaxIter int64
	MaxTime float64

	simTime float64
	simIter int64

	digests  *DigestList
	recorder Recorder

	stopped atomic.Bool
}

// SchedulerConfig bundles the construction parameters for NewScheduler.
type SchedulerConfig struct {
	Net      *Network
	Seed     uint64
	Rank     int
	MaxIter  int64
	MaxTime  float64
	Recorder Recorder
	Logger   Logger
}

// NewScheduler builds a Scheduler over an already-initialized Network.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Net == nil {
		return nil, fmt.Errorf("%w: nil network", ErrInvalidNetwork)
	}
	rng, err := NewRNGPair(cfg.Seed, cfg.Rank)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NewNoOpRecorder()
	}

	s := &Scheduler{
		net:      cfg.Net,
		prop:     NewPropensityIndex(cfg.Net, logger),
		rng:      rng,
		logger:   logger,
		MaxIter:  cfg.MaxIter,
		MaxTime:  cfg.MaxTime,
		digests:  NewDigestList(),
		recorder: recorder,
	}
	return s, nil
}

// Init prepares the propensity list and recording sink. Must be called
// once before Run/Schedule/Forward.
func (s *Scheduler) Init() error {
	s.simTime = 0
	s.simIter = 0
	if err := s.prop.Build(); err != nil {
		return err
	}
	return s.recorder.Initialize(s.net)
}

// SimTime returns the current simulation clock.
func (s *Scheduler) SimTime() float64 { return s.simTime }

// SimIter returns the number of firings committed so far.
func (s *Scheduler) SimIter() int64 { return s.simIter }

// Stop requests cooperative termination: the in-progress Run loop exits
// after completing its current iteration. Safe to call concurrently.
func (s *Scheduler) Stop() { s.stopped.Store(true) }

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool { return s.stopped.Load() }

// Schedule determines when the next reaction would occur, without firing
// it. Returns StatusEmpty if the propensity index has no reactions,
// StatusInactive if the network has gone quiescent or the next event
// would exceed MaxTime, else StatusSuccess with nextTime populated.
func (s *Scheduler) Schedule() (status Status, nextTime float64) {
	if s.prop.Len() == 0 {
		return StatusEmpty, 0
	}
	dt := s.prop.InterEventTime(s.rng.Tm.Float64)
	next := s.simTime + dt
	if dt >= EtimeUlimit() || next > s.MaxTime {
		return StatusInactive, next
	}
	return StatusSuccess, next
}

// Forward commits one firing at time t: it samples which reaction fires,
// applies it to the network, refreshes the propensity index, records the
// step, and pushes a Digest. Returns false when MaxIter/MaxTime/Stop()
// says the run should not continue.
func (s *Scheduler) Forward(t float64) (bool, error) {
	if s.stopped.Load() {
		return false, nil
	}
	if s.simIter >= s.MaxIter || t > s.MaxTime {
		return false, nil
	}

	rngSnapshot := s.rng.Snapshot()

	fired, err := s.prop.Sample(s.rng.Evt.Float64)
	if err != nil {
		return false, err
	}

	affected, err := s.net.Fire(fired)
	if err != nil {
		return false, err
	}

	if err := s.prop.Refresh(fired, affected, true); err != nil {
		return false, err
	}

	s.simIter++
	s.simTime = t

	s.digests.Push(Digest{
		SimTime:  t,
		Fired:    fired,
		Affected: affected,
		RNGState: rngSnapshot,
	})

	if err := s.recorder.RecordStep(t, fired); err != nil {
		return false, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return true, nil
}

// Backward rolls the most recent Forward step back: it undoes the
// species update, restores the affected reactions' propensities without
// reapplying CheckReaction (the state being restored to may have had
// those reactants available even though the post-firing state did not),
// restores simTime/simIter, and restores the RNG state that was current
// immediately before the step. Returns ErrNoPriorEvent if the digest
// stack is empty.
func (s *Scheduler) Backward() error {
	dg, err := s.digests.Pop()
	if err != nil {
		return err
	}

	if err := s.net.Undo(dg.Fired); err != nil {
		return err
	}
	if err := s.prop.Refresh(dg.Fired, dg.Affected, false); err != nil {
		return err
	}
	if err := s.rng.Restore(dg.RNGState); err != nil {
		return err
	}

	s.simIter--
	if peek, err := s.digests.Peek(); err == nil {
		s.simTime = peek.SimTime
	} else {
		s.simTime = 0
	}
	return nil
}

// RecordFirstN flushes the first num entries of the current digest
// history through the recorder and discards them, bounding rollback
// stack growth once a run has progressed far enough that undoing past
// that point is no longer needed.
func (s *Scheduler) RecordFirstN(num int) error {
	if s.digests.Len() == 0 || num <= 0 {
		return nil
	}
	if num > s.digests.Len() {
		num = s.digests.Len()
	}
	for i := 0; i < num; i++ {
		dg := s.digests.stack[i]
		if err := s.recorder.RecordStep(dg.SimTime, dg.Fired); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}
	s.digests.stack = s.digests.stack[num:]
	return nil
}

// Run drives the scheduler to completion: schedule, forward, repeat,
// until Schedule reports non-Success or Forward declines to continue.
// Returns the final (iteration count, simulation time).
func (s *Scheduler) Run() (int64, float64, error) {
	status, t := s.Schedule()
	if status != StatusSuccess {
		return s.simIter, s.simTime, fmt.Errorf("%w: initial schedule returned %s", ErrNoEligibleReaction, status)
	}

	for {
		ok, err := s.Forward(t)
		if err != nil {
			return s.simIter, s.simTime, err
		}
		if !ok {
			break
		}
		status, t = s.Schedule()
		if status != StatusSuccess {
			break
		}
	}

	if err := s.recorder.Flush(); err != nil {
		return s.simIter, s.simTime, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return s.simIter, s.simTime, nil
}
