package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildReversibleIsomerizationNetwork(t *testing.T) *Network {
	t.Helper()
	n := NewNetwork()
	require.NoError(t, n.AddSpecies(Species{Name: "A", Count: 40}))
	require.NoError(t, n.AddSpecies(Species{Name: "B", Count: 10}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "fwd",
		Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}},
		Products:  []StoichEdge{{Species: "B", Stoichiometry: 1}},
		Evaluator: MassAction{K: 1.0, Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}}},
	}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "rev",
		Reactants: []StoichEdge{{Species: "B", Stoichiometry: 1}},
		Products:  []StoichEdge{{Species: "A", Stoichiometry: 1}},
		Evaluator: MassAction{K: 0.5, Reactants: []StoichEdge{{Species: "B", Stoichiometry: 1}}},
	}))
	require.NoError(t, n.Init())
	return n
}

func newTestScheduler(t *testing.T, net *Network, seed uint64) *Scheduler {
	t.Helper()
	sched, err := NewScheduler(SchedulerConfig{
		Net:     net,
		Seed:    seed,
		MaxIter: 1000,
		MaxTime: 1000,
	})
	require.NoError(t, err)
	require.NoError(t, sched.Init())
	return sched
}

func TestSchedulerRunIsDeterministicForSameSeed(t *testing.T) {
	netA := buildReversibleIsomerizationNetwork(t)
	netB := buildReversibleIsomerizationNetwork(t)

	schedA := newTestScheduler(t, netA, 7)
	schedB := newTestScheduler(t, netB, 7)

	itersA, timeA, err := schedA.Run()
	require.NoError(t, err)
	itersB, timeB, err := schedB.Run()
	require.NoError(t, err)

	require.Equal(t, itersA, itersB)
	require.Equal(t, timeA, timeB)
	require.Equal(t, netA.AllSpeciesCounts(), netB.AllSpeciesCounts())
}

func TestSchedulerForwardBackwardRoundTrip(t *testing.T) {
	net := buildReversibleIsomerizationNetwork(t)
	sched := newTestScheduler(t, net, 11)

	status, t0 := sched.Schedule()
	require.Equal(t, StatusSuccess, status)

	before := net.AllSpeciesCounts()
	beforeTime := sched.SimTime()
	beforeIter := sched.SimIter()

	ok, err := sched.Forward(t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, before, net.AllSpeciesCounts())

	require.NoError(t, sched.Backward())
	require.Equal(t, before, net.AllSpeciesCounts())
	require.Equal(t, beforeTime, sched.SimTime())
	require.Equal(t, beforeIter, sched.SimIter())
}

func TestSchedulerBackwardThenForwardReplaysIdentically(t *testing.T) {
	net := buildReversibleIsomerizationNetwork(t)
	sched := newTestScheduler(t, net, 22)

	status, t0 := sched.Schedule()
	require.Equal(t, StatusSuccess, status)
	_, err := sched.Forward(t0)
	require.NoError(t, err)

	firstRunCounts := net.AllSpeciesCounts()
	firstRunTime := sched.SimTime()
	status, firstNext := sched.Schedule()
	require.Equal(t, StatusSuccess, status)

	require.NoError(t, sched.Backward())

	// The digest holds the RNG state Forward saw on entry, after Schedule's
	// time draw, so the step replays by firing again at the recorded time.
	ok, err := sched.Forward(firstRunTime)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, firstRunCounts, net.AllSpeciesCounts())
	require.Equal(t, firstRunTime, sched.SimTime())

	status, t1 := sched.Schedule()
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, firstNext, t1)
}

func TestSchedulerBackwardWithNoHistoryErrors(t *testing.T) {
	net := buildReversibleIsomerizationNetwork(t)
	sched := newTestScheduler(t, net, 3)
	require.ErrorIs(t, sched.Backward(), ErrNoPriorEvent)
}

func TestSchedulerScheduleInactiveWhenAllPropensitiesZero(t *testing.T) {
	n := NewNetwork()
	require.NoError(t, n.AddSpecies(Species{Name: "A"}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "noop",
		Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}},
		Evaluator: MassAction{K: 0, Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}}},
	}))
	require.NoError(t, n.Init())

	sched := newTestScheduler(t, n, 1)
	status, _ := sched.Schedule()
	require.Equal(t, StatusInactive, status)
}

func TestSchedulerStopHaltsRun(t *testing.T) {
	net := buildReversibleIsomerizationNetwork(t)
	sched := newTestScheduler(t, net, 5)
	sched.Stop()

	status, t0 := sched.Schedule()
	require.Equal(t, StatusSuccess, status)
	ok, err := sched.Forward(t0)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, sched.Stopped())
}

func TestSchedulerConservesTotalMoleculeCount(t *testing.T) {
	net := buildReversibleIsomerizationNetwork(t)
	totalBefore := int64(0)
	for _, c := range net.AllSpeciesCounts() {
		totalBefore += c
	}

	sched := newTestScheduler(t, net, 99)
	_, _, err := sched.Run()
	require.NoError(t, err)

	totalAfter := int64(0)
	for _, c := range net.AllSpeciesCounts() {
		totalAfter += c
	}
	require.Equal(t, totalBefore, totalAfter)
}
