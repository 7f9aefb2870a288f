package ssa

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// sequenceRecorder records every fired reaction ID and the simulation
// time it fired at, for the statistical-law tests below. It intentionally
// ignores Initialize/Flush: these tests only need the raw firing sequence.
type sequenceRecorder struct {
	fired    []ReactionID
	simTimes []float64
}

func (r *sequenceRecorder) Initialize(*Network) error { return nil }

func (r *sequenceRecorder) RecordStep(simTime float64, fired ReactionID) error {
	r.fired = append(r.fired, fired)
	r.simTimes = append(r.simTimes, simTime)
	return nil
}

func (r *sequenceRecorder) Flush() error { return nil }

// TestExponentialInterEventTimeMarginal drives a single constant-rate
// reaction on an effectively inexhaustible reservoir and checks, via a
// one-sample Kolmogorov-Smirnov test, that inter-event times follow
// Exp(rate), as the Direct method's inter-event time distribution requires.
func TestExponentialInterEventTimeMarginal(t *testing.T) {
	const rate = 2.5
	const firings = 100_000

	n := NewNetwork()
	require.NoError(t, n.AddSpecies(Species{Name: "A", Count: firings + 10}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "r",
		Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}},
		Evaluator: constantRate{rate: rate},
	}))
	require.NoError(t, n.Init())

	rec := &sequenceRecorder{}
	sched, err := NewScheduler(SchedulerConfig{Net: n, Seed: 1234, MaxIter: firings, MaxTime: UnboundedTime, Recorder: rec})
	require.NoError(t, err)
	require.NoError(t, sched.Init())
	_, _, err = sched.Run()
	require.NoError(t, err)
	require.Len(t, rec.simTimes, firings)

	interEvent := make([]float64, firings)
	prev := 0.0
	for i, simTime := range rec.simTimes {
		interEvent[i] = simTime - prev
		prev = simTime
	}

	d := ksStatisticAgainstExponential(interEvent, rate)
	pValue := kolmogorovSurvival(math.Sqrt(float64(firings)) * d)
	require.Greater(t, pValue, 0.01, "KS statistic D=%g rejects the Exp(%g) null at p=%g", d, rate, pValue)
}

// TestReactionChoiceMarginal drives two reactions of fixed, unequal rates
// against an inexhaustible reservoir and checks, via a chi-squared
// goodness-of-fit test, that each reaction's share of firings converges
// to rate_i / sum(rates).
func TestReactionChoiceMarginal(t *testing.T) {
	const rateA = 1.0
	const rateB = 3.0
	const firings = 100_000

	n := NewNetwork()
	require.NoError(t, n.AddSpecies(Species{Name: "A", Count: firings + 10}))
	require.NoError(t, n.AddSpecies(Species{Name: "B", Count: firings + 10}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "rA",
		Reactants: []StoichEdge{{Species: "A", Stoichiometry: 1}},
		Evaluator: constantRate{rate: rateA},
	}))
	require.NoError(t, n.AddReaction(&Reaction{
		ID:        "rB",
		Reactants: []StoichEdge{{Species: "B", Stoichiometry: 1}},
		Evaluator: constantRate{rate: rateB},
	}))
	require.NoError(t, n.Init())

	rec := &sequenceRecorder{}
	sched, err := NewScheduler(SchedulerConfig{Net: n, Seed: 99, MaxIter: firings, MaxTime: UnboundedTime, Recorder: rec})
	require.NoError(t, err)
	require.NoError(t, sched.Init())
	_, _, err = sched.Run()
	require.NoError(t, err)

	var countA, countB int
	for _, id := range rec.fired {
		switch id {
		case "rA":
			countA++
		case "rB":
			countB++
		}
	}
	require.Equal(t, firings, countA+countB)

	total := rateA + rateB
	expectedA := float64(firings) * rateA / total
	expectedB := float64(firings) * rateB / total
	chi2 := math.Pow(float64(countA)-expectedA, 2)/expectedA + math.Pow(float64(countB)-expectedB, 2)/expectedB

	// df=1 critical value at p=0.01 is 6.635; a genuine rate_i/Σrate_j
	// marginal should land far below it at this sample size.
	require.Less(t, chi2, 6.635, "chi-squared=%g rejects the rate_i/Σrate_j null at p=0.01 (countA=%d countB=%d)", chi2, countA, countB)
}

// constantRate is a rate law fixture independent of species counts, used
// to isolate the scheduler's sampling behavior from mass-action depletion
// for the statistical-law tests.
type constantRate struct{ rate float64 }

func (c constantRate) Evaluate(map[SpeciesName]int64, map[string]float64) (float64, error) {
	return c.rate, nil
}

// ksStatisticAgainstExponential computes the one-sample Kolmogorov-Smirnov
// D statistic for samples against the Exp(rate) CDF.
func ksStatisticAgainstExponential(samples []float64, rate float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	maxDiff := 0.0
	for i, x := range sorted {
		cdf := 1 - math.Exp(-rate*x)
		empiricalBelow := float64(i) / n
		empiricalAt := float64(i+1) / n
		if d := math.Abs(cdf - empiricalBelow); d > maxDiff {
			maxDiff = d
		}
		if d := math.Abs(cdf - empiricalAt); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

// kolmogorovSurvival approximates P(K > lambda) for the Kolmogorov
// distribution via the standard alternating-series formula, used to turn
// a KS D statistic into a p-value.
func kolmogorovSurvival(lambda float64) float64 {
	if lambda < 0.2 {
		return 1.0
	}
	sum := 0.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k) * float64(k) * lambda * lambda)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
	}
	return 2 * sum
}
