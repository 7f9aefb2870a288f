package ssa

import (
	"fmt"
	"math"
	"sort"
)

// propensityEntry is (cumulative_rate, reaction_handle): entry i's
// cumulative_rate equals the sum of rate(reaction_at_slot_j) for j<=i.
type propensityEntry struct {
	cumulative float64
	reaction   ReactionID
}

// PropensityIndex is the ordered vector of cumulative-rate/reaction-handle
// pairs plus a reverse map, supporting Sample, Total and Refresh. Slot
// order is established once at Build (stable-sorted ascending by initial
// rate) and never reordered thereafter; only cumulative sums are updated.
type PropensityIndex struct {
	net     *Network
	entries []propensityEntry
	slotOf  map[ReactionID]int

	// firingsSinceRebuild and RebuildEvery implement the floating-point
	// drift safety valve: rebuild the cumulative vector from scratch every
	// RebuildEvery firings. 0 disables the safety valve.
	RebuildEvery        int
	firingsSinceRebuild int
	logger              Logger
}

// NewPropensityIndex creates an index over net. Call Build before Sample/Total.
func NewPropensityIndex(net *Network, logger Logger) *PropensityIndex {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &PropensityIndex{net: net, logger: logger, RebuildEvery: 100000}
}

// Build computes every reaction's rate via Network.SetReactionRate, stable
// sorts ascending by rate, then converts to a cumulative-sum vector and
// populates the reverse (handle -> slot) map.
func (p *PropensityIndex) Build() error {
	reactions := p.net.ReactionList()
	entries := make([]propensityEntry, 0, len(reactions))

	for _, id := range reactions {
		rate, err := p.net.SetReactionRate(id)
		if err != nil {
			return err
		}
		entries = append(entries, propensityEntry{cumulative: rate, reaction: id})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].cumulative < entries[j].cumulative
	})

	sum := 0.0
	slotOf := make(map[ReactionID]int, len(entries))
	for i := range entries {
		sum += entries[i].cumulative
		entries[i].cumulative = sum
		slotOf[entries[i].reaction] = i
	}

	p.entries = entries
	p.slotOf = slotOf
	p.firingsSinceRebuild = 0
	return nil
}

// Total returns the total propensity (the last entry's cumulative value,
// 0 if the index is empty).
func (p *PropensityIndex) Total() float64 {
	if len(p.entries) == 0 {
		return 0
	}
	return p.entries[len(p.entries)-1].cumulative
}

// Len returns the number of reactions tracked.
func (p *PropensityIndex) Len() int { return len(p.entries) }

// Sample draws u from rgen in (0,1), targets t = u*Total(), and returns
// the handle at the first slot whose cumulative value strictly exceeds t
// (upper_bound). Fails with ErrNoEligibleReaction only when all rates are
// zero.
func (p *PropensityIndex) Sample(rgen func() float64) (ReactionID, error) {
	total := p.Total()
	target := rgen() * total

	idx := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].cumulative > target
	})
	if idx == len(p.entries) {
		return "", ErrNoEligibleReaction
	}
	return p.entries[idx].reaction, nil
}

// InterEventTime returns the Gillespie waiting time -ln(u)/total, or
// EtimeUlimit() when total <= 0.
func (p *PropensityIndex) InterEventTime(rgen func() float64) float64 {
	total := p.Total()
	if total <= 0 {
		return EtimeUlimit()
	}
	return -math.Log(rgen()) / total
}

// Refresh recomputes the rate of firedHandle and every reaction in
// affected, then rescans the cumulative sum starting from the leftmost
// touched slot: O(R - pidxMin) per firing instead of O(R). When verify is
// true, a reaction whose CheckReaction fails gets a rate of 0 instead of
// being evaluated (used after a real firing, where a reactant may now be
// exhausted); when
// false, the rate is always (re)evaluated (used during rollback, where
// CheckReaction against the *current*, not-yet-restored state would be
// meaningless).
func (p *PropensityIndex) Refresh(firedHandle ReactionID, affected []ReactionID, verify bool) error {
	pidxMin, ok := p.slotOf[firedHandle]
	if !ok {
		return fmt.Errorf("%w: unknown reaction handle %q", ErrInvalidNetwork, firedHandle)
	}

	if err := p.refreshSlotRate(firedHandle, pidxMin, verify); err != nil {
		return err
	}

	for _, h := range affected {
		idx, ok := p.slotOf[h]
		if !ok {
			return fmt.Errorf("%w: unknown reaction handle %q", ErrInvalidNetwork, h)
		}
		if idx < pidxMin {
			pidxMin = idx
		}
		if err := p.refreshSlotRate(h, idx, verify); err != nil {
			return err
		}
	}

	running := 0.0
	if pidxMin > 0 {
		running = p.entries[pidxMin-1].cumulative
	}
	for i := pidxMin; i < len(p.entries); i++ {
		running += p.net.GetReactionRate(p.entries[i].reaction)
		p.entries[i].cumulative = running
	}

	p.firingsSinceRebuild++
	if p.RebuildEvery > 0 && p.firingsSinceRebuild >= p.RebuildEvery {
		p.logger.Debugf("propensity index: rebuilding cumulative vector after %d firings to bound floating-point drift", p.firingsSinceRebuild)
		return p.Build()
	}
	return nil
}

// refreshSlotRate recomputes (or zeroes) the reaction's cached rate in the
// network, which the prefix-sum pass Refresh performs afterward reads, and
// stages the same value in p.entries[idx].cumulative.
func (p *PropensityIndex) refreshSlotRate(handle ReactionID, idx int, verify bool) error {
	if verify {
		ok, err := p.net.CheckReaction(handle)
		if err != nil {
			return err
		}
		if !ok {
			p.net.mu.Lock()
			if r, err := p.net.reactionByID(handle); err == nil {
				r.rate = 0
			}
			p.net.mu.Unlock()
			p.entries[idx].cumulative = 0
			return nil
		}
	}
	rate, err := p.net.SetReactionRate(handle)
	if err != nil {
		return err
	}
	p.entries[idx].cumulative = rate
	return nil
}

// SlotOf returns the propensity-vector slot of a reaction handle, mainly
// for tests asserting slot-ordering invariants.
func (p *PropensityIndex) SlotOf(handle ReactionID) (int, bool) {
	idx, ok := p.slotOf[handle]
	return idx, ok
}

// CumulativeAt returns the cumulative value stored at slot i, for tests.
func (p *PropensityIndex) CumulativeAt(i int) float64 {
	return p.entries[i].cumulative
}
