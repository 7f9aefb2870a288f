package ssa

import (
	"fmt"
	"sort"
	"sync"
)

// PartitionID identifies the partition a vertex (species or reaction) is
// assigned to in a multi-instance deployment. Partition coordination
// itself is out of scope for this package.
type PartitionID int

// defaultEtimeUlimit is the process-wide sentinel used when no caller has
// set one: the largest finite inter-event delay considered productive.
const defaultEtimeUlimit = 1e18

var etimeUlimit = defaultEtimeUlimit
var etimeUlimitOnce sync.Once

// SetEtimeUlimit sets the process-wide upper bound on a productive
// inter-event delay. Must be called before any Network.Init: it is
// read-only once a run has started. Calling it more than once is a
// programming error and panics, matching the "set once before any init"
// contract.
func SetEtimeUlimit(t float64) {
	set := false
	etimeUlimitOnce.Do(func() {
		etimeUlimit = t
		set = true
	})
	if !set {
		panic("ssa: SetEtimeUlimit called more than once")
	}
}

// EtimeUlimit returns the process-wide sentinel inter-event delay.
func EtimeUlimit() float64 { return etimeUlimit }

// Network is the bipartite reaction-network graph: species and reaction
// vertices, stoichiometric edges between them. It is represented as two
// dense vectors with stable integer handles rather than a generic
// heterogeneous-vertex graph library — the union-type discriminant
// (species vs. reaction) is implicit in which vector the handle indexes.
type Network struct {
	mu sync.RWMutex

	species      []*Species
	speciesIndex map[SpeciesName]SpeciesIndex

	reactions     []*Reaction
	reactionIndex map[ReactionID]ReactionIndex

	// affected[r] is the precomputed, immutable set of reactions whose
	// reactants overlap with r's reactants or products, including r
	// itself.
	affected map[ReactionID][]ReactionID

	initialized bool

	pid         PartitionID
	partition   map[string]PartitionID // vertex label -> partition
	myReactions []ReactionID
	mySpecies   []SpeciesName
}

// NewNetwork creates an empty network. Populate it with AddSpecies /
// AddReaction (directly, or via BuildNetworkFromConfig), then call Init.
func NewNetwork() *Network {
	return &Network{
		speciesIndex:  make(map[SpeciesName]SpeciesIndex),
		reactionIndex: make(map[ReactionID]ReactionIndex),
		affected:      make(map[ReactionID][]ReactionID),
		partition:     make(map[string]PartitionID),
	}
}

// AddSpecies registers a species. Must be called before Init.
func (n *Network) AddSpecies(s Species) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.initialized {
		return fmt.Errorf("%w: cannot add species after Init", ErrInvalidNetwork)
	}
	if _, exists := n.speciesIndex[s.Name]; exists {
		return fmt.Errorf("%w: duplicate species %q", ErrInvalidNetwork, s.Name)
	}
	cp := s
	n.species = append(n.species, &cp)
	n.speciesIndex[s.Name] = SpeciesIndex(len(n.species) - 1) // provisional; Init re-sorts
	return nil
}

// AddReaction registers a reaction in load order. Must be called before Init.
func (n *Network) AddReaction(r *Reaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.initialized {
		return fmt.Errorf("%w: cannot add reaction after Init", ErrInvalidNetwork)
	}
	if _, exists := n.reactionIndex[r.ID]; exists {
		return fmt.Errorf("%w: duplicate reaction %q", ErrInvalidNetwork, r.ID)
	}
	n.reactions = append(n.reactions, r)
	n.reactionIndex[r.ID] = ReactionIndex(len(n.reactions) - 1)
	return nil
}

// Init sorts species lexicographically, assigns dense indices to species
// and reactions (reactions keep insertion/load order), builds handle<->index
// maps, and precomputes each reaction's affected-reactions adjacency.
// Index ordering is stable thereafter.
func (n *Network) Init() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.species) == 0 && len(n.reactions) == 0 {
		return fmt.Errorf("%w: empty network", ErrInvalidNetwork)
	}

	sort.Slice(n.species, func(i, j int) bool {
		return n.species[i].Name < n.species[j].Name
	})
	n.speciesIndex = make(map[SpeciesName]SpeciesIndex, len(n.species))
	for i, s := range n.species {
		n.speciesIndex[s.Name] = SpeciesIndex(i)
	}

	n.reactionIndex = make(map[ReactionID]ReactionIndex, len(n.reactions))
	for i, r := range n.reactions {
		n.reactionIndex[r.ID] = ReactionIndex(i)
	}

	for _, r := range n.reactions {
		touched := make(map[SpeciesName]struct{}, len(r.Reactants)+len(r.Products))
		for _, e := range r.Reactants {
			touched[e.Species] = struct{}{}
		}
		for _, e := range r.Products {
			touched[e.Species] = struct{}{}
		}

		set := map[ReactionID]struct{}{r.ID: {}}
		for _, other := range n.reactions {
			for _, e := range other.Reactants {
				if _, ok := touched[e.Species]; ok {
					set[other.ID] = struct{}{}
					break
				}
			}
		}
		ids := make([]ReactionID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		n.affected[r.ID] = ids
	}

	n.initialized = true
	return nil
}

// NumSpecies returns the dense species count, valid after Init.
func (n *Network) NumSpecies() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.species)
}

// NumReactions returns the dense reaction count, valid after Init.
func (n *Network) NumReactions() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.reactions)
}

// ReactionList returns the reaction handles in index (load) order.
func (n *Network) ReactionList() []ReactionID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]ReactionID, len(n.reactions))
	for i, r := range n.reactions {
		out[i] = r.ID
	}
	return out
}

// SpeciesList returns the species handles in index (lexicographic) order.
func (n *Network) SpeciesList() []SpeciesName {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]SpeciesName, len(n.species))
	for i, s := range n.species {
		out[i] = s.Name
	}
	return out
}

// AffectedReactions returns the precomputed, immutable set of reactions
// affected by r firing (including r itself).
func (n *Network) AffectedReactions(r ReactionID) []ReactionID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.affected[r]
}

func (n *Network) reactionByID(id ReactionID) (*Reaction, error) {
	idx, ok := n.reactionIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reaction %q", ErrInvalidNetwork, id)
	}
	return n.reactions[idx], nil
}

func (n *Network) speciesCounts() map[SpeciesName]int64 {
	counts := make(map[SpeciesName]int64, len(n.species))
	for _, s := range n.species {
		counts[s.Name] = s.Count
	}
	return counts
}

// SetReactionRate evaluates the rate law of r at the current species
// counts, caches it on the reaction, and returns it: one method both
// recomputes and returns, so callers never read a stale cached rate.
func (n *Network) SetReactionRate(id ReactionID) (float64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, err := n.reactionByID(id)
	if err != nil {
		return 0, err
	}
	rate, err := r.Evaluator.Evaluate(n.speciesCounts(), r.Params)
	if err != nil {
		return 0, fmt.Errorf("evaluating rate of %q: %w", id, err)
	}
	if rate < 0 {
		return 0, fmt.Errorf("%w: reaction %q produced negative rate %g", ErrInvalidNetwork, id, rate)
	}
	r.rate = rate
	return rate, nil
}

// GetReactionRate returns the cached propensity without recomputing it.
func (n *Network) GetReactionRate(id ReactionID) float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, err := n.reactionByID(id)
	if err != nil {
		return 0
	}
	return r.rate
}

// CheckReaction returns true iff every reactant of r is available in the
// required stoichiometry, i.e. firing r would not drive any count negative.
func (n *Network) CheckReaction(id ReactionID) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, err := n.reactionByID(id)
	if err != nil {
		return false, err
	}
	for _, e := range r.Reactants {
		idx, ok := n.speciesIndex[e.Species]
		if !ok {
			return false, fmt.Errorf("%w: unknown species %q in reaction %q", ErrInvalidNetwork, e.Species, id)
		}
		if n.species[idx].Count < int64(e.Stoichiometry) {
			return false, nil
		}
	}
	return true, nil
}

// Fire applies r's stoichiometric update to species counts: reactants are
// decremented, products incremented. Returns r's precomputed
// affected-reactions set. Callers are expected to have verified
// CheckReaction first (StoichiometryUnderflow).
func (n *Network) Fire(id ReactionID) ([]ReactionID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, err := n.reactionByID(id)
	if err != nil {
		return nil, err
	}
	for _, e := range r.Reactants {
		idx := n.speciesIndex[e.Species]
		if n.species[idx].Count < int64(e.Stoichiometry) {
			return nil, fmt.Errorf("%w: firing %q would drive %q negative", ErrStoichiometryUnderflow, id, e.Species)
		}
	}
	for _, e := range r.Reactants {
		idx := n.speciesIndex[e.Species]
		n.species[idx].Count -= int64(e.Stoichiometry)
	}
	for _, e := range r.Products {
		idx := n.speciesIndex[e.Species]
		n.species[idx].Count += int64(e.Stoichiometry)
	}
	return n.affected[id], nil
}

// Undo reverses Fire(r): preconditions are that r was the last firing and
// no intervening mutation occurred (enforced by the scheduler's digest
// stack discipline, not by Network itself).
func (n *Network) Undo(id ReactionID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, err := n.reactionByID(id)
	if err != nil {
		return err
	}
	for _, e := range r.Reactants {
		idx := n.speciesIndex[e.Species]
		n.species[idx].Count += int64(e.Stoichiometry)
	}
	for _, e := range r.Products {
		idx := n.speciesIndex[e.Species]
		n.species[idx].Count -= int64(e.Stoichiometry)
	}
	return nil
}

// SpeciesCount returns the current population of a species.
func (n *Network) SpeciesCount(name SpeciesName) (int64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	idx, ok := n.speciesIndex[name]
	if !ok {
		return 0, false
	}
	return n.species[idx].Count, true
}

// SetSpeciesCount seeds or overrides a species population, e.g. loading
// initial conditions before a run.
func (n *Network) SetSpeciesCount(name SpeciesName, count int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx, ok := n.speciesIndex[name]
	if !ok {
		return fmt.Errorf("%w: unknown species %q", ErrInvalidNetwork, name)
	}
	n.species[idx].Count = count
	return nil
}

// AllSpeciesCounts returns a snapshot of every species' population in
// species-index order, used by the recorder for fragment headers.
func (n *Network) AllSpeciesCounts() []int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]int64, len(n.species))
	for i, s := range n.species {
		out[i] = s.Count
	}
	return out
}

// SetPartition records a partition label per vertex and populates
// MyReactionList/MySpeciesList as the subsets assigned to myPID. parts is
// ordered: species first (in species-index order), then reactions (in
// reaction-index order).
func (n *Network) SetPartition(parts []PartitionID, myPID PartitionID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(parts) != len(n.species)+len(n.reactions) {
		return fmt.Errorf("%w: expected %d partition labels, got %d",
			ErrInvalidNetwork, len(n.species)+len(n.reactions), len(parts))
	}
	n.pid = myPID
	n.partition = make(map[string]PartitionID, len(parts))
	n.mySpecies = n.mySpecies[:0]
	n.myReactions = n.myReactions[:0]

	for i, s := range n.species {
		n.partition["s:"+string(s.Name)] = parts[i]
		if parts[i] == myPID {
			n.mySpecies = append(n.mySpecies, s.Name)
		}
	}
	offset := len(n.species)
	for i, r := range n.reactions {
		n.partition["r:"+string(r.ID)] = parts[offset+i]
		if parts[offset+i] == myPID {
			n.myReactions = append(n.myReactions, r.ID)
		}
	}
	return nil
}

// MyReactionList returns the reactions assigned to this partition.
func (n *Network) MyReactionList() []ReactionID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]ReactionID(nil), n.myReactions...)
}

// MySpeciesList returns the species assigned to this partition.
func (n *Network) MySpeciesList() []SpeciesName {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]SpeciesName(nil), n.mySpecies...)
}

// PartitionID returns this network's partition id.
func (n *Network) PartitionID() PartitionID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.pid
}
