package ssa

import "fmt"

// Digest is the per-step record a scheduler pushes after every firing,
// sufficient to exactly reverse (and re-replay) that step: the simulation
// time this firing landed at, the handle that fired, the affected set
// Network.Fire returned, and the RNG pair's state on entry to Forward:
// after Schedule's inter-event-time draw and before the reaction-selection
// draw, so the step replays by calling Forward again at SimTime. Time-warp / optimistic-parallel
// orchestration that would consume this is out of scope here; only the
// stack and its round-trip guarantee live in this package.
type Digest struct {
	SimTime  float64
	Fired    ReactionID
	Affected []ReactionID
	RNGState []byte
}

// DigestList is a stack of Digests (Push, Pop, Truncate) supporting exact
// backward and forward replay.
type DigestList struct {
	stack []Digest
}

// NewDigestList creates an empty rollback stack.
func NewDigestList() *DigestList {
	return &DigestList{}
}

// Push records a new step at the top of the stack.
func (d *DigestList) Push(dg Digest) {
	d.stack = append(d.stack, dg)
}

// Len returns the number of recorded steps.
func (d *DigestList) Len() int { return len(d.stack) }

// Peek returns the top digest without removing it, or an error if empty.
func (d *DigestList) Peek() (Digest, error) {
	if len(d.stack) == 0 {
		return Digest{}, ErrNoPriorEvent
	}
	return d.stack[len(d.stack)-1], nil
}

// Pop removes and returns the top digest, or an error if empty.
func (d *DigestList) Pop() (Digest, error) {
	if len(d.stack) == 0 {
		return Digest{}, ErrNoPriorEvent
	}
	dg := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return dg, nil
}

// Truncate discards every digest beyond the first n, used when a forward
// replay is abandoned in favor of a new branch of firings: rolling back
// then firing something different invalidates the old forward history.
func (d *DigestList) Truncate(n int) error {
	if n < 0 || n > len(d.stack) {
		return fmt.Errorf("ssa: truncate index %d out of range [0,%d]", n, len(d.stack))
	}
	d.stack = d.stack[:n]
	return nil
}
