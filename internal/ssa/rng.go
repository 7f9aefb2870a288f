package ssa

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// rngStateSize is the fixed size, in bytes, of one generator's serialized
// state: four uint64 words of xoshiro256** state.
const rngStateSize = 32

// xoshiro256ss is a small, fast, splittable PRNG whose entire state is a
// fixed [4]uint64 array — unlike math/rand.Rand, whose state is not
// directly accessible, this makes exact digest serialization trivial.
type xoshiro256ss struct {
	s [4]uint64
}

func seedXoshiro(seed uint64) xoshiro256ss {
	var g xoshiro256ss
	// splitmix64 to expand a single 64-bit seed into the 256-bit state.
	sm := seed
	next := func() uint64 {
		sm += 0x9E3779B97F4A7C15
		z := sm
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	for i := range g.s {
		g.s[i] = next()
	}
	return g
}

func rotl(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// nextUint64 advances the generator and returns the next raw 64-bit word.
func (g *xoshiro256ss) nextUint64() uint64 {
	result := rotl(g.s[1]*5, 7) * 9

	t := g.s[1] << 17
	g.s[2] ^= g.s[0]
	g.s[3] ^= g.s[1]
	g.s[1] ^= g.s[2]
	g.s[0] ^= g.s[3]
	g.s[2] ^= t
	g.s[3] = rotl(g.s[3], 45)

	return result
}

// Float64 returns a uniform value in the open interval (0, 1), never
// returning 0 (needed by inter_event_time's -ln(u)) or 1 (needed by
// sample's strict upper_bound).
func (g *xoshiro256ss) Float64() float64 {
	for {
		// 53 bits of mantissa, matching math/rand's Float64 technique.
		v := float64(g.nextUint64()>>11) / (1 << 53)
		if v > 0 && v < 1 {
			return v
		}
	}
}

func (g *xoshiro256ss) marshal() []byte {
	buf := make([]byte, rngStateSize)
	for i, word := range g.s {
		binary.LittleEndian.PutUint64(buf[i*8:], word)
	}
	return buf
}

func (g *xoshiro256ss) unmarshal(buf []byte) error {
	if len(buf) != rngStateSize {
		return fmt.Errorf("xoshiro256ss: expected %d state bytes, got %d", rngStateSize, len(buf))
	}
	for i := range g.s {
		g.s[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return nil
}

// RNGPair holds the two independent uniform(0,1) generators the Direct
// SSA scheduler needs: one for reaction selection, one for inter-event
// time. RNGStateSize is the fixed size of one serialized digest blob
// (rgen_evt state followed by rgen_tm state).
type RNGPair struct {
	Evt xoshiro256ss
	Tm  xoshiro256ss
}

// RNGStateSize is the total size of a serialized RNGPair snapshot.
const RNGStateSize = rngStateSize * 2

// NewRNGPair seeds the pair: seed 0 draws from OS
// entropy; any other seed deterministically derives two distinct seed
// sequences from (seed, salt, "SSA_Direct"), deduplicated by partition
// rank so that independent partitions never share a stream.
func NewRNGPair(seed uint64, partitionRank int) (*RNGPair, error) {
	if seed == 0 {
		evtSeed, err := entropySeed()
		if err != nil {
			return nil, err
		}
		tmSeed, err := entropySeed()
		if err != nil {
			return nil, err
		}
		return &RNGPair{Evt: seedXoshiro(evtSeed), Tm: seedXoshiro(tmSeed)}, nil
	}

	evtSeed := deriveSeed(seed, 1, partitionRank)
	tmSeed := deriveSeed(seed, 2, partitionRank)
	return &RNGPair{Evt: seedXoshiro(evtSeed), Tm: seedXoshiro(tmSeed)}, nil
}

func entropySeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("seeding RNG from OS entropy: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// deriveSeed expands (userSeed, salt, "SSA_Direct", partitionRank) through
// SHA-256 into a 64-bit stream seed: the salt separates the event and
// time streams, and the partition rank keeps independent partitions
// from colliding.
func deriveSeed(userSeed uint64, salt int, partitionRank int) uint64 {
	h := sha256.New()
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], userSeed)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(salt))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(partitionRank))
	h.Write(hdr[:])
	h.Write([]byte("SSA_Direct"))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// Snapshot serializes both generators' states back to back, in the order
// (rgen_evt, rgen_tm), matching the digest layout a scheduler pushes per step.
func (p *RNGPair) Snapshot() []byte {
	buf := make([]byte, 0, RNGStateSize)
	buf = append(buf, p.Evt.marshal()...)
	buf = append(buf, p.Tm.marshal()...)
	return buf
}

// Restore restores both generators' states from a blob produced by Snapshot.
func (p *RNGPair) Restore(blob []byte) error {
	if len(blob) != RNGStateSize {
		return fmt.Errorf("RNGPair.Restore: expected %d bytes, got %d", RNGStateSize, len(blob))
	}
	if err := p.Evt.unmarshal(blob[:rngStateSize]); err != nil {
		return err
	}
	return p.Tm.unmarshal(blob[rngStateSize:])
}
