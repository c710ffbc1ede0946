// Package curl implements the ternary sponge permutation that underlies
// every hashing, signing and masking operation in this module: a 729-trit
// state with a 243-trit public rate, parameterised by round count (27 or
// 81), with absorb/squeeze/reset/peek-rate operations.
package curl

import (
	"fmt"

	"github.com/iotaledger/mam.go/trinary"
)

const (
	// HashLen is the size in trits of the sponge's rate region, and of
	// every digest/address/root this module produces.
	HashLen = 243

	// StateLen is the size in trits of the full sponge state.
	StateLen = 729

	// DefaultRounds is the round count used everywhere except maskHash.
	DefaultRounds = 27

	// MaskHashRounds is the round count maskHash's sponge uses.
	MaskHashRounds = 81
)

// truthTable implements the ternary permutation's single nonlinear gate.
var truthTable = [11]int8{1, 0, -1, 2, 1, -1, 0, 2, -1, 1, 0}

// State is a ternary sponge instance. The zero value is not ready for
// use; construct one with New(). Sponge instances are stack-local values:
// nothing here escapes to package-level state.
type State struct {
	state   trinary.Trits // 729 trits
	scratch trinary.Trits // reused round-scratch buffer
	rounds  int
}

// New returns a fresh, zeroed sponge with the given round count (27 or 81).
func New(rounds int) *State {
	if rounds != DefaultRounds && rounds != MaskHashRounds {
		panic(fmt.Sprintf("curl: unsupported round count %d", rounds))
	}
	return &State{
		state:   make(trinary.Trits, StateLen),
		scratch: make(trinary.Trits, StateLen),
		rounds:  rounds,
	}
}

// Reset zeroes the sponge state.
func (s *State) Reset() {
	for i := range s.state {
		s.state[i] = 0
	}
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := New(s.rounds)
	copy(c.state, s.state)
	return c
}

// Absorb consumes b in HashLen-trit chunks: each chunk is copied into the
// rate, then the permutation is applied. len(b) must be a multiple of
// HashLen.
func (s *State) Absorb(b trinary.Trits) error {
	if len(b)%HashLen != 0 {
		return fmt.Errorf("curl: absorb length %d is not a multiple of %d", len(b), HashLen)
	}
	for off := 0; off < len(b); off += HashLen {
		if err := s.AbsorbChunk(b[off : off+HashLen]); err != nil {
			return err
		}
	}
	return nil
}

// AbsorbChunk absorbs a single chunk of at most HashLen trits: it is
// copied into the front of the rate, leaving any remaining rate trits
// untouched, then the permutation is applied once. Used by the masking
// layer, whose final chunk of a message may be shorter than HashLen.
func (s *State) AbsorbChunk(chunk trinary.Trits) error {
	if len(chunk) > HashLen {
		return fmt.Errorf("curl: chunk length %d exceeds %d", len(chunk), HashLen)
	}
	copy(s.state[:len(chunk)], chunk)
	s.permute()
	return nil
}

// Squeeze produces n trits, alternating "take rate, permute".
func (s *State) Squeeze(n int) trinary.Trits {
	out := make(trinary.Trits, n)
	for off := 0; off < n; off += HashLen {
		chunk := HashLen
		if n-off < chunk {
			chunk = n - off
		}
		copy(out[off:off+chunk], s.state[:chunk])
		s.permute()
	}
	return out
}

// Rate returns a copy of the first k trits of the state without
// advancing it.
func (s *State) Rate(k int) trinary.Trits {
	out := make(trinary.Trits, k)
	copy(out, s.state[:k])
	return out
}

// SetState overwrites the full StateLen-trit state directly, bypassing
// absorb's chunked rate-copy semantics. Used by callers (proof-of-work
// verification, state snapshotting) that construct a full state out of
// band and need to permute it as-is.
func (s *State) SetState(t trinary.Trits) error {
	if len(t) != StateLen {
		return fmt.Errorf("curl: state length %d, want %d", len(t), StateLen)
	}
	copy(s.state, t)
	return nil
}

// PermuteOnce applies the permutation for s.rounds rounds directly to
// the current state, without copying in any new input first.
func (s *State) PermuteOnce() {
	s.permute()
}

// permute applies the sponge permutation for s.rounds rounds. The
// scanning index starts at 0 for this call and is threaded across all
// rounds of it without being reset in between.
func (s *State) permute() {
	p := 0
	for r := 0; r < s.rounds; r++ {
		copy(s.scratch, s.state)
		for i := 0; i < StateLen; i++ {
			a := s.scratch[p]
			if p < 365 {
				p += 364
			} else {
				p -= 365
			}
			b := s.scratch[p]
			s.state[i] = truthTable[int(a)+int(b)*4+5]
		}
	}
}
