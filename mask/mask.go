// Package mask implements the trit-level, sponge-driven masking layer
// used to encrypt MAM payloads, and the 81-round maskHash used to derive
// masked addresses in private/restricted channels.
package mask

import (
	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/trinary"
)

// TritSum adds a and b in balanced ternary, saturating into {-1,0,+1} by
// adding or subtracting 3 on overflow. It is commutative, associative,
// and TritSum(a, -a) == 0 for any a in {-1,0,+1}.
func TritSum(a, b int8) int8 {
	s := a + b
	switch {
	case s > 1:
		return s - 3
	case s < -1:
		return s + 3
	default:
		return s
	}
}

// Mask encrypts payload in place against sponge, absorbing the running
// plaintext as it goes, and returns it. payload is consumed in
// curl.HashLen-trit chunks; a final, shorter chunk is allowed.
func Mask(payload trinary.Trits, sponge *curl.State) (trinary.Trits, error) {
	return transform(payload, sponge, false)
}

// Unmask decrypts payload in place against sponge (the inverse of Mask)
// and returns it.
func Unmask(payload trinary.Trits, sponge *curl.State) (trinary.Trits, error) {
	return transform(payload, sponge, true)
}

func transform(payload trinary.Trits, sponge *curl.State, inverse bool) (trinary.Trits, error) {
	keyChunk := sponge.Rate(curl.HashLen)
	for off := 0; off < len(payload); off += curl.HashLen {
		end := off + curl.HashLen
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[off:end]
		if inverse {
			for i := range chunk {
				chunk[i] = TritSum(chunk[i], -keyChunk[i])
			}
			if err := sponge.AbsorbChunk(chunk); err != nil {
				return nil, err
			}
		} else {
			if err := sponge.AbsorbChunk(chunk); err != nil {
				return nil, err
			}
		}
		state := sponge.Rate(curl.HashLen)
		if !inverse {
			for i := range chunk {
				chunk[i] = TritSum(chunk[i], keyChunk[i])
			}
		}
		copy(keyChunk, state[:len(chunk)])
	}
	return payload, nil
}

// Hash computes maskHash: absorb keyTrits into an 81-round sponge and
// squeeze one HashLen-trit block. Used to derive masked addresses for
// private and restricted channels.
func Hash(keyTrits trinary.Trits) (trinary.Trits, error) {
	s := curl.New(curl.MaskHashRounds)
	if err := s.Absorb(keyTrits); err != nil {
		return nil, err
	}
	return s.Squeeze(curl.HashLen), nil
}
