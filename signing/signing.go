// Package signing implements the hash-chain, Winternitz-analog one-time
// signature scheme used to authenticate each MAM message against a leaf
// of the channel's Merkle tree: subseed derivation, private key
// expansion, digest/address derivation, signing, and signature-to-digest
// recovery for verification.
package signing

import (
	"fmt"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/trinary"
)

const (
	// MinTryte and MaxTryte bound a tryte's balanced base-3 value.
	MinTryte = -13
	MaxTryte = 13

	// FragmentsPerSecurityLevel is the number of 243-trit fragments a
	// single security level contributes to a key, digest or signature.
	FragmentsPerSecurityLevel = 27

	// ChainLen is the hash-chain length each fragment is iterated
	// through to reach its public commitment: MaxTryte - MinTryte + 1.
	ChainLen = MaxTryte - MinTryte + 1

	// FragmentLen is the size in trits of one key/digest/signature slab.
	FragmentLen = curl.HashLen
)

// FragmentCount returns the number of 243-trit fragments a key, digest
// or signature has at the given security level.
func FragmentCount(security int) int {
	return security * FragmentsPerSecurityLevel
}

// KeyLen returns the size in trits of a private key at the given
// security level.
func KeyLen(security int) int {
	return FragmentCount(security) * FragmentLen
}

// Subseed derives the index-th subseed from seed by applying index
// balanced-ternary increments (with carry) and absorbing the result
// into a fresh 27-round sponge.
func Subseed(seed trinary.Trits, index int64) (trinary.Trits, error) {
	if index < 0 {
		return nil, fmt.Errorf("signing: negative subseed index %d", index)
	}
	t := append(trinary.Trits{}, seed...)
	for ; index > 0; index-- {
		incrementTrits(t)
	}
	s := curl.New(curl.DefaultRounds)
	if err := s.Absorb(t); err != nil {
		return nil, err
	}
	return s.Squeeze(curl.HashLen), nil
}

// incrementTrits adds 1 to t in place, in balanced ternary: a trit at
// +1 wraps to -1 and carries into the next position.
func incrementTrits(t trinary.Trits) {
	for i := range t {
		t[i]++
		if t[i] > 1 {
			t[i] = -1
			continue
		}
		return
	}
}

// PrivateKey expands subseed into an L*27*243-trit private key: L*27
// fragments are squeezed from a sponge primed with subseed, then each
// fragment is whitened by one further reset/absorb/rate round.
func PrivateKey(subseed trinary.Trits, security int) (trinary.Trits, error) {
	raw, err := rawFragments(subseed, security)
	if err != nil {
		return nil, err
	}
	key := make(trinary.Trits, len(raw))
	whiten := curl.New(curl.DefaultRounds)
	for off := 0; off < len(raw); off += FragmentLen {
		whiten.Reset()
		if err := whiten.Absorb(raw[off : off+FragmentLen]); err != nil {
			return nil, err
		}
		copy(key[off:off+FragmentLen], whiten.Rate(FragmentLen))
	}
	return key, nil
}

// rawFragments squeezes the L*27 unwhitened 243-trit fragments from a
// sponge primed with subseed. Both PrivateKey and Digest start from
// these same fragments.
func rawFragments(subseed trinary.Trits, security int) (trinary.Trits, error) {
	s := curl.New(curl.DefaultRounds)
	if err := s.Absorb(subseed); err != nil {
		return nil, err
	}
	return s.Squeeze(FragmentLen * FragmentCount(security)), nil
}

// Digest computes the one-time public commitment for subseed: each raw
// fragment is iterated through ChainLen rounds of reset/absorb/squeeze,
// and the resulting whitened fragments are all absorbed into one
// sponge whose final squeeze is the digest.
func Digest(subseed trinary.Trits, security int) (trinary.Trits, error) {
	raw, err := rawFragments(subseed, security)
	if err != nil {
		return nil, err
	}
	final := curl.New(curl.DefaultRounds)
	chain := curl.New(curl.DefaultRounds)
	for off := 0; off < len(raw); off += FragmentLen {
		buf := append(trinary.Trits{}, raw[off:off+FragmentLen]...)
		for i := 0; i < ChainLen; i++ {
			chain.Reset()
			if err := chain.Absorb(buf); err != nil {
				return nil, err
			}
			buf = chain.Squeeze(FragmentLen)
		}
		if err := final.Absorb(buf); err != nil {
			return nil, err
		}
	}
	return final.Squeeze(curl.HashLen), nil
}

// Address derives the one-time leaf address from a digest: the squeeze
// of a fresh sponge that absorbed it.
func Address(digest trinary.Trits) (trinary.Trits, error) {
	s := curl.New(curl.DefaultRounds)
	if err := s.Absorb(digest); err != nil {
		return nil, err
	}
	return s.Squeeze(curl.HashLen), nil
}

// Sign produces a one-time signature of hashTrits (a 243-trit hmac)
// under key. For each fragment i, the tryte value of hashTrits' i-th
// tryte selects how many further chain rounds to apply to the i-th key
// slab; the resulting value is the i-th signature slab.
func Sign(hashTrits trinary.Trits, key trinary.Trits) (trinary.Trits, error) {
	if len(hashTrits) != curl.HashLen {
		return nil, fmt.Errorf("signing: hash has length %d, want %d", len(hashTrits), curl.HashLen)
	}
	fragments := len(key) / FragmentLen
	if fragments*FragmentLen != len(key) || fragments > curl.HashLen/3 {
		return nil, fmt.Errorf("signing: key has invalid length %d", len(key))
	}
	sig := make(trinary.Trits, len(key))
	chain := curl.New(curl.DefaultRounds)
	for i := 0; i < fragments; i++ {
		tv := trinary.TritsValue(hashTrits[3*i : 3*i+3])
		steps := MaxTryte - int(tv)
		buf := append(trinary.Trits{}, key[i*FragmentLen:i*FragmentLen+FragmentLen]...)
		for s := 0; s < steps; s++ {
			chain.Reset()
			if err := chain.Absorb(buf); err != nil {
				return nil, err
			}
			buf = chain.Squeeze(FragmentLen)
		}
		copy(sig[i*FragmentLen:i*FragmentLen+FragmentLen], buf)
	}
	return sig, nil
}

// DigestFromSignature recovers the digest a signature commits to: for
// each fragment i, the i-th signature slab is carried tv_i - MinTryte
// further chain rounds to reach the chain endpoint, and all endpoints
// are absorbed into one sponge whose squeeze is the recovered digest.
func DigestFromSignature(hashTrits trinary.Trits, sig trinary.Trits) (trinary.Trits, error) {
	if len(hashTrits) != curl.HashLen {
		return nil, fmt.Errorf("signing: hash has length %d, want %d", len(hashTrits), curl.HashLen)
	}
	fragments := len(sig) / FragmentLen
	if fragments*FragmentLen != len(sig) {
		return nil, fmt.Errorf("signing: signature has invalid length %d", len(sig))
	}
	final := curl.New(curl.DefaultRounds)
	chain := curl.New(curl.DefaultRounds)
	for i := 0; i < fragments; i++ {
		tv := trinary.TritsValue(hashTrits[3*i : 3*i+3])
		steps := int(tv) - MinTryte
		buf := append(trinary.Trits{}, sig[i*FragmentLen:i*FragmentLen+FragmentLen]...)
		for s := 0; s < steps; s++ {
			chain.Reset()
			if err := chain.Absorb(buf); err != nil {
				return nil, err
			}
			buf = chain.Squeeze(FragmentLen)
		}
		if err := final.Absorb(buf); err != nil {
			return nil, err
		}
	}
	return final.Squeeze(curl.HashLen), nil
}

// ChecksumSecurity returns the smallest security level (1, 2 or 3)
// whose cumulative prefix-third of h sums to zero, or 0 if none does
// (the hash is not well-formed for any security level).
func ChecksumSecurity(h trinary.Trits) int {
	if len(h) != curl.HashLen {
		return 0
	}
	const third = curl.HashLen / 3
	var sum int64
	for level := 1; level <= 3; level++ {
		for i := (level - 1) * third; i < level*third; i++ {
			sum += int64(h[i])
		}
		if sum == 0 {
			return level
		}
	}
	return 0
}
