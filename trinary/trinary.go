// Package trinary implements the balanced-ternary trit/tryte codec that
// underlies the rest of this module: a bidirectional mapping between the
// 27-character tryte alphabet and length-3 ternary digit triples.
package trinary

import (
	"fmt"
)

// TryteAlphabet is the 27-character alphabet used to print trytes.
// Position 0 ('9') is the zero tryte.
const TryteAlphabet = "9ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Trit is a single ternary digit in {-1, 0, +1}.
type Trit = int8

// Trits is a packed, ordered sequence of trits. All cryptographic
// operations in this module manipulate Trits buffers.
type Trits []int8

// Trytes is a string over TryteAlphabet.
type Trytes string

const invalidTryteValue = int16(-999)

var charToValue [256]int16
var valueToChar [27]byte

func init() {
	for i := range charToValue {
		charToValue[i] = invalidTryteValue
	}
	for i, c := range TryteAlphabet {
		v := i
		if v > 13 {
			v -= 27
		}
		charToValue[byte(c)] = int16(v)
		valueToChar[normalizeIndex(v)] = byte(c)
	}
}

func normalizeIndex(v int) int {
	if v < 0 {
		return v + 27
	}
	return v
}

// IsTrit reports whether v is a valid trit value.
func IsTrit(v int8) bool {
	return v >= -1 && v <= 1
}

// ValidTrytes reports whether s consists solely of characters from
// TryteAlphabet.
func ValidTrytes(s Trytes) bool {
	for i := 0; i < len(s); i++ {
		if charToValue[s[i]] == invalidTryteValue {
			return false
		}
	}
	return true
}

// ToTrits maps each character of s to its fixed 3-trit triple.
func ToTrits(s Trytes) (Trits, error) {
	out := make(Trits, len(s)*3)
	if err := ToTritsInto(s, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToTritsInto is the allocation-free form of ToTrits; out must have
// length 3*len(s).
func ToTritsInto(s Trytes, out Trits) error {
	if len(out) != len(s)*3 {
		return fmt.Errorf("trinary: out has wrong length %d for %d trytes", len(out), len(s))
	}
	for i := 0; i < len(s); i++ {
		v := charToValue[s[i]]
		if v == invalidTryteValue {
			return fmt.Errorf("trinary: %q is not a tryte character", s[i])
		}
		decomposeTryteValue(int(v), out[i*3:i*3+3])
	}
	return nil
}

// decomposeTryteValue writes the balanced base-3 digits of v (in
// [-13, 13]) into the 3 trits of out, least-significant first.
func decomposeTryteValue(v int, out []int8) {
	for i := 0; i < 3; i++ {
		rem := v % 3
		v /= 3
		if rem > 1 {
			rem -= 3
			v++
		} else if rem < -1 {
			rem += 3
			v--
		}
		out[i] = int8(rem)
	}
}

// FromTrits reverses ToTrits; len(t) must be divisible by 3.
func FromTrits(t Trits) (Trytes, error) {
	if len(t)%3 != 0 {
		return "", fmt.Errorf("trinary: trit buffer length %d is not a multiple of 3", len(t))
	}
	buf := make([]byte, len(t)/3)
	for i := 0; i < len(buf); i++ {
		chunk := t[i*3 : i*3+3]
		for _, tr := range chunk {
			if !IsTrit(tr) {
				return "", fmt.Errorf("trinary: invalid trit value %d", tr)
			}
		}
		v := int(chunk[0]) + 3*int(chunk[1]) + 9*int(chunk[2])
		buf[i] = valueToChar[normalizeIndex(v)]
	}
	return Trytes(buf), nil
}

// TritsValue reads t as a little-endian balanced base-3 number:
// v = sum t[i] * 3^i.
func TritsValue(t Trits) int64 {
	var v int64
	var p int64 = 1
	for _, tr := range t {
		v += int64(tr) * p
		p *= 3
	}
	return v
}

// Pad right-pads s with '9' (the zero tryte) to length n. s must not be
// longer than n.
func Pad(s Trytes, n int) (Trytes, error) {
	if len(s) > n {
		return "", fmt.Errorf("trinary: %d trytes does not fit in %d", len(s), n)
	}
	if len(s) == n {
		return s, nil
	}
	buf := make([]byte, n)
	copy(buf, s)
	for i := len(s); i < n; i++ {
		buf[i] = '9'
	}
	return Trytes(buf), nil
}
