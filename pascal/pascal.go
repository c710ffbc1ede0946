// Package pascal implements the self-delimiting variable-length ternary
// encoding of signed integers used to frame MAM message indices, lengths
// and sibling counts.
package pascal

import (
	"fmt"

	"github.com/iotaledger/mam.go/trinary"
)

// ZeroTrits is the fixed encoding of the integer 0. It is a sentinel, not
// an instance of the general algorithm: minTrits(0) is 0, which the
// self-delimiting scheme cannot represent unambiguously, so 0 is always
// spelled out literally.
var ZeroTrits = trinary.Trits{1, 0, 0, -1}

// Encode returns the self-delimiting trit encoding of v.
func Encode(v int64) trinary.Trits {
	if v == 0 {
		out := make(trinary.Trits, len(ZeroTrits))
		copy(out, ZeroTrits)
		return out
	}

	m := roundUpToMultipleOf3(minTrits(abs64(v)))
	valueTrits := decomposeValue(v, m)

	numChunks := m / 3
	var word int64
	for c := 0; c < numChunks; c++ {
		chunk := valueTrits[c*3 : c*3+3]
		tv := trinary.TritsValue(chunk)
		isLast := c == numChunks-1
		flip := tv >= 0
		if isLast {
			flip = tv < 0
		}
		if flip {
			for i := range chunk {
				chunk[i] = -chunk[i]
			}
			word |= 1 << uint(c)
		}
	}

	wordTrits := decomposeValue(word, numChunks)
	return append(valueTrits, wordTrits...)
}

// Decode reads a pascal-encoded integer from the front of buf, returning
// the value and the number of trits consumed.
func Decode(buf trinary.Trits) (value int64, end int, err error) {
	if len(buf) >= len(ZeroTrits) && tritsEqual(buf[:4], ZeroTrits) {
		return 0, 4, nil
	}

	pos := 0
	for {
		if pos+3 > len(buf) {
			return 0, 0, fmt.Errorf("pascal: decode consumed past end of buffer")
		}
		chunk := buf[pos : pos+3]
		tv := trinary.TritsValue(chunk)
		pos += 3
		if tv > 0 {
			break
		}
	}

	header := pos
	numChunks := header / 3
	if header+numChunks > len(buf) {
		return 0, 0, fmt.Errorf("pascal: decode consumed past end of buffer")
	}
	word := trinary.TritsValue(buf[header : header+numChunks])
	if word < 0 || word >= int64(1)<<uint(numChunks) {
		return 0, 0, fmt.Errorf("pascal: invalid encoding word %d", word)
	}

	var v int64
	pow27 := int64(1)
	for i := 0; i < numChunks; i++ {
		chunk := buf[i*3 : i*3+3]
		tv := trinary.TritsValue(chunk)
		bit := (word >> uint(i)) & 1
		digit := tv
		if bit == 1 {
			digit = -tv
		}
		v += pow27 * digit
		pow27 *= 27
	}
	return v, header + numChunks, nil
}

func tritsEqual(a, b trinary.Trits) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// minTrits returns the fewest trits needed to represent x (x >= 0) in
// balanced base-3: the smallest m with (3^m-1)/2 >= x.
func minTrits(x int64) int {
	m := 0
	capacity := int64(0)
	pow3 := int64(1)
	for capacity < x {
		pow3 *= 3
		capacity = (pow3 - 1) / 2
		m++
	}
	return m
}

func roundUpToMultipleOf3(m int) int {
	return ((m + 2) / 3) * 3
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// decomposeValue writes the m-trit balanced base-3 representation of v
// (which must fit in m trits) least-significant-trit first.
func decomposeValue(v int64, m int) trinary.Trits {
	out := make(trinary.Trits, m)
	for i := 0; i < m; i++ {
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
	return out
}
