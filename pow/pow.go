// Package pow implements the proof-of-work nonce search: a bit-sliced,
// 64-way parallel ternary sponge that tries 64 candidate nonces per
// permutation call, searching for one whose post-absorb rate satisfies
// the channel's security level.
package pow

import (
	"context"
	"fmt"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/internal/bitcurl"
	"github.com/iotaledger/mam.go/trinary"
)

// The four published Curl bit-slice counter seeds: packed (low, high)
// words that, placed at offsets off..off+3, enumerate a distinct 4-trit
// combination per lane across the 64 lanes of a bit-sliced state.
var (
	seedLow = [4]uint64{
		0xDB6DB6DB6DB6DB6D,
		0xF1F8FC7E3F1F8FC7,
		0x7FFFE00FFFFC01FF,
		0xFFC0000007FFFFFF,
	}
	seedHigh = [4]uint64{
		0xB6DB6DB6DB6DB6DB,
		0x8FC7E3F1F8FC7E3F,
		0xFFC01FFFF803FFFF,
		0x003FFFFFFFFFFFFF,
	}
)

// Search tries successive nonces of length trits placed at
// [offset, offset+length) of state, returning the first one (in the
// bit-sliced search order) whose resulting rate has exactly the given
// security level. state must have length bitcurl.StateLen; length must
// not exceed curl.HashLen.
func Search(ctx context.Context, state trinary.Trits, security, length, offset int) (trinary.Trits, error) {
	if len(state) != bitcurl.StateLen {
		return nil, fmt.Errorf("pow: state has length %d, want %d", len(state), bitcurl.StateLen)
	}
	if length > curl.HashLen {
		return nil, fmt.Errorf("pow: search length %d exceeds %d", length, curl.HashLen)
	}
	if offset+length > bitcurl.StateLen {
		return nil, fmt.Errorf("pow: offset+length %d exceeds state size %d", offset+length, bitcurl.StateLen)
	}

	bs := bitcurl.New()
	for i, tr := range state {
		bs.PackTrit(i, tr)
	}
	for i := 0; i < 4; i++ {
		bs.SetRaw(offset+i, seedLow[i], seedHigh[i])
	}

	counterStart := offset + (2*length)/3
	counterEnd := offset + length

	preLow := make([]uint64, bitcurl.StateLen)
	preHigh := make([]uint64, bitcurl.StateLen)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := 0; i < bitcurl.StateLen; i++ {
			preLow[i], preHigh[i] = bs.Raw(i)
		}

		bs.Permute(curl.DefaultRounds)

		if lane, ok := checkLanes(bs, security); ok {
			return extractNonce(preLow, preHigh, offset, length, lane), nil
		}

		incrementCounter(bs, counterStart, counterEnd)
	}
}

// checkLanes evaluates the checksumSecurity predicate lane-by-lane over
// the permuted state's rate, returning the first lane whose achieved
// level (the smallest level whose cumulative third-sum is zero, exactly
// as signing.ChecksumSecurity computes it scalar-side) equals security.
// An earlier third summing to nonzero does not disqualify a lane: it
// only means the running sum carries into the next third, same as
// ChecksumSecurity never stopping at a nonzero intermediate level. A
// lane whose achieved level is above security is rejected: the parser
// sizes the signature from that level, so it must be the level the
// signing key was built for.
func checkLanes(bs *bitcurl.State, security int) (lane uint, ok bool) {
	const third = curl.HashLen / 3
	for l := uint(0); l < bitcurl.Lanes; l++ {
		var sum int64
		achieved := 0
		for level := 1; level <= 3; level++ {
			for k := (level - 1) * third; k < level*third; k++ {
				low, high := bs.Raw(k)
				bitLow := (low>>l)&1 == 0
				bitHigh := (high>>l)&1 == 0
				switch {
				case bitLow:
					sum++
				case bitHigh:
					sum--
				}
			}
			if sum == 0 {
				achieved = level
				break
			}
		}
		if achieved == security {
			return l, true
		}
	}
	return 0, false
}

// extractNonce decodes lane ℓ's [offset, offset+length) slots from the
// pre-permutation state into scalar trits.
func extractNonce(preLow, preHigh []uint64, offset, length int, lane uint) trinary.Trits {
	out := make(trinary.Trits, length)
	mask := uint64(1) << lane
	for i := 0; i < length; i++ {
		low := preLow[offset+i]&mask != 0
		high := preHigh[offset+i]&mask != 0
		switch {
		case low && !high:
			out[i] = -1
		case !low && high:
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out
}

// incrementCounter performs a broadcast (identical-across-lanes)
// balanced-ternary increment with carry over bs's [start, end) slots.
func incrementCounter(bs *bitcurl.State, start, end int) {
	for i := start; i < end; i++ {
		t := bs.LaneTrit(i, 0)
		t++
		if t > 1 {
			bs.PackTrit(i, -1)
			continue
		}
		bs.PackTrit(i, t)
		return
	}
}
