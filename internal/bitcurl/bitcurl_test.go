package bitcurl

import (
	"testing"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/trinary"
)

// TestPermuteMatchesScalarCurl loads the same trit state into every one
// of the 64 lanes and checks that the bit-sliced permutation agrees
// with the scalar curl.State permutation lane-for-lane.
func TestPermuteMatchesScalarCurl(t *testing.T) {
	in := make(trinary.Trits, StateLen)
	for i := range in {
		in[i] = int8(i%3) - 1
	}

	scalar := curl.New(curl.DefaultRounds)
	if err := scalar.SetState(in); err != nil {
		t.Fatal(err)
	}
	scalar.PermuteOnce()
	want := scalar.Rate(curl.HashLen)

	bs := New()
	for i, tr := range in {
		bs.PackTrit(i, tr)
	}
	bs.Permute(curl.DefaultRounds)

	for lane := uint(0); lane < Lanes; lane++ {
		for i := 0; i < curl.HashLen; i++ {
			got := bs.LaneTrit(i, lane)
			if got != want[i] {
				t.Fatalf("lane %d slot %d = %d, want %d", lane, i, got, want[i])
			}
		}
	}
}

func TestSetLaneIsolatesLane(t *testing.T) {
	s := New()
	s.SetLane(0, 3, 1)
	s.SetLane(0, 7, -1)
	if got := s.LaneTrit(0, 3); got != 1 {
		t.Fatalf("lane 3 = %d, want 1", got)
	}
	if got := s.LaneTrit(0, 7); got != -1 {
		t.Fatalf("lane 7 = %d, want -1", got)
	}
	if got := s.LaneTrit(0, 1); got != 0 {
		t.Fatalf("untouched lane 1 = %d, want 0", got)
	}
}

func TestResetIsAllZero(t *testing.T) {
	s := New()
	s.SetLane(5, 2, 1)
	s.Reset()
	for lane := uint(0); lane < Lanes; lane++ {
		if got := s.LaneTrit(5, lane); got != 0 {
			t.Fatalf("lane %d after Reset = %d, want 0", lane, got)
		}
	}
}
