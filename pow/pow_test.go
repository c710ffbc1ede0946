package pow

import (
	"context"
	"testing"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/internal/bitcurl"
	"github.com/iotaledger/mam.go/signing"
	"github.com/iotaledger/mam.go/trinary"
)

func TestSearchProducesValidNonce(t *testing.T) {
	s := curl.New(curl.DefaultRounds)
	msg := make(trinary.Trits, curl.HashLen)
	for i := range msg {
		msg[i] = int8(i%3) - 1
	}
	if err := s.Absorb(msg); err != nil {
		t.Fatal(err)
	}
	initial := s.Rate(bitcurl.StateLen)

	for _, security := range []int{1, 2, 3} {
		nonce, err := Search(context.Background(), append(trinary.Trits{}, initial...), security, 81, 0)
		if err != nil {
			t.Fatalf("security=%d: %s", security, err)
		}
		if len(nonce) != 81 {
			t.Fatalf("security=%d: nonce length = %d, want 81", security, len(nonce))
		}

		check := append(trinary.Trits{}, initial...)
		copy(check, nonce)
		v := curl.New(curl.DefaultRounds)
		if err := v.SetState(check); err != nil {
			t.Fatal(err)
		}
		v.PermuteOnce()
		got := signing.ChecksumSecurity(v.Rate(curl.HashLen))
		if got < security {
			t.Fatalf("security=%d: checksumSecurity(rate) = %d, want >= %d", security, got, security)
		}
	}
}

func TestSearchRejectsOversizedLength(t *testing.T) {
	state := make(trinary.Trits, bitcurl.StateLen)
	if _, err := Search(context.Background(), state, 1, curl.HashLen+1, 0); err == nil {
		t.Error("expected error for length exceeding HashLen")
	}
}

func TestSearchRejectsWrongStateLength(t *testing.T) {
	if _, err := Search(context.Background(), make(trinary.Trits, 10), 1, 81, 0); err == nil {
		t.Error("expected error for wrong state length")
	}
}

func TestSearchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := make(trinary.Trits, bitcurl.StateLen)
	if _, err := Search(ctx, state, 3, 81, 0); err == nil {
		t.Error("expected error from cancelled context")
	}
}
