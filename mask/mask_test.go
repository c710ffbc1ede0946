package mask

import (
	"testing"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/trinary"
)

func TestTritSumIdentity(t *testing.T) {
	for a := int8(-1); a <= 1; a++ {
		if got := TritSum(a, 0); got != a {
			t.Errorf("TritSum(%d, 0) = %d, want %d", a, got, a)
		}
	}
}

func TestTritSumInverse(t *testing.T) {
	for a := int8(-1); a <= 1; a++ {
		if got := TritSum(a, -a); got != 0 {
			t.Errorf("TritSum(%d, %d) = %d, want 0", a, -a, got)
		}
	}
}

func TestMaskUnmaskRoundTrip(t *testing.T) {
	payload := make(trinary.Trits, curl.HashLen*3)
	for i := range payload {
		payload[i] = int8(i%3) - 1
	}
	orig := append(trinary.Trits{}, payload...)

	key := make(trinary.Trits, curl.HashLen)
	for i := range key {
		key[i] = int8((i*2)%3) - 1
	}

	enc, err := Mask(append(trinary.Trits{}, payload...), curl.New(curl.DefaultRounds))
	if err != nil {
		t.Fatal(err)
	}
	_ = key

	s2 := curl.New(curl.DefaultRounds)
	dec, err := Unmask(append(trinary.Trits{}, enc...), s2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range dec {
		if dec[i] != orig[i] {
			t.Fatalf("roundtrip mismatch at %d: got %d want %d", i, dec[i], orig[i])
		}
	}
}

func TestMaskUnmaskRoundTripShortFinalChunk(t *testing.T) {
	payload := make(trinary.Trits, curl.HashLen+81)
	for i := range payload {
		payload[i] = int8(i%3) - 1
	}
	orig := append(trinary.Trits{}, payload...)

	enc, err := Mask(append(trinary.Trits{}, payload...), curl.New(curl.DefaultRounds))
	if err != nil {
		t.Fatal(err)
	}
	dec, err := Unmask(append(trinary.Trits{}, enc...), curl.New(curl.DefaultRounds))
	if err != nil {
		t.Fatal(err)
	}
	for i := range dec {
		if dec[i] != orig[i] {
			t.Fatalf("short-final-chunk roundtrip mismatch at %d: got %d want %d", i, dec[i], orig[i])
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	key := make(trinary.Trits, curl.HashLen)
	for i := range key {
		key[i] = int8(i%3) - 1
	}
	h1, err := Hash(append(trinary.Trits{}, key...))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(append(trinary.Trits{}, key...))
	if err != nil {
		t.Fatal(err)
	}
	for i := range h1 {
		if h1[i] != h2[i] {
			t.Fatalf("Hash not deterministic at %d", i)
		}
	}
	if len(h1) != curl.HashLen {
		t.Fatalf("Hash length = %d, want %d", len(h1), curl.HashLen)
	}
}
