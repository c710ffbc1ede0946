package pascal

import (
	"testing"

	"github.com/iotaledger/mam.go/trinary"
)

func TestEncodeZero(t *testing.T) {
	got := Encode(0)
	want := trinary.Trits{1, 0, 0, -1}
	if len(got) != len(want) {
		t.Fatalf("Encode(0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Encode(0) = %v, want %v", got, want)
		}
	}
}

func TestDecodeZero(t *testing.T) {
	v, end, err := Decode(trinary.Trits{1, 0, 0, -1})
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 || end != 4 {
		t.Fatalf("Decode(zero) = (%d, %d), want (0, 4)", v, end)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 2, -2, 13, -13, 14, -14, 27, -27, 243, -243,
		1000, -1000, 1 << 20, -(1 << 20)}
	for _, v := range values {
		enc := Encode(v)
		got, end, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%d)): %s", v, err)
		}
		if got != v {
			t.Errorf("roundtrip(%d) = %d", v, got)
		}
		if end != len(enc) {
			t.Errorf("roundtrip(%d) end = %d, want %d", v, end, len(enc))
		}
	}
}

func TestDecodeTrailingGarbageIgnored(t *testing.T) {
	enc := Encode(-243)
	padded := append(append(trinary.Trits{}, enc...), 1, -1, 0)
	v, end, err := Decode(padded)
	if err != nil {
		t.Fatal(err)
	}
	if v != -243 || end != 8 {
		t.Fatalf("Decode(-243 padded) = (%d, %d), want (-243, 8)", v, end)
	}
}

func TestDecodeTruncatedErrors(t *testing.T) {
	enc := Encode(1000)
	if _, _, err := Decode(enc[:len(enc)-1]); err == nil {
		t.Error("expected error decoding truncated buffer")
	}
}
