package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iotaledger/mam.go"
	"github.com/iotaledger/mam.go/trinary"
)

func testChannelState(t *testing.T) *mam.ChannelState {
	t.Helper()
	seed := trinary.Trytes("NXRWXDYCTJUDKMKCGBPMFOGBBQOVZERZJRTJTEQQRQYJKPTDIBUFXXYSTGCXBJJFDQSOLYUVYWMOEGAEX")
	cs, err := mam.CreateChannel(seed, 1, mam.ModePublic, "")
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	cs.Index = 3
	cs.Count = 7
	cs.NextRoot = "NINEASNINEASNINEASNINEASNINEASNINEASNINEASNINEASNINEASNINEAS999"
	return cs
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	want := testChannelState(t)
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Seed != want.Seed || got.Mode != want.Mode || got.Security != want.Security ||
		got.Index != want.Index || got.Count != want.Count || got.NextRoot != want.NextRoot {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestStoreSaveOverwritesPreviousRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	first := testChannelState(t)
	if err := s.Save(first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := testChannelState(t)
	second.Index = 5
	if err := s.Save(second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Index != 5 {
		t.Fatalf("Load after overwrite: got index %d, want 5", got.Index)
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(); err == nil {
		t.Fatal("Load on a never-saved store: want error, got nil")
	}
}

func TestStoreLoadRejectsCorruptedChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Save(testChannelState(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading raw file: %v", err)
	}
	raw[len(magic)] ^= 0xff
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	if _, err := s.Load(); err == nil {
		t.Fatal("Load on a corrupted record: want error, got nil")
	}
}

func TestOpenRejectsSecondLockHolder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open (first): %v", err)
	}
	defer first.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("Open while locked by another holder: want error, got nil")
	}
}

func TestOpenReacquiresLockAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.state")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open (first): %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open (second): %v", err)
	}
	defer second.Close()
}
