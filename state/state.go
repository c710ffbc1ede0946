// Package state persists a channel's ChannelState record to a regular
// file, guarded by a lockfile against concurrent access from another
// process and checksummed against silent corruption.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bwesterb/byteswriter"
	"github.com/cespare/xxhash"
	mmap "github.com/edsrzf/mmap-go"
	"github.com/nightlyone/lockfile"

	"github.com/iotaledger/mam.go"
)

// magic identifies a channel state file; it guards against pointing a
// Store at an unrelated file.
const magic = "mamstate"

// Store is a single channel state persisted at a path on disk, plus its
// path.lock sibling.
type Store struct {
	path   string
	flock  lockfile.Lockfile
	locked bool
}

// Open acquires the store's lockfile. It does not read or write the
// underlying record; call Load or Save explicitly.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("state: resolving path %q: %w", path, err)
	}
	flock, err := lockfile.New(abs + ".lock")
	if err != nil {
		return nil, fmt.Errorf("state: creating lockfile for %q: %w", abs, err)
	}
	if err := flock.TryLock(); err != nil {
		return nil, fmt.Errorf("state: locking %q: %w", abs, err)
	}
	return &Store{path: abs, flock: flock, locked: true}, nil
}

// Close releases the store's lockfile.
func (s *Store) Close() error {
	if !s.locked {
		return nil
	}
	s.locked = false
	if err := s.flock.Unlock(); err != nil {
		return fmt.Errorf("state: unlocking %q: %w", s.path, err)
	}
	return nil
}

// Load reads and verifies the persisted channel state. It returns
// os.ErrNotExist (wrapped) if the store has never been saved.
func (s *Store) Load() (*mam.ChannelState, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("state: opening %q: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("state: stat %q: %w", s.path, err)
	}
	if info.Size() < int64(len(magic)+8) {
		return nil, fmt.Errorf("state: %q is too short to be a channel state record", s.path)
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("state: mmap %q: %w", s.path, err)
	}
	defer mapped.Unmap()

	if string(mapped[:len(magic)]) != magic {
		return nil, fmt.Errorf("state: %q is not a channel state file", s.path)
	}
	body := mapped[len(magic) : len(mapped)-8]
	wantSum := decodeUint64(mapped[len(mapped)-8:])
	if gotSum := xxhash.Sum64(body); gotSum != wantSum {
		return nil, fmt.Errorf("state: checksum mismatch reading %q", s.path)
	}

	record := make([]byte, len(body))
	copy(record, body)

	channelState := &mam.ChannelState{}
	if err := channelState.UnmarshalBinary(record); err != nil {
		return nil, fmt.Errorf("state: decoding %q: %w", s.path, err)
	}
	return channelState, nil
}

// Save atomically replaces the persisted record with channelState's
// current contents: it writes to a temp file in the same directory and
// renames it over the target, so a crash mid-write cannot leave a
// half-written store.
func (s *Store) Save(channelState *mam.ChannelState) error {
	body, err := channelState.MarshalBinary()
	if err != nil {
		return fmt.Errorf("state: encoding channel state: %w", err)
	}

	buf := make([]byte, len(magic)+len(body)+8)
	w := byteswriter.NewWriter(buf)
	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("state: writing magic: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("state: writing body: %w", err)
	}
	encodeUint64Into(xxhash.Sum64(body), buf[len(magic)+len(body):])

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return fmt.Errorf("state: writing %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("state: renaming %q to %q: %w", tmp, s.path, err)
	}
	return nil
}

func encodeUint64Into(x uint64, out []byte) {
	for i := 7; i >= 0; i-- {
		out[i] = byte(x)
		x >>= 8
	}
}

func decodeUint64(in []byte) (ret uint64) {
	for i := 0; i < len(in); i++ {
		ret |= uint64(in[i]) << uint(8*(len(in)-1-i))
	}
	return
}
