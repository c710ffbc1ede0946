package mam

import (
	"encoding/binary"
	"fmt"

	"github.com/iotaledger/mam.go/trinary"
)

// MarshalBinary encodes state as a fixed-header, variable-trailer
// record: a byte for Mode, a byte for Security, four big-endian uint64s
// for Start/Count/NextCount/Index, then length-prefixed Seed, SideKey
// and NextRoot strings.
func (state *ChannelState) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64+len(state.Seed)+len(state.SideKey)+len(state.NextRoot))
	buf = append(buf, byte(state.Mode))
	buf = append(buf, byte(state.Security))

	var u [8]byte
	putU64 := func(v int64) {
		binary.BigEndian.PutUint64(u[:], uint64(v))
		buf = append(buf, u[:]...)
	}
	putU64(state.Start)
	putU64(int64(state.Count))
	putU64(int64(state.NextCount))
	putU64(int64(state.Index))

	putString := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
	}
	putString(string(state.Seed))
	putString(string(state.SideKey))
	putString(string(state.NextRoot))

	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (state *ChannelState) UnmarshalBinary(data []byte) error {
	const headerLen = 2 + 8*4
	if len(data) < headerLen {
		return fmt.Errorf("mam: channel state record shorter than header (%d bytes)", len(data))
	}
	state.Mode = Mode(data[0])
	state.Security = int(data[1])
	off := 2

	readU64 := func() int64 {
		v := int64(binary.BigEndian.Uint64(data[off : off+8]))
		off += 8
		return v
	}
	state.Start = readU64()
	state.Count = int(readU64())
	state.NextCount = int(readU64())
	state.Index = int(readU64())

	readString := func() (string, error) {
		if off+4 > len(data) {
			return "", fmt.Errorf("mam: channel state record truncated reading string length")
		}
		n := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+n > len(data) {
			return "", fmt.Errorf("mam: channel state record truncated reading string body")
		}
		s := string(data[off : off+n])
		off += n
		return s, nil
	}

	var err error
	var seed, sideKey, nextRoot string
	if seed, err = readString(); err != nil {
		return err
	}
	if sideKey, err = readString(); err != nil {
		return err
	}
	if nextRoot, err = readString(); err != nil {
		return err
	}
	state.Seed = trinary.Trytes(seed)
	state.SideKey = trinary.Trytes(sideKey)
	state.NextRoot = trinary.Trytes(nextRoot)
	return nil
}
