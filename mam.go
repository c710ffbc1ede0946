// Package mam implements Masked Authenticated Messaging: append-only,
// authenticated (and optionally encrypted) message chains built from a
// Merkle tree of one-time signing keys over a ternary sponge.
package mam

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/internal/bitcurl"
	"github.com/iotaledger/mam.go/mask"
	"github.com/iotaledger/mam.go/merkle"
	"github.com/iotaledger/mam.go/pascal"
	"github.com/iotaledger/mam.go/pow"
	"github.com/iotaledger/mam.go/signing"
	"github.com/iotaledger/mam.go/trinary"
)

const (
	// SeedTrytesLen is the fixed length of a channel seed.
	SeedTrytesLen = 81

	// SideKeyTrytesLen is the length a side key is padded to.
	SideKeyTrytesLen = 81

	// NonceTritsLen is the length of the proof-of-work nonce appended to
	// every message.
	NonceTritsLen = 81
)

// ChannelState is the mutable record a publisher or subscriber keeps for
// one MAM channel.
type ChannelState struct {
	Seed      trinary.Trytes
	Mode      Mode
	SideKey   trinary.Trytes // padded to SideKeyTrytesLen; empty outside restricted mode
	Security  int
	Start     int64
	Count     int
	NextCount int
	Index     int
	NextRoot  trinary.Trytes
}

// CreateChannel validates its inputs and returns a freshly initialised
// channel state at the start of its first Merkle window.
func CreateChannel(seed trinary.Trytes, security int, mode Mode, sideKey trinary.Trytes) (*ChannelState, error) {
	var errs *multierror.Error
	if len(seed) != SeedTrytesLen || !trinary.ValidTrytes(seed) {
		errs = multierror.Append(errs, fmt.Errorf("seed must be %d tryte characters", SeedTrytesLen))
	}
	if security < 1 || security > 3 {
		errs = multierror.Append(errs, fmt.Errorf("security must be 1, 2 or 3, got %d", security))
	}

	switch mode {
	case ModeRestricted:
		if len(sideKey) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("restricted mode requires a side key"))
		} else if len(sideKey) > SideKeyTrytesLen || !trinary.ValidTrytes(sideKey) {
			errs = multierror.Append(errs, fmt.Errorf("side key must be 1-%d tryte characters", SideKeyTrytesLen))
		}
	case ModePublic, ModePrivate:
		if len(sideKey) != 0 {
			errs = multierror.Append(errs, fmt.Errorf("side key is only valid in restricted mode"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unrecognised mode %v", mode))
	}

	if errs.ErrorOrNil() != nil {
		return nil, wrapErrorf(KindValidation, errs, "invalid channel parameters")
	}

	padded := sideKey
	if mode == ModeRestricted {
		var err error
		padded, err = trinary.Pad(sideKey, SideKeyTrytesLen)
		if err != nil {
			return nil, wrapErrorf(KindValidation, err, "padding side key")
		}
	}

	return &ChannelState{
		Seed:      seed,
		Mode:      mode,
		SideKey:   padded,
		Security:  security,
		Start:     0,
		Count:     1,
		NextCount: 1,
		Index:     0,
	}, nil
}

// ChannelRoot builds the channel's current Merkle tree and returns its
// root, as 81 trytes.
func ChannelRoot(state *ChannelState) (trinary.Trytes, error) {
	if err := validateState(state); err != nil {
		return "", err
	}
	tree, err := buildTree(state, state.Start, state.Count)
	if err != nil {
		return "", err
	}
	return trinary.FromTrits(tree.RootAddress())
}

func validateState(state *ChannelState) error {
	if state.Start < 0 {
		return errorf(KindValidation, "channel state start %d is negative", state.Start)
	}
	if state.Count <= 0 {
		return errorf(KindValidation, "channel state count %d must be positive", state.Count)
	}
	if state.NextCount <= 0 {
		return errorf(KindValidation, "channel state nextCount %d must be positive", state.NextCount)
	}
	if state.Index < 0 || state.Index >= state.Count {
		return errorf(KindValidation, "channel state index %d out of range [0, %d)", state.Index, state.Count)
	}
	return nil
}

func buildTree(state *ChannelState, start int64, count int) (*merkle.Tree, error) {
	seedTrits, err := trinary.ToTrits(state.Seed)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "decoding seed")
	}
	tree, err := merkle.Build(seedTrits, start, count, state.Security)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "building merkle tree")
	}
	return tree, nil
}

// sideKeyOrNinesTrits returns the channel's padded side key as trits,
// or 81 "9" trytes' worth of zero trits when the channel carries none.
func sideKeyOrNinesTrits(state *ChannelState) (trinary.Trits, error) {
	if len(state.SideKey) == 0 {
		return make(trinary.Trits, SideKeyTrytesLen*3), nil
	}
	return trinary.ToTrits(state.SideKey)
}

// Message is the envelope a publisher emits: the encoded, masked,
// signed payload; the root it was published under; and the address
// messages are indexed under (equal to root in public mode, else
// maskHash(root)).
type Message struct {
	Payload trinary.Trytes
	Root    trinary.Trytes
	Address trinary.Trytes
}

// CreateMessage encodes, masks, signs and proves message against
// state's current Merkle window, then advances state to the next
// message slot. state must not be used concurrently with itself.
func CreateMessage(ctx context.Context, state *ChannelState, message trinary.Trytes) (*Message, error) {
	if err := validateState(state); err != nil {
		return nil, err
	}
	if !trinary.ValidTrytes(message) {
		return nil, errorf(KindValidation, "message is not valid trytes")
	}

	tree, err := buildTree(state, state.Start, state.Count)
	if err != nil {
		return nil, err
	}
	nextTree, err := buildTree(state, state.Start+int64(state.Count), state.NextCount)
	if err != nil {
		return nil, err
	}
	nextRoot := nextTree.RootAddress()

	messageTrits, err := trinary.ToTrits(message)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "decoding message")
	}

	indexTrits := pascal.Encode(int64(state.Index))
	lenTrits := pascal.Encode(int64(len(messageTrits)))

	subtree, err := tree.GetSubtree(state.Index)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "extracting merkle subtree")
	}

	sideKeyTrits, err := sideKeyOrNinesTrits(state)
	if err != nil {
		return nil, wrapErrorf(KindValidation, err, "decoding side key")
	}

	sponge := curl.New(curl.DefaultRounds)
	if err := sponge.Absorb(sideKeyTrits); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing side key")
	}
	if err := sponge.Absorb(tree.RootAddress()); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing root")
	}
	if err := sponge.AbsorbChunk(append(append(trinary.Trits{}, indexTrits...), lenTrits...)); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing index/length header")
	}

	body := append(append(trinary.Trits{}, nextRoot...), messageTrits...)
	masked, err := mask.Mask(body, sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "masking body")
	}

	log.Logf("mam: searching for a security-%d nonce (avx2=%v)", state.Security, bitcurl.Available)
	nonceTrits, err := pow.Search(ctx, sponge.Rate(curl.StateLen), state.Security, NonceTritsLen, 0)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "proof-of-work search")
	}
	maskedNonce, err := mask.Mask(append(trinary.Trits{}, nonceTrits...), sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "masking nonce")
	}

	sig, err := signing.Sign(sponge.Rate(curl.HashLen), subtree.Key)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "signing")
	}
	siblingsCountTrits := pascal.Encode(int64(len(subtree.Leaves)))
	siblingsTrits := make(trinary.Trits, 0, len(subtree.Leaves)*curl.HashLen)
	for _, leaf := range subtree.Leaves {
		siblingsTrits = append(siblingsTrits, leaf...)
	}
	meta := append(append(append(trinary.Trits{}, sig...), siblingsCountTrits...), siblingsTrits...)
	maskedMeta, err := mask.Mask(meta, sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "masking signature and siblings")
	}

	payloadTrits := make(trinary.Trits, 0, len(indexTrits)+len(lenTrits)+len(masked)+len(maskedNonce)+len(maskedMeta))
	payloadTrits = append(payloadTrits, indexTrits...)
	payloadTrits = append(payloadTrits, lenTrits...)
	payloadTrits = append(payloadTrits, masked...)
	payloadTrits = append(payloadTrits, maskedNonce...)
	payloadTrits = append(payloadTrits, maskedMeta...)
	if pad := len(payloadTrits) % 3; pad != 0 {
		payloadTrits = append(payloadTrits, make(trinary.Trits, 3-pad)...)
	}

	payloadTrytes, err := trinary.FromTrits(payloadTrits)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding payload")
	}
	rootTrytes, err := trinary.FromTrits(tree.RootAddress())
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding root")
	}

	var addressTrits trinary.Trits
	if state.Mode == ModePublic {
		addressTrits = tree.RootAddress()
	} else {
		addressTrits, err = mask.Hash(tree.RootAddress())
		if err != nil {
			return nil, wrapErrorf(KindInternal, err, "hashing address")
		}
	}
	addressTrytes, err := trinary.FromTrits(addressTrits)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding address")
	}

	nextRootTrytes, err := trinary.FromTrits(nextRoot)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding next root")
	}

	publishedIndex := state.Index
	if state.Index == state.Count-1 {
		state.Start += int64(state.NextCount)
		state.Index = 0
	} else {
		state.Index++
	}
	state.NextRoot = nextRootTrytes

	log.Logf("mam: published message at index %d under root %s", publishedIndex, rootTrytes)

	return &Message{Payload: payloadTrytes, Root: rootTrytes, Address: addressTrytes}, nil
}
