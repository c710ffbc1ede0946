package mam

import (
	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/mask"
	"github.com/iotaledger/mam.go/merkle"
	"github.com/iotaledger/mam.go/pascal"
	"github.com/iotaledger/mam.go/signing"
	"github.com/iotaledger/mam.go/trinary"
)

// ParsedMessage is what ParseMessage recovers from a fetched payload: the
// original message body and the root the channel's next window will
// publish under.
type ParsedMessage struct {
	Message  trinary.Trytes
	NextRoot trinary.Trytes
}

// ParseMessage authenticates and decrypts payload, published under root,
// against an optional side key (pass "" outside restricted mode). It
// fails closed: any malformed encoding, failed hamming-weight check, or
// root mismatch aborts with no partial result.
func ParseMessage(payload trinary.Trytes, root trinary.Trytes, sideKey trinary.Trytes) (*ParsedMessage, error) {
	if !trinary.ValidTrytes(payload) {
		return nil, errorf(KindValidation, "payload is not valid trytes")
	}
	if len(root) != SeedTrytesLen || !trinary.ValidTrytes(root) {
		return nil, errorf(KindValidation, "root must be %d tryte characters", SeedTrytesLen)
	}
	if len(sideKey) != 0 && (len(sideKey) > SideKeyTrytesLen || !trinary.ValidTrytes(sideKey)) {
		return nil, errorf(KindValidation, "side key must be 1-%d tryte characters", SideKeyTrytesLen)
	}

	payloadTrits, err := trinary.ToTrits(payload)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "decoding payload")
	}
	rootTrits, err := trinary.ToTrits(root)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "decoding root")
	}

	index, consumed1, err := pascal.Decode(payloadTrits)
	if err != nil {
		return nil, wrapErrorf(KindParse, err, "decoding message index")
	}
	msgLen, consumed2, err := pascal.Decode(payloadTrits[consumed1:])
	if err != nil {
		return nil, wrapErrorf(KindParse, err, "decoding message length")
	}

	nextRootStart := consumed1 + consumed2
	messageStart := nextRootStart + curl.HashLen
	messageEnd := messageStart + int(msgLen)
	nonceEnd := messageEnd + NonceTritsLen
	if msgLen < 0 || msgLen > int64(len(payloadTrits)) || messageEnd > len(payloadTrits) || nonceEnd > len(payloadTrits) {
		return nil, errorf(KindParse, "pascal length headers overrun payload")
	}

	var sideKeyTrits trinary.Trits
	if len(sideKey) == 0 {
		sideKeyTrits = make(trinary.Trits, SideKeyTrytesLen*3)
	} else {
		padded, err := trinary.Pad(sideKey, SideKeyTrytesLen)
		if err != nil {
			return nil, wrapErrorf(KindInternal, err, "padding side key")
		}
		sideKeyTrits, err = trinary.ToTrits(padded)
		if err != nil {
			return nil, wrapErrorf(KindInternal, err, "decoding side key")
		}
	}

	sponge := curl.New(curl.DefaultRounds)
	if err := sponge.Absorb(sideKeyTrits); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing side key")
	}
	if err := sponge.Absorb(rootTrits); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing root")
	}
	if err := sponge.AbsorbChunk(payloadTrits[:nextRootStart]); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing index/length header")
	}

	nextRootTrits, err := mask.Unmask(append(trinary.Trits{}, payloadTrits[nextRootStart:messageStart]...), sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "unmasking next root")
	}
	messageTrits, err := mask.Unmask(append(trinary.Trits{}, payloadTrits[messageStart:messageEnd]...), sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "unmasking message")
	}
	if _, err := mask.Unmask(append(trinary.Trits{}, payloadTrits[messageEnd:nonceEnd]...), sponge); err != nil {
		return nil, wrapErrorf(KindInternal, err, "unmasking nonce")
	}

	hmac := sponge.Rate(curl.HashLen)
	sec := signing.ChecksumSecurity(hmac)
	if sec == 0 {
		return nil, errorf(KindParse, "hamming-weight security check failed")
	}

	meta, err := mask.Unmask(append(trinary.Trits{}, payloadTrits[nonceEnd:]...), sponge)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "unmasking signature and siblings")
	}
	sponge.Reset()

	sigLen := signing.KeyLen(sec)
	if sigLen > len(meta) {
		return nil, errorf(KindParse, "signature length exceeds available metadata")
	}
	sig := meta[:sigLen]
	digest, err := signing.DigestFromSignature(hmac, sig)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "recovering digest from signature")
	}
	if err := sponge.Absorb(digest); err != nil {
		return nil, wrapErrorf(KindInternal, err, "absorbing recovered digest")
	}

	sibCount, d, err := pascal.Decode(meta[sigLen:])
	if err != nil {
		return nil, wrapErrorf(KindParse, err, "decoding sibling count")
	}
	siblingsStart := sigLen + d
	siblingsEnd := siblingsStart + int(sibCount)*curl.HashLen
	if sibCount < 0 || sibCount > int64(len(meta)/curl.HashLen) || siblingsEnd > len(meta) {
		return nil, errorf(KindParse, "sibling list overruns metadata")
	}

	var recomputedRoot trinary.Trits
	if sibCount == 0 {
		recomputedRoot = sponge.Rate(curl.HashLen)
	} else {
		siblings := make([]trinary.Trits, sibCount)
		for i := 0; i < int(sibCount); i++ {
			off := siblingsStart + i*curl.HashLen
			siblings[i] = meta[off : off+curl.HashLen]
		}
		recomputedRoot, err = merkle.RootFromSiblings(sponge.Rate(curl.HashLen), siblings, int(index))
		if err != nil {
			return nil, wrapErrorf(KindInternal, err, "reconstructing root")
		}
	}

	recomputedRootTrytes, err := trinary.FromTrits(recomputedRoot)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding recomputed root")
	}
	if recomputedRootTrytes != root {
		return nil, errorf(KindParse, "recomputed root does not match published root")
	}

	messageTrytes, err := trinary.FromTrits(messageTrits)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding message")
	}
	nextRootTrytes, err := trinary.FromTrits(nextRootTrits)
	if err != nil {
		return nil, wrapErrorf(KindInternal, err, "encoding next root")
	}

	return &ParsedMessage{Message: messageTrytes, NextRoot: nextRootTrytes}, nil
}
