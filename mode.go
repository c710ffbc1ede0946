package mam

import "github.com/iotaledger/mam.go/trinary"

// Container tag constants mirroring IOTA's classic 27-tryte transaction
// tag convention for MAM's three container kinds. The container/bundle
// format itself stays out of scope (see SPEC_FULL.md §1); these exist
// only so a caller building the [tagLen][tag] envelope described in §6
// doesn't have to duplicate the magic strings.
const (
	PublicTag     trinary.Trytes = "MAMPUBLIC999999999999999999"
	PrivateTag    trinary.Trytes = "MAMPRIVATE99999999999999999"
	RestrictedTag trinary.Trytes = "MAMRESTRICTED99999999999999"
)

// Mode controls how a channel's root is turned into the address messages
// are indexed under (the root itself in public mode, its maskHash
// otherwise), and whether the channel carries a side key. The side key
// keys the payload masking; it does not enter the address.
type Mode int

const (
	ModePublic Mode = iota
	ModePrivate
	ModeRestricted
)

// String returns the external string tag for m.
func (m Mode) String() string {
	switch m {
	case ModePublic:
		return "public"
	case ModePrivate:
		return "private"
	case ModeRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// ParseMode maps an external string tag to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "public":
		return ModePublic, true
	case "private":
		return ModePrivate, true
	case "restricted":
		return ModeRestricted, true
	default:
		return 0, false
	}
}
