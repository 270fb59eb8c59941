package kadena

import "github.com/anchorageoss/visualsign-kadena/fold"

// Coverage tells how well the device understands what a signer authorizes.
// Values are ordered from safest to least safe.
type Coverage uint8

const (
	// Full means every capability was recognized and shown in full.
	Full Coverage = iota
	// HasFallback means at least one capability was shown in a generic form
	// or could not be shown at all.
	HasFallback
	// NoCaps means the signature is not scoped by any capability.
	NoCaps
)

func (c Coverage) String() string {
	switch c {
	case Full:
		return "full"
	case HasFallback:
		return "has-fallback"
	case NoCaps:
		return "no-caps"
	}
	return "invalid"
}

type coverageMonoid struct{}

func (coverageMonoid) Zero() Coverage { return Full }

func (coverageMonoid) Combine(acc *Coverage, c Coverage) {
	if c > *acc {
		*acc = c
	}
}

// CoverageMonoid folds coverages by keeping the least safe one.
var CoverageMonoid fold.Monoid[Coverage] = coverageMonoid{}

// CapCount numbers the capabilities of one signer.
type CapCount struct {
	Caps      uint16
	Transfers uint16
	Unknown   uint16
}

type capCountMonoid struct{}

func (capCountMonoid) Zero() CapCount { return CapCount{} }

func (capCountMonoid) Combine(acc *CapCount, c CapCount) {
	acc.Caps += c.Caps
	acc.Transfers += c.Transfers
	acc.Unknown += c.Unknown
}

// CapCountMonoid sums capability counts.
var CapCountMonoid fold.Monoid[CapCount] = capCountMonoid{}
