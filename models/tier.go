package models

import (
	"fmt"
	"strings"
)

// Tier is the visibility tier of a capsule. Ranked tiers grow in prominence from FRAGMENT to UNIVERSE; SOCIAL and
// BRAND are orthogonal categories outside of the ranking.
type Tier string

const (
	TierFragment Tier = "FRAGMENT"
	TierAura     Tier = "AURA"
	TierNova     Tier = "NOVA"
	TierGalaxy   Tier = "GALAXY"
	TierUniverse Tier = "UNIVERSE"
	TierSocial   Tier = "SOCIAL"
	TierBrand    Tier = "BRAND"
)

// Tiers lists all tiers, ranked ones first in ascending prominence
var Tiers = []Tier{TierFragment, TierAura, TierNova, TierGalaxy, TierUniverse, TierSocial, TierBrand}

var tierRanks = map[Tier]int{
	TierFragment: 1,
	TierAura:     2,
	TierNova:     3,
	TierGalaxy:   4,
	TierUniverse: 5,
	TierSocial:   0,
	TierBrand:    0,
}

func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the prominence rank of t; 0 for orthogonal and invalid tiers
func (t Tier) Rank() int {
	return tierRanks[t]
}

func (t Tier) Ranked() bool {
	return t.Rank() > 0
}

// AllowsLinks reports whether capsules of tier t may carry a logo and an external link
func (t Tier) AllowsLinks() bool {
	return t == TierSocial || t == TierBrand
}

// StarSize is the diameter of the star marker of tier t in px. Orthogonal tiers render like a NOVA.
func (t Tier) StarSize() int {
	r := t.Rank()
	if r == 0 {
		r = tierRanks[TierNova]
	}
	return 16 + 4*r
}

// ParseTier parses s case-insensitively
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown visibility tier %q", s)
	}
	return t, nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
