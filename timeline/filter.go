// Package timeline holds the pure timeline logic of chronos service: date bucketing, search, deterministic star
// placement, and the zoom state machine along with its renderer. Nothing in here blocks or mutates its input.
package timeline

import (
	"strings"
	"time"

	md "wuyrush.io/chronos/models"
)

// BucketByYear returns capsules occurring in year, in input order. A year outside of the display range yields an
// empty slice.
func BucketByYear(cs []*md.Capsule, year int) []*md.Capsule {
	out := []*md.Capsule{}
	if year < md.MinYear || year > md.MaxYear {
		return out
	}
	for _, c := range cs {
		if c.OccursOn.Year == year {
			out = append(out, c)
		}
	}
	return out
}

// BucketByYearMonth returns capsules occurring in the given month (1-12) of year, in input order
func BucketByYearMonth(cs []*md.Capsule, year, month int) []*md.Capsule {
	out := []*md.Capsule{}
	if year < md.MinYear || year > md.MaxYear || month < 1 || month > 12 {
		return out
	}
	for _, c := range cs {
		if c.OccursOn.Year == year && c.OccursOn.Month == time.Month(month) {
			out = append(out, c)
		}
	}
	return out
}

// Search keeps capsules whose title, message or author contains query, ignoring case. The query is taken
// verbatim, so an empty query returns cs as is while a lone space only keeps texts holding one. The hidden author
// of an anonymous capsule is not searchable.
func Search(cs []*md.Capsule, query string) []*md.Capsule {
	q := strings.ToLower(query)
	if q == "" {
		return cs
	}
	out := []*md.Capsule{}
	for _, c := range cs {
		if matches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c *md.Capsule, q string) bool {
	if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Message), q) {
		return true
	}
	return !c.IsAnonymous && strings.Contains(strings.ToLower(c.AuthorDisplayName), q)
}

// ByTier keeps capsules of any of the given tiers. No tiers means no filtering.
func ByTier(cs []*md.Capsule, tiers ...md.Tier) []*md.Capsule {
	if len(tiers) == 0 {
		return cs
	}
	want := make(map[md.Tier]struct{}, len(tiers))
	for _, t := range tiers {
		want[t] = struct{}{}
	}
	out := []*md.Capsule{}
	for _, c := range cs {
		if _, ok := want[c.Tier]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Filter is the visitor's live filter over the capsule collection
type Filter struct {
	Query string
	Tiers []md.Tier
}

// Apply narrows cs down to capsules matching both the query and the tiers of f
func (f Filter) Apply(cs []*md.Capsule) []*md.Capsule {
	return ByTier(Search(cs, f.Query), f.Tiers...)
}
