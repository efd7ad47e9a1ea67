package domain

import "slices"

// YearRange is an inclusive commissioning-year interval.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether a year falls inside the range, bounds included.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Filter narrows a row set to the rows satisfying every set bound. These
// are the dashboard shell's user controls: minimum capacity, minimum
// reservoir volume, commissioning-year range, and country multi-select.
//
// Nil fields and empty slices leave that dimension unfiltered. A row with a
// missing value on a filtered dimension is excluded by that filter.
type Filter struct {
	MinCapacityMW *float64
	MinResVolMCM  *float64
	Years         *YearRange
	Countries     []string
}

// IsZero reports whether no bound is set.
func (f Filter) IsZero() bool {
	return f.MinCapacityMW == nil && f.MinResVolMCM == nil && f.Years == nil && len(f.Countries) == 0
}

// Match reports whether a single row satisfies every set bound.
func (f Filter) Match(p Plant) bool {
	if f.MinCapacityMW != nil {
		if p.CapacityMW == nil || *p.CapacityMW < *f.MinCapacityMW {
			return false
		}
	}
	if f.MinResVolMCM != nil {
		if p.ResVolMCM == nil || *p.ResVolMCM < *f.MinResVolMCM {
			return false
		}
	}
	if f.Years != nil {
		if p.Year == nil || !f.Years.Contains(*p.Year) {
			return false
		}
	}
	if len(f.Countries) > 0 && !slices.Contains(f.Countries, p.Country) {
		return false
	}
	return true
}

// ApplyFilter returns the rows satisfying the filter. The result is always
// a fresh slice (never nil, so it serializes as an empty JSON array), input
// order is preserved, and the operation is idempotent: filtering a filtered
// result with the same bounds is a no-op.
func ApplyFilter(rows []Plant, f Filter) []Plant {
	out := make([]Plant, 0, len(rows))
	for _, p := range rows {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
