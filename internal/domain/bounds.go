package domain

import "sort"

// ComputeBounds scans the rows once and reports the observed extrema of
// every filterable dimension plus the distinct country names, sorted.
// Bounds always come from the unfiltered table so the dashboard's sliders
// keep the full data range while filters narrow the views.
func ComputeBounds(rows []Plant) Bounds {
	var b Bounds
	countries := make(map[string]struct{})

	for _, p := range rows {
		if p.Country != "" {
			countries[p.Country] = struct{}{}
		}
		b.MinCapacityMW, b.MaxCapacityMW = observeFloat(b.MinCapacityMW, b.MaxCapacityMW, p.CapacityMW)
		b.MinResVolMCM, b.MaxResVolMCM = observeFloat(b.MinResVolMCM, b.MaxResVolMCM, p.ResVolMCM)
		b.MinYear, b.MaxYear = observeYear(b.MinYear, b.MaxYear, p.Year)
	}

	b.Countries = make([]string, 0, len(countries))
	for c := range countries {
		b.Countries = append(b.Countries, c)
	}
	sort.Strings(b.Countries)
	return b
}

func observeFloat(min, max, v *float64) (*float64, *float64) {
	if v == nil {
		return min, max
	}
	if min == nil || *v < *min {
		lo := *v
		min = &lo
	}
	if max == nil || *v > *max {
		hi := *v
		max = &hi
	}
	return min, max
}

func observeYear(min, max, v *int) (*int, *int) {
	if v == nil {
		return min, max
	}
	if min == nil || *v < *min {
		lo := *v
		min = &lo
	}
	if max == nil || *v > *max {
		hi := *v
		max = &hi
	}
	return min, max
}
