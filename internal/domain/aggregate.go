package domain

import "sort"

// AggregateByCountry groups rows by resolved ISO3 code and sums installed
// capacity, producing the choropleth feed. Rows with an unresolved country are
// excluded (the view is keyed by the code); missing capacities contribute
// zero, so a country whose plants all lack capacity data still appears with
// a zero total. One output row per distinct code, sorted by code.
func AggregateByCountry(rows []Plant) []CountryCapacity {
	totals := make(map[string]float64)
	for _, p := range rows {
		if p.ISO3 == "" {
			continue
		}
		totals[p.ISO3] += capacityOrZero(p)
	}

	out := make([]CountryCapacity, 0, len(totals))
	for code, total := range totals {
		out = append(out, CountryCapacity{ISO3: code, CapacityMW: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISO3 < out[j].ISO3 })
	return out
}

// AggregateByCountryPlant groups rows by (country, plant name) and sums
// capacity, producing the sunburst/treemap hierarchy feed. Missing capacities
// contribute zero. Sorted by country, then name.
func AggregateByCountryPlant(rows []Plant) []PlantCapacity {
	type key struct{ country, name string }
	totals := make(map[key]float64)
	for _, p := range rows {
		totals[key{p.Country, p.Name}] += capacityOrZero(p)
	}

	out := make([]PlantCapacity, 0, len(totals))
	for k, total := range totals {
		out = append(out, PlantCapacity{Country: k.country, Name: k.name, CapacityMW: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// AggregateByCountryYear groups rows by (country, year) and sums capacity,
// producing the time-series feed. Rows missing any of country, year, or capacity are
// dropped before grouping, so a (country, year) pair whose rows all lack
// capacity data produces no output row at all. Sorted by country, then year.
func AggregateByCountryYear(rows []Plant) []CountryYearCapacity {
	type key struct {
		country string
		year    int
	}
	totals := make(map[key]float64)
	for _, p := range rows {
		if p.Country == "" || p.Year == nil || p.CapacityMW == nil {
			continue
		}
		totals[key{p.Country, *p.Year}] += *p.CapacityMW
	}

	out := make([]CountryYearCapacity, 0, len(totals))
	for k, total := range totals {
		out = append(out, CountryYearCapacity{Country: k.country, Year: k.year, CapacityMW: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Year < out[j].Year
	})
	return out
}

func capacityOrZero(p Plant) float64 {
	if p.CapacityMW == nil {
		return 0
	}
	return *p.CapacityMW
}
