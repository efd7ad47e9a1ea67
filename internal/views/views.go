// Package views derives the dashboard-facing tables from a cleaned plant
// table: one builder per view plus a bundle of all of them for export.
package views

import (
	"sort"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
)

// View names as they appear in URLs, export filenames, and metrics labels.
const (
	ViewChoropleth = "choropleth"
	ViewHierarchy  = "hierarchy"
	ViewTimeSeries = "timeseries"
	ViewAnimated   = "animated"
	ViewPlants     = "plants"
)

// Names lists every view in presentation order.
func Names() []string {
	return []string{ViewChoropleth, ViewHierarchy, ViewTimeSeries, ViewAnimated, ViewPlants}
}

// Set bundles every derived table computed from one cleaned table and one
// filter. Bounds always reflect the unfiltered table so range controls keep
// their full extent while a filter is active.
type Set struct {
	Choropleth []domain.CountryCapacity     `json:"choropleth"`
	Hierarchy  []domain.PlantCapacity       `json:"hierarchy"`
	TimeSeries []domain.CountryYearCapacity `json:"timeseries"`
	Animated   []domain.Plant               `json:"animated"`
	Plants     []domain.Plant               `json:"plants"`
	Bounds     domain.Bounds                `json:"bounds"`
}

// Build computes the full view set.
func Build(table domain.Table, filter domain.Filter) Set {
	filtered := domain.ApplyFilter(table.Rows, filter)
	return Set{
		Choropleth: domain.AggregateByCountry(filtered),
		Hierarchy:  domain.AggregateByCountryPlant(filtered),
		TimeSeries: domain.AggregateByCountryYear(filtered),
		Animated:   animated(filtered),
		Plants:     filtered,
		Bounds:     domain.ComputeBounds(table.Rows),
	}
}

// ForName builds the single named view. The second return is false for
// unknown names.
func ForName(name string, table domain.Table, filter domain.Filter) (any, bool) {
	filtered := domain.ApplyFilter(table.Rows, filter)
	switch name {
	case ViewChoropleth:
		return domain.AggregateByCountry(filtered), true
	case ViewHierarchy:
		return domain.AggregateByCountryPlant(filtered), true
	case ViewTimeSeries:
		return domain.AggregateByCountryYear(filtered), true
	case ViewAnimated:
		return animated(filtered), true
	case ViewPlants:
		return filtered, true
	}
	return nil, false
}

// animated keeps only rows with a known year and orders them by ascending
// year so animation frames play chronologically. The sort is stable, so
// rows within a year keep their table order.
func animated(rows []domain.Plant) []domain.Plant {
	out := make([]domain.Plant, 0, len(rows))
	for _, r := range rows {
		if r.Year != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Year < *out[j].Year })
	return out
}
