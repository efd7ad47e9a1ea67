package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord holds the untyped CSV cell values for one GloHydroRes row.
// Column subsets vary between dataset variants; cells absent from a variant
// arrive as empty strings.
type RawRecord struct {
	Country    string
	Name       string
	Year       string
	CapacityMW string
	Lat        string
	Lon        string
	ResVolKM3  string
}

// Plant is the cleaned, typed representation of one hydropower facility.
// Pointer fields model missing values: absent or uncoercible cells parse to
// nil, serialize as JSON null, and are excluded from sums and filters.
type Plant struct {
	ID         string   `json:"id"`
	Country    string   `json:"country"`
	Name       string   `json:"name,omitempty"`
	ISO3       string   `json:"iso3,omitempty"` // "" when the country name did not resolve
	Year       *int     `json:"year"`           // commissioning year
	CapacityMW *float64 `json:"capacity_mw"`    // installed capacity in megawatts
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	ResVolKM3  *float64 `json:"res_vol_km3"` // reservoir volume in cubic kilometers
	ResVolMCM  *float64 `json:"res_vol_mcm"` // derived: ResVolKM3 × 1000
}

// Table is an ordered collection of cleaned plant rows plus provenance for
// the load that produced it. Tables are never mutated after construction;
// every derived view allocates its own rows.
type Table struct {
	Source    string    `json:"source"`
	RefreshID string    `json:"refresh_id"`
	LoadedAt  time.Time `json:"loaded_at"`
	Rows      []Plant   `json:"rows"`
}

// NewTable stamps provenance onto a freshly loaded row set.
func NewTable(source string, rows []Plant) Table {
	return Table{
		Source:    source,
		RefreshID: uuid.NewString(),
		LoadedAt:  clock.Now(),
		Rows:      rows,
	}
}

// Len returns the number of cleaned rows.
func (t Table) Len() int { return len(t.Rows) }

// CountryCapacity is one choropleth row: summed installed capacity per
// ISO 3166-1 alpha-3 code.
type CountryCapacity struct {
	ISO3       string  `json:"iso3"`
	CapacityMW float64 `json:"capacity_mw"`
}

// PlantCapacity is one hierarchy row (sunburst and treemap views): summed
// capacity per plant name within a country.
type PlantCapacity struct {
	Country    string  `json:"country"`
	Name       string  `json:"name"`
	CapacityMW float64 `json:"capacity_mw"`
}

// CountryYearCapacity is one time-series row: capacity commissioned per
// country and year.
type CountryYearCapacity struct {
	Country    string  `json:"country"`
	Year       int     `json:"year"`
	CapacityMW float64 `json:"capacity_mw"`
}

// Bounds describes the observed ranges of the loaded data. The dashboard
// shell bounds its sliders to these extrema and populates its country
// selector from Countries. Nil extrema mean the table carried no non-missing
// value on that dimension.
type Bounds struct {
	MinCapacityMW *float64 `json:"min_capacity_mw"`
	MaxCapacityMW *float64 `json:"max_capacity_mw"`
	MinResVolMCM  *float64 `json:"min_res_vol_mcm"`
	MaxResVolMCM  *float64 `json:"max_res_vol_mcm"`
	MinYear       *int     `json:"min_year"`
	MaxYear       *int     `json:"max_year"`
	Countries     []string `json:"countries"`
}
