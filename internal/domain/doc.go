// Package domain models the GloHydroRes global hydropower plant dataset and
// the pure transformations the dashboard views are built from.
//
// # Data Source
//
// Plant records come from GloHydroRes, a compilation of global hydropower
// facilities joined with reservoir attributes from existing plant and dam
// databases. The dataset ships as a single CSV, fetched either from a local
// file or from a raw GitHub URL. Revisions of the CSV vary their column
// subset, so loading maps columns by header name rather than position.
//
// # Column Conventions
//
// Core columns and their units:
//
//	country      free-text country name, e.g. "China", "Brazil".
//	name         facility identifier; may repeat across countries.
//	year         commissioning year. Some exports write it as a float
//	             ("2005.0"); fractional values truncate toward zero.
//	capacity_mw  installed capacity in megawatts.
//	plant_lat    WGS-84 latitude of the plant.
//	plant_lon    WGS-84 longitude of the plant.
//	res_vol_km3  reservoir volume in cubic kilometers. The derived
//	             res_vol_mcm column (million cubic meters) is this value
//	             multiplied by 1000, computed once at parse time.
//
// # Missing Values
//
// Absent cells appear as "", "NA", or "NaN" depending on the exporter that
// produced the CSV. All numeric coercion failures become missing values
// rather than errors, including NaN and ±Inf, which strconv would otherwise
// accept. Missing is modeled as a nil pointer: it serializes as JSON null,
// contributes zero to sums, and excludes the row from any filter bound on
// that dimension.
//
// # Coordinate Policy
//
// Every chart in the dashboard is spatial or derived from spatial rows, so a
// row without coercible coordinates carries no usable information. Such rows
// are dropped during parsing ([ParseRawRecord] returns ok=false); this is
// the only way a row can be excluded from the cleaned table. (0, 0) is a
// coercible coordinate and is kept; plausibility checks belong to the
// validate tool, not the parser.
//
// # Country Resolution
//
// Choropleth rendering keys on ISO 3166-1 alpha-3 codes, but the dataset
// carries free-text country names. Resolution goes through the injected
// [CountryResolver]; unrecognized names leave ISO3 empty instead of failing,
// because only code-keyed views exclude such rows. The hierarchy and
// time-series views group on the free-text name and keep them.
//
// # Aggregated Views
//
// All aggregations are sum reductions with deterministic, key-sorted output:
//
//	AggregateByCountry      ISO3 → Σ capacity_mw   (choropleth)
//	AggregateByCountryPlant (country, name) → Σ capacity_mw   (sunburst, treemap)
//	AggregateByCountryYear  (country, year) → Σ capacity_mw   (time series)
//
// The first two treat a missing capacity as a zero contribution; the third
// drops rows missing any of country, year, or capacity before grouping, so
// its totals never include imputed zeros.
//
// # ID Generation
//
// Plant IDs are deterministic SHA-256 short hashes of country|name|lat|lon.
// Reloading the same source reproduces the same IDs, which keeps publish
// keys stable for downstream consumers and makes exports diffable. See
// [ParseRawRecord].
package domain
