package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRawRecord coerces one raw CSV row into a cleaned Plant.
//
// Numeric coercion failures become missing values, never errors: year,
// capacity, and reservoir volume parse to nil when absent or unparsable.
// The reservoir volume in million cubic meters is derived from the km³
// column when that column is present. The country name resolves to an ISO3
// code through the injected resolver; unresolved names leave ISO3 empty.
//
// The second return is false when either coordinate is absent or
// non-coercible; such rows are excluded from the cleaned table entirely.
func ParseRawRecord(raw RawRecord, resolver CountryResolver) (Plant, bool) {
	lat, okLat := parseFloat(raw.Lat)
	lon, okLon := parseFloat(raw.Lon)
	if !okLat || !okLon {
		return Plant{}, false
	}

	country := strings.TrimSpace(raw.Country)
	name := strings.TrimSpace(raw.Name)

	p := Plant{
		ID:         plantID(country, name, lat, lon),
		Country:    country,
		Name:       name,
		Year:       parseYear(raw.Year),
		CapacityMW: parseFloatPtr(raw.CapacityMW),
		Lat:        lat,
		Lon:        lon,
		ResVolKM3:  parseFloatPtr(raw.ResVolKM3),
	}

	if p.ResVolKM3 != nil {
		mcm := *p.ResVolKM3 * 1000
		p.ResVolMCM = &mcm
	}

	if resolver != nil && country != "" {
		if code, ok := resolver.Resolve(country); ok {
			p.ISO3 = code
		}
	}

	return p, true
}

// parseFloat parses a string as float64. The second return is false for
// empty strings, unparsable values, NaN, and ±Inf; the dataset export
// writes all of these for absent cells.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseFloatPtr parses a string as float64, returning nil on failure.
func parseFloatPtr(s string) *float64 {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

// parseYear parses a commissioning year, returning nil on failure. Some
// dataset exports write years as floats ("2005.0"); fractional values
// truncate toward zero.
func parseYear(s string) *int {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	y := int(v)
	return &y
}

// plantID produces a deterministic short ID from the row's identifying
// fields. Stable IDs keep publish keys and exported files reproducible
// across reloads of the same source.
func plantID(country, name string, lat, lon float64) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f", country, name, lat, lon)
	hash := sha256.Sum256([]byte(input))
	return "plant-" + hex.EncodeToString(hash[:8])
}
