// Command validate runs data-quality checks over a GloHydroRes CSV source
// before it is promoted to the dashboard: header presence, parse and drop
// accounting, coordinate range sanity, country resolution rate, duplicate
// plant detection, and aggregate consistency.
//
// Usage:
//
//	go run ./cmd/validate -source GloHydroRes_vs1.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hydroviz/hydro-data-prep/internal/adapter/iso3166"
	"github.com/hydroviz/hydro-data-prep/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	source := flag.String("source", "", "CSV file path or http(s) URL")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout for URL sources")
	minResolved := flag.Float64("min-resolved", 0.9, "minimum fraction of rows whose country resolves to an ISO3 code")
	maxDropped := flag.Float64("max-dropped", 0.1, "maximum fraction of raw rows allowed to drop")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*source, *timeout, *minResolved, *maxDropped); code != 0 {
		os.Exit(code)
	}
}

func run(source string, timeout time.Duration, minResolved, maxDropped float64) int {
	fmt.Println("=== GloHydroRes Dataset Validation ===")
	fmt.Println()
	fmt.Printf("Source: %s\n", source)

	header, raws, err := readSource(source, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read source: %v\n", err)
		return 1
	}

	// Re-run the pipeline's own row transformation so the checks see exactly
	// what the dashboard would serve.
	resolver := iso3166.NewResolver()
	plants := make([]domain.Plant, 0, len(raws))
	var dropped int
	for _, raw := range raws {
		p, ok := domain.ParseRawRecord(raw, resolver)
		if !ok {
			dropped++
			continue
		}
		plants = append(plants, p)
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateHeader(header),
		validateParsing(len(raws), len(plants), dropped, maxDropped),
		validateCoordinates(plants),
		validateResolution(plants, minResolved),
		validateDuplicates(plants),
		validateAggregates(plants),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d raw, %d kept, %d dropped\n", len(raws), len(plants), dropped)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// readSource reads the raw CSV header and rows from a file path or URL. Row
// transformation is left to the caller; this only maps cells by column name.
func readSource(source string, timeout time.Duration) ([]string, []domain.RawRecord, error) {
	r, err := openSource(source, timeout)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := mapColumns(header)

	var raws []domain.RawRecord
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(raws)+2, err)
		}
		raws = append(raws, domain.RawRecord{
			Country:    cell(record, idx.country),
			Name:       cell(record, idx.name),
			Year:       cell(record, idx.year),
			CapacityMW: cell(record, idx.capacity),
			Lat:        cell(record, idx.lat),
			Lon:        cell(record, idx.lon),
			ResVolKM3:  cell(record, idx.resVol),
		})
	}
	return header, raws, nil
}

func openSource(source string, timeout time.Duration) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: timeout}
		resp, err := client.Get(source)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(source)
}

// columnIndex holds header positions resolved by name; -1 marks a column the
// variant omits.
type columnIndex struct {
	country, name, year, capacity, lat, lon, resVol int
}

func mapColumns(header []string) columnIndex {
	idx := columnIndex{country: -1, name: -1, year: -1, capacity: -1, lat: -1, lon: -1, resVol: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "country":
			idx.country = i
		case "name":
			idx.name = i
		case "year":
			idx.year = i
		case "capacity_mw":
			idx.capacity = i
		case "plant_lat":
			idx.lat = i
		case "plant_lon":
			idx.lon = i
		case "res_vol_km3":
			idx.resVol = i
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// ── Phase 1: Header ──
// Validates that the required columns are present.

func validateHeader(header []string) *phase {
	p := &phase{name: "Phase 1: Header (required columns)"}

	idx := mapColumns(header)
	if idx.country < 0 {
		p.errorf("missing required column %q", "country")
	}
	if idx.lat < 0 {
		p.errorf("missing required column %q", "plant_lat")
	}
	if idx.lon < 0 {
		p.errorf("missing required column %q", "plant_lon")
	}
	return p
}

// ── Phase 2: Parse Accounting ──
// Validates that the source yields rows and the drop rate stays in bounds.

func validateParsing(total, kept, dropped int, maxDropped float64) *phase {
	p := &phase{name: "Phase 2: Parse Accounting (row drops)"}

	if total == 0 {
		p.errorf("source has no data rows")
		return p
	}
	if kept == 0 {
		p.errorf("all %d rows dropped (no usable coordinates)", total)
		return p
	}
	if rate := float64(dropped) / float64(total); rate > maxDropped {
		p.errorf("drop rate %.1f%% exceeds limit %.1f%% (%d of %d rows)",
			rate*100, maxDropped*100, dropped, total)
	}
	return p
}

// ── Phase 3: Coordinate Ranges ──
// Validates that kept rows carry plausible WGS84 coordinates.

func validateCoordinates(plants []domain.Plant) *phase {
	p := &phase{name: "Phase 3: Coordinate Ranges (WGS84)"}

	for i := range plants {
		pl := &plants[i]
		if math.Abs(pl.Lat) > 90 {
			p.errorf("%s (%s): latitude %g out of range [-90, 90]", pl.ID, pl.Name, pl.Lat)
		}
		if math.Abs(pl.Lon) > 180 {
			p.errorf("%s (%s): longitude %g out of range [-180, 180]", pl.ID, pl.Name, pl.Lon)
		}
	}
	return p
}

// ── Phase 4: Country Resolution ──
// Validates that enough country names resolve to ISO3 codes for the
// choropleth to be representative.

func validateResolution(plants []domain.Plant, minResolved float64) *phase {
	p := &phase{name: "Phase 4: Country Resolution (ISO3)"}

	if len(plants) == 0 {
		return p
	}

	unresolved := map[string]int{}
	resolved := 0
	for i := range plants {
		if plants[i].ISO3 != "" {
			resolved++
			continue
		}
		unresolved[plants[i].Country]++
	}

	names := make([]string, 0, len(unresolved))
	for name := range unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.errorf("unresolved country %q (%d rows)", name, unresolved[name])
	}

	if rate := float64(resolved) / float64(len(plants)); rate < minResolved {
		p.errorf("resolution rate %.1f%% below minimum %.1f%% (%d of %d rows)",
			rate*100, minResolved*100, resolved, len(plants))
	}
	return p
}

// ── Phase 5: Duplicate Plants ──
// Validates that no two rows share identifying fields. Plant IDs hash
// country, name, and coordinates, so a repeated ID means a repeated row.

func validateDuplicates(plants []domain.Plant) *phase {
	p := &phase{name: "Phase 5: Duplicate Plants (identity)"}

	byID := map[string]int{}
	for i := range plants {
		byID[plants[i].ID]++
	}

	ids := make([]string, 0, len(byID))
	for id, n := range byID {
		if n > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		for i := range plants {
			if plants[i].ID == id {
				p.errorf("%s appears %d times (%s, %q, %.4f/%.4f)",
					id, byID[id], plants[i].Country, plants[i].Name, plants[i].Lat, plants[i].Lon)
				break
			}
		}
	}
	return p
}

// ── Phase 6: Aggregate Consistency ──
// Validates that the grouped views conserve the capacity totals they are
// derived from.

func validateAggregates(plants []domain.Plant) *phase {
	p := &phase{name: "Phase 6: Aggregate Consistency (sums)"}

	var totalAll, totalResolved float64
	codes := map[string]bool{}
	for i := range plants {
		pl := &plants[i]
		var capacity float64
		if pl.CapacityMW != nil {
			capacity = *pl.CapacityMW
		}
		totalAll += capacity
		if pl.ISO3 != "" {
			totalResolved += capacity
			codes[pl.ISO3] = true
		}
	}

	choropleth := domain.AggregateByCountry(plants)
	var choroplethSum float64
	for _, c := range choropleth {
		choroplethSum += c.CapacityMW
	}
	if !floatEq(choroplethSum, totalResolved) {
		p.errorf("choropleth capacity sum %.3f != resolved-row total %.3f", choroplethSum, totalResolved)
	}
	if len(choropleth) != len(codes) {
		p.errorf("choropleth has %d countries, rows carry %d distinct ISO3 codes", len(choropleth), len(codes))
	}

	hierarchy := domain.AggregateByCountryPlant(plants)
	var hierarchySum float64
	for _, h := range hierarchy {
		hierarchySum += h.CapacityMW
	}
	if !floatEq(hierarchySum, totalAll) {
		p.errorf("hierarchy capacity sum %.3f != all-row total %.3f", hierarchySum, totalAll)
	}

	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
