// Command export loads a GloHydroRes CSV source, prepares the dashboard
// views, and writes them to disk as per-view CSV files and/or an XLSX
// workbook.
//
// Usage:
//
//	go run ./cmd/export \
//	  -source GloHydroRes_vs1.csv \
//	  -out export \
//	  -format both \
//	  -min-capacity 100 -countries China,Brazil
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/hydroviz/hydro-data-prep/internal/adapter/iso3166"
	"github.com/hydroviz/hydro-data-prep/internal/dataset"
	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/export"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
	"github.com/hydroviz/hydro-data-prep/internal/views"
)

const workbookName = "views.xlsx"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	source := flag.String("source", "", "CSV file path or http(s) URL")
	out := flag.String("out", "export", "output directory")
	format := flag.String("format", "csv", "output format: csv, xlsx, or both")
	bom := flag.Bool("bom", false, "prepend a UTF-8 BOM to CSV files for Excel")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout for URL sources")
	minCapacity := flag.Float64("min-capacity", 0, "keep plants with capacity (MW) at or above this value")
	minVolume := flag.Float64("min-volume", 0, "keep plants with reservoir volume (MCM) at or above this value")
	yearStart := flag.Int("year-start", 0, "inclusive commissioning-year range start")
	yearEnd := flag.Int("year-end", 0, "inclusive commissioning-year range end")
	countryList := flag.String("countries", "", "comma-separated country names to keep")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -source")
	}
	if *format != "csv" && *format != "xlsx" && *format != "both" {
		return fmt.Errorf("invalid -format %q: want csv, xlsx, or both", *format)
	}

	filter, err := buildFilter(*minCapacity, *minVolume, *yearStart, *yearEnd, *countryList)
	if err != nil {
		return err
	}

	logger := observability.NewLogger("info", "text")
	metrics := observability.NewMetrics()

	resolver := iso3166.NewResolver()
	loader := dataset.NewCSVLoader(resolver, *timeout, logger, metrics)

	table, err := loader.Load(context.Background(), *source)
	if err != nil {
		return err
	}

	set := views.Build(table, filter)
	exporter := export.New(logger)

	if *format == "csv" || *format == "both" {
		if err := exporter.WriteCSVDir(*out, table, set, export.WriteOptions{BOMPrefix: *bom}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if *format == "xlsx" || *format == "both" {
		if err := exporter.WriteWorkbook(filepath.Join(*out, workbookName), table, set); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}

	logger.Info("export complete", "out", *out, "format", *format, "rows", len(table.Rows))
	return nil
}

// buildFilter turns CLI flags into a domain filter. Numeric flags only bind
// a dimension when explicitly set, so a zero value stays distinguishable
// from "no bound".
func buildFilter(minCapacity, minVolume float64, yearStart, yearEnd int, countryList string) (domain.Filter, error) {
	seen := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })

	var filter domain.Filter
	if seen["min-capacity"] {
		filter.MinCapacityMW = &minCapacity
	}
	if seen["min-volume"] {
		filter.MinResVolMCM = &minVolume
	}
	if seen["year-start"] != seen["year-end"] {
		return domain.Filter{}, fmt.Errorf("-year-start and -year-end must be provided together")
	}
	if seen["year-start"] {
		if yearEnd < yearStart {
			return domain.Filter{}, fmt.Errorf("-year-end must not be before -year-start")
		}
		filter.Years = &domain.YearRange{Start: yearStart, End: yearEnd}
	}
	for _, c := range strings.Split(countryList, ",") {
		if c = strings.TrimSpace(c); c != "" {
			filter.Countries = append(filter.Countries, c)
		}
	}
	return filter, nil
}
