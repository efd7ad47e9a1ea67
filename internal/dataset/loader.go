// Package dataset loads the GloHydroRes CSV into cleaned domain tables and
// caches them by source identity.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
)

// LoadError reports a source that could not be fetched or parsed. Per-cell
// coercion problems never produce a LoadError; only the source itself
// failing does.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load dataset %q: %v", e.Source, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader produces a cleaned table from a source identity (local path or URL).
type Loader interface {
	Load(ctx context.Context, source string) (domain.Table, error)
}

// CSVLoader reads a GloHydroRes CSV from a local path or an http(s) URL,
// coerces and cleans every row, and returns the resulting table. It is the
// uncached loader; wrap it in a CachedLoader for session reuse.
type CSVLoader struct {
	resolver   domain.CountryResolver
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewCSVLoader creates a loader. The timeout bounds remote fetches end to
// end; local reads ignore it.
func NewCSVLoader(resolver domain.CountryResolver, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *CSVLoader {
	return &CSVLoader{
		resolver:   resolver,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

var _ Loader = (*CSVLoader)(nil)

// Load fetches and parses the source. Structural failures (unreachable
// source, unreadable CSV) return a *LoadError; rows and cells degrade
// silently per the domain coercion rules.
func (l *CSVLoader) Load(ctx context.Context, source string) (domain.Table, error) {
	start := time.Now()

	body, err := l.open(ctx, source)
	if err != nil {
		l.metrics.DatasetLoads.WithLabelValues("error").Inc()
		return domain.Table{}, &LoadError{Source: source, Err: err}
	}
	defer body.Close()

	rows, stats, err := l.parse(body)
	if err != nil {
		l.metrics.DatasetLoads.WithLabelValues("error").Inc()
		return domain.Table{}, &LoadError{Source: source, Err: err}
	}

	table := domain.NewTable(source, rows)

	l.metrics.DatasetLoads.WithLabelValues("success").Inc()
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.metrics.DatasetRows.Set(float64(len(rows)))

	l.logger.Info("dataset loaded",
		"source", source,
		"refresh_id", table.RefreshID,
		"rows", len(rows),
		"dropped", stats.dropped,
		"resolver_misses", stats.resolverMisses,
		"duration", time.Since(start),
	)

	return table, nil
}

// open returns the raw CSV stream for a source identity.
func (l *CSVLoader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := l.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}

// loadStats accumulates per-load cleaning counters for logs and metrics.
type loadStats struct {
	dropped        int
	resolverMisses int
}

func (l *CSVLoader) parse(r io.Reader) ([]domain.Plant, loadStats, error) {
	var stats loadStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // variants differ in column count; short rows read as absent cells

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	idx, err := mapHeader(header)
	if err != nil {
		return nil, stats, err
	}

	rows := make([]domain.Plant, 0, 1024)
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", line, err)
		}

		raw := domain.RawRecord{
			Country:    cell(record, idx.country),
			Name:       cell(record, idx.name),
			Year:       cell(record, idx.year),
			CapacityMW: cell(record, idx.capacity),
			Lat:        cell(record, idx.lat),
			Lon:        cell(record, idx.lon),
			ResVolKM3:  cell(record, idx.resVol),
		}

		p, ok := domain.ParseRawRecord(raw, l.resolver)
		if !ok {
			stats.dropped++
			l.metrics.RowsDropped.Inc()
			continue
		}

		l.countCoercionFailures(raw, p)
		if p.Country != "" && p.ISO3 == "" {
			stats.resolverMisses++
			l.metrics.ResolverMisses.Inc()
		}

		rows = append(rows, p)
	}

	return rows, stats, nil
}

// countCoercionFailures records cells that were present but uncoercible.
// Empty cells are absent, not failures.
func (l *CSVLoader) countCoercionFailures(raw domain.RawRecord, p domain.Plant) {
	if strings.TrimSpace(raw.Year) != "" && p.Year == nil {
		l.metrics.CoercionFailures.WithLabelValues("year").Inc()
	}
	if strings.TrimSpace(raw.CapacityMW) != "" && p.CapacityMW == nil {
		l.metrics.CoercionFailures.WithLabelValues("capacity_mw").Inc()
	}
	if strings.TrimSpace(raw.ResVolKM3) != "" && p.ResVolKM3 == nil {
		l.metrics.CoercionFailures.WithLabelValues("res_vol_km3").Inc()
	}
}

// columnIndex holds header positions resolved by name; -1 marks a column
// the variant omits.
type columnIndex struct {
	country, name, year, capacity, lat, lon, resVol int
}

func mapHeader(header []string) (columnIndex, error) {
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

	if idx.country < 0 || idx.lat < 0 || idx.lon < 0 {
		return idx, fmt.Errorf("header missing required columns country, plant_lat, plant_lon: %v", header)
	}
	return idx, nil
}

// normalizeHeader lowercases a header cell and strips the UTF-8 BOM that
// spreadsheet exports prepend to the first column.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
