// Package export writes the derived view tables to CSV files or a single
// XLSX workbook for offline analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/views"
)

// WriteOptions configures CSV output.
type WriteOptions struct {
	// BOMPrefix prepends a UTF-8 BOM so spreadsheet tools detect the
	// encoding.
	BOMPrefix bool
}

// Exporter renders view sets to files.
type Exporter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// viewFile is one exportable table: a filename stem that doubles as the
// sheet name source, plus header and record rows.
type viewFile struct {
	name    string
	headers []string
	records [][]string
}

func viewFiles(table domain.Table, set views.Set) []viewFile {
	return []viewFile{
		{views.ViewChoropleth, choroplethHeaders(), choroplethRecords(set.Choropleth)},
		{views.ViewHierarchy, hierarchyHeaders(), hierarchyRecords(set.Hierarchy)},
		{views.ViewTimeSeries, timeSeriesHeaders(), timeSeriesRecords(set.TimeSeries)},
		{views.ViewAnimated, plantHeaders(), plantRecords(set.Animated)},
		{views.ViewPlants, plantHeaders(), plantRecords(set.Plants)},
		{"meta", metaHeaders(), metaRecords(table)},
	}
}

// WriteCSVDir writes one CSV per view into dir, plus meta.csv identifying
// the snapshot they came from.
func (e *Exporter) WriteCSVDir(dir string, table domain.Table, set views.Set, opts WriteOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	for _, vf := range viewFiles(table, set) {
		path := filepath.Join(dir, vf.name+".csv")
		if err := writeCSVFile(path, vf.headers, vf.records, opts); err != nil {
			return fmt.Errorf("write %s: %w", vf.name, err)
		}
		e.logger.Info("csv written", "path", path, "rows", len(vf.records))
	}
	return nil
}

func writeCSVFile(path string, headers []string, records [][]string, opts WriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if opts.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	w := csv.NewWriter(file)

	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, record := range records {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteWorkbook writes every view as a sheet of one workbook. The Summary
// sheet records the snapshot identity and the unfiltered bounds.
func (e *Exporter) WriteWorkbook(path string, table domain.Table, set views.Set) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook, nothing to release on error

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	writeSummarySheet(f, summary, table, set.Bounds)

	for _, vf := range viewFiles(table, set) {
		if vf.name == "meta" {
			continue // covered by the Summary sheet
		}
		sheet := sheetName(vf.name)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		for col, header := range vf.headers {
			setCell(f, sheet, col+1, 1, header)
		}
		for r, record := range vf.records {
			for col, value := range record {
				if value == "" {
					continue
				}
				setCell(f, sheet, col+1, r+2, cellValue(value))
			}
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Info("workbook written", "path", path, "sheets", len(viewFiles(table, set)))
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, table domain.Table, bounds domain.Bounds) {
	rows := [][2]any{
		{"Source", table.Source},
		{"Refresh ID", table.RefreshID},
		{"Loaded At", table.LoadedAt.Format(time.RFC3339)},
		{"Rows", len(table.Rows)},
		{"Countries", strings.Join(bounds.Countries, ", ")},
	}
	if bounds.MinCapacityMW != nil {
		rows = append(rows,
			[2]any{"Min Capacity (MW)", *bounds.MinCapacityMW},
			[2]any{"Max Capacity (MW)", *bounds.MaxCapacityMW})
	}
	if bounds.MinResVolMCM != nil {
		rows = append(rows,
			[2]any{"Min Reservoir Volume (MCM)", *bounds.MinResVolMCM},
			[2]any{"Max Reservoir Volume (MCM)", *bounds.MaxResVolMCM})
	}
	if bounds.MinYear != nil {
		rows = append(rows,
			[2]any{"Min Year", *bounds.MinYear},
			[2]any{"Max Year", *bounds.MaxYear})
	}

	for i, row := range rows {
		setCell(f, sheet, 1, i+1, row[0])
		setCell(f, sheet, 2, i+1, row[1])
	}
}

// sheetName renders a view name as a workbook sheet title.
func sheetName(view string) string {
	if view == views.ViewTimeSeries {
		return "TimeSeries"
	}
	return strings.ToUpper(view[:1]) + view[1:]
}

func setCell(f *excelize.File, sheet string, col, row int, v any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	f.SetCellValue(sheet, cell, v) //nolint:errcheck // sheet and cell names are generated
}

// cellValue restores numeric typing for workbook cells; CSV records carry
// everything as strings.
func cellValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// --- per-view record builders ---

func choroplethHeaders() []string { return []string{"iso3", "capacity_mw"} }

func choroplethRecords(rows []domain.CountryCapacity) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.ISO3, formatFloat(r.CapacityMW)})
	}
	return out
}

func hierarchyHeaders() []string { return []string{"country", "name", "capacity_mw"} }

func hierarchyRecords(rows []domain.PlantCapacity) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Country, r.Name, formatFloat(r.CapacityMW)})
	}
	return out
}

func timeSeriesHeaders() []string { return []string{"country", "year", "capacity_mw"} }

func timeSeriesRecords(rows []domain.CountryYearCapacity) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Country, strconv.Itoa(r.Year), formatFloat(r.CapacityMW)})
	}
	return out
}

func plantHeaders() []string {
	return []string{"id", "country", "iso3", "name", "year", "capacity_mw", "lat", "lon", "res_vol_km3", "res_vol_mcm"}
}

func plantRecords(rows []domain.Plant) [][]string {
	out := make([][]string, 0, len(rows))
	for _, p := range rows {
		out = append(out, []string{
			p.ID,
			p.Country,
			p.ISO3,
			p.Name,
			formatIntPtr(p.Year),
			formatFloatPtr(p.CapacityMW),
			formatFloat(p.Lat),
			formatFloat(p.Lon),
			formatFloatPtr(p.ResVolKM3),
			formatFloatPtr(p.ResVolMCM),
		})
	}
	return out
}

func metaHeaders() []string { return []string{"source", "refresh_id", "loaded_at", "rows"} }

func metaRecords(table domain.Table) [][]string {
	return [][]string{{
		table.Source,
		table.RefreshID,
		table.LoadedAt.Format(time.RFC3339),
		strconv.Itoa(len(table.Rows)),
	}}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
