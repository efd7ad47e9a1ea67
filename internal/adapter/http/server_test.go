package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/hydroviz/hydro-data-prep/internal/adapter/http"
	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
)

// --- mocks ---

type mockTables struct {
	table domain.Table
	err   error
}

func (m *mockTables) Load(_ context.Context, _ string) (domain.Table, error) {
	if m.err != nil {
		return domain.Table{}, m.err
	}
	return m.table, nil
}

type mockRefresher struct {
	calls int
	table domain.Table
	err   error
}

func (m *mockRefresher) Refresh(_ context.Context) (domain.Table, error) {
	m.calls++
	if m.err != nil {
		return domain.Table{}, m.err
	}
	return m.table, nil
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// --- helpers ---

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

func fixtureTable() domain.Table {
	return domain.Table{
		Source:    "test.csv",
		RefreshID: "refresh-fixture",
		LoadedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Rows: []domain.Plant{
			{ID: "plant-1", Country: "China", ISO3: "CHN", Name: "Alpha", Year: iptr(2010), CapacityMW: fptr(1200), Lat: 30, Lon: 110, ResVolKM3: fptr(1.5), ResVolMCM: fptr(1500)},
			{ID: "plant-2", Country: "China", ISO3: "CHN", Name: "Beta", Year: iptr(2005), CapacityMW: fptr(800), Lat: 31, Lon: 111},
			{ID: "plant-3", Country: "Brazil", ISO3: "BRA", Name: "Gamma", CapacityMW: fptr(600), Lat: -20, Lon: -50},
			{ID: "plant-4", Country: "Ruritania", Name: "Delta", Year: iptr(2001), Lat: 10, Lon: 20},
		},
	}
}

func newTestServer(tables *mockTables, refresher *mockRefresher, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", "test.csv", tables, refresher,
		&mockReadiness{err: readyErr}, slog.Default(), observability.NewMetricsForTesting())
}

func newFixtureServer() *httpadapter.Server {
	return newTestServer(&mockTables{table: fixtureTable()}, &mockRefresher{table: fixtureTable()}, nil)
}

func do(srv *httpadapter.Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

type respEnvelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Source    string `json:"source"`
		RefreshID string `json:"refresh_id"`
		Rows      int    `json:"rows"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) respEnvelope {
	t.Helper()
	var env respEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// --- operational routes ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockTables{table: fixtureTable()}, &mockRefresher{}, fmt.Errorf("not ready yet"))
	rec := do(srv, http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- data routes ---

func TestBoundsEndpoint(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/bounds")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "test.csv", env.Meta.Source)
	assert.Equal(t, "refresh-fixture", env.Meta.RefreshID)
	assert.Equal(t, 4, env.Meta.Rows)

	var bounds domain.Bounds
	require.NoError(t, json.Unmarshal(env.Data, &bounds))
	assert.Equal(t, []string{"Brazil", "China", "Ruritania"}, bounds.Countries)
	require.NotNil(t, bounds.MaxCapacityMW)
	assert.Equal(t, 1200.0, *bounds.MaxCapacityMW)
	require.NotNil(t, bounds.MinYear)
	assert.Equal(t, 2001, *bounds.MinYear)
}

func TestPlantsEndpoint(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/plants")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var plants []domain.Plant
	require.NoError(t, json.Unmarshal(env.Data, &plants))
	assert.Len(t, plants, 4)
}

func TestPlantsEndpoint_MinCapacityFilter(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/plants?min_capacity=700")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, 4, env.Meta.Rows, "meta reports the unfiltered row count")

	var plants []domain.Plant
	require.NoError(t, json.Unmarshal(env.Data, &plants))
	require.Len(t, plants, 2)
	assert.Equal(t, "plant-1", plants[0].ID)
	assert.Equal(t, "plant-2", plants[1].ID)
}

func TestPlantsEndpoint_YearRangeFilter(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/plants?year_start=2000&year_end=2009")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var plants []domain.Plant
	require.NoError(t, json.Unmarshal(env.Data, &plants))
	require.Len(t, plants, 2)
	assert.Equal(t, "plant-2", plants[0].ID)
	assert.Equal(t, "plant-4", plants[1].ID)
}

func TestPlantsEndpoint_CountriesFilter(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/plants?countries=China,Brazil")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var plants []domain.Plant
	require.NoError(t, json.Unmarshal(env.Data, &plants))
	assert.Len(t, plants, 3)
}

func TestPlantsEndpoint_BadFilterParams(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"malformed min_capacity", "min_capacity=abc", "min_capacity"},
		{"nan min_capacity", "min_capacity=NaN", "finite"},
		{"malformed min_volume", "min_volume=1e999", "min_volume"},
		{"year_start alone", "year_start=2000", "together"},
		{"year_end alone", "year_end=2010", "together"},
		{"inverted year range", "year_start=2010&year_end=2000", "year_end"},
		{"malformed year", "year_start=abc&year_end=2010", "year_start"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newFixtureServer(), http.MethodGet, "/api/plants?"+tc.query)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tc.want)
		})
	}
}

func TestPlantsEndpoint_LoaderError(t *testing.T) {
	srv := newTestServer(&mockTables{err: errors.New("source unreachable")}, &mockRefresher{}, nil)
	rec := do(srv, http.MethodGet, "/api/plants")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestViewEndpoint_Choropleth(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/views/choropleth")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var rows []domain.CountryCapacity
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Equal(t, []domain.CountryCapacity{
		{ISO3: "BRA", CapacityMW: 600},
		{ISO3: "CHN", CapacityMW: 2000},
	}, rows)
}

func TestViewEndpoint_ChoroplethFiltered(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/views/choropleth?countries=China")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var rows []domain.CountryCapacity
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Equal(t, []domain.CountryCapacity{{ISO3: "CHN", CapacityMW: 2000}}, rows)
}

func TestViewEndpoint_TimeSeries(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/views/timeseries")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var rows []domain.CountryYearCapacity
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Equal(t, []domain.CountryYearCapacity{
		{Country: "China", Year: 2005, CapacityMW: 800},
		{Country: "China", Year: 2010, CapacityMW: 1200},
	}, rows)
}

func TestViewEndpoint_UnknownView(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/views/heatmap")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "heatmap")
}

func TestRefreshEndpoint(t *testing.T) {
	refresher := &mockRefresher{table: fixtureTable()}
	srv := newTestServer(&mockTables{table: fixtureTable()}, refresher, nil)

	rec := do(srv, http.MethodPost, "/api/refresh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refresher.calls)

	var body struct {
		Status string `json:"status"`
		Meta   struct {
			RefreshID string `json:"refresh_id"`
			Rows      int    `json:"rows"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "refreshed", body.Status)
	assert.Equal(t, "refresh-fixture", body.Meta.RefreshID)
	assert.Equal(t, 4, body.Meta.Rows)
}

func TestRefreshEndpoint_Error(t *testing.T) {
	refresher := &mockRefresher{err: errors.New("fetch failed")}
	srv := newTestServer(&mockTables{table: fixtureTable()}, refresher, nil)

	rec := do(srv, http.MethodPost, "/api/refresh")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshEndpoint_RequiresPost(t *testing.T) {
	rec := do(newFixtureServer(), http.MethodGet, "/api/refresh")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
