package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/backtest"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/ingestion"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/report"
)

type fakeReports struct {
	mode        report.Mode
	filters     report.Filters
	gamesQuery  report.GamesQuery
	err         error
	invalidated int
}

func (f *fakeReports) Generate(ctx context.Context, mode report.Mode, filters report.Filters) (*report.Result, error) {
	f.mode = mode
	f.filters = filters
	if f.err != nil {
		return nil, f.err
	}
	return &report.Result{Rows: []report.Row{}, Mode: mode, Filters: filters}, nil
}

func (f *fakeReports) Overview(ctx context.Context) (*report.Overview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &report.Overview{ShortDays: 20, LongDays: 60, Rows: []report.Row{}}, nil
}

func (f *fakeReports) Games(ctx context.Context, query report.GamesQuery) ([]report.GameRow, error) {
	f.gamesQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return []report.GameRow{{ID: 7, Date: "2024-03-01", League: "NBA", HomeTeam: "Lakers", AwayTeam: "Celtics", Markets: []report.GameMarket{}}}, nil
}

func (f *fakeReports) Leagues(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"MLB", "NBA"}, nil
}

func (f *fakeReports) InvalidateLeagues() {
	f.invalidated++
}

type fakeBacktest struct {
	req backtest.Request
	err error
}

func (f *fakeBacktest) Run(ctx context.Context, req backtest.Request) (*backtest.Result, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &backtest.Result{Picks: []backtest.SelectedPick{}}, nil
}

type fakeImporter struct {
	source string
	files  *datasource.Files
	err    error
}

func (f *fakeImporter) ImportFiles(ctx context.Context, source string, files *datasource.Files) (ingestion.Summary, error) {
	f.source = source
	f.files = files
	if f.err != nil {
		return ingestion.Summary{}, f.err
	}
	return ingestion.Summary{GamesInserted: 2, OddsInserted: 3, ModelsInserted: 1}, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

type testServer struct {
	server   *Server
	reports  *fakeReports
	backtest *fakeBacktest
	importer *fakeImporter
}

func newTestServer(t *testing.T, opts Options, deps Dependencies) *testServer {
	t.Helper()
	ts := &testServer{reports: &fakeReports{}, backtest: &fakeBacktest{}, importer: &fakeImporter{}}
	deps.Reports = ts.reports
	deps.Backtest = ts.backtest
	deps.Importer = ts.importer

	server, err := NewServer(opts, deps, logger.Discard())
	require.NoError(t, err)
	ts.server = server
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewServerRequiresServices(t *testing.T) {
	_, err := NewServer(Options{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	pinger := &fakePinger{}
	ts := newTestServer(t, Options{ServiceName: "edgeboard-test"}, Dependencies{DB: pinger})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edgeboard-test", decodeBody(t, rec)["service"])

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ts.server.SetReady(true)
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	pinger.err = errors.New("connection refused")
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := decodeBody(t, rec)["checks"].(map[string]interface{})
	assert.Contains(t, checks["database"], "connection refused")
}

func TestReportsQueryParsing(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	url := "/api/reports?mode=highWin&leagues=NBA,%20MLB,&marketTypes=ml,bogus,ML,ou&startDate=2024-03-01&endDate=2024-03-31&minSamples=5&minProbability=0.6&minEv=0.02"
	rec := ts.do(httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, report.ModeHighWin, ts.reports.mode)
	filters := ts.reports.filters
	assert.Equal(t, []string{"NBA", "MLB"}, filters.Leagues)
	assert.Equal(t, []models.MarketType{models.MarketTypeML, models.MarketTypeTotal}, filters.MarketTypes)
	assert.Equal(t, "2024-03-01", filters.StartDate)
	assert.Equal(t, "2024-03-31", filters.EndDate)
	require.NotNil(t, filters.MinSamples)
	assert.Equal(t, 5, *filters.MinSamples)
	require.NotNil(t, filters.MinProbability)
	assert.Equal(t, 0.6, *filters.MinProbability)
	require.NotNil(t, filters.MinEV)
	assert.Equal(t, 0.02, *filters.MinEV)
}

func TestReportsDefaults(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ModePositiveEV, ts.reports.mode)
	assert.Nil(t, ts.reports.filters.MinSamples)
	assert.Nil(t, ts.reports.filters.Leagues)
}

func TestReportsRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	tests := []string{
		"/api/reports?mode=lottery",
		"/api/reports?minSamples=many",
		"/api/reports?minProbability=high",
		"/api/reports?minEv=x",
	}
	for _, url := range tests {
		rec := ts.do(httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
		assert.NotEmpty(t, decodeBody(t, rec)["error"], url)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid input", fmt.Errorf("%w: bad date", models.ErrInvalidInput), http.StatusBadRequest, "bad date"},
		{"storage", fmt.Errorf("failed to query markets: %w", models.ErrStorageUnavailable), http.StatusServiceUnavailable, "failed to query markets"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{}, Dependencies{})
			ts.reports.err = tt.err

			for _, path := range []string{"/api/reports", "/api/overview", "/api/games", "/api/leagues"} {
				rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
				assert.Equal(t, tt.status, rec.Code, path)
				assert.Contains(t, decodeBody(t, rec)["error"], tt.message, path)
			}
		})
	}
}

func TestGamesAndLeagues(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/games?league=NBA&marketType=TOTAL&startDate=2024-03-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.GamesQuery{League: "NBA", MarketType: "TOTAL", StartDate: "2024-03-01"}, ts.reports.gamesQuery)

	games := decodeBody(t, rec)["games"].([]interface{})
	require.Len(t, games, 1)
	assert.Equal(t, "Lakers", games[0].(map[string]interface{})["homeTeam"])

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/leagues", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"MLB", "NBA"}, decodeBody(t, rec)["leagues"])

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/overview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(20), decodeBody(t, rec)["shortWindowDays"])
}

func TestBacktest(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	body := `{"startDate":"2024-03-01","leagues":["NBA"],"marketTypes":["ML"],"minProbability":0.6,"maxConcurrent":2}`
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := ts.backtest.req
	assert.Equal(t, "2024-03-01", req.StartDate)
	assert.Equal(t, []string{"NBA"}, req.Leagues)
	require.NotNil(t, req.MinProbability)
	assert.Equal(t, 0.6, *req.MinProbability)
	require.NotNil(t, req.MaxConcurrent)
	assert.Equal(t, 2, *req.MaxConcurrent)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/backtest", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.backtest.err = fmt.Errorf("%w: stakeUnits must be greater than 0", models.ErrInvalidInput)
	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(`{"stakeUnits":-1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, parts map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, content := range parts {
		part, err := writer.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	rec := ts.do(multipartUpload(t, map[string]string{
		"games": "date,league,home,away\n",
		"odds":  "date,league,home,away,market,selection,odds_decimal,bookmaker\n",
		"model": "date,league,home,away,market,selection,p_model,model_tag\n",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, manualSource, ts.importer.source)
	assert.Equal(t, "date,league,home,away\n", string(ts.importer.files.Games))
	assert.Equal(t, 1, ts.reports.invalidated)

	summary := decodeBody(t, rec)["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["gamesInserted"])
	assert.Equal(t, float64(3), summary["oddsInserted"])
	assert.Equal(t, float64(1), summary["modelsInserted"])
}

func TestUploadMissingFile(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	rec := ts.do(multipartUpload(t, map[string]string{"games": "date\n", "odds": "date\n"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "model")
	assert.Nil(t, ts.importer.files)
	assert.Zero(t, ts.reports.invalidated)
}

func TestUploadImportFailure(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})
	ts.importer.err = fmt.Errorf("%w: odds.csv line 2: odds_decimal must be greater than 1", models.ErrInvalidInput)

	rec := ts.do(multipartUpload(t, map[string]string{"games": "a\n", "odds": "b\n", "model": "c\n"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "odds.csv line 2")
	assert.Zero(t, ts.reports.invalidated)
}

func TestEventsAndMetricsRoutes(t *testing.T) {
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	ts := newTestServer(t, Options{MetricsPath: "/metrics"}, Dependencies{Events: events})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsRouteAbsentWithoutHub(t *testing.T) {
	ts := newTestServer(t, Options{}, Dependencies{})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Options{AllowedOrigins: []string{"https://dash.example.com"}}, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := ts.do(req)

	assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
