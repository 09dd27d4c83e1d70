package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/internal/ingest"
	"CandleScope/internal/services/analog"
	"CandleScope/internal/services/features"
	"CandleScope/internal/services/patterns"
	"CandleScope/internal/services/regime"
	"CandleScope/internal/services/trend"
	"CandleScope/internal/usecase"
	xlogger "CandleScope/pkg/logger"
)

type memBarStore struct {
	bars      []models.Bar
	trends    []models.Trend
	healthErr error
}

func (s *memBarStore) Init(context.Context) error { return nil }

func (s *memBarStore) StoreBars(_ context.Context, _ string, _ domrepo.Timeframe, bars []models.Bar, trends []models.Trend) error {
	s.bars = bars
	s.trends = trends
	return nil
}

func (s *memBarStore) GetBars(context.Context, string, domrepo.Timeframe, time.Time, time.Time) ([]models.Bar, []models.Trend, error) {
	return s.bars, s.trends, nil
}

func (s *memBarStore) GetLatestBars(context.Context, string, domrepo.Timeframe, int) ([]models.Bar, []models.Trend, error) {
	return s.bars, s.trends, nil
}

func (s *memBarStore) Health(context.Context) error { return s.healthErr }
func (s *memBarStore) Close() error                 { return nil }

type memSummaryStore struct {
	latest *models.Summary
}

func (s *memSummaryStore) Init(context.Context) error { return nil }

func (s *memSummaryStore) StoreSummary(_ context.Context, sum models.Summary) error {
	s.latest = &sum
	return nil
}

func (s *memSummaryStore) LatestSummary(context.Context, string, domrepo.Timeframe) (*models.Summary, error) {
	return s.latest, nil
}

func synthBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		drift := math.Sin(float64(i)/9.0)*2.0 + math.Cos(float64(i)/23.0)
		open := price
		close := price + drift
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, close) + 0.8,
			Low:    math.Min(open, close) - 0.6,
			Close:  close,
			Volume: 1000,
		}
		price = close
	}
	return bars
}

func testHandler(store domrepo.BarStore, summaries domrepo.SummaryStore) *echo.Echo {
	resolver := trend.NewResolver(trend.SourceAuto, trend.NewLocalTagger(), nil)
	analyzer := usecase.NewAnalyzer(
		features.NewEngine(),
		patterns.NewDetector(),
		regime.NewClassifier(),
		analog.NewModel(),
		resolver,
		ingest.NewLoader(),
	)
	if store != nil || summaries != nil {
		analyzer.WithStorage(store, summaries, nil)
	}
	refresher := usecase.NewRefresher(analyzer, nil)

	h := NewAnalysisEchoHandler(xlogger.Nop(), analyzer, refresher, store)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if strings.Contains(rec.Header().Get(echo.HeaderContentType), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad envelope %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func analyzeBody(t *testing.T, n int) string {
	t.Helper()
	bars := synthBars(n)
	payload := make([]models.BarPayload, n)
	for i, b := range bars {
		payload[i] = models.BarPayload{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	body, err := json.Marshal(models.AnalyzeRequest{Symbol: "TEST", TF: "1d", Bars: payload})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return string(body)
}

func TestAnalyzeRoute(t *testing.T) {
	e := testHandler(nil, nil)
	rec, env := doJSON(t, e, http.MethodPost, "/api/v1/analyze", analyzeBody(t, 260))

	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("got %d/%d: %s", rec.Code, env.Status, rec.Body.String())
	}
	var s models.Summary
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatalf("bad summary: %v", err)
	}
	if s.RowsAnalyzed != 260-features.WarmupRows {
		t.Fatalf("rows analyzed %d", s.RowsAnalyzed)
	}
	if s.ProbabilityNextBullish < 0 || s.ProbabilityNextBullish > 100 {
		t.Fatalf("probability %v", s.ProbabilityNextBullish)
	}
	if s.Symbol != "TEST" || s.Timeframe != "1d" {
		t.Fatalf("identity %s/%s", s.Symbol, s.Timeframe)
	}
}

func TestAnalyzeRouteValidation(t *testing.T) {
	e := testHandler(nil, nil)

	_, env := doJSON(t, e, http.MethodPost, "/api/v1/analyze", `{"bars":[]}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("empty bars must 400, got %d", env.Status)
	}

	_, env = doJSON(t, e, http.MethodPost, "/api/v1/analyze",
		`{"bars":[{"time":"2024-01-01T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.5}],"trend_from":"martians"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("bad trend_from must 400, got %d", env.Status)
	}
}

func TestAnalyzeRouteShortHistory(t *testing.T) {
	e := testHandler(nil, nil)
	_, env := doJSON(t, e, http.MethodPost, "/api/v1/analyze", analyzeBody(t, 20))
	if env.Status != http.StatusBadRequest {
		t.Fatalf("short history must map to 400, got %d", env.Status)
	}
	if !strings.Contains(string(env.Data), "ERR_BAD_DATA") {
		t.Fatalf("expected ERR_BAD_DATA: %s", env.Data)
	}
}

func TestHealthRoute(t *testing.T) {
	e := testHandler(nil, nil)
	rec, env := doJSON(t, e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("got %d/%d", rec.Code, env.Status)
	}
	if !strings.Contains(string(env.Data), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %s", env.Data)
	}
}

func TestHealthRouteDegraded(t *testing.T) {
	store := &memBarStore{healthErr: context.DeadlineExceeded}
	e := testHandler(store, nil)
	_, env := doJSON(t, e, http.MethodGet, "/health", "")
	if env.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected degraded health, got %d", env.Status)
	}
	if !strings.Contains(string(env.Data), "degraded") {
		t.Fatalf("unexpected health body: %s", env.Data)
	}
}

func TestImportRoute(t *testing.T) {
	store := &memBarStore{}
	e := testHandler(store, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "bars.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("Date,Open,High,Low,Close,Volume\n" +
		"2024-01-01,10,11,9,10.5,1000\n" +
		"2024-01-02,10.5,12,10,11.5,1100\n" +
		"2024-01-03,11.5,12.5,11,12,1200\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/ACME", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.Status != http.StatusCreated {
		t.Fatalf("import must 201, got %d: %s", env.Status, rec.Body.String())
	}
	var res models.ImportResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("bad result: %v", err)
	}
	if res.Rows != 3 || !res.Stored || res.Timeframe != "1d" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(store.bars) != 3 {
		t.Fatalf("bars not stored: %d", len(store.bars))
	}
}

func TestImportRouteMissingFile(t *testing.T) {
	e := testHandler(&memBarStore{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/ACME", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.Status != http.StatusBadRequest {
		t.Fatalf("missing file must 400, got %d", env.Status)
	}
}

func TestBarsRoute(t *testing.T) {
	store := &memBarStore{
		bars:   synthBars(5),
		trends: []models.Trend{models.TrendUp, models.TrendUp, models.TrendUp, models.TrendDown, models.TrendDown},
	}
	e := testHandler(store, nil)

	_, env := doJSON(t, e, http.MethodGet, "/api/v1/bars/ACME?limit=3", "")
	if env.Status != http.StatusOK {
		t.Fatalf("bars must 200, got %d", env.Status)
	}
	var res usecase.GetBarsResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("bad result: %v", err)
	}
	if res.Count != 3 || len(res.Bars) != 3 {
		t.Fatalf("unexpected count %d", res.Count)
	}
	if res.Bars[0].Trend != "uptrend" {
		t.Fatalf("trend not folded: %+v", res.Bars[0])
	}

	_, env = doJSON(t, e, http.MethodGet, "/api/v1/bars/ACME?from=yesterday", "")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("bad from must 400, got %d", env.Status)
	}
}

func TestReportRoute(t *testing.T) {
	store := &memBarStore{bars: synthBars(260)}
	e := testHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report/ACME?n=260", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("report must 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "text/markdown") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# Technical Analysis Report") {
		t.Fatalf("missing report title:\n%s", rec.Body.String())
	}
}

func TestRefreshRouteInline(t *testing.T) {
	store := &memBarStore{bars: synthBars(260)}
	e := testHandler(store, nil)

	_, env := doJSON(t, e, http.MethodPost, "/api/v1/refresh/ACME?n=260", "")
	if env.Status != http.StatusOK {
		t.Fatalf("inline refresh must 200, got %d", env.Status)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["queued"] != false {
		t.Fatalf("no queue attached, queued must be false: %v", body)
	}
	if body["job_id"] == "" || body["job_id"] == nil {
		t.Fatalf("job id missing: %v", body)
	}
}

func TestSummaryRoute(t *testing.T) {
	sums := &memSummaryStore{latest: &models.Summary{Symbol: "ACME", RunID: "r9"}}
	e := testHandler(nil, sums)

	_, env := doJSON(t, e, http.MethodGet, "/api/v1/summary/ACME", "")
	if env.Status != http.StatusOK {
		t.Fatalf("summary must 200, got %d", env.Status)
	}
	if !strings.Contains(string(env.Data), `"run_id":"r9"`) {
		t.Fatalf("unexpected summary: %s", env.Data)
	}

	empty := testHandler(nil, &memSummaryStore{})
	_, env = doJSON(t, empty, http.MethodGet, "/api/v1/summary/ACME", "")
	if env.Status != http.StatusNotFound {
		t.Fatalf("missing summary must 404, got %d", env.Status)
	}
}
