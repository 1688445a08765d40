package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/i18n"
	"github.com/alanyoungcy/lottostats/internal/server/handler"
	"github.com/alanyoungcy/lottostats/internal/service"
	"github.com/alanyoungcy/lottostats/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBlobReader struct {
	objects map[string]string
}

func (f *fakeBlobReader) Get(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := f.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeBlobReader) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	for p, body := range f.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, domain.BlobInfo{Path: p, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (f *fakeBlobReader) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

// countingLimiter allows the first limit calls per key.
type countingLimiter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[key]++
	return c.calls[key] <= limit, nil
}

type testEnv struct {
	handler http.Handler
	svc     *service.AnalysisService
}

func newTestEnv(t *testing.T, cfg Config, limiter domain.RateLimiter) testEnv {
	t.Helper()
	logger := discardLogger()
	reg := strategy.DefaultRegistry()
	svc := service.NewAnalysisService(service.AnalysisConfig{
		Period:    50,
		MaxPeriod: 300,
		Seed:      2024,
		Biased:    true,
	}, strategy.NewSampler(reg), logger)
	catalog, err := i18n.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	blob := &fakeBlobReader{objects: map[string]string{
		"archive/draws/2025-01-01.jsonl": "{\"round\":1}\n",
	}}
	handlers := Handlers{
		Health: handler.NewHealthHandler(logger, handler.Check{
			Name: "store",
			Fn:   func(context.Context) error { return nil },
		}),
		Draws:           handler.NewDrawHandler(svc, logger),
		Analysis:        handler.NewAnalysisHandler(svc, logger),
		Strategies:      handler.NewStrategyHandler(reg, catalog, logger),
		Recommendations: handler.NewRecommendationHandler(svc, logger),
		Archives:        handler.NewArchiveHandler(blob, logger),
	}
	return testEnv{handler: NewHandler(cfg, handlers, limiter, nil, logger), svc: svc}
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	rec := do(t, env.handler, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id")
	}
}

func TestDrawsAndAnalysis(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	rec := do(t, env.handler, http.MethodGet, "/api/draws?period=20&limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("draws status = %d: %s", rec.Code, rec.Body)
	}
	draws := decode[struct {
		Period int `json:"period"`
		Draws  []struct {
			Round   int      `json:"round"`
			Numbers []int    `json:"numbers"`
			Colors  []string `json:"colors"`
		} `json:"draws"`
	}](t, rec)
	if draws.Period != 20 || len(draws.Draws) != 5 || len(draws.Draws[0].Colors) != 7 {
		t.Fatalf("draws = %+v", draws)
	}

	rec = do(t, env.handler, http.MethodGet, "/api/analysis?period=20&mode=combined", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis status = %d: %s", rec.Code, rec.Body)
	}
	a := decode[struct {
		Draws       int    `json:"draws"`
		Mode        string `json:"mode"`
		Frequencies []struct {
			Count int `json:"count"`
		} `json:"frequencies"`
		Ranges []domain.BucketCount `json:"ranges"`
		Hot    []int                `json:"hot"`
	}](t, rec)
	total := 0
	for _, f := range a.Frequencies {
		total += f.Count
	}
	if a.Draws != 20 || a.Mode != "combined" || total != 20*7 || len(a.Hot) != 5 {
		t.Fatalf("analysis: draws=%d mode=%s total=%d hot=%v", a.Draws, a.Mode, total, a.Hot)
	}
	bucketSum := 0
	for _, r := range a.Ranges {
		bucketSum += r.Count
	}
	if bucketSum != 20*6 {
		t.Fatalf("bucket sum = %d, want 120", bucketSum)
	}
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	tests := []struct {
		method, target string
		body           any
		want           int
	}{
		{http.MethodGet, "/api/analysis?period=abc", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/analysis?period=0", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/analysis?mode=weird", nil, http.StatusBadRequest},
		{http.MethodPost, "/api/draws/generate", map[string]any{"count": 0}, http.StatusBadRequest},
		{http.MethodPost, "/api/draws/generate", map[string]any{"count": 5, "bias": []float64{1, 2}}, http.StatusBadRequest},
		{http.MethodPost, "/api/recommendations", map[string]any{"strategy": "lucky"}, http.StatusBadRequest},
		{http.MethodPost, "/api/recommendations", map[string]any{"unknown": 1}, http.StatusBadRequest},
		{http.MethodPost, "/api/sets/analyze", map[string]any{"numbers": []int{1, 2, 3}}, http.StatusBadRequest},
		{http.MethodGet, "/api/recommendations/latest?strategy=cold", nil, http.StatusNotFound},
		{http.MethodGet, "/api/recommendations/history", nil, http.StatusServiceUnavailable},
		{http.MethodGet, "/api/archives/draws/notes.txt", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/archives/draws/missing.jsonl", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, env.handler, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestGenerateDraws(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	rec := do(t, env.handler, http.MethodPost, "/api/draws/generate", map[string]any{"count": 10, "seed": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	res := decode[service.GeneratedDraws](t, rec)
	if res.Seed != 5 || len(res.Draws) != 10 {
		t.Fatalf("res = %+v", res)
	}
	for _, d := range res.Draws {
		if err := d.Validate(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRecommendationFlow(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	rec := do(t, env.handler, http.MethodPost, "/api/recommendations",
		map[string]any{"period": 30, "strategy": "mix_hot_cold", "sets": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[domain.Recommendation](t, rec)
	if got.Strategy != "mixed" || len(got.Sets) != 4 {
		t.Fatalf("rec = %+v", got)
	}
	for _, s := range got.Sets {
		if err := domain.ValidatePick(s); err != nil || !slices.IsSorted(s) {
			t.Fatalf("set %v: %v", s, err)
		}
	}

	rec = do(t, env.handler, http.MethodGet, "/api/recommendations/latest?period=30&strategy=mixed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	if latest := decode[domain.Recommendation](t, rec); latest.ID != got.ID {
		t.Fatal("latest differs from generated recommendation")
	}

	rec = do(t, env.handler, http.MethodPost, "/api/analysis/refresh", map[string]any{"period": 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	rec = do(t, env.handler, http.MethodGet, "/api/recommendations/latest?period=30&strategy=mixed", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("latest after refresh = %d, want 404", rec.Code)
	}
	// Empty body refreshes everything.
	rec = do(t, env.handler, http.MethodPost, "/api/analysis/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh all status = %d: %s", rec.Code, rec.Body)
	}
}

func TestAnalyzeSetAndOdds(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	rec := do(t, env.handler, http.MethodPost, "/api/sets/analyze", map[string]any{"numbers": []int{6, 5, 4, 3, 2, 1}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	rep := decode[service.SetReport](t, rec)
	if rep.Stats.Sum != 21 || rep.Stats.Mean != 3.5 || rep.Stats.OddEven.Even != 3 {
		t.Fatalf("stats = %+v", rep.Stats)
	}

	rec = do(t, env.handler, http.MethodGet, "/api/odds", nil)
	odds := decode[struct {
		Tiers []domain.PrizeTier `json:"tiers"`
	}](t, rec)
	if len(odds.Tiers) != 5 || odds.Tiers[0].Odds != 8_145_060 {
		t.Fatalf("odds = %+v", odds)
	}
}

func TestStrategiesLocalised(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	type resp struct {
		Lang       string `json:"lang"`
		Strategies []struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"strategies"`
	}

	en := decode[resp](t, do(t, env.handler, http.MethodGet, "/api/strategies", nil))
	if en.Lang != "en" || len(en.Strategies) != 5 {
		t.Fatalf("en = %+v", en)
	}
	ko := decode[resp](t, do(t, env.handler, http.MethodGet, "/api/strategies", nil, "Accept-Language", "ko-KR,ko;q=0.9"))
	if ko.Lang != "ko" {
		t.Fatalf("lang = %s, want ko", ko.Lang)
	}
	for _, s := range ko.Strategies {
		if s.Name == "hot" && s.Label != "핫 번호" {
			t.Fatalf("hot label = %q", s.Label)
		}
	}
}

func TestArchives(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	rec := do(t, env.handler, http.MethodGet, "/api/archives?prefix=draws/", nil)
	list := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	if list.Count != 1 {
		t.Fatalf("count = %d", list.Count)
	}

	rec = do(t, env.handler, http.MethodGet, "/api/archives/draws/2025-01-01.jsonl", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"round\":1}\n" {
		t.Fatalf("get = %d %q", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %s", ct)
	}
}

func TestAuthGuardsMutations(t *testing.T) {
	env := newTestEnv(t, Config{APIKey: "k3y"}, nil)

	if rec := do(t, env.handler, http.MethodGet, "/api/odds", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET without key = %d", rec.Code)
	}
	body := map[string]any{"strategy": "hot"}
	if rec := do(t, env.handler, http.MethodPost, "/api/recommendations", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST without key = %d", rec.Code)
	}
	if rec := do(t, env.handler, http.MethodPost, "/api/recommendations", body, "X-API-Key", "nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST with wrong key = %d", rec.Code)
	}
	if rec := do(t, env.handler, http.MethodPost, "/api/recommendations", body, "Authorization", "Bearer k3y"); rec.Code != http.StatusOK {
		t.Fatalf("POST with key = %d: %s", rec.Code, rec.Body)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{calls: map[string]int{}}
	env := newTestEnv(t, Config{RateLimit: 2, RateWindow: time.Minute, TrustProxy: true}, limiter)

	for i := 0; i < 2; i++ {
		if rec := do(t, env.handler, http.MethodGet, "/api/odds", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := do(t, env.handler, http.MethodGet, "/api/odds", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("third request = %d retry-after=%q", rec.Code, rec.Header().Get("Retry-After"))
	}
	// Another client has its own budget.
	if rec := do(t, env.handler, http.MethodGet, "/api/odds", nil, "X-Forwarded-For", "10.0.0.9"); rec.Code != http.StatusOK {
		t.Fatalf("other client = %d", rec.Code)
	}
}

func TestRateLimitWithoutTrustedProxy(t *testing.T) {
	limiter := &countingLimiter{calls: map[string]int{}}
	env := newTestEnv(t, Config{RateLimit: 2, RateWindow: time.Minute}, limiter)

	codes := make([]int, 0, 4)
	for _, xff := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		codes = append(codes, do(t, env.handler, http.MethodGet, "/api/odds", nil, "X-Forwarded-For", xff).Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}
	if !slices.Equal(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, Config{CORSOrigins: []string{"http://localhost:5173"}}, nil)
	rec := do(t, env.handler, http.MethodOptions, "/api/recommendations", nil, "Origin", "http://localhost:5173")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatal("origin not echoed")
	}
	rec = do(t, env.handler, http.MethodOptions, "/api/recommendations", nil, "Origin", "http://evil.example")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("disallowed origin echoed")
	}
}
