package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/articles"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var raw = map[string]string{
	"training/1": "COCOA EXPORTS ROSE\nCocoa exports from Ghana rose 12 pct in March.",
	"training/2": "OIL PRICES FALL\nCrude oil prices fell sharply after OPEC output news.",
	"training/3": "GRAIN SHIPMENTS\nWheat and grain shipments to the Soviet Union rose.",
	"test/4":     "COCOA TALKS\nInternational cocoa talks opened in London.",
}

type recorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (r *recorder) Record(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) last() history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

type tracker struct {
	mu     sync.Mutex
	events []analytics.SearchEvent
}

func (t *tracker) Track(e analytics.SearchEvent) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

type memBackend struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memBackend) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memBackend) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.data))
	m.data = make(map[string]string)
	return n, nil
}

type fixture struct {
	mux     *http.ServeMux
	history *recorder
	tracker *tracker
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	parsed := make([]corpus.Article, 0, len(raw))
	for id, text := range raw {
		a := corpus.Parse(id, text)
		a.Topics = []string{"cocoa", "trade"}
		parsed = append(parsed, a)
	}
	c, err := corpus.New(parsed)
	require.NoError(t, err)

	idx, err := indexer.Initialize(context.Background(), c.Documents(corpus.SplitTraining), indexer.Options{
		Tokenizer: tokenizer.DefaultOptions(),
	})
	require.NoError(t, err)

	f := &fixture{mux: http.NewServeMux(), history: &recorder{}, tracker: &tracker{}}
	opts := Options{
		Executor:   executor.New(idx),
		Normalizer: idx,
		Model:      idx.Fingerprint(),
		Corpus:     c,
		Articles:   articles.NewMemoryStore(articles.FromCorpus(c.Articles())),
		History:    f.history,
		Tracker:    f.tracker,
		Metrics:    metrics.New(prometheus.NewRegistry()),
		MaxResults: 10,
	}
	if withCache {
		opts.Cache = cache.New(&memBackend{data: make(map[string]string)}, time.Minute)
	}
	New(opts).Register(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestQuery(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/search", `{"query":"cocoa exports"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[queryResponse](t, rec)
	assert.Equal(t, "Query received", resp.Message)
	assert.Equal(t, "cocoa exports", resp.Query)
	require.Len(t, resp.Result, 1, "test split articles are never searched")
	assert.Equal(t, "COCOA EXPORTS ROSE", resp.Result[0].Title)
	assert.Equal(t, "Cocoa exports from Ghana rose 12 pct in March.", resp.Result[0].Content)

	entry := f.history.last()
	assert.Equal(t, history.TypeSearch, entry.SearchType)
	assert.Equal(t, "cocoa exports", entry.Query)
	require.Len(t, f.tracker.events, 1)
	assert.Equal(t, analytics.EventSearch, f.tracker.events[0].Type)
	assert.Equal(t, "POST /search", f.tracker.events[0].Route)
}

func TestQueryNoMatches(t *testing.T) {
	f := newFixture(t, false)
	for _, body := range []string{`{"query":""}`, `{"query":"the and of"}`, `{"query":"zyzzyva"}`} {
		rec := f.do(t, http.MethodPost, "/search", body)
		require.Equal(t, http.StatusOK, rec.Code, body)
		resp := decode[queryResponse](t, rec)
		assert.Empty(t, resp.Result, body)
		assert.NotNil(t, resp.Result, "result must encode as an empty array")
	}
	assert.Equal(t, analytics.EventZeroResult, f.tracker.events[0].Type)
}

func TestQueryBadRequest(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct{ name, body string }{
		{"not json", `cocoa`},
		{"missing query", `{"q":"cocoa"}`},
		{"negative limit", `{"query":"cocoa","limit":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec), "error")
		})
	}
}

func TestSearchAPI(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/api/v1/search?q=rose&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[executor.SearchResult](t, rec)
	assert.Equal(t, []string{"rose"}, res.Terms)
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Results, 1)

	for _, target := range []string{"/api/v1/search", "/api/v1/search?q=oil&limit=x", "/api/v1/search?q=oil&limit=0"} {
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, target, "").Code, target)
	}
}

func TestSearchCached(t *testing.T) {
	f := newFixture(t, true)
	first := decode[executor.SearchResult](t, f.do(t, http.MethodGet, "/api/v1/search?q=cocoa+exports", ""))
	second := decode[executor.SearchResult](t, f.do(t, http.MethodGet, "/api/v1/search?q=EXPORTS+cocoa", ""))
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, "EXPORTS cocoa", second.Query)
	assert.Equal(t, []string{"exports", "cocoa"}, second.Terms)

	require.Len(t, f.tracker.events, 2)
	assert.False(t, f.tracker.events[0].CacheHit)
	assert.True(t, f.tracker.events[1].CacheHit)

	stats := decode[cache.Stats](t, f.do(t, http.MethodGet, "/api/v1/cache/stats", ""))
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	rec := f.do(t, http.MethodPost, "/api/v1/cache/invalidate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheDisabled(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, `{"status":"disabled"}`, strings.TrimSpace(f.do(t, http.MethodGet, "/api/v1/cache/stats", "").Body.String()))
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/v1/cache/invalidate", "").Code)
}

func TestArticles(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ArticleView](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, "cocoa,trade", list[0].Topics)
	assert.Equal(t, history.NoQuery, f.history.last().Query)
	assert.Equal(t, history.TypeAllArticles, f.history.last().SearchType)

	rec = f.do(t, http.MethodGet, "/articles/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, list[0], decode[ArticleView](t, rec))

	rec = f.do(t, http.MethodGet, "/articles/title/grain", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GRAIN SHIPMENTS", decode[ArticleView](t, rec).Title)
	assert.Equal(t, history.TypeArticleByTitle, f.history.last().SearchType)

	rec = f.do(t, http.MethodGet, "/articles/body/COCOA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string][]ArticleView](t, rec)
	assert.Len(t, body["articles"], 2)
	assert.Equal(t, "COCOA", f.history.last().Query)
}

func TestArticleNotFound(t *testing.T) {
	f := newFixture(t, false)
	for _, target := range []string{"/articles/99", "/articles/title/atlantis"} {
		rec := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, map[string]string{"error": articleNotFound}, decode[map[string]string](t, rec))
		assert.Equal(t, map[string]string{"error": articleNotFound}, f.history.last().Result)
	}

	rec := f.do(t, http.MethodGet, "/articles/body/zyzzyva", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]ArticleView](t, rec)["articles"])
}

func TestInvalidPattern(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/articles/title/(", "").Code)
}

func TestHistoryFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, false)
	f.history.err = errors.New("disk full")
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/search", `{"query":"oil"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/articles", "").Code)
}

type failingExecutor struct{ err error }

func (e failingExecutor) Execute(context.Context, string, int) (*executor.SearchResult, error) {
	return nil, e.err
}

func TestSearchNotFitted(t *testing.T) {
	mux := http.NewServeMux()
	tr := &tracker{}
	New(Options{
		Executor: executor.New(nil),
		Articles: articles.NewMemoryStore(nil),
		Tracker:  tr,
	}).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=oil", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventError, tr.events[0].Type)
}

func TestSearchInternalError(t *testing.T) {
	mux := http.NewServeMux()
	New(Options{Executor: failingExecutor{errors.New("boom")}, Articles: articles.NewMemoryStore(nil)}).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"oil"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
