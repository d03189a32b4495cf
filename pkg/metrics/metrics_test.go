package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, g prometheus.Gatherer) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(g).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CacheHitsTotal.Inc()
	m.SearchQueriesTotal.WithLabelValues("miss").Add(2)
	m.VocabularySize.Set(42)

	body := scrape(t, reg)
	assert.Contains(t, body, "cache_hits_total 1")
	assert.Contains(t, body, `search_queries_total{result_type="miss"} 2`)
	assert.Contains(t, body, "index_vocabulary_size 42")

	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
	assert.Panics(t, func() { New(reg) }, "registering twice on one registry")
}
