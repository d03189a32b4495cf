package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/articles"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/middleware"
)

const articleNotFound = "Article not found"

// SearchExecutor runs a ranked query.
type SearchExecutor interface {
	Execute(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
}

// Normalizer produces the tokens a query is cached under.
type Normalizer interface {
	Normalize(text string) []string
}

// Options carries the handler's collaborators. Executor and Articles are
// required; the rest may be left nil.
type Options struct {
	Executor     SearchExecutor
	Normalizer   Normalizer
	Model        string
	Cache        *cache.QueryCache
	Corpus       *corpus.Corpus
	Articles     articles.Store
	History      history.Recorder
	Tracker      analytics.Tracker
	Metrics      *metrics.Metrics
	DefaultLimit int
	MaxResults   int
}

// Handler serves the search, article and cache routes.
type Handler struct {
	executor     SearchExecutor
	normalizer   Normalizer
	model        string
	cache        *cache.QueryCache
	corpus       *corpus.Corpus
	articles     articles.Store
	history      history.Recorder
	tracker      analytics.Tracker
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New builds a Handler. The default limit falls back to 5 and the cache is
// disabled when no Normalizer is given.
func New(opts Options) *Handler {
	h := &Handler{
		executor:     opts.Executor,
		normalizer:   opts.Normalizer,
		model:        opts.Model,
		cache:        opts.Cache,
		corpus:       opts.Corpus,
		articles:     opts.Articles,
		history:      opts.History,
		tracker:      opts.Tracker,
		metrics:      opts.Metrics,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
	if h.history == nil {
		h.history = history.Nop{}
	}
	if h.defaultLimit <= 0 {
		h.defaultLimit = 5
	}
	if h.maxResults < h.defaultLimit {
		h.maxResults = h.defaultLimit
	}
	if h.cache != nil && h.normalizer == nil {
		h.cache = nil
	}
	return h
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", h.Query)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /articles", h.ListArticles)
	mux.HandleFunc("GET /articles/{id}", h.GetArticle)
	mux.HandleFunc("GET /articles/title/{title}", h.ArticleByTitle)
	mux.HandleFunc("GET /articles/body/{body}", h.ArticlesByBody)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type queryRequest struct {
	Query *string `json:"query"`
	Limit int     `json:"limit,omitempty"`
}

// Document is one resolved search hit.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type queryResponse struct {
	Message string     `json:"message"`
	Query   string     `json:"query"`
	Result  []Document `json:"result"`
}

// Query serves POST /search: the top hits resolved to title and content.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "request body must be a JSON object"))
		return
	}
	if req.Query == nil {
		h.fail(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "field 'query' is required"))
		return
	}
	limit, err := h.clampLimit(req.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.search(r, *req.Query, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	docs := h.resolve(result)
	h.record(r.Context(), history.TypeSearch, *req.Query, docs)
	h.writeJSON(w, http.StatusOK, queryResponse{
		Message: "Query received",
		Query:   *req.Query,
		Result:  docs,
	})
}

// Search serves GET /api/v1/search?q=&limit= with scores and document ids.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.fail(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	requested := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			h.fail(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		requested = parsed
	}
	limit, err := h.clampLimit(requested)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.search(r, query, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r.Context(), history.TypeSearch, query, result)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) clampLimit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	case requested == 0:
		return h.defaultLimit, nil
	case requested > h.maxResults:
		return h.maxResults, nil
	}
	return requested, nil
}

func (h *Handler) search(r *http.Request, query string, limit int) (*executor.SearchResult, error) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var (
		result   *executor.SearchResult
		err      error
		cacheHit bool
		status   = "none"
	)
	if h.cache != nil {
		tokens := h.normalizer.Normalize(query)
		result, cacheHit, err = h.cache.GetOrCompute(ctx, cache.Key(h.model, tokens, limit), query, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, query, limit)
		})
		if err == nil {
			result.Terms = tokens
		}
		status = "miss"
		if cacheHit {
			status = "hit"
		}
	} else {
		result, err = h.executor.Execute(ctx, query, limit)
	}
	latency := time.Since(start)

	event := analytics.SearchEvent{
		Type:      analytics.EventSearch,
		Route:     r.Pattern,
		Query:     query,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		event.Type = analytics.EventError
		h.track(event)
		h.observe("error", status, latency, nil)
		return nil, err
	}

	event.Terms = result.Terms
	event.TotalHits = result.TotalHits
	event.Returned = len(result.Results)
	resultType := "hit"
	if len(result.Results) == 0 {
		event.Type = analytics.EventZeroResult
		resultType = "zero"
	}
	h.track(event)
	h.observe(resultType, status, latency, result)

	log.Info("search completed",
		"query", query,
		"terms", len(result.Terms),
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	return result, nil
}

// resolve maps hits to the title and body of their corpus article, in rank
// order.
func (h *Handler) resolve(result *executor.SearchResult) []Document {
	docs := make([]Document, 0, len(result.Results))
	for _, hit := range result.Results {
		doc := Document{}
		if h.corpus != nil {
			if a, ok := h.corpus.Lookup(hit.DocID); ok {
				doc = Document{Title: a.Title, Content: a.Body}
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func (h *Handler) track(event analytics.SearchEvent) {
	if h.tracker != nil {
		h.tracker.Track(event)
	}
}

func (h *Handler) observe(resultType, cacheStatus string, latency time.Duration, result *executor.SearchResult) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	switch cacheStatus {
	case "hit":
		h.metrics.CacheHitsTotal.Inc()
	case "miss":
		h.metrics.CacheMissesTotal.Inc()
	}
	if result != nil {
		h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
		h.metrics.SearchCandidates.Observe(float64(result.TotalHits))
	}
}

// CacheStats serves the cache counters, or a disabled status without a cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

// CacheInvalidate drops every cached search result.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// record writes a history entry. A failing sink never fails the request.
func (h *Handler) record(ctx context.Context, searchType history.SearchType, query string, result any) {
	if err := h.history.Record(ctx, history.NewEntry(searchType, query, result)); err != nil {
		logger.FromContext(ctx).Warn("recording history failed", "search_type", searchType, "error", err)
		if h.metrics != nil {
			h.metrics.HistoryErrorsTotal.Inc()
		}
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		h.writeError(w, status, appErr.Message)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	case status >= http.StatusInternalServerError:
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, status, http.StatusText(status))
	default:
		h.writeError(w, status, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
