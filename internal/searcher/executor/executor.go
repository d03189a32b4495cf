// Package executor runs ranked queries against a FittedIndex.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
)

// SearchResult is the ranked answer to one query. TotalHits counts every
// candidate before the limit was applied.
type SearchResult struct {
	Query     string             `json:"query"`
	Terms     []string           `json:"terms"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

// Executor holds no per-query state and may be shared by any number of
// goroutines.
type Executor struct {
	idx    *indexer.FittedIndex
	logger *slog.Logger
}

// New returns an Executor over idx.
func New(idx *indexer.FittedIndex) *Executor {
	return &Executor{
		idx:    idx,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute normalizes and vectorizes query with the frozen model, gathers
// every document sharing at least one query term and returns the top limit
// of them by cosine similarity. A query with no known terms yields an empty
// result, not an error.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if e.idx == nil {
		return nil, apperrors.ErrNotFitted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ranker.DefaultLimit
	}

	qvec, terms, err := e.idx.Vectorize(query)
	if err != nil {
		return nil, fmt.Errorf("vectorizing query: %w", err)
	}
	result := &SearchResult{
		Query:   query,
		Terms:   terms,
		Results: []ranker.ScoredDoc{},
	}
	if qvec.Len() == 0 {
		return result, nil
	}

	candidates := e.idx.Candidates(qvec.Indices())
	if len(candidates) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.TotalHits = len(candidates)
	result.Results = ranker.Rank(qvec, candidates, e.idx.Vector, e.idx.DocID, limit)
	e.logger.Debug("query executed",
		"query", query,
		"terms", terms,
		"candidates", len(candidates),
		"results", len(result.Results),
	)
	return result, nil
}

// Index returns the fitted index the executor queries.
func (e *Executor) Index() *indexer.FittedIndex { return e.idx }
