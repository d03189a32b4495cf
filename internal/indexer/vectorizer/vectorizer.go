// Package vectorizer learns a TF-IDF model from a normalized corpus and
// converts text into L2-normalized sparse vectors using the fitted
// vocabulary and inverse document frequencies.
package vectorizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Options controls fitting parallelism.
type Options struct {
	Workers int
}

type model struct {
	vocab *Vocabulary
	idf   []float64
}

// Vectorizer is fitted exactly once; afterwards its state is read-only
// and Transform may be called from any number of goroutines.
type Vectorizer struct {
	workers int
	state   atomic.Pointer[model]
}

// New creates an unfitted Vectorizer.
func New(opts Options) *Vectorizer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Vectorizer{workers: workers}
}

// Fit learns the vocabulary and IDF weights from corpus, where each entry
// is a whitespace-joined normalized document, and returns one vector per
// document in corpus order. Nothing is published unless fitting succeeds.
func (v *Vectorizer) Fit(ctx context.Context, corpus []string) ([]SparseVector, error) {
	if v.state.Load() != nil {
		return nil, apperrors.ErrAlreadyFitted
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: no documents", apperrors.ErrEmptyCorpus)
	}

	counts := make([]map[string]int, len(corpus))
	if err := v.parallel(ctx, len(corpus), func(i int) {
		counts[i] = countTerms(corpus[i])
	}); err != nil {
		return nil, fmt.Errorf("counting terms: %w", err)
	}

	docFreq := make(map[string]int)
	for _, c := range counts {
		for term := range c {
			docFreq[term]++
		}
	}
	if len(docFreq) == 0 {
		return nil, fmt.Errorf("%w: no terms survived normalization", apperrors.ErrEmptyCorpus)
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	vocab := NewVocabulary(terms)
	idf := make([]float64, vocab.Len())
	n := len(corpus)
	for i, term := range vocab.terms {
		idf[i] = smoothIDF(n, docFreq[term])
	}
	m := &model{vocab: vocab, idf: idf}

	vectors := make([]SparseVector, len(corpus))
	if err := v.parallel(ctx, len(corpus), func(i int) {
		vectors[i] = m.weigh(counts[i])
	}); err != nil {
		return nil, fmt.Errorf("weighting documents: %w", err)
	}

	if !v.state.CompareAndSwap(nil, m) {
		return nil, apperrors.ErrAlreadyFitted
	}
	return vectors, nil
}

// Transform vectorizes normalized text with the frozen model. Terms
// outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) (SparseVector, error) {
	m := v.state.Load()
	if m == nil {
		return nil, apperrors.ErrNotFitted
	}
	return m.weigh(countTerms(text)), nil
}

// Fitted reports whether Fit has completed successfully.
func (v *Vectorizer) Fitted() bool {
	return v.state.Load() != nil
}

// Vocabulary returns the fitted vocabulary, or nil before Fit.
func (v *Vectorizer) Vocabulary() *Vocabulary {
	if m := v.state.Load(); m != nil {
		return m.vocab
	}
	return nil
}

// IDF returns the inverse document frequency of the term at index i, or 0
// when unfitted or out of range.
func (v *Vectorizer) IDF(i int) float64 {
	m := v.state.Load()
	if m == nil || i < 0 || i >= len(m.idf) {
		return 0
	}
	return m.idf[i]
}

func (m *model) weigh(counts map[string]int) SparseVector {
	weights := make(map[int]float64, len(counts))
	for term, tf := range counts {
		idx, ok := m.vocab.Index(term)
		if !ok {
			continue
		}
		weights[idx] = float64(tf) * m.idf[idx]
	}
	return NewSparseVector(weights).Normalized()
}

// parallel runs fn for every ordinal in [0, n) on at most v.workers
// goroutines, stopping early once ctx is done.
func (v *Vectorizer) parallel(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// smoothIDF is ln((1+n)/(1+df)) + 1, strictly positive and decreasing in df.
func smoothIDF(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

func countTerms(text string) map[string]int {
	fields := strings.Fields(text)
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f]++
	}
	return counts
}
