// Package indexer builds the FittedIndex: the normalizer, the fitted TF-IDF
// vectorizer, one vector per document and the inverted index derived from
// those vectors. Building is a one-shot barrier; the result is read-only.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/vectorizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// Document is one entry of the training corpus. Its ordinal is its
// position in the slice passed to Initialize.
type Document struct {
	ID   string
	Text string
}

// Options configures Initialize.
type Options struct {
	Tokenizer tokenizer.Options
	Stopwords *tokenizer.Stopwords
	Workers   int
}

// Stats describes a fitted index.
type Stats struct {
	Documents      int           `json:"documents"`
	EmptyDocuments int           `json:"empty_documents"`
	VocabularySize int           `json:"vocabulary_size"`
	Postings       uint64        `json:"postings"`
	FitDuration    time.Duration `json:"fit_duration"`
}

// FittedIndex is the immutable result of Initialize. Every method is safe
// for concurrent use.
type FittedIndex struct {
	normalizer *tokenizer.Normalizer
	vectorizer *vectorizer.Vectorizer
	vectors    []vectorizer.SparseVector
	inverted   *index.InvertedIndex
	ids        []string
	ordinals   map[string]int
	stats      Stats
	model      string
}

// Initialize normalizes the corpus, fits the vectorizer and builds the
// inverted index from the fitted vectors, in that order. It either returns
// a complete index or an error; partial state is discarded.
func Initialize(ctx context.Context, corpus []Document, opts Options) (*FittedIndex, error) {
	logger := slog.Default().With("component", "indexer")
	if len(corpus) == 0 {
		return nil, fmt.Errorf("initializing index: %w: no documents", apperrors.ErrEmptyCorpus)
	}

	ids := make([]string, len(corpus))
	ordinals := make(map[string]int, len(corpus))
	for i, doc := range corpus {
		if _, dup := ordinals[doc.ID]; dup {
			return nil, fmt.Errorf("initializing index: %w: duplicate document id %q", apperrors.ErrInvalidInput, doc.ID)
		}
		ids[i] = doc.ID
		ordinals[doc.ID] = i
	}

	stopwords := opts.Stopwords
	if stopwords == nil {
		stopwords = tokenizer.DefaultStopwords()
	}
	normalizer := tokenizer.New(stopwords, opts.Tokenizer)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, root := tracing.Start(ctx, "initialize", "index-fit")
	root.Set("documents", len(corpus), "workers", workers)

	_, span := tracing.Start(ctx, "normalize", "")
	texts, empty, err := normalizeAll(ctx, normalizer, corpus, workers)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("normalizing corpus: %w", err)
	}
	span.Set("empty_documents", empty)

	_, span = tracing.Start(ctx, "fit", "")
	vec := vectorizer.New(vectorizer.Options{Workers: workers})
	vectors, err := vec.Fit(ctx, texts)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("fitting vectorizer: %w", err)
	}
	vocab := vec.Vocabulary()
	span.Set("vocabulary_size", vocab.Len())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building inverted index: %w", err)
	}
	_, span = tracing.Start(ctx, "build_index", "")
	inverted, err := index.Build(vectors, vocab.Len())
	span.End()
	if err != nil {
		return nil, fmt.Errorf("building inverted index: %w", err)
	}
	idxStats := inverted.Stats()
	span.Set("postings", idxStats.Postings)
	root.End()
	root.Log(logger)

	fi := &FittedIndex{
		normalizer: normalizer,
		vectorizer: vec,
		vectors:    vectors,
		inverted:   inverted,
		ids:        ids,
		ordinals:   ordinals,
		stats: Stats{
			Documents:      len(corpus),
			EmptyDocuments: empty,
			VocabularySize: vocab.Len(),
			Postings:       idxStats.Postings,
			FitDuration:    root.Duration,
		},
		model: fingerprint(ids, vocab.Terms(), stopwords, opts.Tokenizer),
	}
	logger.Info("index ready",
		"documents", fi.stats.Documents,
		"vocabulary_size", fi.stats.VocabularySize,
		"postings", fi.stats.Postings,
		"duration_ms", fi.stats.FitDuration.Milliseconds(),
	)
	return fi, nil
}

func normalizeAll(ctx context.Context, n *tokenizer.Normalizer, corpus []Document, workers int) ([]string, int, error) {
	texts := make([]string, len(corpus))
	lengths := make([]int, len(corpus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range corpus {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tokens, joined := n.NormalizeText(corpus[i].Text)
			texts[i] = joined
			lengths[i] = len(tokens)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	empty := 0
	for _, l := range lengths {
		if l == 0 {
			empty++
		}
	}
	return texts, empty, nil
}

// fingerprint hashes everything that decides a query's ranking: document
// ids, the vocabulary and the normalizer configuration.
func fingerprint(ids, terms []string, stopwords *tokenizer.Stopwords, opts tokenizer.Options) string {
	h := sha256.New()
	write := func(parts []string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	write(ids)
	write(terms)
	write(stopwords.Words())
	fmt.Fprintf(h, "stopwords=%t stem=%t", opts.DropStopwords, opts.Stem)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Normalize runs the fitted normalizer over text.
func (fi *FittedIndex) Normalize(text string) []string {
	return fi.normalizer.Normalize(text)
}

// Vectorize normalizes raw text and transforms it with the frozen model,
// returning the surviving tokens alongside the vector.
func (fi *FittedIndex) Vectorize(text string) (vectorizer.SparseVector, []string, error) {
	tokens, joined := fi.normalizer.NormalizeText(text)
	vec, err := fi.vectorizer.Transform(joined)
	if err != nil {
		return nil, tokens, err
	}
	return vec, tokens, nil
}

// Vector returns the fitted vector of the document at ordinal.
func (fi *FittedIndex) Vector(ordinal int) vectorizer.SparseVector {
	if ordinal < 0 || ordinal >= len(fi.vectors) {
		return nil
	}
	return fi.vectors[ordinal]
}

// Candidates returns the ascending ordinals of documents sharing at least
// one of terms.
func (fi *FittedIndex) Candidates(terms []int) []int {
	return fi.inverted.Candidates(terms)
}

// Postings returns the posting list of a vocabulary index.
func (fi *FittedIndex) Postings(term int) []int {
	return fi.inverted.Postings(term)
}

// DocID resolves an ordinal to the caller's document id.
func (fi *FittedIndex) DocID(ordinal int) string {
	if ordinal < 0 || ordinal >= len(fi.ids) {
		return ""
	}
	return fi.ids[ordinal]
}

// Ordinal resolves a document id to its ordinal.
func (fi *FittedIndex) Ordinal(id string) (int, bool) {
	o, ok := fi.ordinals[id]
	return o, ok
}

// Vocabulary returns the fitted vocabulary.
func (fi *FittedIndex) Vocabulary() *vectorizer.Vocabulary {
	return fi.vectorizer.Vocabulary()
}

// Len returns the number of fitted documents.
func (fi *FittedIndex) Len() int { return len(fi.vectors) }

// Fingerprint identifies the fitted model. Two indexes share it only when
// they were fitted from the same documents with the same normalizer.
func (fi *FittedIndex) Fingerprint() string { return fi.model }

// Stats returns a summary of the fitted index.
func (fi *FittedIndex) Stats() Stats { return fi.stats }
