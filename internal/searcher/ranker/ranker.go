// Package ranker scores candidate documents by cosine similarity against a
// query vector and selects the best of them.
package ranker

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/vectorizer"
)

// DefaultLimit is the number of results returned when the caller asks for
// none.
const DefaultLimit = 5

// ScoredDoc is one ranked hit. Ordinal is the document's position in the
// fitted corpus.
type ScoredDoc struct {
	Ordinal int     `json:"ordinal"`
	DocID   string  `json:"doc_id"`
	Score   float64 `json:"score"`
}

// Cosine returns dot(a, b) / (|a| |b|), or 0 when either vector is zero.
func Cosine(a, b vectorizer.SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// Rank scores every candidate against query and returns at most limit
// documents ordered by score descending, ties broken by ascending ordinal.
// The bounded heap yields the same prefix a full stable sort would.
func Rank(
	query vectorizer.SparseVector,
	candidates []int,
	vector func(ordinal int) vectorizer.SparseVector,
	docID func(ordinal int) string,
	limit int,
) []ScoredDoc {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(candidates) == 0 {
		return []ScoredDoc{}
	}
	h := make(scoredDocHeap, 0, min(limit, len(candidates))+1)
	for _, ordinal := range candidates {
		doc := ScoredDoc{
			Ordinal: ordinal,
			Score:   Cosine(query, vector(ordinal)),
		}
		if h.Len() < limit {
			heap.Push(&h, doc)
			continue
		}
		if worse(h[0], doc) {
			h[0] = doc
			heap.Fix(&h, 0)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ScoredDoc)
		result[i].DocID = docID(result[i].Ordinal)
	}
	return result
}

// worse reports whether a ranks below b.
func worse(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Ordinal > b.Ordinal
}

// scoredDocHeap is a min-heap on rank: the root is the weakest kept result.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
