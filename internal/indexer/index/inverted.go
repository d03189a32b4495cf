// Package index derives an inverted index from fitted document vectors.
// Each vocabulary index maps to a roaring bitmap of the document ordinals
// whose vector carries a non-zero weight for it. The index stores no
// weights; it only generates candidates.
package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/vectorizer"
	"github.com/RoaringBitmap/roaring"
)

// InvertedIndex maps vocabulary indices to posting lists. It is immutable
// once built and safe for concurrent readers.
type InvertedIndex struct {
	postings []*roaring.Bitmap
	docCount int
}

// Stats summarises an index.
type Stats struct {
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	Postings  uint64 `json:"postings"`
}

// Build creates the index from vectors, where vectors[i] belongs to the
// document with ordinal i and every index lies in [0, vocabSize).
func Build(vectors []vectorizer.SparseVector, vocabSize int) (*InvertedIndex, error) {
	idx := &InvertedIndex{
		postings: make([]*roaring.Bitmap, vocabSize),
		docCount: len(vectors),
	}
	for ordinal, vec := range vectors {
		for _, e := range vec {
			if e.Weight == 0 {
				continue
			}
			if e.Index < 0 || e.Index >= vocabSize {
				return nil, fmt.Errorf("document %d: term index %d outside vocabulary of %d", ordinal, e.Index, vocabSize)
			}
			bm := idx.postings[e.Index]
			if bm == nil {
				bm = roaring.NewBitmap()
				idx.postings[e.Index] = bm
			}
			bm.Add(uint32(ordinal))
		}
	}
	for _, bm := range idx.postings {
		if bm != nil {
			bm.RunOptimize()
		}
	}
	return idx, nil
}

// Postings returns the ordinals listed under term in ascending order.
func (idx *InvertedIndex) Postings(term int) []int {
	bm := idx.bitmap(term)
	if bm == nil {
		return nil
	}
	return toInts(bm.ToArray())
}

// Contains reports whether ordinal is listed under term.
func (idx *InvertedIndex) Contains(term, ordinal int) bool {
	bm := idx.bitmap(term)
	return bm != nil && ordinal >= 0 && bm.Contains(uint32(ordinal))
}

// DocFreq returns the length of term's posting list.
func (idx *InvertedIndex) DocFreq(term int) int {
	bm := idx.bitmap(term)
	if bm == nil {
		return 0
	}
	return int(bm.GetCardinality())
}

// Candidates returns the union of the posting lists of terms, in ascending
// ordinal order. A document needs only one matching term to qualify.
func (idx *InvertedIndex) Candidates(terms []int) []int {
	lists := make([]*roaring.Bitmap, 0, len(terms))
	for _, t := range terms {
		if bm := idx.bitmap(t); bm != nil {
			lists = append(lists, bm)
		}
	}
	switch len(lists) {
	case 0:
		return nil
	case 1:
		return toInts(lists[0].ToArray())
	}
	return toInts(roaring.FastOr(lists...).ToArray())
}

// Stats reports the number of documents, non-empty posting lists and total
// postings.
func (idx *InvertedIndex) Stats() Stats {
	s := Stats{Documents: idx.docCount}
	for _, bm := range idx.postings {
		if bm == nil {
			continue
		}
		s.Terms++
		s.Postings += bm.GetCardinality()
	}
	return s
}

func (idx *InvertedIndex) bitmap(term int) *roaring.Bitmap {
	if term < 0 || term >= len(idx.postings) {
		return nil
	}
	return idx.postings[term]
}

func toInts(values []uint32) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
