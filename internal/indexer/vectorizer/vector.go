package vectorizer

import (
	"math"
	"sort"
)

// Entry is one non-zero dimension of a SparseVector.
type Entry struct {
	Index  int     `json:"i"`
	Weight float64 `json:"w"`
}

// SparseVector holds the non-zero weights of a vector, sorted by ascending
// vocabulary index. Zero weights are never stored.
type SparseVector []Entry

// NewSparseVector builds a sorted vector from an index→weight map,
// dropping zero weights.
func NewSparseVector(weights map[int]float64) SparseVector {
	if len(weights) == 0 {
		return nil
	}
	v := make(SparseVector, 0, len(weights))
	for idx, w := range weights {
		if w == 0 {
			continue
		}
		v = append(v, Entry{Index: idx, Weight: w})
	}
	sort.Slice(v, func(i, j int) bool {
		return v[i].Index < v[j].Index
	})
	return v
}

// Len returns the number of non-zero dimensions.
func (v SparseVector) Len() int { return len(v) }

// Indices returns the non-zero dimensions in ascending order.
func (v SparseVector) Indices() []int {
	out := make([]int, len(v))
	for i, e := range v {
		out[i] = e.Index
	}
	return out
}

// Weight returns the weight stored at idx, or 0.
func (v SparseVector) Weight(idx int) float64 {
	i := sort.Search(len(v), func(i int) bool { return v[i].Index >= idx })
	if i < len(v) && v[i].Index == idx {
		return v[i].Weight
	}
	return 0
}

// Norm returns the L2 norm.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.Weight * e.Weight
	}
	return math.Sqrt(sum)
}

// Normalized returns v scaled to unit length. A zero vector is returned
// unchanged.
func (v SparseVector) Normalized() SparseVector {
	norm := v.Norm()
	if norm == 0 {
		return v
	}
	out := make(SparseVector, len(v))
	for i, e := range v {
		out[i] = Entry{Index: e.Index, Weight: e.Weight / norm}
	}
	return out
}

// Dot returns the dot product, walking the shorter vector and looking each
// index up in the longer one. Summation follows ascending index order so
// the result is reproducible.
func (v SparseVector) Dot(other SparseVector) float64 {
	short, long := v, other
	if len(long) < len(short) {
		short, long = long, short
	}
	var dot float64
	for _, e := range short {
		if w := long.Weight(e.Index); w != 0 {
			dot += e.Weight * w
		}
	}
	return dot
}
