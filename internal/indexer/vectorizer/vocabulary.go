package vectorizer

import "sort"

// Vocabulary binds each distinct fitted term to a unique index. Terms are
// ordered lexicographically, so the same corpus always yields the same
// indices. A Vocabulary is never modified after construction.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from a set of terms.
func NewVocabulary(terms []string) *Vocabulary {
	sorted := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	index := make(map[string]int, len(sorted))
	for i, t := range sorted {
		index[t] = i
	}
	return &Vocabulary{terms: sorted, index: index}
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Index returns the index bound to term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at index i. It panics if i is out of range.
func (v *Vocabulary) Term(i int) string { return v.terms[i] }

// Terms returns a copy of every term in index order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}
