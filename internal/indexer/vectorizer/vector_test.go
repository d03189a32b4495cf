package vectorizer

import (
	"math"
	"testing"
)

func TestNewSparseVectorSortsAndDropsZeros(t *testing.T) {
	v := NewSparseVector(map[int]float64{7: 0.5, 2: 1.5, 4: 0})
	if v.Len() != 2 {
		t.Fatalf("Len = %d, want 2", v.Len())
	}
	if v[0].Index != 2 || v[1].Index != 7 {
		t.Errorf("entries not sorted: %v", v)
	}
	if got := v.Indices(); len(got) != 2 || got[0] != 2 || got[1] != 7 {
		t.Errorf("Indices = %v", got)
	}
}

func TestSparseVectorWeight(t *testing.T) {
	v := NewSparseVector(map[int]float64{1: 0.25, 5: 0.75})
	if v.Weight(5) != 0.75 {
		t.Errorf("Weight(5) = %f", v.Weight(5))
	}
	if v.Weight(3) != 0 {
		t.Errorf("Weight(3) = %f, want 0", v.Weight(3))
	}
	if v.Weight(100) != 0 {
		t.Errorf("Weight(100) = %f, want 0", v.Weight(100))
	}
}

func TestSparseVectorDot(t *testing.T) {
	a := NewSparseVector(map[int]float64{0: 1, 2: 2, 4: 3})
	b := NewSparseVector(map[int]float64{2: 4, 3: 5})
	if got := a.Dot(b); got != 8 {
		t.Errorf("a·b = %f, want 8", got)
	}
	if a.Dot(b) != b.Dot(a) {
		t.Error("dot product should be symmetric")
	}
	if got := a.Dot(nil); got != 0 {
		t.Errorf("a·0 = %f, want 0", got)
	}
}

func TestSparseVectorNormalized(t *testing.T) {
	v := NewSparseVector(map[int]float64{0: 3, 1: 4})
	n := v.Normalized()
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Errorf("norm = %f, want 1", n.Norm())
	}
	if math.Abs(n.Weight(0)-0.6) > 1e-12 || math.Abs(n.Weight(1)-0.8) > 1e-12 {
		t.Errorf("normalized = %v", n)
	}
	if v.Weight(0) != 3 {
		t.Error("Normalized must not modify the receiver")
	}
	var zero SparseVector
	if zero.Normalized().Len() != 0 {
		t.Error("zero vector should stay empty")
	}
}
