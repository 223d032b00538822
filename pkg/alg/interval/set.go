package interval

import (
	"cmp"
	"fmt"
	"iter"
)

// emptyValue is stored for every key of a Set.
const emptyValue = ""

// Set is a key-only view over a Tree.
type Set[K cmp.Ordered] struct {
	tree *Tree[K, string]
}

// NewSet creates an empty interval set.
func NewSet[K cmp.Ordered]() *Set[K] {
	return &Set[K]{tree: New[K, string]()}
}

// Put adds iv and reports whether it was absent.
func (s *Set[K]) Put(iv Interval[K]) (bool, error) {
	return s.tree.Put(iv, emptyValue)
}

// PutAll adds every interval of ivs. A nil slice is rejected. Elements are
// validated before the first insertion, so a failed call leaves s unchanged.
func (s *Set[K]) PutAll(ivs []Interval[K]) error {
	if ivs == nil {
		return fmt.Errorf("%w: intervals must not be null", ErrInvalidArgument)
	}

	for i, iv := range ivs {
		if !iv.valid {
			return fmt.Errorf("%w: interval %d is absent", ErrInvalidArgument, i)
		}
	}

	for _, iv := range ivs {
		_, _ = s.tree.Put(iv, emptyValue)
	}

	return nil
}

// Contains reports whether exactly iv is stored. Overlapping intervals do not count.
func (s *Set[K]) Contains(iv Interval[K]) (bool, error) {
	_, ok, err := s.tree.Find(iv)

	return ok, err
}

// FindAnyOverlap returns one stored interval overlapping iv.
func (s *Set[K]) FindAnyOverlap(iv Interval[K]) (Interval[K], bool, error) {
	p, ok, err := s.tree.FindAnyOverlap(iv)

	return p.interval, ok, err
}

// FindAllOverlaps returns every stored interval overlapping iv.
func (s *Set[K]) FindAllOverlaps(iv Interval[K]) ([]Interval[K], error) {
	pairs, err := s.tree.FindAllOverlaps(iv)
	if err != nil {
		return nil, err
	}

	out := make([]Interval[K], len(pairs))
	for i, p := range pairs {
		out[i] = p.interval
	}

	return out, nil
}

// Len returns the number of stored intervals.
func (s *Set[K]) Len() int {
	return s.tree.Len()
}

// All returns the stored intervals in ascending order.
func (s *Set[K]) All() iter.Seq[Interval[K]] {
	return func(yield func(Interval[K]) bool) {
		for p := range s.tree.All() {
			if !yield(p.interval) {
				return
			}
		}
	}
}
