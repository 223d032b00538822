// Package interval provides an augmented interval tree for efficient
// range-overlap queries over closed intervals with ordered endpoints.
//
// The tree is backed by a red-black tree where each node stores the maximum
// right endpoint (maxHigh) in its subtree, enabling subtree pruning during
// overlap queries. Exact lookups and insertions run in O(log N); overlap
// queries run in O(log N + k), where k is the number of reported intervals.
//
// Neither Tree nor Set is safe for concurrent use.
package interval

import (
	"cmp"
	"fmt"
)

// Interval is an immutable closed range [from, to] with from <= to.
// The zero value is the absent interval: it is rejected by every tree
// operation and by Overlaps and Compare.
type Interval[K cmp.Ordered] struct {
	from  K
	to    K
	valid bool
}

// NewInterval creates the interval [from, to]. It fails with
// ErrInvalidArgument when from > to or when either endpoint is NaN.
func NewInterval[K cmp.Ordered](from, to K) (Interval[K], error) {
	if isNaN(from) || isNaN(to) {
		return Interval[K]{}, fmt.Errorf("%w: endpoints must not be NaN, from: %v, to: %v", ErrInvalidArgument, from, to)
	}

	if from > to {
		return Interval[K]{}, fmt.Errorf("%w: from cannot be greater than to, from: %v, to: %v",
			ErrInvalidArgument, from, to)
	}

	return Interval[K]{from: from, to: to, valid: true}, nil
}

// MustInterval is like NewInterval but panics on error.
func MustInterval[K cmp.Ordered](from, to K) Interval[K] {
	iv, err := NewInterval(from, to)
	if err != nil {
		panic(err)
	}

	return iv
}

// From returns the lower endpoint.
func (iv Interval[K]) From() K {
	return iv.from
}

// To returns the upper endpoint.
func (iv Interval[K]) To() K {
	return iv.to
}

// IsValid reports whether iv was built by NewInterval.
func (iv Interval[K]) IsValid() bool {
	return iv.valid
}

// Overlaps reports whether iv and other share at least one point.
// Touching endpoints count as overlapping.
func (iv Interval[K]) Overlaps(other Interval[K]) (bool, error) {
	if !iv.valid || !other.valid {
		return false, fmt.Errorf("%w: other must not be absent", ErrInvalidArgument)
	}

	return iv.overlaps(other), nil
}

// Compare orders intervals by from, then by to.
// It returns -1, 0 or +1.
func (iv Interval[K]) Compare(other Interval[K]) (int, error) {
	if !iv.valid || !other.valid {
		return 0, fmt.Errorf("%w: other must not be absent", ErrInvalidArgument)
	}

	return iv.compare(other), nil
}

// Contains reports whether point lies within iv.
func (iv Interval[K]) Contains(point K) bool {
	return iv.valid && iv.from <= point && point <= iv.to
}

// String renders iv as "[from: a, to: b]".
func (iv Interval[K]) String() string {
	if !iv.valid {
		return "[absent]"
	}

	return fmt.Sprintf("[from: %v, to: %v]", iv.from, iv.to)
}

func (iv Interval[K]) overlaps(other Interval[K]) bool {
	return iv.from <= other.to && other.from <= iv.to
}

func (iv Interval[K]) compare(other Interval[K]) int {
	if c := cmp.Compare(iv.from, other.from); c != 0 {
		return c
	}

	return cmp.Compare(iv.to, other.to)
}

// isNaN reports whether x is a floating-point NaN.
func isNaN[K cmp.Ordered](x K) bool {
	return x != x
}
