package interval

import (
	"cmp"
	"fmt"
	"iter"
)

// Pair is a read-only view of a stored interval and its value.
type Pair[K cmp.Ordered, V any] struct {
	interval Interval[K]
	value    V
}

// Interval returns the stored key.
func (p Pair[K, V]) Interval() Interval[K] {
	return p.interval
}

// Value returns the value associated with the key.
func (p Pair[K, V]) Value() V {
	return p.value
}

// Tree is an augmented interval tree mapping distinct intervals to values.
type Tree[K cmp.Ordered, V any] struct {
	root *node[K, V]
	size int
}

// node is an internal red-black tree node augmented with maxHigh.
type node[K cmp.Ordered, V any] struct {
	key         Interval[K]
	value       V
	maxHigh     K
	left, right *node[K, V]
	parent      *node[K, V]
	color       color
}

// color represents the red-black tree node color.
type color bool

// Red-black tree color constants.
const (
	red   color = false
	black color = true
)

// New creates an empty interval tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

// Len returns the number of intervals in the tree.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Clear removes all intervals from the tree.
func (t *Tree[K, V]) Clear() {
	t.root = nil
	t.size = 0
}

// Put associates value with key. It returns true when key was not present
// before; an existing key keeps its node and only the value is replaced.
func (t *Tree[K, V]) Put(key Interval[K], value V) (bool, error) {
	if !key.valid {
		return false, fmt.Errorf("%w: key must not be absent", ErrInvalidArgument)
	}

	if existing := t.lookup(key); existing != nil {
		existing.value = value

		return false, nil
	}

	n := &node[K, V]{
		key:     key,
		value:   value,
		maxHigh: key.to,
		color:   red,
	}

	t.bstInsert(n)
	t.insertFixup(n)
	t.size++

	return true, nil
}

// Find returns the pair stored under exactly key.
func (t *Tree[K, V]) Find(key Interval[K]) (Pair[K, V], bool, error) {
	if !key.valid {
		return Pair[K, V]{}, false, fmt.Errorf("%w: key must not be absent", ErrInvalidArgument)
	}

	n := t.lookup(key)
	if n == nil {
		return Pair[K, V]{}, false, nil
	}

	return n.pair(), true, nil
}

// FindAnyOverlap returns the first stored interval overlapping query in
// descent order. It is not necessarily the smallest overlapping interval.
func (t *Tree[K, V]) FindAnyOverlap(query Interval[K]) (Pair[K, V], bool, error) {
	if !query.valid {
		return Pair[K, V]{}, false, fmt.Errorf("%w: query must not be absent", ErrInvalidArgument)
	}

	n := findAny(t.root, query)
	if n == nil {
		return Pair[K, V]{}, false, nil
	}

	return n.pair(), true, nil
}

// FindAllOverlaps returns every stored interval overlapping query, in
// ascending key order. The result is empty, never nil, when nothing overlaps.
func (t *Tree[K, V]) FindAllOverlaps(query Interval[K]) ([]Pair[K, V], error) {
	if !query.valid {
		return nil, fmt.Errorf("%w: query must not be absent", ErrInvalidArgument)
	}

	results := make([]Pair[K, V], 0)

	collectOverlap(t.root, query, &results)

	return results, nil
}

// QueryPoint returns all intervals containing the given point.
// Equivalent to FindAllOverlaps([point, point]).
func (t *Tree[K, V]) QueryPoint(point K) []Pair[K, V] {
	if isNaN(point) {
		return []Pair[K, V]{}
	}

	results := make([]Pair[K, V], 0)

	collectOverlap(t.root, Interval[K]{from: point, to: point, valid: true}, &results)

	return results
}

// Delete removes key from the tree. It returns false when key was not present.
func (t *Tree[K, V]) Delete(key Interval[K]) (bool, error) {
	if !key.valid {
		return false, fmt.Errorf("%w: key must not be absent", ErrInvalidArgument)
	}

	n := t.lookup(key)
	if n == nil {
		return false, nil
	}

	t.deleteNode(n)
	t.size--

	return true, nil
}

// All returns an in-order sequence of the stored pairs. Each call starts
// a fresh traversal from the root. Mutating the tree while iterating
// invalidates the sequence.
func (t *Tree[K, V]) All() iter.Seq[Pair[K, V]] {
	return func(yield func(Pair[K, V]) bool) {
		walk(t.root, yield)
	}
}

// Min returns the pair with the smallest key.
func (t *Tree[K, V]) Min() (Pair[K, V], bool) {
	if t.root == nil {
		return Pair[K, V]{}, false
	}

	return minimum(t.root).pair(), true
}

// Max returns the pair with the largest key.
func (t *Tree[K, V]) Max() (Pair[K, V], bool) {
	if t.root == nil {
		return Pair[K, V]{}, false
	}

	return maximum(t.root).pair(), true
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[K, V]) Height() int {
	return height(t.root)
}

func (n *node[K, V]) pair() Pair[K, V] {
	return Pair[K, V]{interval: n.key, value: n.value}
}

// lookup finds the node holding exactly key.
func (t *Tree[K, V]) lookup(key Interval[K]) *node[K, V] {
	current := t.root

	for current != nil {
		switch c := key.compare(current.key); {
		case c < 0:
			current = current.left
		case c > 0:
			current = current.right
		default:
			return current
		}
	}

	return nil
}

// bstInsert performs standard BST insertion by from (then to for ties).
// The key must not already be present.
func (t *Tree[K, V]) bstInsert(n *node[K, V]) {
	if t.root == nil {
		t.root = n

		return
	}

	current := t.root

	for {
		updateMaxHigh(current, n.key.to)

		if n.key.compare(current.key) < 0 {
			if current.left == nil {
				current.left = n
				n.parent = current

				return
			}

			current = current.left
		} else {
			if current.right == nil {
				current.right = n
				n.parent = current

				return
			}

			current = current.right
		}
	}
}

// findAny visits a node before its children and stops at the first overlap.
func findAny[K cmp.Ordered, V any](n *node[K, V], query Interval[K]) *node[K, V] {
	for n != nil {
		if n.key.overlaps(query) {
			return n
		}

		if n.left != nil && n.left.maxHigh >= query.from {
			if found := findAny(n.left, query); found != nil {
				return found
			}
		}

		// Everything to the right starts at or after n.key.from.
		if n.key.from > query.to {
			return nil
		}

		n = n.right
	}

	return nil
}

// collectOverlap recursively collects intervals overlapping query in order.
func collectOverlap[K cmp.Ordered, V any](n *node[K, V], query Interval[K], results *[]Pair[K, V]) {
	if n == nil {
		return
	}

	// Prune: if maxHigh in this subtree is less than query from, no overlap possible.
	if n.maxHigh < query.from {
		return
	}

	collectOverlap(n.left, query, results)

	if n.key.overlaps(query) {
		*results = append(*results, n.pair())
	}

	// Prune right: if node's from > query to, no right child can overlap.
	if n.key.from > query.to {
		return
	}

	collectOverlap(n.right, query, results)
}

func walk[K cmp.Ordered, V any](n *node[K, V], yield func(Pair[K, V]) bool) bool {
	if n == nil {
		return true
	}

	return walk(n.left, yield) && yield(n.pair()) && walk(n.right, yield)
}

func height[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}

	return 1 + max(height(n.left), height(n.right))
}

// minimum returns the leftmost node in the subtree rooted at n.
func minimum[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	for n.left != nil {
		n = n.left
	}

	return n
}

// maximum returns the rightmost node in the subtree rooted at n.
func maximum[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	for n.right != nil {
		n = n.right
	}

	return n
}
