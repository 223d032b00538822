package interval

import (
	"cmp"
	"fmt"
)

// Check verifies the structural invariants of the tree: key order, parent
// links, the maxHigh augmentation, red-black coloring and the size counter.
// It walks the whole tree and is meant for tests and diagnostics.
func (t *Tree[K, V]) Check() error {
	if t.root == nil {
		if t.size != 0 {
			return fmt.Errorf("%w: empty tree reports size %d", ErrCorrupted, t.size)
		}

		return nil
	}

	if t.root.parent != nil {
		return fmt.Errorf("%w: root %v has a parent", ErrCorrupted, t.root.key)
	}

	if t.root.color != black {
		return fmt.Errorf("%w: root %v is red", ErrCorrupted, t.root.key)
	}

	count := 0

	_, err := checkNode(t.root, nil, nil, &count)
	if err != nil {
		return err
	}

	if count != t.size {
		return fmt.Errorf("%w: counted %d nodes, size is %d", ErrCorrupted, count, t.size)
	}

	return nil
}

// checkNode validates the subtree at n against the exclusive key bounds
// lo and hi and returns its black height.
func checkNode[K cmp.Ordered, V any](n, lo, hi *node[K, V], count *int) (int, error) {
	if n == nil {
		return 1, nil
	}

	*count++

	if !n.key.valid || n.key.from > n.key.to {
		return 0, fmt.Errorf("%w: malformed key %v", ErrCorrupted, n.key)
	}

	if lo != nil && n.key.compare(lo.key) <= 0 {
		return 0, fmt.Errorf("%w: key %v not after %v", ErrCorrupted, n.key, lo.key)
	}

	if hi != nil && n.key.compare(hi.key) >= 0 {
		return 0, fmt.Errorf("%w: key %v not before %v", ErrCorrupted, n.key, hi.key)
	}

	for _, child := range []*node[K, V]{n.left, n.right} {
		if child == nil {
			continue
		}

		if child.parent != n {
			return 0, fmt.Errorf("%w: broken parent link at %v", ErrCorrupted, child.key)
		}

		if n.color == red && child.color == red {
			return 0, fmt.Errorf("%w: red node %v has red child %v", ErrCorrupted, n.key, child.key)
		}
	}

	want := n.key.to
	if n.left != nil {
		want = max(want, n.left.maxHigh)
	}

	if n.right != nil {
		want = max(want, n.right.maxHigh)
	}

	if n.maxHigh != want {
		return 0, fmt.Errorf("%w: node %v has maxHigh %v, want %v", ErrCorrupted, n.key, n.maxHigh, want)
	}

	leftBlack, err := checkNode(n.left, lo, n, count)
	if err != nil {
		return 0, err
	}

	rightBlack, err := checkNode(n.right, n, hi, count)
	if err != nil {
		return 0, err
	}

	if leftBlack != rightBlack {
		return 0, fmt.Errorf("%w: black height mismatch at %v (%d vs %d)", ErrCorrupted, n.key, leftBlack, rightBlack)
	}

	if n.color == black {
		leftBlack++
	}

	return leftBlack, nil
}
