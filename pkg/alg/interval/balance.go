package interval

import "cmp"

// insertFixup restores red-black properties after insertion.
func (t *Tree[K, V]) insertFixup(n *node[K, V]) {
	for n != t.root && nodeColor(n.parent) == red {
		parent := n.parent

		grandparent := parent.parent
		if grandparent == nil {
			break
		}

		isLeft := parent == grandparent.left
		n = t.insertFixupCase(n, parent, grandparent, isLeft)
	}

	t.root.color = black
}

// insertFixupCase handles one side of the insert fixup.
// When leftCase is true, parent is grandparent.left; otherwise parent is grandparent.right.
func (t *Tree[K, V]) insertFixupCase(n, parent, grandparent *node[K, V], leftCase bool) *node[K, V] {
	uncle := childOf(grandparent, !leftCase)

	if nodeColor(uncle) == red {
		parent.color = black
		uncle.color = black
		grandparent.color = red

		return grandparent
	}

	// Inner child: rotate it to the outside first.
	if n == childOf(parent, !leftCase) {
		t.rotate(parent, leftCase)
		n, parent = parent, n
	}

	parent.color = black
	grandparent.color = red
	t.rotate(grandparent, !leftCase)

	return n
}

// deleteNode unlinks z and rebalances. When z has two children its in-order
// successor takes its place, so nodes never exchange keys or values.
func (t *Tree[K, V]) deleteNode(z *node[K, V]) {
	var child, childParent *node[K, V]

	removedColor := z.color

	switch {
	case z.left == nil:
		child, childParent = z.right, z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		child, childParent = z.left, z.parent
		t.transplant(z, z.left)
	default:
		succ := minimum(z.right)
		removedColor = succ.color
		child = succ.right

		if succ.parent == z {
			childParent = succ
		} else {
			childParent = succ.parent
			t.transplant(succ, succ.right)
			succ.right = z.right
			succ.right.parent = succ
		}

		t.transplant(z, succ)
		succ.left = z.left
		succ.left.parent = succ
		succ.color = z.color
	}

	t.propagateMaxHigh(childParent)

	z.left, z.right, z.parent = nil, nil, nil

	if removedColor == black {
		t.deleteFixup(child, childParent)
	}
}

// transplant replaces node u with node v in the tree.
func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}

	if v != nil {
		v.parent = u.parent
	}
}

// deleteFixup restores red-black properties after deletion. x carries the
// extra black and may be nil, so its parent is tracked separately.
func (t *Tree[K, V]) deleteFixup(x, parent *node[K, V]) {
	for x != t.root && nodeColor(x) == black && parent != nil {
		isLeft := x == parent.left
		sibling := childOf(parent, !isLeft)

		if nodeColor(sibling) == red {
			sibling.color = black
			parent.color = red
			t.rotate(parent, isLeft)

			sibling = childOf(parent, !isLeft)
		}

		if sibling == nil {
			x, parent = parent, parent.parent

			continue
		}

		if nodeColor(sibling.left) == black && nodeColor(sibling.right) == black {
			sibling.color = red
			x, parent = parent, parent.parent

			continue
		}

		if nodeColor(childOf(sibling, !isLeft)) == black {
			setBlack(childOf(sibling, isLeft))
			sibling.color = red
			t.rotate(sibling, !isLeft)

			sibling = childOf(parent, !isLeft)
		}

		sibling.color = parent.color
		parent.color = black

		setBlack(childOf(sibling, !isLeft))
		t.rotate(parent, isLeft)

		x, parent = t.root, nil
	}

	setBlack(x)
}

// rotate performs a rotation at node n. When left is true, rotates left;
// otherwise rotates right. Maintains maxHigh augmentation.
func (t *Tree[K, V]) rotate(n *node[K, V], left bool) {
	var pivot *node[K, V]

	if left {
		pivot = n.right
		n.right = pivot.left

		if pivot.left != nil {
			pivot.left.parent = n
		}

		pivot.left = n
	} else {
		pivot = n.left
		n.left = pivot.right

		if pivot.right != nil {
			pivot.right.parent = n
		}

		pivot.right = n
	}

	pivot.parent = n.parent

	switch {
	case n.parent == nil:
		t.root = pivot
	case n == n.parent.left:
		n.parent.left = pivot
	default:
		n.parent.right = pivot
	}

	n.parent = pivot

	// Recalculate maxHigh bottom-up: n first, then pivot.
	recalcMaxHigh(n)
	recalcMaxHigh(pivot)
}

// propagateMaxHigh recalculates maxHigh from the given node up to the root.
func (t *Tree[K, V]) propagateMaxHigh(n *node[K, V]) {
	for n != nil {
		recalcMaxHigh(n)
		n = n.parent
	}
}

// nodeColor returns the color of a node, treating nil as black.
func nodeColor[K cmp.Ordered, V any](n *node[K, V]) color {
	if n == nil {
		return black
	}

	return n.color
}

// setBlack sets a node's color to black if it is non-nil.
func setBlack[K cmp.Ordered, V any](n *node[K, V]) {
	if n != nil {
		n.color = black
	}
}

// childOf returns the left or right child of a node.
// When left is true, returns n.left; otherwise n.right.
func childOf[K cmp.Ordered, V any](n *node[K, V], left bool) *node[K, V] {
	if n == nil {
		return nil
	}

	if left {
		return n.left
	}

	return n.right
}

// recalcMaxHigh recalculates a node's maxHigh from its key and children.
func recalcMaxHigh[K cmp.Ordered, V any](n *node[K, V]) {
	if n == nil {
		return
	}

	m := n.key.to

	if n.left != nil && n.left.maxHigh > m {
		m = n.left.maxHigh
	}

	if n.right != nil && n.right.maxHigh > m {
		m = n.right.maxHigh
	}

	n.maxHigh = m
}

// updateMaxHigh updates a node's maxHigh if the given value is larger.
func updateMaxHigh[K cmp.Ordered, V any](n *node[K, V], high K) {
	if high > n.maxHigh {
		n.maxHigh = high
	}
}
