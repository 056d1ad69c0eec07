// Package interval implements an augmented AVL tree of half-open [Start, End)
// intervals. Every node caches the largest End of its subtree so containment
// and overlap queries prune whole subtrees and run in O(log n + k).
package interval

import "iter"

type Entry[V any] struct {
	Start, End uint64
	Value      V
}

type node[V any] struct {
	Entry[V]
	max         uint64
	height      int
	left, right *node[V]
}

// Tree is not safe for concurrent use.
type Tree[V any] struct {
	root *node[V]
	size int
}

func (t *Tree[V]) Len() int {
	return t.size
}

// Insert stores value under [start, end). An interval with the same bounds is
// replaced and reported.
func (t *Tree[V]) Insert(start, end uint64, value V) bool {
	var replaced bool
	t.root, replaced = t.insert(t.root, Entry[V]{start, end, value})
	if !replaced {
		t.size++
	}
	return replaced
}

func (t *Tree[V]) Get(start, end uint64) (V, bool) {
	n := t.root
	for n != nil {
		switch c := compare(start, end, n.Start, n.End); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.Value, true
		}
	}
	var zero V
	return zero, false
}

func (t *Tree[V]) Delete(start, end uint64) bool {
	var deleted bool
	t.root, deleted = remove(t.root, start, end)
	if deleted {
		t.size--
	}
	return deleted
}

func (t *Tree[V]) Clear() {
	t.root = nil
	t.size = 0
}

// Overlapping yields, in ascending order, every interval that shares at least
// one point with [start, end).
func (t *Tree[V]) Overlapping(start, end uint64) iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		if start < end {
			overlapping(t.root, start, end, yield)
		}
	}
}

// Containing yields, in ascending order, every interval that contains point.
func (t *Tree[V]) Containing(point uint64) iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		containing(t.root, point, yield)
	}
}

// Overlaps reports whether any interval shares a point with [start, end).
func (t *Tree[V]) Overlaps(start, end uint64) bool {
	for range t.Overlapping(start, end) {
		return true
	}
	return false
}

// All yields every interval in ascending (Start, End) order.
func (t *Tree[V]) All() iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		walk(t.root, yield)
	}
}

func overlapping[V any](n *node[V], start, end uint64, yield func(Entry[V]) bool) bool {
	if n == nil || n.max <= start {
		return true
	}
	if !overlapping(n.left, start, end, yield) {
		return false
	}
	if n.Start >= end {
		return true
	}
	if start < n.End && !yield(n.Entry) {
		return false
	}
	return overlapping(n.right, start, end, yield)
}

func containing[V any](n *node[V], point uint64, yield func(Entry[V]) bool) bool {
	if n == nil || n.max <= point {
		return true
	}
	if !containing(n.left, point, yield) {
		return false
	}
	if n.Start > point {
		return true
	}
	if point < n.End && !yield(n.Entry) {
		return false
	}
	return containing(n.right, point, yield)
}

func walk[V any](n *node[V], yield func(Entry[V]) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, yield) && yield(n.Entry) && walk(n.right, yield)
}

func (t *Tree[V]) insert(n *node[V], e Entry[V]) (*node[V], bool) {
	if n == nil {
		return &node[V]{Entry: e, max: e.End, height: 1}, false
	}
	var replaced bool
	switch c := compare(e.Start, e.End, n.Start, n.End); {
	case c < 0:
		n.left, replaced = t.insert(n.left, e)
	case c > 0:
		n.right, replaced = t.insert(n.right, e)
	default:
		n.Value = e.Value
		return n, true
	}
	return balance(n), replaced
}

func remove[V any](n *node[V], start, end uint64) (*node[V], bool) {
	if n == nil {
		return nil, false
	}
	var deleted bool
	switch c := compare(start, end, n.Start, n.End); {
	case c < 0:
		n.left, deleted = remove(n.left, start, end)
	case c > 0:
		n.right, deleted = remove(n.right, start, end)
	default:
		if n.left == nil {
			return n.right, true
		} else if n.right == nil {
			return n.left, true
		}
		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.Entry = succ.Entry
		n.right, _ = remove(n.right, succ.Start, succ.End)
		deleted = true
	}
	return balance(n), deleted
}

func compare(s1, e1, s2, e2 uint64) int {
	switch {
	case s1 < s2:
		return -1
	case s1 > s2:
		return 1
	case e1 < e2:
		return -1
	case e1 > e2:
		return 1
	}
	return 0
}

func height[V any](n *node[V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update[V any](n *node[V]) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.max = n.End
	if n.left != nil {
		n.max = max(n.max, n.left.max)
	}
	if n.right != nil {
		n.max = max(n.max, n.right.max)
	}
}

func rotateLeft[V any](n *node[V]) *node[V] {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func rotateRight[V any](n *node[V]) *node[V] {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func balance[V any](n *node[V]) *node[V] {
	update(n)
	switch bf := height(n.left) - height(n.right); {
	case bf > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}
