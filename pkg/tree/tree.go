// Package tree builds parent/child adjacency over flat node lists and walks
// subtrees breadth first, one level at a time.
package tree

import "iter"

// Node is the minimum a value needs to take part in a tree.
// An empty NodeParent means the node is a root.
type Node interface {
	NodeID() string
	NodeParent() string
}

// Index is a parent→children adjacency built once from a flat list.
type Index[T Node] struct {
	byID     map[string]T
	children map[string][]T
}

// New indexes nodes. Children keep the order they have in nodes.
func New[T Node](nodes []T) *Index[T] {
	idx := &Index[T]{
		byID:     make(map[string]T, len(nodes)),
		children: make(map[string][]T),
	}
	for _, n := range nodes {
		idx.byID[n.NodeID()] = n
	}
	for _, n := range nodes {
		if p := n.NodeParent(); p != "" && p != n.NodeID() {
			idx.children[p] = append(idx.children[p], n)
		}
	}
	return idx
}

// Get returns the node with id.
func (x *Index[T]) Get(id string) (T, bool) {
	n, ok := x.byID[id]
	return n, ok
}

// Len returns the number of indexed nodes.
func (x *Index[T]) Len() int { return len(x.byID) }

// Children returns the direct children of id.
func (x *Index[T]) Children(id string) []T {
	return x.children[id]
}

// Levels yields the subtree rooted at rootID level by level: level 0 is the
// root alone, level 1 its children, and so on. The sequence is empty when
// rootID is not indexed. Each call to the returned function starts a fresh
// walk.
func (x *Index[T]) Levels(rootID string) iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		root, ok := x.byID[rootID]
		if !ok {
			return
		}
		seen := map[string]bool{rootID: true}
		frontier := []T{root}
		for depth := 0; len(frontier) > 0; depth++ {
			if !yield(depth, frontier) {
				return
			}
			var next []T
			for _, n := range frontier {
				for _, c := range x.children[n.NodeID()] {
					if seen[c.NodeID()] {
						continue
					}
					seen[c.NodeID()] = true
					next = append(next, c)
				}
			}
			frontier = next
		}
	}
}

// Subtree returns the root followed by all its descendants in level order.
func (x *Index[T]) Subtree(rootID string) []T {
	var out []T
	for _, level := range x.Levels(rootID) {
		out = append(out, level...)
	}
	return out
}

// Descendants returns every node below rootID in level order, excluding the
// root itself.
func (x *Index[T]) Descendants(rootID string) []T {
	var out []T
	for depth, level := range x.Levels(rootID) {
		if depth == 0 {
			continue
		}
		out = append(out, level...)
	}
	return out
}

// Ancestors walks up from id and returns its parent, grandparent, ... up to
// the root. Parents missing from the index end the walk.
func (x *Index[T]) Ancestors(id string) []T {
	var out []T
	n, ok := x.byID[id]
	if !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	for {
		p := n.NodeParent()
		if p == "" || seen[p] {
			return out
		}
		parent, ok := x.byID[p]
		if !ok {
			return out
		}
		seen[p] = true
		out = append(out, parent)
		n = parent
	}
}

// IsDescendant reports whether id lies strictly below ancestorID.
func (x *Index[T]) IsDescendant(id, ancestorID string) bool {
	for _, a := range x.Ancestors(id) {
		if a.NodeID() == ancestorID {
			return true
		}
	}
	return false
}
