package store

import (
	"sort"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/tree"
)

// The helpers below implement scope queries over records already in memory.
// The memory and diskv backends share them; sqlite pushes the same logic
// into SQL.

func ownedBy[T model.Node](items []T, owner string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.NodeOwner() == owner {
			out = append(out, it)
		}
	}
	return out
}

func rankedIn[T model.Node](items []T, s order.Scope) []T {
	out := make([]T, 0)
	for _, it := range items {
		if model.Ranked(it, s) {
			out = append(out, it)
		}
	}
	axis := s.Axis()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position(axis) < out[j].Position(axis)
	})
	return out
}

func maxIn[T model.Node](items []T, s order.Scope) int {
	max := 0
	axis := s.Axis()
	for _, it := range items {
		if model.Ranked(it, s) && it.Position(axis) > max {
			max = it.Position(axis)
		}
	}
	return max
}

// shiftIn applies shift to items in place and returns the ones that moved.
func shiftIn[T model.Node](items []T, shift order.Shift) []T {
	var moved []T
	axis := shift.Scope.Axis()
	for _, it := range items {
		if !model.Ranked(it, shift.Scope) || !shift.Matches(it.Position(axis)) {
			continue
		}
		it.SetPosition(axis, shift.Apply(it.Position(axis)))
		moved = append(moved, it)
	}
	return moved
}

// subtreeIDs returns id and every id below it among items.
func subtreeIDs[T model.Node](items []T, id string) []string {
	idx := tree.New(items)
	sub := idx.Subtree(id)
	ids := make([]string, 0, len(sub))
	for _, n := range sub {
		ids = append(ids, n.NodeID())
	}
	return ids
}
