package order

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrGap       = errors.New("order: gap in scope")
	ErrDuplicate = errors.New("order: duplicate order in scope")
)

// Shift describes one conditional bulk update over a scope:
//
//	order = order + Delta where scope matches and order > Threshold
//
// or order >= Threshold when Inclusive is set.
type Shift struct {
	Scope     Scope
	Threshold int
	Inclusive bool
	Delta     int
}

// Matches reports whether a sibling at position o is moved by the shift.
func (s Shift) Matches(o int) bool {
	if s.Inclusive {
		return o >= s.Threshold
	}
	return o > s.Threshold
}

// Apply returns the new position for o.
func (s Shift) Apply(o int) int {
	if s.Matches(o) {
		return o + s.Delta
	}
	return o
}

func (s Shift) String() string {
	op := ">"
	if s.Inclusive {
		op = ">="
	}
	return fmt.Sprintf("%s: order %s %d %+d", s.Scope, op, s.Threshold, s.Delta)
}

// Placement is the outcome of planning an insert: the order the inserted
// node takes and the shift, if any, that must be applied to its siblings
// first.
type Placement struct {
	Order int
	Shift *Shift
}

// After places a node directly after the anchor at anchorOrder.
func After(s Scope, anchorOrder int) Placement {
	return Placement{
		Order: anchorOrder + 1,
		Shift: &Shift{Scope: s, Threshold: anchorOrder, Delta: 1},
	}
}

// Before places a node at the anchor's position, pushing the anchor down.
func Before(s Scope, anchorOrder int) Placement {
	return Placement{
		Order: anchorOrder,
		Shift: &Shift{Scope: s, Threshold: anchorOrder, Inclusive: true, Delta: 1},
	}
}

// First places a node at the head of the scope.
func First(s Scope) Placement {
	return Placement{
		Order: 1,
		Shift: &Shift{Scope: s, Threshold: 1, Inclusive: true, Delta: 1},
	}
}

// Append places a node after the current maximum. No siblings move.
func Append(max int) Placement {
	if max < 0 {
		max = 0
	}
	return Placement{Order: max + 1}
}

// Remove returns the shift that closes the gap left by a node leaving
// position o of the scope. A node without a position (o <= 0) leaves no gap.
func Remove(s Scope, o int) *Shift {
	if o <= 0 {
		return nil
	}
	return &Shift{Scope: s, Threshold: o, Delta: -1}
}

// Positioned is anything that can be renumbered in place.
type Positioned interface {
	Position(Axis) int
	SetPosition(Axis, int)
}

// Renumber sorts items by their current position on axis and assigns
// 1..N, keeping the relative order. Ties keep their input order.
func Renumber[T Positioned](axis Axis, items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position(axis) < items[j].Position(axis)
	})
	for i, it := range items {
		it.SetPosition(axis, i+1)
	}
}

// Check verifies that orders is a permutation of 1..N.
func Check(orders []int) error {
	seen := make(map[int]bool, len(orders))
	for _, o := range orders {
		if seen[o] {
			return fmt.Errorf("%w: %d", ErrDuplicate, o)
		}
		seen[o] = true
	}
	for i := 1; i <= len(orders); i++ {
		if !seen[i] {
			return fmt.Errorf("%w: missing %d of %d", ErrGap, i, len(orders))
		}
	}
	return nil
}
