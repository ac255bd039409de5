package order

import (
	"errors"
	"testing"
)

type item struct {
	name    string
	primary int
	daily   int
}

func (i *item) Position(a Axis) int {
	if a == AxisDaily {
		return i.daily
	}
	return i.primary
}

func (i *item) SetPosition(a Axis, v int) {
	if a == AxisDaily {
		i.daily = v
		return
	}
	i.primary = v
}

func applyPlacement(orders []int, p Placement) []int {
	out := make([]int, 0, len(orders)+1)
	for _, o := range orders {
		if p.Shift != nil {
			o = p.Shift.Apply(o)
		}
		out = append(out, o)
	}
	return append(out, p.Order)
}

func TestPlacements(t *testing.T) {
	s := Project("u1", "p1")
	tests := map[string]struct {
		placement Placement
		existing  []int
		want      []int
	}{
		"after first": {
			placement: After(s, 1),
			existing:  []int{1, 2, 3},
			want:      []int{1, 3, 4, 2},
		},
		"after last": {
			placement: After(s, 3),
			existing:  []int{1, 2, 3},
			want:      []int{1, 2, 3, 4},
		},
		"before second": {
			placement: Before(s, 2),
			existing:  []int{1, 2, 3},
			want:      []int{1, 3, 4, 2},
		},
		"first": {
			placement: First(s),
			existing:  []int{1, 2},
			want:      []int{2, 3, 1},
		},
		"first of empty": {
			placement: First(s),
			want:      []int{1},
		},
		"append": {
			placement: Append(3),
			existing:  []int{1, 2, 3},
			want:      []int{1, 2, 3, 4},
		},
		"append negative max": {
			placement: Append(-1),
			want:      []int{1},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := applyPlacement(tc.existing, tc.placement)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
			if err := Check(got); err != nil {
				t.Fatalf("result not dense: %v", err)
			}
		})
	}
}

func TestRemoveClosesGap(t *testing.T) {
	s := Root("u1")
	shift := Remove(s, 2)
	if shift == nil {
		t.Fatal("expected a shift")
	}
	orders := []int{1, 3, 4}
	for i, o := range orders {
		orders[i] = shift.Apply(o)
	}
	if err := Check(orders); err != nil {
		t.Fatalf("not dense after remove: %v (%v)", err, orders)
	}
	if Remove(s, 0) != nil {
		t.Fatal("unpositioned node should not shift siblings")
	}
}

func TestShiftMatches(t *testing.T) {
	strict := Shift{Threshold: 2}
	if strict.Matches(2) || !strict.Matches(3) {
		t.Fatalf("strict shift matched wrong values")
	}
	inclusive := Shift{Threshold: 2, Inclusive: true}
	if !inclusive.Matches(2) || inclusive.Matches(1) {
		t.Fatalf("inclusive shift matched wrong values")
	}
}

func TestRenumber(t *testing.T) {
	items := []*item{
		{name: "c", daily: 9},
		{name: "a", daily: 2},
		{name: "b", daily: 5},
	}
	Renumber(AxisDaily, items)
	want := []string{"a", "b", "c"}
	for i, it := range items {
		if it.name != want[i] || it.daily != i+1 {
			t.Fatalf("position %d: got %s/%d", i, it.name, it.daily)
		}
		if it.primary != 0 {
			t.Fatalf("primary axis touched for %s", it.name)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check(nil); err != nil {
		t.Fatalf("empty scope: %v", err)
	}
	if err := Check([]int{2, 1, 3}); err != nil {
		t.Fatalf("dense scope: %v", err)
	}
	if err := Check([]int{1, 1, 2}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := Check([]int{1, 2, 4}); !errors.Is(err, ErrGap) {
		t.Fatalf("expected gap, got %v", err)
	}
}

func TestScopeKeyRoundTrip(t *testing.T) {
	scopes := []Scope{
		Root("u1"),
		Inbox("u1"),
		Parent("u1", "abc"),
		Project("u1", "p-1"),
		Day("u1", "2026-10-16"),
	}
	for _, s := range scopes {
		got, err := ParseKey(s.Owner, s.Key())
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if got != s {
			t.Fatalf("got %+v, want %+v", got, s)
		}
	}
	if _, err := ParseKey("u1", "parent"); err == nil {
		t.Fatal("expected error for parent scope without id")
	}
	if _, err := ParseKey("u1", "bogus:1"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if Day("u1", "2026-10-16").Axis() != AxisDaily || Inbox("u1").Axis() != AxisPrimary {
		t.Fatal("wrong axis")
	}
}
