package app

import (
	"context"
	"errors"
	"testing"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

func TestLabels(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	labels := svc.Labels()

	var made []string
	for _, name := range []string{"home", "work", "errand"} {
		l, err := labels.Create(ctx, owner, &model.Label{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		made = append(made, l.ID)
	}
	home, work, errand := made[0], made[1], made[2]
	list := func() string {
		t.Helper()
		out, err := labels.List(ctx, order.Root(owner))
		if err != nil {
			t.Fatal(err)
		}
		return ids(out, order.AxisPrimary)
	}
	if got := list(); got != home+"=1 "+work+"=2 "+errand+"=3" {
		t.Fatalf("created: %s", got)
	}

	if _, err := labels.MoveBefore(ctx, owner, errand, home); err != nil {
		t.Fatal(err)
	}
	if got := list(); got != errand+"=1 "+home+"=2 "+work+"=3" {
		t.Fatalf("move before: %s", got)
	}
	if _, err := labels.MoveAfter(ctx, owner, errand, work); err != nil {
		t.Fatal(err)
	}
	if _, err := labels.MoveAsFirst(ctx, owner, work); err != nil {
		t.Fatal(err)
	}
	if got := list(); got != work+"=1 "+home+"=2 "+errand+"=3" {
		t.Fatalf("move as first: %s", got)
	}

	if _, err := labels.SetArchived(ctx, owner, work, true); err != nil {
		t.Fatal(err)
	}
	if got := list(); got != home+"=1 "+errand+"=2" {
		t.Fatalf("archive: %s", got)
	}
	if _, err := labels.MoveAfter(ctx, owner, home, work); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("archived anchor: %v", err)
	}
	if _, err := labels.SetArchived(ctx, owner, work, false); err != nil {
		t.Fatal(err)
	}
	if got := list(); got != home+"=1 "+errand+"=2 "+work+"=3" {
		t.Fatalf("restore: %s", got)
	}

	renamed, err := labels.Update(ctx, owner, home, func(l *model.Label) { l.Name = "house" })
	if err != nil || renamed.Name != "house" {
		t.Fatalf("update: %+v %v", renamed, err)
	}

	if err := labels.Delete(ctx, owner, home); err != nil {
		t.Fatal(err)
	}
	if got := list(); got != errand+"=1 "+work+"=2" {
		t.Fatalf("delete: %s", got)
	}
	assertDense(t, svc)
}

func TestFiltersKeepQueryOpaque(t *testing.T) {
	svc, _ := newService(t)
	f, err := svc.Filters().Create(context.Background(), owner, &model.Filter{Name: "today", Query: "(today | overdue) & #work"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Query != "(today | overdue) & #work" || f.Order != 1 {
		t.Fatalf("filter = %+v", f)
	}
}

func TestHabits(t *testing.T) {
	foreign := &model.Project{Meta: model.Meta{ID: "x", OwnerID: "u2", Order: 1}}
	archived := proj("gone", "", 0)
	archived.Archived = true
	svc, _ := newService(t, proj("p", "", 1), proj("q", "", 2), foreign, archived)
	ctx := context.Background()
	habits := svc.Habits()

	if _, err := habits.Create(ctx, owner, &model.Habit{Name: "h", ProjectID: "x"}); !errors.Is(err, ErrWrongOwner) {
		t.Fatalf("foreign project: %v", err)
	}
	if _, err := habits.Create(ctx, owner, &model.Habit{Name: "h", ProjectID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing project: %v", err)
	}
	if _, err := habits.Create(ctx, owner, &model.Habit{Name: "h", ProjectID: "gone"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("archived project: %v", err)
	}

	h1, err := habits.Create(ctx, owner, &model.Habit{Name: "run", ProjectID: "p"})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := habits.Create(ctx, owner, &model.Habit{Name: "read", ProjectID: "p"})
	if err != nil {
		t.Fatal(err)
	}
	h3, err := habits.Create(ctx, owner, &model.Habit{Name: "swim", ProjectID: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if h3.Order != 1 {
		t.Fatalf("habits are ordered per project: %d", h3.Order)
	}

	moved, err := habits.MoveAfter(ctx, owner, h1.ID, h3.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.ProjectID != "q" || moved.Order != 2 {
		t.Fatalf("moved = %+v", moved)
	}
	inP, _ := habits.List(ctx, order.Project(owner, "p"))
	if got := ids(inP, order.AxisPrimary); got != h2.ID+"=1" {
		t.Fatalf("p habits: %s", got)
	}
	if _, err := habits.Update(ctx, owner, h2.ID, func(h *model.Habit) { h.ProjectID = "q" }); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("update changing scope: %v", err)
	}
	assertDense(t, svc)
}
