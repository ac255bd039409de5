package app

import (
	"context"
	"errors"
	"testing"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

func TestMoveProjectAfter(t *testing.T) {
	svc, st := newService(t, proj("p1", "", 1), proj("p2", "", 2), proj("p3", "", 3))
	ctx := context.Background()

	moved, err := svc.MoveProjectAfter(ctx, owner, "p3", "p1")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Order != 2 {
		t.Fatalf("moved order = %d, want 2", moved.Order)
	}
	want := map[string]int{"p1": 1, "p3": 2, "p2": 3}
	for id, ord := range want {
		if got := getProject(t, st, id).Order; got != ord {
			t.Errorf("%s order = %d, want %d", id, got, ord)
		}
	}
	assertDense(t, svc)
}

func TestMoveProjectKeepsDescendants(t *testing.T) {
	svc, st := newService(t,
		proj("a", "", 1), proj("b", "", 2),
		proj("a1", "a", 1), proj("a2", "a", 2), proj("a11", "a1", 1),
	)
	ctx := context.Background()

	if _, err := svc.MoveProjectAsFirstChild(ctx, owner, "a1", "b"); err != nil {
		t.Fatalf("move: %v", err)
	}
	a1 := getProject(t, st, "a1")
	if a1.ParentID != "b" || a1.Order != 1 {
		t.Fatalf("a1 = parent %q order %d", a1.ParentID, a1.Order)
	}
	if got := getProject(t, st, "a11").ParentID; got != "a1" {
		t.Fatalf("descendant parent changed to %q", got)
	}
	if got := getProject(t, st, "a2").Order; got != 1 {
		t.Fatalf("gap not closed: a2 order = %d", got)
	}

	if _, err := svc.MoveProjectAsFirst(ctx, owner, "a11"); err != nil {
		t.Fatalf("move as first: %v", err)
	}
	if got := getProject(t, st, "a").Order; got != 2 {
		t.Fatalf("a order = %d, want 2", got)
	}
	assertDense(t, svc)
}

func TestMoveProjectIntoOwnSubtree(t *testing.T) {
	svc, _ := newService(t, proj("a", "", 1), proj("b", "a", 1), proj("c", "b", 1))
	ctx := context.Background()

	if _, err := svc.MoveProjectAsFirstChild(ctx, owner, "a", "c"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("as first child: expected invalid state, got %v", err)
	}
	if _, err := svc.MoveProjectAfter(ctx, owner, "a", "c"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("after: expected invalid state, got %v", err)
	}
	if _, err := svc.MoveProjectAsFirstChild(ctx, owner, "a", "a"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("self: expected invalid state, got %v", err)
	}
	assertDense(t, svc)
}

func TestAddProject(t *testing.T) {
	svc, st := newService(t, proj("p1", "", 1), proj("p2", "", 2), proj("c1", "p2", 1))
	ctx := context.Background()

	before, err := svc.AddProjectBefore(ctx, owner, ProjectRequest{Name: "before"}, "p2")
	if err != nil {
		t.Fatalf("add before: %v", err)
	}
	if before.Order != 2 || before.ParentID != "" {
		t.Fatalf("before = order %d parent %q", before.Order, before.ParentID)
	}
	after, err := svc.AddProjectAfter(ctx, owner, ProjectRequest{Name: "after"}, "c1")
	if err != nil {
		t.Fatalf("add after: %v", err)
	}
	if after.Order != 2 || after.ParentID != "p2" {
		t.Fatalf("after = order %d parent %q", after.Order, after.ParentID)
	}
	created, err := svc.CreateProject(ctx, owner, ProjectRequest{Name: "last"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Order != 4 {
		t.Fatalf("created order = %d, want 4", created.Order)
	}
	if got := getProject(t, st, "p2").Order; got != 3 {
		t.Fatalf("p2 order = %d, want 3", got)
	}

	roots, err := svc.ListProjects(ctx, owner, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(roots, order.AxisPrimary); got != "p1=1 "+before.ID+"=2 p2=3 "+created.ID+"=4" {
		t.Fatalf("roots: %s", got)
	}
	assertDense(t, svc)
}

func TestProjectCollaborators(t *testing.T) {
	svc, _ := newService(t, proj("p1", "", 1))
	ctx := context.Background()

	p, err := svc.AddCollaborator(ctx, owner, "p1", "u2", model.RoleViewer)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !p.Collaborative || !p.HasCollaborator("u2") {
		t.Fatalf("expected collaborative project: %+v", p)
	}
	if _, err := svc.AddCollaborator(ctx, owner, "p1", owner, model.RoleEditor); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("owner as collaborator: %v", err)
	}
	p, err = svc.RemoveCollaborator(ctx, owner, "p1", "u2")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if p.Collaborative {
		t.Fatal("project still collaborative")
	}
	if _, err := svc.RemoveCollaborator(ctx, owner, "p1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove twice: %v", err)
	}
}

func TestUpdateProject(t *testing.T) {
	svc, _ := newService(t, proj("p1", "", 1))
	name, fav := "renamed", true
	p, err := svc.UpdateProject(context.Background(), owner, "p1", ProjectPatch{Name: &name, Favorite: &fav})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != name || !p.Favorite || p.Order != 1 {
		t.Fatalf("update: %+v", p)
	}
	if !p.Updated.Equal(clock) {
		t.Fatalf("updated = %v", p.Updated)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	h := &model.Habit{Meta: model.Meta{ID: "h1", OwnerID: owner, Order: 1}, ProjectID: "b"}
	svc, st := newService(t,
		proj("a", "", 1), proj("b", "", 2), proj("c", "", 3), proj("b1", "b", 1),
		tsk("t1", "b", "", 1), tsk("t2", "b", "t1", 1), tsk("t3", "b1", "", 1), tsk("keep", "a", "", 1),
		h,
	)
	ctx := context.Background()

	if err := svc.DeleteProject(ctx, owner, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := st.Atomically(ctx, owner, func(r store.Repository) error {
		for _, id := range []string{"b", "b1"} {
			if _, err := r.Projects().FindByID(ctx, id); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("project %s survived: %v", id, err)
			}
		}
		for _, id := range []string{"t1", "t2", "t3"} {
			if _, err := r.Tasks().FindByID(ctx, id); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("task %s survived: %v", id, err)
			}
		}
		if _, err := r.Habits().FindByID(ctx, "h1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("habit survived: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := getProject(t, st, "c").Order; got != 2 {
		t.Fatalf("c order = %d, want 2", got)
	}
	getTask(t, st, "keep")
	assertDense(t, svc)
}

func TestProjectTree(t *testing.T) {
	archived := proj("z", "", 0)
	archived.Archived = true
	svc, _ := newService(t, proj("b", "", 2), proj("a", "", 1), proj("a2", "a", 2), proj("a1", "a", 1), archived)
	out, err := svc.ProjectTree(context.Background(), owner)
	if err != nil {
		t.Fatal(err)
	}
	got := ""
	for _, o := range out {
		got += o.Node.ID + ":" + string(rune('0'+o.Depth)) + " "
	}
	if got != "a:0 a1:1 a2:1 b:0 " {
		t.Fatalf("outline = %q", got)
	}
}
