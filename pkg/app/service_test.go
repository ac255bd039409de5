package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

const owner = "u1"

var clock = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, recs ...any) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemory()
	n := 0
	svc := &Service{
		Store:    st,
		Location: time.UTC,
		Now:      func() time.Time { return clock },
		NewID: func() string {
			n++
			return fmt.Sprintf("n%d", n)
		},
	}
	seed(t, st, recs...)
	return svc, st
}

func seed(t *testing.T, st store.Store, recs ...any) {
	t.Helper()
	ctx := context.Background()
	err := st.Atomically(ctx, owner, func(r store.Repository) error {
		for _, rec := range recs {
			var err error
			switch v := rec.(type) {
			case *model.Project:
				_, err = r.Projects().Save(ctx, v)
			case *model.Task:
				_, err = r.Tasks().Save(ctx, v)
			case *model.Habit:
				_, err = r.Habits().Save(ctx, v)
			case *model.Label:
				_, err = r.Labels().Save(ctx, v)
			case *model.Filter:
				_, err = r.Filters().Save(ctx, v)
			default:
				return fmt.Errorf("cannot seed %T", rec)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func proj(id, parent string, ord int) *model.Project {
	return &model.Project{Meta: model.Meta{ID: id, OwnerID: owner, Order: ord}, ParentID: parent, Name: id}
}

func tsk(id, project, parent string, ord int) *model.Task {
	return &model.Task{Meta: model.Meta{ID: id, OwnerID: owner, Order: ord}, ProjectID: project, ParentID: parent, Title: id}
}

func getProject(t *testing.T, st store.Store, id string) *model.Project {
	t.Helper()
	var out *model.Project
	err := st.Atomically(context.Background(), owner, func(r store.Repository) error {
		var err error
		out, err = r.Projects().FindByID(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("get project %s: %v", id, err)
	}
	return out
}

func getTask(t *testing.T, st store.Store, id string) *model.Task {
	t.Helper()
	var out *model.Task
	err := st.Atomically(context.Background(), owner, func(r store.Repository) error {
		var err error
		out, err = r.Tasks().FindByID(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("get task %s: %v", id, err)
	}
	return out
}

func getHabit(t *testing.T, st store.Store, id string) *model.Habit {
	t.Helper()
	var out *model.Habit
	err := st.Atomically(context.Background(), owner, func(r store.Repository) error {
		var err error
		out, err = r.Habits().FindByID(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("get habit %s: %v", id, err)
	}
	return out
}

// ids renders the members of a scope as "id=order" pairs.
func ids[T model.Node](items []T, axis order.Axis) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", it.NodeID(), it.Position(axis))
	}
	return out
}

func assertDense(t *testing.T, svc *Service) {
	t.Helper()
	violations, err := svc.Verify(context.Background(), owner)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, v := range violations {
		t.Errorf("violation: %s", v)
	}
	if len(violations) > 0 {
		t.FailNow()
	}
}

func TestErrorKinds(t *testing.T) {
	foreign := &model.Project{Meta: model.Meta{ID: "x", OwnerID: "u2", Order: 1}}
	foreignTask := &model.Task{Meta: model.Meta{ID: "xt", OwnerID: "u2", Order: 1}}
	archived := proj("arch", "", 0)
	archived.Archived = true
	svc, _ := newService(t, proj("p1", "", 1), proj("p2", "", 2), archived, foreign, foreignTask, tsk("t1", "p1", "", 1))
	ctx := context.Background()

	tests := []struct {
		name string
		do   func() error
		want error
	}{{
		name: "missing anchor",
		do: func() error {
			_, err := svc.AddProjectAfter(ctx, owner, ProjectRequest{Name: "a"}, "nope")
			return err
		},
		want: ErrNotFound,
	}, {
		name: "foreign anchor",
		do: func() error {
			_, err := svc.MoveProjectAfter(ctx, owner, "p1", "x")
			return err
		},
		want: ErrNotFound,
	}, {
		name: "foreign parent project",
		do: func() error {
			_, err := svc.MoveProjectAsFirstChild(ctx, owner, "p1", "x")
			return err
		},
		want: ErrWrongOwner,
	}, {
		name: "foreign task project",
		do: func() error {
			_, err := svc.UpdateTaskProject(ctx, owner, "t1", "x")
			return err
		},
		want: ErrWrongOwner,
	}, {
		name: "foreign parent task",
		do: func() error {
			_, err := svc.MoveTaskAsFirstChild(ctx, owner, "t1", "xt")
			return err
		},
		want: ErrWrongOwner,
	}, {
		name: "archived anchor",
		do: func() error {
			_, err := svc.MoveProjectBefore(ctx, owner, "p1", "arch")
			return err
		},
		want: ErrInvalidState,
	}, {
		name: "self anchor",
		do: func() error {
			_, err := svc.MoveProjectAfter(ctx, owner, "p1", "p1")
			return err
		},
		want: ErrInvalidState,
	}, {
		name: "duplicate missing",
		do: func() error {
			_, err := svc.DuplicateTask(ctx, owner, "nope")
			return err
		},
		want: ErrNotFound,
	}, {
		name: "duplicate foreign",
		do: func() error {
			_, err := svc.DuplicateProject(ctx, owner, "x")
			return err
		},
		want: ErrNotFound,
	}, {
		name: "no owner",
		do: func() error {
			_, err := svc.CreateProject(ctx, "", ProjectRequest{Name: "a"}, "")
			return err
		},
		want: ErrInvalidState,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.do()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}
		})
	}
	// Rejected operations leave no trace.
	assertDense(t, svc)
}

func TestServiceWithoutStore(t *testing.T) {
	svc := &Service{}
	if _, err := svc.CreateProject(context.Background(), owner, ProjectRequest{}, ""); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := svc.Watch(context.Background()); err == nil {
		t.Fatal("expected watch error without store")
	}
}

func TestWatchRequiresWatcher(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Watch(context.Background()); err == nil {
		t.Fatal("memory store cannot watch")
	}
}
