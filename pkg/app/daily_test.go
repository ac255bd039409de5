package app

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

func at(day, hour int) *time.Time {
	v := time.Date(2026, 10, day, hour, 0, 0, 0, time.UTC)
	return &v
}

func TestDailyAxis(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	var created []*model.Task
	for _, title := range []string{"a", "b", "c"} {
		tk, err := svc.CreateTask(ctx, owner, TaskRequest{Title: title, Due: at(16, 9)}, "", "")
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, tk)
	}
	a, b, c := created[0].ID, created[1].ID, created[2].ID
	if got := getTask(t, st, c).DailyOrder; got != 3 {
		t.Fatalf("c daily = %d, want 3", got)
	}

	// Same calendar day keeps the daily position.
	if _, err := svc.UpdateDue(ctx, owner, a, at(16, 18)); err != nil {
		t.Fatal(err)
	}
	if got := getTask(t, st, a); got.DailyOrder != 1 || got.Due.Hour() != 18 {
		t.Fatalf("same day reschedule = %+v", got)
	}

	// A new day appends and closes the old day's gap.
	moved, err := svc.UpdateDue(ctx, owner, a, at(17, 9))
	if err != nil {
		t.Fatal(err)
	}
	if moved.DueDay != "2026-10-17" || moved.DailyOrder != 1 {
		t.Fatalf("next day = %+v", moved)
	}
	today, err := svc.ListDay(ctx, owner, clock)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(today, order.AxisDaily); got != b+"=1 "+c+"=2" {
		t.Fatalf("today: %s", got)
	}

	// Moving next to a task on another day adopts that day, keeping the
	// time of day.
	moved, err = svc.MoveTaskBeforeInDay(ctx, owner, a, c)
	if err != nil {
		t.Fatal(err)
	}
	if moved.DueDay != "2026-10-16" || moved.Due.Hour() != 9 || moved.DailyOrder != 2 {
		t.Fatalf("move into day = %+v", moved)
	}
	today, _ = svc.ListDay(ctx, owner, clock)
	if got := ids(today, order.AxisDaily); got != b+"=1 "+a+"=2 "+c+"=3" {
		t.Fatalf("today after move: %s", got)
	}

	if _, err := svc.MoveTaskAfterInDay(ctx, owner, b, c); err != nil {
		t.Fatal(err)
	}
	today, _ = svc.ListDay(ctx, owner, clock)
	if got := ids(today, order.AxisDaily); got != a+"=1 "+c+"=2 "+b+"=3" {
		t.Fatalf("today after second move: %s", got)
	}

	// Clearing the due date leaves the daily view.
	if _, err := svc.UpdateDue(ctx, owner, c, nil); err != nil {
		t.Fatal(err)
	}
	if got := getTask(t, st, c); got.DueDay != "" || got.DailyOrder != 0 {
		t.Fatalf("cleared = %+v", got)
	}
	assertDense(t, svc)
}

func TestMoveInDayNeedsDueAnchor(t *testing.T) {
	svc, _ := newService(t, tsk("a", "", "", 1), tsk("b", "", "", 2))
	if _, err := svc.MoveTaskAfterInDay(context.Background(), owner, "a", "b"); err == nil {
		t.Fatal("expected error for undated anchor")
	}
}

func TestRescheduleOverdue(t *testing.T) {
	for _, name := range []string{"to date", "clear"} {
		t.Run(name, func(t *testing.T) {
			svc, st := newService(t)
			ctx := context.Background()
			mk := func(title string, due *time.Time) string {
				tk, err := svc.CreateTask(ctx, owner, TaskRequest{Title: title, Due: due}, "", "")
				if err != nil {
					t.Fatal(err)
				}
				return tk.ID
			}
			o1 := mk("o1", at(14, 9))
			done := mk("done", at(14, 10))
			o2 := mk("o2", at(15, 8))
			o0 := mk("o0", at(14, 7))
			current := mk("current", at(16, 9))
			if _, err := svc.CompleteTask(ctx, owner, done, true); err != nil {
				t.Fatal(err)
			}

			var date *time.Time
			if name == "to date" {
				date = at(20, 0)
			}
			out, err := svc.RescheduleOverdue(ctx, owner, date)
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != 3 {
				t.Fatalf("rescheduled %d tasks, want 3", len(out))
			}

			if got := getTask(t, st, done); got.DueDay != "2026-10-14" || got.DailyOrder != 1 {
				t.Fatalf("completed task moved: %+v", got)
			}
			if got := getTask(t, st, current); got.DueDay != "2026-10-16" || got.DailyOrder != 1 {
				t.Fatalf("current task moved: %+v", got)
			}
			if date == nil {
				for _, id := range []string{o1, o2, o0} {
					if got := getTask(t, st, id); got.Due != nil || got.DueDay != "" || got.DailyOrder != 0 {
						t.Fatalf("%s not cleared: %+v", id, got)
					}
				}
			} else {
				day, _ := svc.ListDay(ctx, owner, *date)
				if got := ids(day, order.AxisDaily); got != o1+"=1 "+o0+"=2 "+o2+"=3" {
					t.Fatalf("new day: %s", got)
				}
				if got := getTask(t, st, o2); got.Due.Hour() != 8 {
					t.Fatalf("time of day lost: %v", got.Due)
				}
			}
			assertDense(t, svc)
		})
	}
}
