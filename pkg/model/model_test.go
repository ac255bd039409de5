package model

import (
	"encoding/json"
	"testing"
	"time"

	"tableflip.dev/planner/pkg/order"
)

func TestTaskScopes(t *testing.T) {
	tests := map[string]struct {
		task *Task
		want order.Scope
	}{
		"inbox": {
			task: &Task{Meta: Meta{OwnerID: "u1"}},
			want: order.Inbox("u1"),
		},
		"project": {
			task: &Task{Meta: Meta{OwnerID: "u1"}, ProjectID: "p1"},
			want: order.Project("u1", "p1"),
		},
		"parent wins over project": {
			task: &Task{Meta: Meta{OwnerID: "u1"}, ProjectID: "p1", ParentID: "t1"},
			want: order.Parent("u1", "t1"),
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.task.Scope(); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if !InScope(tc.task, tc.want) {
				t.Fatalf("task not in its own scope")
			}
		})
	}
}

func TestTaskDailyAxis(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	task := &Task{Meta: Meta{OwnerID: "u1", Order: 4}}
	if _, ok := task.DayScope(); ok {
		t.Fatal("task without due should not have a day scope")
	}

	// 23:30 UTC is already the next day two hours east.
	due := time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)
	task.SetDue(&due, loc)
	if task.DueDay != "2026-10-17" {
		t.Fatalf("due day = %q", task.DueDay)
	}
	day := order.Day("u1", "2026-10-17")
	if !InScope(task, day) {
		t.Fatal("task should be in its day scope")
	}
	task.SetPosition(order.AxisDaily, 3)
	if task.Position(order.AxisDaily) != 3 || task.Position(order.AxisPrimary) != 4 {
		t.Fatalf("axes mixed up: %+v", task)
	}

	task.SetDue(nil, loc)
	if InScope(task, day) || task.DailyOrder != 0 {
		t.Fatal("clearing due should leave the daily view")
	}
}

func TestInScopeChecksOwner(t *testing.T) {
	l := &Label{Meta: Meta{OwnerID: "u1"}}
	if InScope(l, order.Root("u2")) {
		t.Fatal("label should not be in another owner's scope")
	}
	if InScope(l, order.Day("u1", "2026-10-16")) {
		t.Fatal("labels have no daily axis")
	}
	l.Archived = true
	if Ranked(l, order.Root("u1")) {
		t.Fatal("archived nodes are not ranked")
	}
}

func TestCollaborators(t *testing.T) {
	p := &Project{}
	now := time.Now()
	p.AddCollaborator("u2", "", now)
	p.AddCollaborator("u2", RoleViewer, now)
	if !p.Collaborative || len(p.Collaborators) != 1 || p.Collaborators[0].Role != RoleViewer {
		t.Fatalf("unexpected collaborators: %+v", p.Collaborators)
	}
	if !p.RemoveCollaborator("u2") || p.Collaborative {
		t.Fatal("removing last collaborator should clear the flag")
	}
	if p.RemoveCollaborator("u3") {
		t.Fatal("removed unknown collaborator")
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Now()
	orig := &Task{Labels: []string{"a"}, Due: &due}
	c := orig.Clone()
	c.Labels[0] = "b"
	*c.Due = due.Add(time.Hour)
	if orig.Labels[0] != "a" || !orig.Due.Equal(due) {
		t.Fatal("clone shares memory with original")
	}
}

func TestTimestampJSON(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	b, err := json.Marshal(&Label{Meta: Meta{ID: "l1", Updated: Timestamp{Time: now}}, Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var got Label
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Updated.Equal(now) || got.ID != "l1" {
		t.Fatalf("got %+v from %s", got, b)
	}

	var zero Timestamp
	if err := zero.UnmarshalJSON([]byte(`""`)); err != nil || !zero.IsZero() {
		t.Fatalf("empty timestamp: %v", err)
	}
	if !(Timestamp{Time: now}).SameDay(now.Add(time.Hour), time.UTC) {
		t.Fatal("expected same day")
	}
}
