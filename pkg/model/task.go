package model

import (
	"time"

	"tableflip.dev/planner/pkg/order"
)

// Task is a node in the task forest. A task belongs to at most one project;
// tasks without a project live in the owner's inbox.
type Task struct {
	Meta
	ParentID    string     `json:"parent,omitempty"`
	ProjectID   string     `json:"project,omitempty"`
	DailyOrder  int        `json:"dailyOrder,omitempty"`
	DueDay      string     `json:"dueDay,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Completed   bool       `json:"completed,omitempty"`
	CompletedAt *Timestamp `json:"completedAt,omitempty"`
	Collapsed   bool       `json:"collapsed,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	AssigneeID  string     `json:"assignee,omitempty"`
}

func (t *Task) NodeParent() string { return t.ParentID }

// Scope is the parent task's scope if nested, else the project's, else the
// inbox.
func (t *Task) Scope() order.Scope {
	switch {
	case t.ParentID != "":
		return order.Parent(t.OwnerID, t.ParentID)
	case t.ProjectID != "":
		return order.Project(t.OwnerID, t.ProjectID)
	default:
		return order.Inbox(t.OwnerID)
	}
}

// DayScope returns the daily-view scope of the task's due day.
func (t *Task) DayScope() (order.Scope, bool) {
	if t.DueDay == "" {
		return order.Scope{}, false
	}
	return order.Day(t.OwnerID, t.DueDay), true
}

func (t *Task) Position(a order.Axis) int {
	if a == order.AxisDaily {
		return t.DailyOrder
	}
	return t.Order
}

func (t *Task) SetPosition(a order.Axis, v int) {
	if a == order.AxisDaily {
		t.DailyOrder = v
		return
	}
	t.Order = v
}

// SetDue sets the due time and recomputes the due day in loc. A nil due
// removes the task from the daily view.
func (t *Task) SetDue(due *time.Time, loc *time.Location) {
	if due == nil {
		t.Due = nil
		t.DueDay = ""
		t.DailyOrder = 0
		return
	}
	d := *due
	t.Due = &d
	t.DueDay = DayKey(d, loc)
}

// SetCompleted flips the completion flag, stamping or clearing CompletedAt.
func (t *Task) SetCompleted(done bool, at time.Time) {
	t.Completed = done
	if done {
		t.CompletedAt = &Timestamp{Time: at}
	} else {
		t.CompletedAt = nil
	}
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	if t.Due != nil {
		d := *t.Due
		c.Due = &d
	}
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		c.CompletedAt = &ca
	}
	c.Labels = append([]string(nil), t.Labels...)
	return &c
}
