package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

// UpdateDue sets or clears the task's due time. A task that lands on a
// different calendar day is appended to that day; a change within the same
// day keeps its daily position.
func (s *Service) UpdateDue(ctx context.Context, owner, taskID string, due *time.Time) (*model.Task, error) {
	const op = "update due"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		t, err := load(ctx, c, op, owner, taskID)
		if err != nil {
			return err
		}
		if t.Archived {
			return invalid(op, taskID, "task is archived")
		}
		if err := s.reschedule(ctx, c, t, due); err != nil {
			return storageErr(op, err)
		}
		t.Touch(s.now())
		out, err = c.Save(ctx, t)
		return storageErr(op, err)
	})
	return out, err
}

// reschedule moves t between day scopes. t must still be stored with its old
// due day.
func (s *Service) reschedule(ctx context.Context, c store.Collection[*model.Task], t *model.Task, due *time.Time) error {
	newDay := ""
	if due != nil {
		newDay = model.DayKey(*due, s.loc())
	}
	if newDay == t.DueDay {
		t.SetDue(due, s.loc())
		return nil
	}
	if g, ok := dayGap(t); ok {
		if err := closeGaps(ctx, c, []gap{g}); err != nil {
			return err
		}
	}
	t.SetDue(due, s.loc())
	t.DailyOrder = 0
	if day, ok := t.DayScope(); ok {
		return appendTo(ctx, c, t, day)
	}
	return nil
}

// MoveTaskAfterInDay moves movedID directly after anchorID in the daily
// view. A task due on another day, or not due at all, is rescheduled onto
// the anchor's day, keeping its time of day.
func (s *Service) MoveTaskAfterInDay(ctx context.Context, owner, movedID, anchorID string) (*model.Task, error) {
	return s.moveInDay(ctx, owner, "move task after in day", movedID, anchorID, order.After)
}

// MoveTaskBeforeInDay moves movedID to anchorID's position in the daily view.
func (s *Service) MoveTaskBeforeInDay(ctx context.Context, owner, movedID, anchorID string) (*model.Task, error) {
	return s.moveInDay(ctx, owner, "move task before in day", movedID, anchorID, order.Before)
}

func (s *Service) moveInDay(ctx context.Context, owner, op, movedID, anchorID string, plan func(order.Scope, int) order.Placement) (*model.Task, error) {
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		moved, anchor, err := taskPair(ctx, c, op, owner, movedID, anchorID)
		if err != nil {
			return err
		}
		if anchor.DueDay == "" || anchor.Due == nil {
			return invalid(op, anchorID, "anchor is not in the daily view")
		}
		if g, ok := dayGap(moved); ok {
			if err := closeGaps(ctx, c, []gap{g}); err != nil {
				return storageErr(op, err)
			}
		}
		anchor, err = c.FindByID(ctx, anchorID)
		if err != nil {
			return storageErr(op, err)
		}
		if moved.DueDay != anchor.DueDay {
			due := onDay(*anchor.Due, moved.Due, s.loc())
			moved.SetDue(&due, s.loc())
		}
		day, _ := anchor.DayScope()
		if err := place(ctx, c, moved, day, plan(day, anchor.DailyOrder)); err != nil {
			return storageErr(op, err)
		}
		moved.Touch(s.now())
		out, err = c.Save(ctx, moved)
		return storageErr(op, err)
	})
	return out, err
}

// onDay returns day's calendar date combined with clock's time of day in
// loc. A nil clock keeps day as is.
func onDay(day time.Time, clock *time.Time, loc *time.Location) time.Time {
	if clock == nil {
		return day
	}
	d := day.In(loc)
	c := clock.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), c.Nanosecond(), loc)
}

// RescheduleOverdue finds every incomplete active task due before today.
// With a date each is appended to that day, keeping the original relative
// order and its time of day; without one the due date is cleared and the
// task leaves the daily view.
func (s *Service) RescheduleOverdue(ctx context.Context, owner string, date *time.Time) ([]*model.Task, error) {
	const op = "reschedule overdue"
	var out []*model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		all, err := c.FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		today := model.DayKey(s.now(), s.loc())
		var overdue []*model.Task
		var gaps []gap
		for _, t := range all {
			if t.Archived || t.Completed || t.DueDay == "" || t.DueDay >= today {
				continue
			}
			overdue = append(overdue, t)
			if g, ok := dayGap(t); ok {
				gaps = append(gaps, g)
			}
		}
		if len(overdue) == 0 {
			return nil
		}
		sort.SliceStable(overdue, func(i, j int) bool {
			a, b := overdue[i], overdue[j]
			if a.DueDay != b.DueDay {
				return a.DueDay < b.DueDay
			}
			if a.DailyOrder != b.DailyOrder {
				return a.DailyOrder < b.DailyOrder
			}
			return a.Order < b.Order
		})

		now := s.now()
		clocks := make([]*time.Time, len(overdue))
		for i, t := range overdue {
			clocks[i] = t.Due
			t.SetDue(nil, s.loc())
			t.Touch(now)
		}
		// Cleared tasks leave their old days before the gaps close.
		if _, err := c.SaveAll(ctx, overdue); err != nil {
			return storageErr(op, err)
		}
		if err := closeGaps(ctx, c, gaps); err != nil {
			return storageErr(op, err)
		}
		if date != nil {
			days := newAppender(c)
			for i, t := range overdue {
				due := onDay(*date, clocks[i], s.loc())
				t.SetDue(&due, s.loc())
				day, _ := t.DayScope()
				if err := days.place(ctx, t, day); err != nil {
					return storageErr(op, err)
				}
			}
			if _, err := c.SaveAll(ctx, overdue); err != nil {
				return storageErr(op, err)
			}
		}
		out = overdue
		return nil
	})
	return out, err
}

// ListDay returns the active tasks due on day in daily order.
func (s *Service) ListDay(ctx context.Context, owner string, day time.Time) ([]*model.Task, error) {
	return s.ListTasks(ctx, order.Day(owner, model.DayKey(day, s.loc())))
}
