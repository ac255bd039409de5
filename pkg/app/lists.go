package app

import (
	"context"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

// FlatRecord is a record kept in a flat ordered list.
type FlatRecord[T any] interface {
	store.Record[T]
	Init(id, owner string, at time.Time)
}

// FlatList manages one kind of flat, non-nested ordered record. Labels and
// filters share the owner's root scope; habits are ordered per project.
type FlatList[T FlatRecord[T]] struct {
	s    *Service
	kind string
	coll func(store.Repository) store.Collection[T]
	// check validates a record's references before it is written.
	check func(ctx context.Context, r store.Repository, op string, rec T) error
	// adopt moves rec into anchor's scope ahead of a move next to anchor.
	adopt func(rec, anchor T)
}

// Labels returns the label list.
func (s *Service) Labels() *FlatList[*model.Label] {
	return &FlatList[*model.Label]{
		s:    s,
		kind: store.KindLabel,
		coll: func(r store.Repository) store.Collection[*model.Label] { return r.Labels() },
	}
}

// Filters returns the saved filter list.
func (s *Service) Filters() *FlatList[*model.Filter] {
	return &FlatList[*model.Filter]{
		s:    s,
		kind: store.KindFilter,
		coll: func(r store.Repository) store.Collection[*model.Filter] { return r.Filters() },
	}
}

// Habits returns the habit list. A habit's project must belong to the owner
// and be active.
func (s *Service) Habits() *FlatList[*model.Habit] {
	return &FlatList[*model.Habit]{
		s:    s,
		kind: store.KindHabit,
		coll: func(r store.Repository) store.Collection[*model.Habit] { return r.Habits() },
		check: func(ctx context.Context, r store.Repository, op string, h *model.Habit) error {
			return checkProject(ctx, r, op, h.OwnerID, h.ProjectID)
		},
		adopt: func(h, anchor *model.Habit) { h.ProjectID = anchor.ProjectID },
	}
}

func (l *FlatList[T]) op(verb string) string { return verb + " " + l.kind }

func (l *FlatList[T]) validate(ctx context.Context, r store.Repository, op string, rec T) error {
	if l.check == nil {
		return nil
	}
	return l.check(ctx, r, op, rec)
}

// Create stamps rec with a new id and owner and appends it to its scope.
func (l *FlatList[T]) Create(ctx context.Context, owner string, rec T) (T, error) {
	op := l.op("create")
	var out T
	err := l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		rec.Init(l.s.newID(), owner, l.s.now())
		if err := l.validate(ctx, r, op, rec); err != nil {
			return err
		}
		if err := appendTo(ctx, c, rec, rec.Scope()); err != nil {
			return storageErr(op, err)
		}
		var err error
		out, err = c.Save(ctx, rec)
		return storageErr(op, err)
	})
	return out, err
}

// Update loads id, applies fn and saves the result. fn must not change the
// record's scope.
func (l *FlatList[T]) Update(ctx context.Context, owner, id string, fn func(T)) (T, error) {
	op := l.op("update")
	var out T
	err := l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		rec, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		before := rec.Scope()
		fn(rec)
		if rec.Scope() != before {
			return invalid(op, id, "update cannot change the list a record belongs to")
		}
		rec.Touch(l.s.now())
		out, err = c.Save(ctx, rec)
		return storageErr(op, err)
	})
	return out, err
}

// MoveAfter moves movedID directly after anchorID.
func (l *FlatList[T]) MoveAfter(ctx context.Context, owner, movedID, anchorID string) (T, error) {
	return l.moveNextTo(ctx, owner, l.op("move after"), movedID, anchorID, order.After)
}

// MoveBefore moves movedID to anchorID's position.
func (l *FlatList[T]) MoveBefore(ctx context.Context, owner, movedID, anchorID string) (T, error) {
	return l.moveNextTo(ctx, owner, l.op("move before"), movedID, anchorID, order.Before)
}

func (l *FlatList[T]) moveNextTo(ctx context.Context, owner, op, movedID, anchorID string, plan func(order.Scope, int) order.Placement) (T, error) {
	var out T
	err := l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		moved, err := load(ctx, c, op, owner, movedID)
		if err != nil {
			return err
		}
		anchor, err := load(ctx, c, op, owner, anchorID)
		if err != nil {
			return err
		}
		switch {
		case movedID == anchorID:
			return invalid(op, movedID, "record cannot be its own anchor")
		case moved.IsArchived():
			return invalid(op, movedID, "record is archived")
		case anchor.IsArchived():
			return invalid(op, anchorID, "anchor is archived")
		}
		if err := closeGaps(ctx, c, []gap{primaryGap(moved)}); err != nil {
			return storageErr(op, err)
		}
		if anchor, err = c.FindByID(ctx, anchorID); err != nil {
			return storageErr(op, err)
		}
		if l.adopt != nil {
			l.adopt(moved, anchor)
		}
		sc := anchor.Scope()
		if err := place(ctx, c, moved, sc, plan(sc, anchor.Position(order.AxisPrimary))); err != nil {
			return storageErr(op, err)
		}
		moved.Touch(l.s.now())
		out, err = c.Save(ctx, moved)
		return storageErr(op, err)
	})
	return out, err
}

// MoveAsFirst moves movedID to the head of its scope.
func (l *FlatList[T]) MoveAsFirst(ctx context.Context, owner, movedID string) (T, error) {
	op := l.op("move as first")
	var out T
	err := l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		moved, err := load(ctx, c, op, owner, movedID)
		if err != nil {
			return err
		}
		if moved.IsArchived() {
			return invalid(op, movedID, "record is archived")
		}
		if err := closeGaps(ctx, c, []gap{primaryGap(moved)}); err != nil {
			return storageErr(op, err)
		}
		sc := moved.Scope()
		if err := place(ctx, c, moved, sc, order.First(sc)); err != nil {
			return storageErr(op, err)
		}
		moved.Touch(l.s.now())
		out, err = c.Save(ctx, moved)
		return storageErr(op, err)
	})
	return out, err
}

// SetArchived archives or restores id. Archiving closes the gap it leaves;
// restoring appends it to the end of its scope.
func (l *FlatList[T]) SetArchived(ctx context.Context, owner, id string, archived bool) (T, error) {
	op := l.op("archive")
	var out T
	err := l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		rec, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		if rec.IsArchived() == archived {
			out = rec
			return nil
		}
		rec.Touch(l.s.now())
		if archived {
			vacated := primaryGap(rec)
			rec.SetArchived(true)
			if out, err = c.Save(ctx, rec); err != nil {
				return storageErr(op, err)
			}
			return storageErr(op, closeGaps(ctx, c, []gap{vacated}))
		}
		if err := l.validate(ctx, r, op, rec); err != nil {
			return err
		}
		if err := appendTo(ctx, c, rec, rec.Scope()); err != nil {
			return storageErr(op, err)
		}
		rec.SetArchived(false)
		out, err = c.Save(ctx, rec)
		return storageErr(op, err)
	})
	return out, err
}

// Delete hard-deletes id and closes the gap it leaves.
func (l *FlatList[T]) Delete(ctx context.Context, owner, id string) error {
	op := l.op("delete")
	return l.s.run(ctx, owner, op, func(r store.Repository) error {
		c := l.coll(r)
		rec, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		if err := c.DeleteSubtree(ctx, owner, id); err != nil {
			return storageErr(op, err)
		}
		if rec.IsArchived() {
			return nil
		}
		return storageErr(op, closeGaps(ctx, c, []gap{primaryGap(rec)}))
	})
}

// List returns the active members of sc in order.
func (l *FlatList[T]) List(ctx context.Context, sc order.Scope) ([]T, error) {
	op := l.op("list")
	var out []T
	err := l.s.run(ctx, sc.Owner, op, func(r store.Repository) error {
		var err error
		out, err = l.coll(r).FindByScope(ctx, sc)
		return storageErr(op, err)
	})
	return out, err
}
