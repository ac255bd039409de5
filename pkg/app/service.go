// Package app is the ordered hierarchical collection engine. It keeps the
// project and task forests and the flat lists densely ordered under insert,
// move, reparent, archive, completion and duplication.
//
// Every exported operation runs inside one store.Store.Atomically call, so it
// sees a consistent snapshot of the owner's records and its writes share one
// transaction boundary.
package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

// Service provides high-level operations for projects, tasks and the flat
// lists. It wraps the storage collaborator so CLIs and servers can share
// logic.
type Service struct {
	Store store.Store
	// Location sets the calendar-day boundary of the daily view. Nil means
	// the server's local zone.
	Location *time.Location
	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
	// Log receives one line per failed operation. Nil discards.
	Log *log.Logger
}

// New returns a Service over st with default clock and ids.
func New(st store.Store) *Service {
	return &Service{Store: st}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

func (s *Service) logger() *log.Logger {
	if s.Log != nil {
		return s.Log
	}
	return log.New(io.Discard, "", 0)
}

// run executes fn inside the owner's transaction boundary.
func (s *Service) run(ctx context.Context, owner, op string, fn func(store.Repository) error) error {
	if s.Store == nil {
		return errors.New("app: no persistence configured")
	}
	if owner == "" {
		return invalid(op, "", "owner required")
	}
	err := s.Store.Atomically(ctx, owner, fn)
	if err != nil {
		s.logger().Printf("%s (owner %s): %v", op, owner, err)
	}
	return err
}

// Watch subscribes to change events when the store can report them.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	if s.Store == nil {
		return nil, errors.New("app: no persistence configured")
	}
	w, ok := s.Store.(store.Watcher)
	if !ok {
		return nil, errors.New("app: store does not report changes")
	}
	return w.Watch(ctx)
}

// load fetches an anchor or target. Records of other owners are reported as
// not found so their existence does not leak.
func load[T model.Node](ctx context.Context, c store.Collection[T], op, owner, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, notFound(op, id)
	}
	rec, err := c.FindByID(ctx, id)
	if err != nil {
		if isMissing(err) {
			return zero, notFound(op, id)
		}
		return zero, storageErr(op, err)
	}
	if rec.NodeOwner() != owner {
		return zero, notFound(op, id)
	}
	return rec, nil
}

// loadRef fetches a record the caller wants to attach to (a new parent, a
// project, a label). Records of other owners are ErrWrongOwner.
func loadRef[T model.Node](ctx context.Context, c store.Collection[T], op, owner, id string) (T, error) {
	var zero T
	rec, err := c.FindByID(ctx, id)
	if err != nil {
		if isMissing(err) {
			return zero, notFound(op, id)
		}
		return zero, storageErr(op, err)
	}
	if rec.NodeOwner() != owner {
		return zero, wrongOwner(op, id)
	}
	return rec, nil
}

// place applies p to rec on s's axis, shifting siblings first.
func place[T model.Node](ctx context.Context, c store.Collection[T], rec T, s order.Scope, p order.Placement) error {
	if p.Shift != nil {
		if err := c.ShiftOrder(ctx, *p.Shift); err != nil {
			return err
		}
	}
	rec.SetPosition(s.Axis(), p.Order)
	return nil
}

// appendTo places rec after the last ranked member of s. rec must not be
// ranked in s yet.
func appendTo[T model.Node](ctx context.Context, c store.Collection[T], rec T, s order.Scope) error {
	max, err := c.MaxOrder(ctx, s)
	if err != nil {
		return err
	}
	return place(ctx, c, rec, s, order.Append(max))
}

// appender hands out consecutive end-of-scope positions for several nodes
// joining the same scopes in one operation.
type appender[T model.Node] struct {
	c    store.Collection[T]
	next map[order.Scope]int
}

func newAppender[T model.Node](c store.Collection[T]) *appender[T] {
	return &appender[T]{c: c, next: make(map[order.Scope]int)}
}

func (a *appender[T]) place(ctx context.Context, rec T, s order.Scope) error {
	n, ok := a.next[s]
	if !ok {
		max, err := a.c.MaxOrder(ctx, s)
		if err != nil {
			return err
		}
		n = max + 1
	}
	rec.SetPosition(s.Axis(), n)
	a.next[s] = n + 1
	return nil
}

// gap is a position a node vacated in a scope.
type gap struct {
	scope order.Scope
	pos   int
}

func primaryGap(n model.Node) gap {
	return gap{scope: n.Scope(), pos: n.Position(order.AxisPrimary)}
}

func dayGap(t *model.Task) (gap, bool) {
	s, ok := t.DayScope()
	if !ok || t.DailyOrder <= 0 {
		return gap{}, false
	}
	return gap{scope: s, pos: t.DailyOrder}, true
}

// closeGaps pulls the remaining ranked members of each scope down over the
// vacated positions. Positions are closed from the highest down so one shift
// never moves another gap.
func closeGaps[T model.Node](ctx context.Context, c store.Collection[T], gaps []gap) error {
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].pos > gaps[j].pos })
	for _, g := range gaps {
		if sh := order.Remove(g.scope, g.pos); sh != nil {
			if err := c.ShiftOrder(ctx, *sh); err != nil {
				return err
			}
		}
	}
	return nil
}

// renumberByScope assigns 1..N within every primary scope present in items,
// keeping their relative order.
func renumberByScope[T model.Node](items []T) {
	groups := make(map[order.Scope][]T)
	var keys []order.Scope
	for _, it := range items {
		s := it.Scope()
		if _, ok := groups[s]; !ok {
			keys = append(keys, s)
		}
		groups[s] = append(groups[s], it)
	}
	for _, k := range keys {
		order.Renumber(order.AxisPrimary, groups[k])
	}
}
