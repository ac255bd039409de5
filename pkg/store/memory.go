package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

// Memory is an in-process Store. Atomically serializes all callers and
// restores the previous state when fn fails.
type Memory struct {
	mu       sync.Mutex
	projects *memCollection[*model.Project]
	tasks    *memCollection[*model.Task]
	habits   *memCollection[*model.Habit]
	labels   *memCollection[*model.Label]
	filters  *memCollection[*model.Filter]
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		projects: newMemCollection[*model.Project](),
		tasks:    newMemCollection[*model.Task](),
		habits:   newMemCollection[*model.Habit](),
		labels:   newMemCollection[*model.Label](),
		filters:  newMemCollection[*model.Filter](),
	}
}

func (m *Memory) Atomically(_ context.Context, _ string, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	restore := m.snapshot()
	if err := fn(memRepository{m}); err != nil {
		restore()
		return err
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) snapshot() func() {
	p, t, h, l, f := m.projects.snapshot(), m.tasks.snapshot(), m.habits.snapshot(), m.labels.snapshot(), m.filters.snapshot()
	return func() {
		m.projects.items = p
		m.tasks.items = t
		m.habits.items = h
		m.labels.items = l
		m.filters.items = f
	}
}

// memRepository exposes the collections of a locked Memory.
type memRepository struct{ m *Memory }

func (r memRepository) Projects() Collection[*model.Project] { return r.m.projects }
func (r memRepository) Tasks() Collection[*model.Task]       { return r.m.tasks }
func (r memRepository) Habits() Collection[*model.Habit]     { return r.m.habits }
func (r memRepository) Labels() Collection[*model.Label]     { return r.m.labels }
func (r memRepository) Filters() Collection[*model.Filter]   { return r.m.filters }

type memCollection[T Record[T]] struct {
	items map[string]T
}

func newMemCollection[T Record[T]]() *memCollection[T] {
	return &memCollection[T]{items: make(map[string]T)}
}

func (c *memCollection[T]) snapshot() map[string]T {
	cp := make(map[string]T, len(c.items))
	for id, it := range c.items {
		cp[id] = it.Clone()
	}
	return cp
}

// all returns the stored records themselves, sorted by id for stable
// iteration. Callers must not hand them out.
func (c *memCollection[T]) all() []T {
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID() < out[j].NodeID() })
	return out
}

func clones[T Record[T]](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func (c *memCollection[T]) FindByID(_ context.Context, id string) (T, error) {
	it, ok := c.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return it.Clone(), nil
}

func (c *memCollection[T]) FindByOwner(_ context.Context, owner string) ([]T, error) {
	return clones(ownedBy(c.all(), owner)), nil
}

func (c *memCollection[T]) FindByScope(_ context.Context, s order.Scope) ([]T, error) {
	return clones(rankedIn(c.all(), s)), nil
}

func (c *memCollection[T]) MaxOrder(_ context.Context, s order.Scope) (int, error) {
	return maxIn(c.all(), s), nil
}

func (c *memCollection[T]) ShiftOrder(_ context.Context, shift order.Shift) error {
	shiftIn(c.all(), shift)
	return nil
}

func (c *memCollection[T]) Save(_ context.Context, rec T) (T, error) {
	if rec.NodeID() == "" {
		var zero T
		return zero, errors.New("store: record without id")
	}
	c.items[rec.NodeID()] = rec.Clone()
	return rec, nil
}

func (c *memCollection[T]) SaveAll(ctx context.Context, recs []T) ([]T, error) {
	for _, rec := range recs {
		if _, err := c.Save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (c *memCollection[T]) DeleteSubtree(_ context.Context, owner, id string) error {
	if it, ok := c.items[id]; !ok || it.NodeOwner() != owner {
		return ErrNotFound
	}
	for _, sub := range subtreeIDs(ownedBy(c.all(), owner), id) {
		delete(c.items, sub)
	}
	return nil
}
