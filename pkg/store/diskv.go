package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

// Diskv stores one JSON file per record under
// <base>/<kind>/<shard>/<encoded id>.
//
// Atomically holds a per-owner lock. Writes land on disk as they are issued;
// a failing fn leaves them in place.
type Diskv struct {
	d        *diskv.Diskv
	basePath string

	mu     sync.Mutex
	owners map[string]*sync.Mutex

	projects *diskCollection[*model.Project]
	tasks    *diskCollection[*model.Task]
	habits   *diskCollection[*model.Habit]
	labels   *diskCollection[*model.Label]
	filters  *diskCollection[*model.Filter]
}

// LoadDiskv opens (creating if needed) a diskv store rooted at basePath.
func LoadDiskv(basePath string) (*Diskv, error) {
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	d := diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
	s := &Diskv{d: d, basePath: basePath, owners: make(map[string]*sync.Mutex)}
	s.projects = &diskCollection[*model.Project]{d: d, kind: KindProject, newT: func() *model.Project { return &model.Project{} }}
	s.tasks = &diskCollection[*model.Task]{d: d, kind: KindTask, newT: func() *model.Task { return &model.Task{} }}
	s.habits = &diskCollection[*model.Habit]{d: d, kind: KindHabit, newT: func() *model.Habit { return &model.Habit{} }}
	s.labels = &diskCollection[*model.Label]{d: d, kind: KindLabel, newT: func() *model.Label { return &model.Label{} }}
	s.filters = &diskCollection[*model.Filter]{d: d, kind: KindFilter, newT: func() *model.Filter { return &model.Filter{} }}
	return s, nil
}

func (s *Diskv) ownerLock(owner string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.owners[owner]
	if !ok {
		l = &sync.Mutex{}
		s.owners[owner] = l
	}
	return l
}

func (s *Diskv) Atomically(_ context.Context, owner string, fn func(Repository) error) error {
	l := s.ownerLock(owner)
	l.Lock()
	defer l.Unlock()
	return fn(diskRepository{s})
}

func (s *Diskv) Close() error { return nil }

type diskRepository struct{ s *Diskv }

func (r diskRepository) Projects() Collection[*model.Project] { return r.s.projects }
func (r diskRepository) Tasks() Collection[*model.Task]       { return r.s.tasks }
func (r diskRepository) Habits() Collection[*model.Habit]     { return r.s.habits }
func (r diskRepository) Labels() Collection[*model.Label]     { return r.s.labels }
func (r diskRepository) Filters() Collection[*model.Filter]   { return r.s.filters }

type diskCollection[T Record[T]] struct {
	d    *diskv.Diskv
	kind string
	newT func() T
}

func (c *diskCollection[T]) read(key string) (T, error) {
	rec := c.newT()
	val, err := c.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	if err := json.Unmarshal(val, rec); err != nil {
		return rec, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return rec, nil
}

func (c *diskCollection[T]) write(rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.d.Write(toKey(c.kind, rec.NodeID()), data)
}

// list reads every record of the collection. Unreadable files are reported
// and skipped.
func (c *diskCollection[T]) list(ctx context.Context, owner string) []T {
	all := make([]T, 0)
	for key := range c.d.KeysPrefix(c.kind+keySep, ctx.Done()) {
		rec, err := c.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		if rec.NodeOwner() == owner {
			all = append(all, rec)
		}
	}
	return all
}

func (c *diskCollection[T]) FindByID(_ context.Context, id string) (T, error) {
	return c.read(toKey(c.kind, id))
}

func (c *diskCollection[T]) FindByOwner(ctx context.Context, owner string) ([]T, error) {
	return c.list(ctx, owner), ctx.Err()
}

func (c *diskCollection[T]) FindByScope(ctx context.Context, s order.Scope) ([]T, error) {
	return rankedIn(c.list(ctx, s.Owner), s), ctx.Err()
}

func (c *diskCollection[T]) MaxOrder(ctx context.Context, s order.Scope) (int, error) {
	return maxIn(c.list(ctx, s.Owner), s), ctx.Err()
}

func (c *diskCollection[T]) ShiftOrder(ctx context.Context, shift order.Shift) error {
	for _, rec := range shiftIn(c.list(ctx, shift.Scope.Owner), shift) {
		if err := c.write(rec); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *diskCollection[T]) Save(_ context.Context, rec T) (T, error) {
	if rec.NodeID() == "" {
		var zero T
		return zero, errors.New("store: record without id")
	}
	if err := c.write(rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (c *diskCollection[T]) SaveAll(ctx context.Context, recs []T) ([]T, error) {
	for _, rec := range recs {
		if _, err := c.Save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (c *diskCollection[T]) DeleteSubtree(ctx context.Context, owner, id string) error {
	root, err := c.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if root.NodeOwner() != owner {
		return ErrNotFound
	}
	for _, sub := range subtreeIDs(c.list(ctx, owner), id) {
		if err := c.d.Erase(toKey(c.kind, sub)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

const keySep = "."

// toKey makes `kind.<base64 id>`.
func toKey(kind, id string) string {
	return kind + keySep + base64.RawURLEncoding.EncodeToString([]byte(id))
}

func keyToPathTransform(s string) *diskv.PathKey {
	kind, enc, _ := strings.Cut(s, keySep)
	shard := enc
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return &diskv.PathKey{
		Path:     []string{kind, shard},
		FileName: enc,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return pathKey.Path[0] + keySep + pathKey.FileName
}

// kindForPath derives the record kind from a path relative to the base.
func kindForPath(rel string) string {
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) == 0 {
		return ""
	}
	for _, k := range Kinds() {
		if parts[0] == k {
			return k
		}
	}
	return ""
}
