// Package store is the storage collaborator of the planner engine. It loads
// and saves ordered records and applies bulk order shifts; it never decides
// where a record goes.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("store: not found")

// Record kinds, used as storage namespaces.
const (
	KindProject = "project"
	KindTask    = "task"
	KindHabit   = "habit"
	KindLabel   = "label"
	KindFilter  = "filter"
)

// Kinds lists every record kind.
func Kinds() []string {
	return []string{KindProject, KindTask, KindHabit, KindLabel, KindFilter}
}

// Record is a node the store can copy.
type Record[T any] interface {
	model.Node
	Clone() T
}

// Collection stores one kind of record.
type Collection[T model.Node] interface {
	// FindByID returns the record with id regardless of its owner, or
	// ErrNotFound.
	FindByID(ctx context.Context, id string) (T, error)
	// FindByOwner returns every record of owner, archived ones included.
	FindByOwner(ctx context.Context, owner string) ([]T, error)
	// FindByScope returns the non-archived members of s sorted by their
	// position on s's axis.
	FindByScope(ctx context.Context, s order.Scope) ([]T, error)
	// MaxOrder returns the highest position among non-archived members of s,
	// or 0 when s is empty.
	MaxOrder(ctx context.Context, s order.Scope) (int, error)
	// ShiftOrder applies one conditional bulk update to the non-archived
	// members of shift.Scope.
	ShiftOrder(ctx context.Context, shift order.Shift) error
	Save(ctx context.Context, rec T) (T, error)
	SaveAll(ctx context.Context, recs []T) ([]T, error)
	// DeleteSubtree hard-deletes id and every record below it.
	DeleteSubtree(ctx context.Context, owner, id string) error
}

// Repository exposes one collection per record kind.
type Repository interface {
	Projects() Collection[*model.Project]
	Tasks() Collection[*model.Task]
	Habits() Collection[*model.Habit]
	Labels() Collection[*model.Label]
	Filters() Collection[*model.Filter]
}

// Store hands out repositories inside a transaction boundary.
//
// Atomically runs fn with a repository whose reads and writes are isolated
// from other Atomically calls for the same owner. Whether writes issued
// before fn fails are rolled back depends on the backend.
type Store interface {
	Atomically(ctx context.Context, owner string, fn func(Repository) error) error
	Close() error
}

// Config selects and locates a backend.
type Config interface {
	BasePath() string
	Backend() string
}

const (
	BackendDiskv  = "diskv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the Store named by cfg.Backend().
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend())) {
	case "", BackendDiskv:
		return LoadDiskv(cfg.BasePath())
	case BackendSQLite:
		return OpenSQLite(cfg.BasePath())
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend())
	}
}
