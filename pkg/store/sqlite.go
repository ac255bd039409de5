package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

//go:embed schema.sql
var schema string

// SQLite keeps every record in one nodes table. Scope membership is
// denormalized into scope_key/day_key so a shift is a single UPDATE.
//
// Atomically runs fn in an immediate transaction, which takes the database
// write lock up front; concurrent operations queue behind it.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path. A path without a .db suffix is
// treated as a directory holding planner.db.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: database path required")
	}
	if !strings.HasSuffix(path, ".db") {
		path = filepath.Join(path, "planner.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Atomically(ctx context.Context, _ string, fn func(Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(sqlRepository{q: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			fmt.Fprintf(os.Stderr, "store: rollback: %v\n", rerr)
		}
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlRepository struct{ q querier }

func (r sqlRepository) Projects() Collection[*model.Project] {
	return &sqlCollection[*model.Project]{q: r.q, kind: KindProject, newT: func() *model.Project { return &model.Project{} }}
}

func (r sqlRepository) Tasks() Collection[*model.Task] {
	return &sqlCollection[*model.Task]{q: r.q, kind: KindTask, newT: func() *model.Task { return &model.Task{} }}
}

func (r sqlRepository) Habits() Collection[*model.Habit] {
	return &sqlCollection[*model.Habit]{q: r.q, kind: KindHabit, newT: func() *model.Habit { return &model.Habit{} }}
}

func (r sqlRepository) Labels() Collection[*model.Label] {
	return &sqlCollection[*model.Label]{q: r.q, kind: KindLabel, newT: func() *model.Label { return &model.Label{} }}
}

func (r sqlRepository) Filters() Collection[*model.Filter] {
	return &sqlCollection[*model.Filter]{q: r.q, kind: KindFilter, newT: func() *model.Filter { return &model.Filter{} }}
}

type sqlCollection[T Record[T]] struct {
	q    querier
	kind string
	newT func() T
}

// scopeClause returns the WHERE clause selecting the ranked members of s
// and the order column it ranks.
func (c *sqlCollection[T]) scopeClause(s order.Scope) (string, string, []any) {
	if s.Axis() == order.AxisDaily {
		return "kind = ? AND owner_id = ? AND day_key = ? AND archived = 0", "daily_ord", []any{c.kind, s.Owner, s.ID}
	}
	return "kind = ? AND owner_id = ? AND scope_key = ? AND archived = 0", "ord", []any{c.kind, s.Owner, s.Key()}
}

func (c *sqlCollection[T]) query(ctx context.Context, where string, args ...any) ([]T, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT data, ord, daily_ord FROM nodes WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var (
			data       string
			ord, daily int
		)
		if err := rows.Scan(&data, &ord, &daily); err != nil {
			return nil, err
		}
		rec, err := c.decode(data, ord, daily)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// decode unmarshals data; the order columns win over the JSON copy because
// shifts only touch the columns.
func (c *sqlCollection[T]) decode(data string, ord, daily int) (T, error) {
	rec := c.newT()
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return rec, fmt.Errorf("store: decode %s: %w", c.kind, err)
	}
	rec.SetPosition(order.AxisPrimary, ord)
	rec.SetPosition(order.AxisDaily, daily)
	return rec, nil
}

func (c *sqlCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var (
		data       string
		ord, daily int
	)
	err := c.q.QueryRowContext(ctx, `SELECT data, ord, daily_ord FROM nodes WHERE kind = ? AND id = ?`, c.kind, id).
		Scan(&data, &ord, &daily)
	if err != nil {
		var zero T
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return c.decode(data, ord, daily)
}

func (c *sqlCollection[T]) FindByOwner(ctx context.Context, owner string) ([]T, error) {
	return c.query(ctx, `kind = ? AND owner_id = ? ORDER BY id`, c.kind, owner)
}

func (c *sqlCollection[T]) FindByScope(ctx context.Context, s order.Scope) ([]T, error) {
	where, col, args := c.scopeClause(s)
	return c.query(ctx, where+` ORDER BY `+col+`, id`, args...)
}

func (c *sqlCollection[T]) MaxOrder(ctx context.Context, s order.Scope) (int, error) {
	where, col, args := c.scopeClause(s)
	var max int
	err := c.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(`+col+`), 0) FROM nodes WHERE `+where, args...).Scan(&max)
	return max, err
}

func (c *sqlCollection[T]) ShiftOrder(ctx context.Context, shift order.Shift) error {
	where, col, args := c.scopeClause(shift.Scope)
	op := " > ?"
	if shift.Inclusive {
		op = " >= ?"
	}
	args = append([]any{shift.Delta}, args...)
	args = append(args, shift.Threshold)
	_, err := c.q.ExecContext(ctx,
		`UPDATE nodes SET `+col+` = `+col+` + ?, updated_at = CURRENT_TIMESTAMP WHERE `+where+` AND `+col+op,
		args...)
	return err
}

func (c *sqlCollection[T]) Save(ctx context.Context, rec T) (T, error) {
	var zero T
	if rec.NodeID() == "" {
		return zero, errors.New("store: record without id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return zero, err
	}
	dayKey := ""
	if d, ok := any(rec).(model.DayScoped); ok {
		if s, ok := d.DayScope(); ok {
			dayKey = s.ID
		}
	}
	_, err = c.q.ExecContext(ctx, `
		INSERT INTO nodes (kind, id, owner_id, parent_id, scope_key, day_key, ord, daily_ord, archived, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			parent_id = excluded.parent_id,
			scope_key = excluded.scope_key,
			day_key = excluded.day_key,
			ord = excluded.ord,
			daily_ord = excluded.daily_ord,
			archived = excluded.archived,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, c.kind, rec.NodeID(), rec.NodeOwner(), rec.NodeParent(), rec.Scope().Key(), dayKey,
		rec.Position(order.AxisPrimary), rec.Position(order.AxisDaily), rec.IsArchived(), string(data))
	if err != nil {
		return zero, err
	}
	return rec, nil
}

func (c *sqlCollection[T]) SaveAll(ctx context.Context, recs []T) ([]T, error) {
	for _, rec := range recs {
		if _, err := c.Save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (c *sqlCollection[T]) DeleteSubtree(ctx context.Context, owner, id string) error {
	res, err := c.q.ExecContext(ctx, `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM nodes WHERE kind = ? AND owner_id = ? AND id = ?
			UNION
			SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
			WHERE n.kind = ? AND n.owner_id = ?
		)
		DELETE FROM nodes WHERE kind = ? AND id IN (SELECT id FROM sub)
	`, c.kind, owner, id, c.kind, owner, c.kind)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
