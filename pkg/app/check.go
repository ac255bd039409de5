package app

import (
	"context"
	"fmt"
	"sort"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
)

// Violation is one broken ordering or structure rule found by Verify.
type Violation struct {
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Problem string `json:"problem"`
}

func (v Violation) String() string {
	if v.ID != "" {
		return fmt.Sprintf("%s %s: %s", v.Kind, v.ID, v.Problem)
	}
	return fmt.Sprintf("%s %s: %s", v.Kind, v.Scope, v.Problem)
}

// Verify reports every scope of owner whose active orders are not dense,
// every active node whose parent is missing or archived, and every task
// whose project disagrees with its parent's.
func (s *Service) Verify(ctx context.Context, owner string) ([]Violation, error) {
	const op = "verify"
	var out []Violation
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		projects, err := r.Projects().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		tasks, err := r.Tasks().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		habits, err := r.Habits().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		labels, err := r.Labels().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		filters, err := r.Filters().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}

		out = append(out, density(store.KindProject, projects, primaryOf[*model.Project])...)
		out = append(out, density(store.KindTask, tasks, primaryOf[*model.Task])...)
		out = append(out, density(store.KindTask, tasks, dailyOf)...)
		out = append(out, density(store.KindHabit, habits, primaryOf[*model.Habit])...)
		out = append(out, density(store.KindLabel, labels, primaryOf[*model.Label])...)
		out = append(out, density(store.KindFilter, filters, primaryOf[*model.Filter])...)

		byProject := make(map[string]*model.Project, len(projects))
		for _, p := range projects {
			byProject[p.ID] = p
		}
		byTask := make(map[string]*model.Task, len(tasks))
		for _, t := range tasks {
			byTask[t.ID] = t
		}
		for _, p := range active(projects) {
			if p.ParentID == "" {
				continue
			}
			if parent, ok := byProject[p.ParentID]; !ok {
				out = append(out, Violation{Kind: store.KindProject, ID: p.ID, Problem: "parent project is missing"})
			} else if parent.Archived {
				out = append(out, Violation{Kind: store.KindProject, ID: p.ID, Problem: "parent project is archived"})
			}
		}
		for _, t := range active(tasks) {
			if t.ProjectID != "" {
				if _, ok := byProject[t.ProjectID]; !ok {
					out = append(out, Violation{Kind: store.KindTask, ID: t.ID, Problem: "project is missing"})
				}
			}
			if t.ParentID == "" {
				continue
			}
			parent, ok := byTask[t.ParentID]
			switch {
			case !ok:
				out = append(out, Violation{Kind: store.KindTask, ID: t.ID, Problem: "parent task is missing"})
			case parent.Archived:
				out = append(out, Violation{Kind: store.KindTask, ID: t.ID, Problem: "parent task is archived"})
			case parent.ProjectID != t.ProjectID:
				out = append(out, Violation{Kind: store.KindTask, ID: t.ID, Problem: "project differs from parent task"})
			}
		}
		for _, h := range active(habits) {
			if h.ProjectID == "" {
				continue
			}
			if _, ok := byProject[h.ProjectID]; !ok {
				out = append(out, Violation{Kind: store.KindHabit, ID: h.ID, Problem: "project is missing"})
			}
		}
		return nil
	})
	return out, err
}

func primaryOf[T model.Node](n T) (order.Scope, bool) { return n.Scope(), true }

func dailyOf(t *model.Task) (order.Scope, bool) { return t.DayScope() }

// density groups the active items by scope and checks each group.
func density[T model.Node](kind string, items []T, scopeOf func(T) (order.Scope, bool)) []Violation {
	groups := make(map[order.Scope][]int)
	for _, it := range active(items) {
		sc, ok := scopeOf(it)
		if !ok {
			continue
		}
		groups[sc] = append(groups[sc], it.Position(sc.Axis()))
	}
	var out []Violation
	for sc, orders := range groups {
		if err := order.Check(orders); err != nil {
			out = append(out, Violation{Kind: kind, Scope: sc.Key(), Problem: err.Error()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out
}

// Normalize renumbers every scope of owner to 1..N, keeping the current
// relative order. It returns the number of records rewritten.
func (s *Service) Normalize(ctx context.Context, owner string) (int, error) {
	const op = "normalize"
	var changed int
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		counts := []func() (int, error){
			func() (int, error) { return renumber(ctx, r.Projects(), owner, primaryOf[*model.Project]) },
			func() (int, error) { return renumber(ctx, r.Tasks(), owner, primaryOf[*model.Task]) },
			func() (int, error) { return renumber(ctx, r.Tasks(), owner, dailyOf) },
			func() (int, error) { return renumber(ctx, r.Habits(), owner, primaryOf[*model.Habit]) },
			func() (int, error) { return renumber(ctx, r.Labels(), owner, primaryOf[*model.Label]) },
			func() (int, error) { return renumber(ctx, r.Filters(), owner, primaryOf[*model.Filter]) },
		}
		for _, count := range counts {
			n, err := count()
			if err != nil {
				return storageErr(op, err)
			}
			changed += n
		}
		return nil
	})
	if err == nil && changed > 0 {
		s.logger().Printf("normalize (owner %s): rewrote %d records", owner, changed)
	}
	return changed, err
}

func renumber[T model.Node](ctx context.Context, c store.Collection[T], owner string, scopeOf func(T) (order.Scope, bool)) (int, error) {
	all, err := c.FindByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	groups := make(map[order.Scope][]T)
	for _, it := range active(all) {
		if sc, ok := scopeOf(it); ok {
			groups[sc] = append(groups[sc], it)
		}
	}
	var dirty []T
	for sc, members := range groups {
		before := make(map[string]int, len(members))
		for _, m := range members {
			before[m.NodeID()] = m.Position(sc.Axis())
		}
		// Ties on a duplicated order fall back to id.
		sort.Slice(members, func(i, j int) bool { return members[i].NodeID() < members[j].NodeID() })
		order.Renumber(sc.Axis(), members)
		for _, m := range members {
			if before[m.NodeID()] != m.Position(sc.Axis()) {
				dirty = append(dirty, m)
			}
		}
	}
	if len(dirty) == 0 {
		return 0, nil
	}
	_, err = c.SaveAll(ctx, dirty)
	return len(dirty), err
}
