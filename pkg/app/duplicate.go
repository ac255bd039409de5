package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/tree"
)

// Duplication lists every node a duplication created. The first entry of
// Projects (project duplication) or Tasks (task duplication) is the root
// clone.
type Duplication struct {
	Projects []*model.Project
	Tasks    []*model.Task
	Habits   []*model.Habit
}

// Len returns the number of created nodes.
func (d Duplication) Len() int {
	return len(d.Projects) + len(d.Tasks) + len(d.Habits)
}

// DuplicateTask clones the task and its active descendants. The root clone is
// inserted directly after the original; descendants keep their shape under
// it. Completion is reset on every clone.
func (s *Service) DuplicateTask(ctx context.Context, owner, rootID string) (Duplication, error) {
	const op = "duplicate task"
	var out Duplication
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		all, err := c.FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		idx := tree.New(all)
		root, ok := idx.Get(rootID)
		if !ok || root.OwnerID != owner {
			return notFound(op, rootID)
		}
		if root.Archived {
			return invalid(op, rootID, "task is archived")
		}
		if err := checkChain(op, idx, root); err != nil {
			return err
		}

		now := s.now()
		clones := map[string]*model.Task{}
		var created []*model.Task
		for depth, level := range idx.Levels(rootID) {
			for _, orig := range level {
				var parentID string
				if depth > 0 {
					parent, ok := clones[orig.ParentID]
					if !ok || orig.Archived {
						continue
					}
					parentID = parent.ID
				}
				t := s.cloneTask(orig, now)
				if depth > 0 {
					t.ParentID = parentID
				}
				clones[orig.ID] = t
				created = append(created, t)
			}
		}

		clone := created[0]
		if err := place(ctx, c, clone, root.Scope(), order.After(root.Scope(), root.Order)); err != nil {
			return storageErr(op, err)
		}
		renumberByScope(created[1:])
		if err := appendToDays(ctx, c, created); err != nil {
			return storageErr(op, err)
		}
		if _, err := c.SaveAll(ctx, created); err != nil {
			return storageErr(op, err)
		}
		out.Tasks = created
		return nil
	})
	return out, err
}

// DuplicateProject clones the project and its active subprojects, then the
// active tasks and habits of every cloned project, pointing them at the
// clones. The root clone is inserted directly after the original.
func (s *Service) DuplicateProject(ctx context.Context, owner, rootID string) (Duplication, error) {
	const op = "duplicate project"
	var out Duplication
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		pc := r.Projects()
		all, err := pc.FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		idx := tree.New(all)
		root, ok := idx.Get(rootID)
		if !ok || root.OwnerID != owner {
			return notFound(op, rootID)
		}
		if root.Archived {
			return invalid(op, rootID, "project is archived")
		}
		if err := checkChain(op, idx, root); err != nil {
			return err
		}

		now := s.now()
		projects := map[string]*model.Project{}
		var created []*model.Project
		for depth, level := range idx.Levels(rootID) {
			for _, orig := range level {
				var parentID string
				if depth > 0 {
					parent, ok := projects[orig.ParentID]
					if !ok || orig.Archived {
						continue
					}
					parentID = parent.ID
				}
				p := orig.Clone()
				p.Init(s.newID(), owner, now)
				p.Favorite = false
				if depth > 0 {
					p.ParentID = parentID
				}
				projects[orig.ID] = p
				created = append(created, p)
			}
		}
		clone := created[0]
		if err := place(ctx, pc, clone, root.Scope(), order.After(root.Scope(), root.Order)); err != nil {
			return storageErr(op, err)
		}
		renumberByScope(created[1:])

		tasks, err := s.cloneProjectTasks(ctx, r.Tasks(), owner, projects, now)
		if err != nil {
			return storageErr(op, err)
		}
		habits, err := s.cloneProjectHabits(ctx, r.Habits(), owner, projects, now)
		if err != nil {
			return storageErr(op, err)
		}

		if _, err := pc.SaveAll(ctx, created); err != nil {
			return storageErr(op, err)
		}
		if len(tasks) > 0 {
			if _, err := r.Tasks().SaveAll(ctx, tasks); err != nil {
				return storageErr(op, err)
			}
		}
		if len(habits) > 0 {
			if _, err := r.Habits().SaveAll(ctx, habits); err != nil {
				return storageErr(op, err)
			}
		}
		out = Duplication{Projects: created, Tasks: tasks, Habits: habits}
		return nil
	})
	return out, err
}

func (s *Service) cloneTask(orig *model.Task, now time.Time) *model.Task {
	t := orig.Clone()
	t.Init(s.newID(), orig.OwnerID, now)
	t.SetCompleted(false, now)
	return t
}

// cloneProjectTasks clones the active task trees of every project in
// projects, keyed by original project id.
func (s *Service) cloneProjectTasks(ctx context.Context, c store.Collection[*model.Task], owner string, projects map[string]*model.Project, now time.Time) ([]*model.Task, error) {
	all, err := c.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	var inProjects []*model.Task
	for _, t := range all {
		if _, ok := projects[t.ProjectID]; ok {
			inProjects = append(inProjects, t)
		}
	}
	idx := tree.New(inProjects)
	clones := map[string]*model.Task{}
	var created []*model.Task
	for _, root := range tops(inProjects) {
		if root.ParentID != "" || root.Archived {
			continue
		}
		for depth, level := range idx.Levels(root.ID) {
			for _, orig := range level {
				if orig.Archived {
					continue
				}
				t := s.cloneTask(orig, now)
				t.ProjectID = projects[orig.ProjectID].ID
				if depth > 0 {
					parent, ok := clones[orig.ParentID]
					if !ok {
						continue
					}
					t.ParentID = parent.ID
				}
				clones[orig.ID] = t
				created = append(created, t)
			}
		}
	}
	renumberByScope(created)
	if err := appendToDays(ctx, c, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) cloneProjectHabits(ctx context.Context, c store.Collection[*model.Habit], owner string, projects map[string]*model.Project, now time.Time) ([]*model.Habit, error) {
	all, err := c.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	var created []*model.Habit
	for _, h := range all {
		p, ok := projects[h.ProjectID]
		if !ok || h.Archived {
			continue
		}
		clone := h.Clone()
		clone.Init(s.newID(), owner, now)
		clone.ProjectID = p.ID
		created = append(created, clone)
	}
	renumberByScope(created)
	return created, nil
}

// appendToDays appends every task with a due day to its day, in the order of
// the originals' daily positions.
func appendToDays(ctx context.Context, c store.Collection[*model.Task], tasks []*model.Task) error {
	dated := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.DueDay != "" {
			dated = append(dated, t)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		if dated[i].DueDay != dated[j].DueDay {
			return dated[i].DueDay < dated[j].DueDay
		}
		return dated[i].DailyOrder < dated[j].DailyOrder
	})
	days := newAppender(c)
	for _, t := range dated {
		day, _ := t.DayScope()
		if err := days.place(ctx, t, day); err != nil {
			return err
		}
	}
	return nil
}

// checkChain walks from n up to the owner's top level and fails when a
// parent is missing or belongs to someone else.
func checkChain[T model.Node](op string, idx *tree.Index[T], n T) error {
	ancestors := idx.Ancestors(n.NodeID())
	last := model.Node(n)
	if len(ancestors) > 0 {
		last = ancestors[len(ancestors)-1]
	}
	if last.NodeParent() != "" {
		return invalid(op, n.NodeID(), "ancestor chain is broken")
	}
	for _, a := range ancestors {
		if a.NodeOwner() != n.NodeOwner() {
			return invalid(op, n.NodeID(), "ancestor chain crosses owners")
		}
	}
	return nil
}
