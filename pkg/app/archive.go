package app

import (
	"context"
	"sort"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/tree"
)

// SetProjectArchived archives or restores a project.
//
// Archiving takes the project out of the active tree: its order becomes 0,
// its parent is cleared and the gap it leaves is closed. Its direct
// subprojects move up to its former parent, appended in their relative
// order. Every task and habit of the project is archived.
//
// Restoring appends the project to the owner's top level. Its former tree
// shape and its archived contents are not restored.
func (s *Service) SetProjectArchived(ctx context.Context, owner, projectID string, archived bool) (*model.Project, error) {
	const op = "set project archived"
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		p, err := load(ctx, c, op, owner, projectID)
		if err != nil {
			return err
		}
		if p.Archived == archived {
			out = p
			return nil
		}
		now := s.now()
		if !archived {
			p.Archived = false
			p.ParentID = ""
			if err := appendTo(ctx, c, p, p.Scope()); err != nil {
				return storageErr(op, err)
			}
			p.Touch(now)
			out, err = c.Save(ctx, p)
			return storageErr(op, err)
		}

		idx, err := projectIndex(ctx, c, owner)
		if err != nil {
			return storageErr(op, err)
		}
		children := append([]*model.Project(nil), idx.Children(p.ID)...)
		sort.SliceStable(children, func(i, j int) bool { return children[i].Order < children[j].Order })

		vacated := primaryGap(p)
		grandparent := p.ParentID
		p.Archived = true
		p.Order = 0
		p.ParentID = ""
		p.Touch(now)
		if out, err = c.Save(ctx, p); err != nil {
			return storageErr(op, err)
		}
		if err := closeGaps(ctx, c, []gap{vacated}); err != nil {
			return storageErr(op, err)
		}

		if len(children) > 0 {
			parents := newAppender(c)
			for _, child := range children {
				child.ParentID = grandparent
				child.Touch(now)
				if child.Archived {
					continue
				}
				if err := parents.place(ctx, child, child.Scope()); err != nil {
					return storageErr(op, err)
				}
			}
			if _, err := c.SaveAll(ctx, children); err != nil {
				return storageErr(op, err)
			}
		}

		tasks, err := bucket(ctx, r.Tasks(), owner, p.ID)
		if err != nil {
			return storageErr(op, err)
		}
		tidx := tree.New(tasks)
		var contents []*model.Task
		for _, root := range tops(tasks) {
			for _, level := range tidx.Levels(root.ID) {
				contents = append(contents, active(level)...)
			}
		}
		if err := s.archiveTasks(ctx, r.Tasks(), contents); err != nil {
			return storageErr(op, err)
		}
		return storageErr(op, s.archiveHabits(ctx, r.Habits(), owner, p.ID))
	})
	return out, err
}

// ArchiveTask archives or restores the task together with its subtree.
// A restored task is appended to the end of its scope.
func (s *Service) ArchiveTask(ctx context.Context, owner, taskID string, archived bool) ([]*model.Task, error) {
	const op = "archive task"
	var out []*model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		t, err := load(ctx, c, op, owner, taskID)
		if err != nil {
			return err
		}
		if t.Archived == archived {
			return nil
		}
		idx, err := bucketIndex(ctx, c, owner, t.ProjectID)
		if err != nil {
			return storageErr(op, err)
		}
		var targets []*model.Task
		for _, tk := range idx.Subtree(t.ID) {
			if tk.Archived != archived {
				targets = append(targets, tk)
			}
		}
		if archived {
			err = s.archiveTasks(ctx, c, targets)
		} else {
			if err := s.checkRestore(ctx, r, op, idx, targets); err != nil {
				return err
			}
			err = s.restoreTasks(ctx, c, targets)
		}
		if err != nil {
			return storageErr(op, err)
		}
		out = targets
		return nil
	})
	return out, err
}

// ArchiveCompletedTasks archives the completed tasks of projectID, or of the
// inbox when empty, together with all their descendants. Restoring brings
// back every archived task of the project.
func (s *Service) ArchiveCompletedTasks(ctx context.Context, owner, projectID string, archived bool) ([]*model.Task, error) {
	const op = "archive completed tasks"
	var out []*model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		if projectID != "" {
			p, err := loadRef(ctx, r.Projects(), op, owner, projectID)
			if err != nil {
				return err
			}
			if !archived && p.Archived {
				return invalid(op, projectID, "project is archived")
			}
		}
		c := r.Tasks()
		idx, err := bucketIndex(ctx, c, owner, projectID)
		if err != nil {
			return storageErr(op, err)
		}
		all, err := bucket(ctx, c, owner, projectID)
		if err != nil {
			return storageErr(op, err)
		}
		seen := make(map[string]bool)
		var targets []*model.Task
		for _, seed := range all {
			if seen[seed.ID] {
				continue
			}
			if archived && (seed.Archived || !seed.Completed) {
				continue
			}
			if !archived && !seed.Archived {
				continue
			}
			for _, tk := range idx.Subtree(seed.ID) {
				if seen[tk.ID] {
					continue
				}
				seen[tk.ID] = true
				if tk.Archived != archived {
					targets = append(targets, tk)
				}
			}
		}
		if len(targets) == 0 {
			return nil
		}
		if archived {
			err = s.archiveTasks(ctx, c, targets)
		} else {
			if err := s.checkRestore(ctx, r, op, idx, targets); err != nil {
				return err
			}
			err = s.restoreTasks(ctx, c, targets)
		}
		if err != nil {
			return storageErr(op, err)
		}
		out = targets
		return nil
	})
	return out, err
}

// tops returns the members of set whose parent is outside it.
func tops(set []*model.Task) []*model.Task {
	in := make(map[string]bool, len(set))
	for _, t := range set {
		in[t.ID] = true
	}
	var out []*model.Task
	for _, t := range set {
		if !in[t.ParentID] {
			out = append(out, t)
		}
	}
	return out
}

// archiveTasks marks targets archived and closes the gaps they leave. Only
// the tops of the archived region leave a primary gap; scopes below them are
// archived whole. Every target leaves its day.
func (s *Service) archiveTasks(ctx context.Context, c store.Collection[*model.Task], targets []*model.Task) error {
	if len(targets) == 0 {
		return nil
	}
	var gaps []gap
	for _, t := range tops(targets) {
		gaps = append(gaps, primaryGap(t))
	}
	now := s.now()
	for _, t := range targets {
		if g, ok := dayGap(t); ok {
			gaps = append(gaps, g)
		}
		t.Archived = true
		t.Touch(now)
	}
	if _, err := c.SaveAll(ctx, targets); err != nil {
		return err
	}
	return closeGaps(ctx, c, gaps)
}

// checkRestore rejects restoring tasks whose parent stays archived or whose
// project is archived.
func (s *Service) checkRestore(ctx context.Context, r store.Repository, op string, idx *tree.Index[*model.Task], targets []*model.Task) error {
	for _, t := range tops(targets) {
		if t.ParentID != "" {
			parent, ok := idx.Get(t.ParentID)
			if !ok {
				return invalid(op, t.ID, "parent task is missing")
			}
			if parent.Archived {
				return invalid(op, t.ID, "parent task is archived")
			}
		}
	}
	if len(targets) > 0 {
		return checkProject(ctx, r, op, targets[0].OwnerID, targets[0].ProjectID)
	}
	return nil
}

// restoreTasks unarchives targets. Tops of the restored region are appended
// to their scopes in their old relative order; nested scopes are renumbered.
// Tasks with a due day are appended to that day.
func (s *Service) restoreTasks(ctx context.Context, c store.Collection[*model.Task], targets []*model.Task) error {
	if len(targets) == 0 {
		return nil
	}
	top := tops(targets)
	isTop := make(map[string]bool, len(top))
	for _, t := range top {
		isTop[t.ID] = true
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Order < top[j].Order })
	var inner []*model.Task
	for _, t := range targets {
		if !isTop[t.ID] {
			inner = append(inner, t)
		}
	}

	slots := newAppender(c)
	for _, t := range top {
		if err := slots.place(ctx, t, t.Scope()); err != nil {
			return err
		}
	}
	renumberByScope(inner)

	dated := append([]*model.Task(nil), targets...)
	sort.SliceStable(dated, func(i, j int) bool {
		if dated[i].DueDay != dated[j].DueDay {
			return dated[i].DueDay < dated[j].DueDay
		}
		return dated[i].DailyOrder < dated[j].DailyOrder
	})
	for _, t := range dated {
		day, ok := t.DayScope()
		if !ok {
			continue
		}
		if err := slots.place(ctx, t, day); err != nil {
			return err
		}
	}

	now := s.now()
	for _, t := range targets {
		t.Archived = false
		t.Touch(now)
	}
	_, err := c.SaveAll(ctx, targets)
	return err
}

func (s *Service) archiveHabits(ctx context.Context, c store.Collection[*model.Habit], owner, projectID string) error {
	habits, err := c.FindByScope(ctx, order.Project(owner, projectID))
	if err != nil || len(habits) == 0 {
		return err
	}
	now := s.now()
	for _, h := range habits {
		h.Archived = true
		h.Touch(now)
	}
	_, err = c.SaveAll(ctx, habits)
	return err
}
