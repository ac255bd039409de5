package app

import (
	"context"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/tree"
)

// TaskRequest carries the caller-settable fields of a new task.
type TaskRequest struct {
	Title       string
	Description string
	Due         *time.Time
	Labels      []string
	AssigneeID  string
}

// TaskPatch updates content fields. Nil fields are left alone. Due dates go
// through UpdateDue and project changes through UpdateTaskProject.
type TaskPatch struct {
	Title       *string
	Description *string
	Collapsed   *bool
	Labels      *[]string
	AssigneeID  *string
}

func (s *Service) newTask(owner string, req TaskRequest) *model.Task {
	t := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Labels:      append([]string(nil), req.Labels...),
		AssigneeID:  req.AssigneeID,
	}
	t.Init(s.newID(), owner, s.now())
	t.SetDue(req.Due, s.loc())
	return t
}

// bucket returns the owner's tasks that share projectID ("" is the inbox).
func bucket(ctx context.Context, c store.Collection[*model.Task], owner, projectID string) ([]*model.Task, error) {
	all, err := c.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	var out []*model.Task
	for _, t := range all {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func bucketIndex(ctx context.Context, c store.Collection[*model.Task], owner, projectID string) (*tree.Index[*model.Task], error) {
	b, err := bucket(ctx, c, owner, projectID)
	if err != nil {
		return nil, err
	}
	return tree.New(b), nil
}

// checkLabels verifies every label id belongs to owner.
func checkLabels(ctx context.Context, r store.Repository, op, owner string, ids []string) error {
	for _, id := range ids {
		if _, err := loadRef(ctx, r.Labels(), op, owner, id); err != nil {
			return err
		}
	}
	return nil
}

// checkProject verifies projectID can receive tasks or habits. Empty means
// the inbox or the owner's top level and always passes.
func checkProject(ctx context.Context, r store.Repository, op, owner, projectID string) error {
	if projectID == "" {
		return nil
	}
	p, err := loadRef(ctx, r.Projects(), op, owner, projectID)
	if err != nil {
		return err
	}
	if p.Archived {
		return invalid(op, projectID, "project is archived")
	}
	return nil
}

// CreateTask appends a new task. With parentID it becomes the parent's last
// child and inherits the parent's project; otherwise it is appended to
// projectID's top level, or the inbox when projectID is empty.
func (s *Service) CreateTask(ctx context.Context, owner string, req TaskRequest, projectID, parentID string) (*model.Task, error) {
	const op = "create task"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		if parentID != "" {
			parent, err := loadRef(ctx, c, op, owner, parentID)
			if err != nil {
				return err
			}
			if parent.Archived {
				return invalid(op, parentID, "parent is archived")
			}
			if projectID != "" && projectID != parent.ProjectID {
				return invalid(op, parentID, "parent belongs to another project")
			}
			projectID = parent.ProjectID
		} else if err := checkProject(ctx, r, op, owner, projectID); err != nil {
			return err
		}
		if err := checkLabels(ctx, r, op, owner, req.Labels); err != nil {
			return err
		}
		t := s.newTask(owner, req)
		t.ParentID = parentID
		t.ProjectID = projectID
		if err := appendTo(ctx, c, t, t.Scope()); err != nil {
			return storageErr(op, err)
		}
		if day, ok := t.DayScope(); ok {
			if err := appendTo(ctx, c, t, day); err != nil {
				return storageErr(op, err)
			}
		}
		var err error
		out, err = c.Save(ctx, t)
		return storageErr(op, err)
	})
	return out, err
}

// AddTaskAfter creates a task directly after anchorID, adopting the anchor's
// parent and project.
func (s *Service) AddTaskAfter(ctx context.Context, owner string, req TaskRequest, anchorID string) (*model.Task, error) {
	return s.addTaskNextTo(ctx, owner, "add task after", req, anchorID, order.After)
}

// AddTaskBefore creates a task at anchorID's position.
func (s *Service) AddTaskBefore(ctx context.Context, owner string, req TaskRequest, anchorID string) (*model.Task, error) {
	return s.addTaskNextTo(ctx, owner, "add task before", req, anchorID, order.Before)
}

func (s *Service) addTaskNextTo(ctx context.Context, owner, op string, req TaskRequest, anchorID string, plan func(order.Scope, int) order.Placement) (*model.Task, error) {
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		anchor, err := load(ctx, c, op, owner, anchorID)
		if err != nil {
			return err
		}
		if anchor.Archived {
			return invalid(op, anchorID, "anchor is archived")
		}
		if err := checkLabels(ctx, r, op, owner, req.Labels); err != nil {
			return err
		}
		t := s.newTask(owner, req)
		t.ParentID = anchor.ParentID
		t.ProjectID = anchor.ProjectID
		return s.insertTask(ctx, c, op, t, plan(anchor.Scope(), anchor.Order), &out)
	})
	return out, err
}

// AddTaskAsFirstChild creates a task at the head of parentID's children.
func (s *Service) AddTaskAsFirstChild(ctx context.Context, owner string, req TaskRequest, parentID string) (*model.Task, error) {
	const op = "add task as first child"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		parent, err := loadRef(ctx, c, op, owner, parentID)
		if err != nil {
			return err
		}
		if parent.Archived {
			return invalid(op, parentID, "parent is archived")
		}
		if err := checkLabels(ctx, r, op, owner, req.Labels); err != nil {
			return err
		}
		t := s.newTask(owner, req)
		t.ParentID = parent.ID
		t.ProjectID = parent.ProjectID
		return s.insertTask(ctx, c, op, t, order.First(t.Scope()), &out)
	})
	return out, err
}

func (s *Service) insertTask(ctx context.Context, c store.Collection[*model.Task], op string, t *model.Task, p order.Placement, out **model.Task) error {
	if err := place(ctx, c, t, t.Scope(), p); err != nil {
		return storageErr(op, err)
	}
	if day, ok := t.DayScope(); ok {
		if err := appendTo(ctx, c, t, day); err != nil {
			return storageErr(op, err)
		}
	}
	saved, err := c.Save(ctx, t)
	if err != nil {
		return storageErr(op, err)
	}
	*out = saved
	return nil
}

// MoveTaskAfter moves movedID directly after anchorID. The moved task takes
// the anchor's parent and project; its descendants follow the project.
func (s *Service) MoveTaskAfter(ctx context.Context, owner, movedID, anchorID string) (*model.Task, error) {
	return s.moveTaskNextTo(ctx, owner, "move task after", movedID, anchorID, order.After)
}

// MoveTaskBefore moves movedID to anchorID's position.
func (s *Service) MoveTaskBefore(ctx context.Context, owner, movedID, anchorID string) (*model.Task, error) {
	return s.moveTaskNextTo(ctx, owner, "move task before", movedID, anchorID, order.Before)
}

func (s *Service) moveTaskNextTo(ctx context.Context, owner, op, movedID, anchorID string, plan func(order.Scope, int) order.Placement) (*model.Task, error) {
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		moved, anchor, err := taskPair(ctx, c, op, owner, movedID, anchorID)
		if err != nil {
			return err
		}
		if err := checkProject(ctx, r, op, owner, anchor.ProjectID); err != nil {
			return err
		}
		idx, err := bucketIndex(ctx, c, owner, moved.ProjectID)
		if err != nil {
			return storageErr(op, err)
		}
		if idx.IsDescendant(anchor.ID, moved.ID) {
			return invalid(op, movedID, "cannot move a task into its own subtree")
		}
		out, err = s.relocateTask(ctx, c, moved, func() (string, string, order.Placement, error) {
			anchor, err := c.FindByID(ctx, anchorID)
			if err != nil {
				return "", "", order.Placement{}, err
			}
			return anchor.ParentID, anchor.ProjectID, plan(anchor.Scope(), anchor.Order), nil
		})
		return storageErr(op, err)
	})
	return out, err
}

func taskPair(ctx context.Context, c store.Collection[*model.Task], op, owner, movedID, anchorID string) (*model.Task, *model.Task, error) {
	moved, err := load(ctx, c, op, owner, movedID)
	if err != nil {
		return nil, nil, err
	}
	anchor, err := load(ctx, c, op, owner, anchorID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case moved.ID == anchor.ID:
		return nil, nil, invalid(op, movedID, "task cannot be its own anchor")
	case moved.Archived:
		return nil, nil, invalid(op, movedID, "task is archived")
	case anchor.Archived:
		return nil, nil, invalid(op, anchorID, "anchor is archived")
	}
	return moved, anchor, nil
}

// MoveTaskAsFirstChild moves movedID to the head of parentID's children.
func (s *Service) MoveTaskAsFirstChild(ctx context.Context, owner, movedID, parentID string) (*model.Task, error) {
	const op = "move task as first child"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		moved, err := load(ctx, c, op, owner, movedID)
		if err != nil {
			return err
		}
		parent, err := loadRef(ctx, c, op, owner, parentID)
		if err != nil {
			return err
		}
		switch {
		case moved.Archived:
			return invalid(op, movedID, "task is archived")
		case parent.Archived:
			return invalid(op, parentID, "parent is archived")
		case parent.ID == moved.ID:
			return invalid(op, movedID, "task cannot be its own parent")
		}
		idx, err := bucketIndex(ctx, c, owner, moved.ProjectID)
		if err != nil {
			return storageErr(op, err)
		}
		if idx.IsDescendant(parent.ID, moved.ID) {
			return invalid(op, movedID, "cannot move a task into its own subtree")
		}
		out, err = s.relocateTask(ctx, c, moved, func() (string, string, order.Placement, error) {
			return parent.ID, parent.ProjectID, order.First(order.Parent(owner, parent.ID)), nil
		})
		return storageErr(op, err)
	})
	return out, err
}

// MoveTaskAsFirst moves movedID to the head of projectID's top level, or of
// the inbox when projectID is empty. The task leaves any parent it had.
func (s *Service) MoveTaskAsFirst(ctx context.Context, owner, movedID, projectID string) (*model.Task, error) {
	const op = "move task as first"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		moved, err := load(ctx, c, op, owner, movedID)
		if err != nil {
			return err
		}
		if moved.Archived {
			return invalid(op, movedID, "task is archived")
		}
		if err := checkProject(ctx, r, op, owner, projectID); err != nil {
			return err
		}
		out, err = s.relocateTask(ctx, c, moved, func() (string, string, order.Placement, error) {
			sc := order.Inbox(owner)
			if projectID != "" {
				sc = order.Project(owner, projectID)
			}
			return "", projectID, order.First(sc), nil
		})
		return storageErr(op, err)
	})
	return out, err
}

// relocateTask detaches moved from its primary scope, closing the gap, then
// asks target for the new parent, project and placement. When the project
// changes the moved task's descendants follow it.
func (s *Service) relocateTask(ctx context.Context, c store.Collection[*model.Task], moved *model.Task, target func() (string, string, order.Placement, error)) (*model.Task, error) {
	oldProject := moved.ProjectID
	if err := closeGaps(ctx, c, []gap{primaryGap(moved)}); err != nil {
		return nil, err
	}
	parentID, projectID, p, err := target()
	if err != nil {
		return nil, err
	}
	moved.ParentID = parentID
	moved.ProjectID = projectID
	if err := place(ctx, c, moved, moved.Scope(), p); err != nil {
		return nil, err
	}
	moved.Touch(s.now())
	saved, err := c.Save(ctx, moved)
	if err != nil {
		return nil, err
	}
	if oldProject != projectID {
		if err := s.reprojectDescendants(ctx, c, moved, oldProject); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

// reprojectDescendants rewrites the project of every task below root that is
// still in the old bucket. Parent pointers are left alone.
func (s *Service) reprojectDescendants(ctx context.Context, c store.Collection[*model.Task], root *model.Task, oldProject string) error {
	b, err := bucket(ctx, c, root.OwnerID, oldProject)
	if err != nil {
		return err
	}
	// The root has already left the old bucket; index it alongside so the
	// walk can start from it.
	idx := tree.New(append(b, root))
	var changed []*model.Task
	now := s.now()
	for _, t := range idx.Descendants(root.ID) {
		t.ProjectID = root.ProjectID
		t.Touch(now)
		changed = append(changed, t)
	}
	if len(changed) == 0 {
		return nil
	}
	_, err = c.SaveAll(ctx, changed)
	return err
}

// UpdateTaskProject moves the task to the end of newProjectID's top level,
// or the inbox when empty. The task leaves its parent and its descendants
// follow it into the new project. Unchanged projects are a no-op.
func (s *Service) UpdateTaskProject(ctx context.Context, owner, taskID, newProjectID string) (*model.Task, error) {
	const op = "update task project"
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
		if err := checkProject(ctx, r, op, owner, newProjectID); err != nil {
			return err
		}
		if t.ProjectID == newProjectID {
			out = t
			return nil
		}
		out, err = s.relocateTask(ctx, c, t, func() (string, string, order.Placement, error) {
			sc := order.Inbox(owner)
			if newProjectID != "" {
				sc = order.Project(owner, newProjectID)
			}
			max, err := c.MaxOrder(ctx, sc)
			return "", newProjectID, order.Append(max), err
		})
		return storageErr(op, err)
	})
	return out, err
}

// CompleteTask sets the completion flag. Completing a task in a
// collaborative project marks only the task; otherwise the task and every
// descendant share one completion timestamp. Uncompleting touches only the
// task.
func (s *Service) CompleteTask(ctx context.Context, owner, taskID string, completed bool) ([]*model.Task, error) {
	const op = "complete task"
	var out []*model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		t, err := load(ctx, c, op, owner, taskID)
		if err != nil {
			return err
		}
		if t.Archived {
			return invalid(op, taskID, "task is archived")
		}
		now := s.now()
		targets := []*model.Task{t}
		if completed {
			shared := false
			if t.ProjectID != "" {
				p, err := load(ctx, r.Projects(), op, owner, t.ProjectID)
				if err != nil {
					return err
				}
				shared = p.Collaborative
			}
			if !shared {
				idx, err := bucketIndex(ctx, c, owner, t.ProjectID)
				if err != nil {
					return storageErr(op, err)
				}
				targets = idx.Subtree(t.ID)
			}
		}
		for _, tk := range targets {
			tk.SetCompleted(completed, now)
			tk.Touch(now)
		}
		out, err = c.SaveAll(ctx, targets)
		return storageErr(op, err)
	})
	return out, err
}

// UpdateTask applies patch to the task's content fields.
func (s *Service) UpdateTask(ctx context.Context, owner, id string, patch TaskPatch) (*model.Task, error) {
	const op = "update task"
	var out *model.Task
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		t, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		if patch.Labels != nil {
			if err := checkLabels(ctx, r, op, owner, *patch.Labels); err != nil {
				return err
			}
			t.Labels = append([]string(nil), (*patch.Labels)...)
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Collapsed != nil {
			t.Collapsed = *patch.Collapsed
		}
		if patch.AssigneeID != nil {
			t.AssigneeID = *patch.AssigneeID
		}
		t.Touch(s.now())
		out, err = c.Save(ctx, t)
		return storageErr(op, err)
	})
	return out, err
}

// DeleteTask hard-deletes the task and its subtree, closing the gaps it
// leaves in the primary and daily scopes.
func (s *Service) DeleteTask(ctx context.Context, owner, id string) error {
	const op = "delete task"
	return s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Tasks()
		t, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		idx, err := bucketIndex(ctx, c, owner, t.ProjectID)
		if err != nil {
			return storageErr(op, err)
		}
		var gaps []gap
		if !t.Archived {
			gaps = append(gaps, primaryGap(t))
		}
		for _, tk := range idx.Subtree(t.ID) {
			if tk.Archived {
				continue
			}
			if g, ok := dayGap(tk); ok {
				gaps = append(gaps, g)
			}
		}
		if err := c.DeleteSubtree(ctx, owner, t.ID); err != nil {
			return storageErr(op, err)
		}
		return storageErr(op, closeGaps(ctx, c, gaps))
	})
}

// ListTasks returns the active members of s in order. s may be a primary or
// a daily scope.
func (s *Service) ListTasks(ctx context.Context, sc order.Scope) ([]*model.Task, error) {
	const op = "list tasks"
	var out []*model.Task
	err := s.run(ctx, sc.Owner, op, func(r store.Repository) error {
		var err error
		out, err = r.Tasks().FindByScope(ctx, sc)
		return storageErr(op, err)
	})
	return out, err
}

// TaskTree returns the active tasks of projectID, or the inbox when empty,
// as a depth-first outline.
func (s *Service) TaskTree(ctx context.Context, owner, projectID string) ([]Outlined[*model.Task], error) {
	const op = "task tree"
	var out []Outlined[*model.Task]
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		if projectID != "" {
			if _, err := load(ctx, r.Projects(), op, owner, projectID); err != nil {
				return err
			}
		}
		b, err := bucket(ctx, r.Tasks(), owner, projectID)
		if err != nil {
			return storageErr(op, err)
		}
		out = outline(active(b))
		return nil
	})
	return out, err
}
