package app

import (
	"context"
	"sort"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/tree"
)

// ProjectRequest carries the caller-settable fields of a new project.
type ProjectRequest struct {
	Name          string
	Color         string
	Favorite      bool
	Collapsed     bool
	Collaborative bool
}

// ProjectPatch updates content fields. Nil fields are left alone.
type ProjectPatch struct {
	Name          *string
	Color         *string
	Favorite      *bool
	Collapsed     *bool
	Collaborative *bool
}

// Outlined is a node with its depth in a depth-first outline.
type Outlined[T any] struct {
	Node  T   `json:"node"`
	Depth int `json:"depth"`
}

func (s *Service) newProject(owner string, req ProjectRequest) *model.Project {
	p := &model.Project{
		Name:          req.Name,
		Color:         req.Color,
		Favorite:      req.Favorite,
		Collapsed:     req.Collapsed,
		Collaborative: req.Collaborative,
	}
	p.Init(s.newID(), owner, s.now())
	return p
}

func projectIndex(ctx context.Context, c store.Collection[*model.Project], owner string) (*tree.Index[*model.Project], error) {
	all, err := c.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return tree.New(all), nil
}

// CreateProject appends a new project to parentID's children, or to the
// owner's top level when parentID is empty.
func (s *Service) CreateProject(ctx context.Context, owner string, req ProjectRequest, parentID string) (*model.Project, error) {
	const op = "create project"
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		if parentID != "" {
			parent, err := loadRef(ctx, c, op, owner, parentID)
			if err != nil {
				return err
			}
			if parent.Archived {
				return invalid(op, parentID, "parent is archived")
			}
		}
		p := s.newProject(owner, req)
		p.ParentID = parentID
		if err := appendTo(ctx, c, p, p.Scope()); err != nil {
			return storageErr(op, err)
		}
		saved, err := c.Save(ctx, p)
		if err != nil {
			return storageErr(op, err)
		}
		out = saved
		return nil
	})
	return out, err
}

// AddProjectAfter creates a project directly after anchorID, in the anchor's
// parent scope.
func (s *Service) AddProjectAfter(ctx context.Context, owner string, req ProjectRequest, anchorID string) (*model.Project, error) {
	return s.addProject(ctx, owner, "add project after", req, anchorID, order.After)
}

// AddProjectBefore creates a project at anchorID's position, pushing the
// anchor and its later siblings down.
func (s *Service) AddProjectBefore(ctx context.Context, owner string, req ProjectRequest, anchorID string) (*model.Project, error) {
	return s.addProject(ctx, owner, "add project before", req, anchorID, order.Before)
}

func (s *Service) addProject(ctx context.Context, owner, op string, req ProjectRequest, anchorID string, plan func(order.Scope, int) order.Placement) (*model.Project, error) {
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		anchor, err := load(ctx, c, op, owner, anchorID)
		if err != nil {
			return err
		}
		if anchor.Archived {
			return invalid(op, anchorID, "anchor is archived")
		}
		p := s.newProject(owner, req)
		p.ParentID = anchor.ParentID
		sc := anchor.Scope()
		if err := place(ctx, c, p, sc, plan(sc, anchor.Order)); err != nil {
			return storageErr(op, err)
		}
		saved, err := c.Save(ctx, p)
		if err != nil {
			return storageErr(op, err)
		}
		out = saved
		return nil
	})
	return out, err
}

// MoveProjectAfter moves movedID directly after anchorID. The moved project
// takes the anchor's parent; its own descendants ride along.
func (s *Service) MoveProjectAfter(ctx context.Context, owner, movedID, anchorID string) (*model.Project, error) {
	return s.moveProjectNextTo(ctx, owner, "move project after", movedID, anchorID, order.After)
}

// MoveProjectBefore moves movedID to anchorID's position.
func (s *Service) MoveProjectBefore(ctx context.Context, owner, movedID, anchorID string) (*model.Project, error) {
	return s.moveProjectNextTo(ctx, owner, "move project before", movedID, anchorID, order.Before)
}

func (s *Service) moveProjectNextTo(ctx context.Context, owner, op, movedID, anchorID string, plan func(order.Scope, int) order.Placement) (*model.Project, error) {
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		moved, anchor, err := s.projectPair(ctx, c, op, owner, movedID, anchorID)
		if err != nil {
			return err
		}
		idx, err := projectIndex(ctx, c, owner)
		if err != nil {
			return storageErr(op, err)
		}
		if idx.IsDescendant(anchor.ID, moved.ID) {
			return invalid(op, movedID, "cannot move a project into its own subtree")
		}
		out, err = relocateProject(ctx, c, moved, func() (string, order.Placement, error) {
			anchor, err := c.FindByID(ctx, anchorID)
			if err != nil {
				return "", order.Placement{}, err
			}
			return anchor.ParentID, plan(anchor.Scope(), anchor.Order), nil
		})
		return storageErr(op, err)
	})
	return out, err
}

func (s *Service) projectPair(ctx context.Context, c store.Collection[*model.Project], op, owner, movedID, anchorID string) (*model.Project, *model.Project, error) {
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
		return nil, nil, invalid(op, movedID, "project cannot be its own anchor")
	case moved.Archived:
		return nil, nil, invalid(op, movedID, "project is archived")
	case anchor.Archived:
		return nil, nil, invalid(op, anchorID, "anchor is archived")
	}
	return moved, anchor, nil
}

// MoveProjectAsFirstChild moves movedID to the head of parentID's children.
// An empty parentID moves it to the head of the owner's top level.
func (s *Service) MoveProjectAsFirstChild(ctx context.Context, owner, movedID, parentID string) (*model.Project, error) {
	const op = "move project as first child"
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		moved, err := load(ctx, c, op, owner, movedID)
		if err != nil {
			return err
		}
		if moved.Archived {
			return invalid(op, movedID, "project is archived")
		}
		if parentID != "" {
			parent, err := loadRef(ctx, c, op, owner, parentID)
			if err != nil {
				return err
			}
			if parent.Archived {
				return invalid(op, parentID, "parent is archived")
			}
			if parent.ID == moved.ID {
				return invalid(op, movedID, "project cannot be its own parent")
			}
			idx, err := projectIndex(ctx, c, owner)
			if err != nil {
				return storageErr(op, err)
			}
			if idx.IsDescendant(parent.ID, moved.ID) {
				return invalid(op, movedID, "cannot move a project into its own subtree")
			}
		}
		out, err = relocateProject(ctx, c, moved, func() (string, order.Placement, error) {
			sc := order.Root(owner)
			if parentID != "" {
				sc = order.Parent(owner, parentID)
			}
			return parentID, order.First(sc), nil
		})
		return storageErr(op, err)
	})
	return out, err
}

// MoveProjectAsFirst moves movedID to the head of the owner's top level.
func (s *Service) MoveProjectAsFirst(ctx context.Context, owner, movedID string) (*model.Project, error) {
	return s.MoveProjectAsFirstChild(ctx, owner, movedID, "")
}

// relocateProject detaches moved from its scope, closing the gap, then asks
// target for the new parent and placement.
func relocateProject(ctx context.Context, c store.Collection[*model.Project], moved *model.Project, target func() (string, order.Placement, error)) (*model.Project, error) {
	if err := closeGaps(ctx, c, []gap{primaryGap(moved)}); err != nil {
		return nil, err
	}
	parentID, p, err := target()
	if err != nil {
		return nil, err
	}
	moved.ParentID = parentID
	if err := place(ctx, c, moved, moved.Scope(), p); err != nil {
		return nil, err
	}
	return c.Save(ctx, moved)
}

// UpdateProject applies patch to the project's content fields.
func (s *Service) UpdateProject(ctx context.Context, owner, id string, patch ProjectPatch) (*model.Project, error) {
	return s.mutateProject(ctx, owner, "update project", id, func(p *model.Project) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Color != nil {
			p.Color = *patch.Color
		}
		if patch.Favorite != nil {
			p.Favorite = *patch.Favorite
		}
		if patch.Collapsed != nil {
			p.Collapsed = *patch.Collapsed
		}
		if patch.Collaborative != nil {
			p.Collaborative = *patch.Collaborative
		}
		return nil
	})
}

// AddCollaborator shares the project with userID.
func (s *Service) AddCollaborator(ctx context.Context, owner, id, userID string, role model.Role) (*model.Project, error) {
	const op = "add collaborator"
	return s.mutateProject(ctx, owner, op, id, func(p *model.Project) error {
		if userID == "" || userID == owner {
			return invalid(op, id, "collaborator must be another user")
		}
		p.AddCollaborator(userID, role, s.now())
		return nil
	})
}

// RemoveCollaborator revokes userID's access.
func (s *Service) RemoveCollaborator(ctx context.Context, owner, id, userID string) (*model.Project, error) {
	const op = "remove collaborator"
	return s.mutateProject(ctx, owner, op, id, func(p *model.Project) error {
		if !p.RemoveCollaborator(userID) {
			return notFound(op, userID)
		}
		return nil
	})
}

func (s *Service) mutateProject(ctx context.Context, owner, op, id string, fn func(*model.Project) error) (*model.Project, error) {
	var out *model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		p, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		p.Touch(s.now())
		out, err = c.Save(ctx, p)
		return storageErr(op, err)
	})
	return out, err
}

// DeleteProject hard-deletes the project, its subprojects and every task and
// habit they contain.
func (s *Service) DeleteProject(ctx context.Context, owner, id string) error {
	const op = "delete project"
	return s.run(ctx, owner, op, func(r store.Repository) error {
		c := r.Projects()
		p, err := load(ctx, c, op, owner, id)
		if err != nil {
			return err
		}
		idx, err := projectIndex(ctx, c, owner)
		if err != nil {
			return storageErr(op, err)
		}
		doomed := make(map[string]bool)
		for _, sp := range idx.Subtree(p.ID) {
			doomed[sp.ID] = true
		}
		if err := deleteProjectContents(ctx, r, owner, doomed); err != nil {
			return storageErr(op, err)
		}
		if err := c.DeleteSubtree(ctx, owner, p.ID); err != nil {
			return storageErr(op, err)
		}
		if !p.Archived {
			return storageErr(op, closeGaps(ctx, c, []gap{primaryGap(p)}))
		}
		return nil
	})
}

func deleteProjectContents(ctx context.Context, r store.Repository, owner string, projects map[string]bool) error {
	tasks, err := r.Tasks().FindByOwner(ctx, owner)
	if err != nil {
		return err
	}
	inSet := make(map[string]bool)
	for _, t := range tasks {
		if projects[t.ProjectID] {
			inSet[t.ID] = true
		}
	}
	var days []gap
	for _, t := range tasks {
		if !inSet[t.ID] {
			continue
		}
		if g, ok := dayGap(t); ok && !t.Archived {
			days = append(days, g)
		}
		if inSet[t.ParentID] {
			continue
		}
		if err := r.Tasks().DeleteSubtree(ctx, owner, t.ID); err != nil && !isMissing(err) {
			return err
		}
	}
	if err := closeGaps(ctx, r.Tasks(), days); err != nil {
		return err
	}
	habits, err := r.Habits().FindByOwner(ctx, owner)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if projects[h.ProjectID] {
			if err := r.Habits().DeleteSubtree(ctx, owner, h.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListProjects returns the active children of parentID in order, or the
// owner's active top level when parentID is empty.
func (s *Service) ListProjects(ctx context.Context, owner, parentID string) ([]*model.Project, error) {
	const op = "list projects"
	var out []*model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		sc := order.Root(owner)
		if parentID != "" {
			if _, err := load(ctx, r.Projects(), op, owner, parentID); err != nil {
				return err
			}
			sc = order.Parent(owner, parentID)
		}
		var err error
		out, err = r.Projects().FindByScope(ctx, sc)
		return storageErr(op, err)
	})
	return out, err
}

// ProjectTree returns the owner's active projects as a depth-first outline.
func (s *Service) ProjectTree(ctx context.Context, owner string) ([]Outlined[*model.Project], error) {
	const op = "project tree"
	var out []Outlined[*model.Project]
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		all, err := r.Projects().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		out = outline(active(all))
		return nil
	})
	return out, err
}

// ArchivedProjects returns the owner's archived projects.
func (s *Service) ArchivedProjects(ctx context.Context, owner string) ([]*model.Project, error) {
	const op = "archived projects"
	var out []*model.Project
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		all, err := r.Projects().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		for _, p := range all {
			if p.Archived {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func active[T model.Node](items []T) []T {
	var out []T
	for _, it := range items {
		if !it.IsArchived() {
			out = append(out, it)
		}
	}
	return out
}

// outline orders items depth first, siblings by position. Items whose parent
// is not among items are treated as roots.
func outline[T model.Node](items []T) []Outlined[T] {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position(order.AxisPrimary) < items[j].Position(order.AxisPrimary)
	})
	idx := tree.New(items)
	var out []Outlined[T]
	var walk func(n T, depth int)
	walk = func(n T, depth int) {
		out = append(out, Outlined[T]{Node: n, Depth: depth})
		for _, c := range idx.Children(n.NodeID()) {
			walk(c, depth+1)
		}
	}
	var roots []T
	for _, it := range items {
		if _, ok := idx.Get(it.NodeParent()); !ok {
			roots = append(roots, it)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := roots[i].Scope(), roots[j].Scope()
		if a.Key() != b.Key() {
			return a.Key() < b.Key()
		}
		return roots[i].Position(order.AxisPrimary) < roots[j].Position(order.AxisPrimary)
	})
	for _, r := range roots {
		walk(r, 0)
	}
	return out
}
