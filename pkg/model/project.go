package model

import (
	"time"

	"tableflip.dev/planner/pkg/order"
)

// Role is a collaborator's permission on a shared project.
type Role string

const (
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Collaborator grants another user access to a project.
type Collaborator struct {
	UserID string    `json:"user"`
	Role   Role      `json:"role,omitempty"`
	Added  Timestamp `json:"added"`
}

// Project is a node in the project forest. It contains tasks and habits.
type Project struct {
	Meta
	ParentID      string         `json:"parent,omitempty"`
	Name          string         `json:"name"`
	Color         string         `json:"color,omitempty"`
	Favorite      bool           `json:"favorite,omitempty"`
	Collapsed     bool           `json:"collapsed,omitempty"`
	Collaborative bool           `json:"collaborative,omitempty"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}

func (p *Project) NodeParent() string { return p.ParentID }

// Scope is (owner, parent project) or the owner's root.
func (p *Project) Scope() order.Scope {
	if p.ParentID != "" {
		return order.Parent(p.OwnerID, p.ParentID)
	}
	return order.Root(p.OwnerID)
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	c := *p
	c.Collaborators = append([]Collaborator(nil), p.Collaborators...)
	return &c
}

// HasCollaborator reports whether userID is on the project.
func (p *Project) HasCollaborator(userID string) bool {
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// AddCollaborator adds or updates userID and marks the project
// collaborative.
func (p *Project) AddCollaborator(userID string, role Role, now time.Time) {
	if role == "" {
		role = RoleEditor
	}
	for i, c := range p.Collaborators {
		if c.UserID == userID {
			p.Collaborators[i].Role = role
			p.Collaborative = true
			return
		}
	}
	p.Collaborators = append(p.Collaborators, Collaborator{UserID: userID, Role: role, Added: Timestamp{Time: now}})
	p.Collaborative = true
}

// RemoveCollaborator drops userID. The project stops being collaborative
// once nobody is left.
func (p *Project) RemoveCollaborator(userID string) bool {
	for i, c := range p.Collaborators {
		if c.UserID == userID {
			p.Collaborators = append(p.Collaborators[:i], p.Collaborators[i+1:]...)
			p.Collaborative = len(p.Collaborators) > 0
			return true
		}
	}
	return false
}
