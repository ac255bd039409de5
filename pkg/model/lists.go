package model

import "tableflip.dev/planner/pkg/order"

// Habit is a flat record ordered within its project, or the owner's root
// when it has none.
type Habit struct {
	Meta
	ProjectID string `json:"project,omitempty"`
	Name      string `json:"name"`
	Goal      string `json:"goal,omitempty"`
}

func (h *Habit) NodeParent() string { return "" }

func (h *Habit) Scope() order.Scope {
	if h.ProjectID != "" {
		return order.Project(h.OwnerID, h.ProjectID)
	}
	return order.Root(h.OwnerID)
}

func (h *Habit) Clone() *Habit {
	c := *h
	return &c
}

// Label tags tasks. Labels are ordered per owner.
type Label struct {
	Meta
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

func (l *Label) NodeParent() string { return "" }

func (l *Label) Scope() order.Scope { return order.Root(l.OwnerID) }

func (l *Label) Clone() *Label {
	c := *l
	return &c
}

// Filter is a saved query. Query is stored verbatim and never parsed here.
type Filter struct {
	Meta
	Name     string `json:"name"`
	Query    string `json:"query"`
	Color    string `json:"color,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

func (f *Filter) NodeParent() string { return "" }

func (f *Filter) Scope() order.Scope { return order.Root(f.OwnerID) }

func (f *Filter) Clone() *Filter {
	c := *f
	return &c
}
