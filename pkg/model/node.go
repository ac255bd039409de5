// Package model defines the ordered records managed by the planner: projects,
// tasks, habits, labels and filters.
package model

import (
	"time"

	"tableflip.dev/planner/pkg/order"
)

// Node is the shape shared by every ordered record.
type Node interface {
	NodeID() string
	NodeOwner() string
	// NodeParent is the id of the parent node of the same kind, or "".
	NodeParent() string
	IsArchived() bool
	SetArchived(bool)
	// Scope is the primary scope the node's Order is ranked in.
	Scope() order.Scope
	Position(order.Axis) int
	SetPosition(order.Axis, int)
	Touch(time.Time)
}

// DayScoped is implemented by nodes that also take part in the daily view.
type DayScoped interface {
	// DayScope returns the daily-view scope, or false when the node has no
	// due day.
	DayScope() (order.Scope, bool)
}

// InScope reports whether n is a member of s on s's axis. Archived nodes are
// still members; callers that rank siblings exclude them separately.
func InScope(n Node, s order.Scope) bool {
	if n.NodeOwner() != s.Owner {
		return false
	}
	if s.Axis() == order.AxisDaily {
		d, ok := n.(DayScoped)
		if !ok {
			return false
		}
		ds, ok := d.DayScope()
		return ok && ds == s
	}
	return n.Scope() == s
}

// Ranked reports whether n counts toward the density of s.
func Ranked(n Node, s order.Scope) bool {
	return !n.IsArchived() && InScope(n, s)
}

// Meta holds the fields every record carries.
type Meta struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"owner"`
	Order    int       `json:"order"`
	Archived bool      `json:"archived,omitempty"`
	Updated  Timestamp `json:"updated"`
}

func (m *Meta) NodeID() string    { return m.ID }
func (m *Meta) NodeOwner() string { return m.OwnerID }
func (m *Meta) IsArchived() bool  { return m.Archived }
func (m *Meta) SetArchived(v bool) {
	m.Archived = v
}
func (m *Meta) Touch(t time.Time) { m.Updated = Timestamp{Time: t} }

// Init stamps a new record with its identity and owner.
func (m *Meta) Init(id, owner string, at time.Time) {
	m.ID = id
	m.OwnerID = owner
	m.Archived = false
	m.Updated = Timestamp{Time: at}
}

// Position returns Order for the primary axis. Records without a daily view
// report 0 on the daily axis.
func (m *Meta) Position(a order.Axis) int {
	if a == order.AxisPrimary {
		return m.Order
	}
	return 0
}

func (m *Meta) SetPosition(a order.Axis, v int) {
	if a == order.AxisPrimary {
		m.Order = v
	}
}
