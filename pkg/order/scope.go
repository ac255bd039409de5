// Package order implements the scoped positional index shared by every
// ordered collection: projects, tasks, habits, labels and filters.
package order

import (
	"fmt"
	"strings"
)

// Kind identifies the structural context a scope groups siblings by.
type Kind string

const (
	// KindRoot groups top-level nodes of an owner.
	KindRoot Kind = "root"
	// KindParent groups the children of one parent node.
	KindParent Kind = "parent"
	// KindProject groups top-level tasks or habits of one project.
	KindProject Kind = "project"
	// KindInbox groups top-level tasks without a project.
	KindInbox Kind = "inbox"
	// KindDay groups tasks due on one calendar day (the daily view).
	KindDay Kind = "day"
)

// Axis selects which order field of a node a scope ranks.
type Axis int

const (
	AxisPrimary Axis = iota
	AxisDaily
)

// Scope is the grouping key within which order values must be dense.
// The zero value is not a valid scope.
type Scope struct {
	Kind  Kind
	Owner string
	// ID is the parent, project or day key depending on Kind.
	ID string
}

func Root(owner string) Scope { return Scope{Kind: KindRoot, Owner: owner} }

func Inbox(owner string) Scope { return Scope{Kind: KindInbox, Owner: owner} }

func Parent(owner, parentID string) Scope {
	return Scope{Kind: KindParent, Owner: owner, ID: parentID}
}

func Project(owner, projectID string) Scope {
	return Scope{Kind: KindProject, Owner: owner, ID: projectID}
}

// Day returns the daily-view scope for a calendar day key (2006-01-02).
func Day(owner, day string) Scope {
	return Scope{Kind: KindDay, Owner: owner, ID: day}
}

// Axis reports which order field the scope ranks.
func (s Scope) Axis() Axis {
	if s.Kind == KindDay {
		return AxisDaily
	}
	return AxisPrimary
}

// IsZero reports whether s is the zero scope.
func (s Scope) IsZero() bool { return s.Kind == "" }

// Key serializes the scope without its owner, e.g. "parent:1234" or "inbox".
// Storage backends index nodes by this value.
func (s Scope) Key() string {
	switch s.Kind {
	case KindRoot, KindInbox:
		return string(s.Kind)
	default:
		return string(s.Kind) + ":" + s.ID
	}
}

func (s Scope) String() string {
	return s.Owner + "/" + s.Key()
}

// ParseKey is the inverse of Key.
func ParseKey(owner, key string) (Scope, error) {
	kind, id, _ := strings.Cut(key, ":")
	s := Scope{Kind: Kind(kind), Owner: owner, ID: id}
	switch s.Kind {
	case KindRoot, KindInbox:
		if id != "" {
			return Scope{}, fmt.Errorf("order: scope %q takes no id", kind)
		}
	case KindParent, KindProject, KindDay:
		if id == "" {
			return Scope{}, fmt.Errorf("order: scope %q requires an id", kind)
		}
	default:
		return Scope{}, fmt.Errorf("order: unknown scope kind %q", kind)
	}
	return s, nil
}
