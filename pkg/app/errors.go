package app

import (
	"errors"
	"fmt"

	"tableflip.dev/planner/pkg/store"
)

// Failure kinds. Every error returned by Service satisfies errors.Is against
// exactly one of these, or wraps a storage failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrWrongOwner   = errors.New("wrong owner")
	ErrInvalidState = errors.New("invalid state")
)

// Error describes a rejected operation. It still satisfies errors.Is(err,
// Kind).
type Error struct {
	Kind   error
	Op     string
	ID     string
	Reason string
}

func (e *Error) Error() string {
	msg := "app: " + e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func notFound(op, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, ID: id}
}

func wrongOwner(op, id string) error {
	return &Error{Kind: ErrWrongOwner, Op: op, ID: id}
}

func invalid(op, id, reason string) error {
	return &Error{Kind: ErrInvalidState, Op: op, ID: id, Reason: reason}
}

// storageErr wraps a collaborator failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return fmt.Errorf("app: %s: %w", op, err)
}

func isMissing(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
