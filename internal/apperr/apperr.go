// Package apperr defines the failure taxonomy shared by repositories,
// services and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// NotFound means the entity is absent or not owned by the caller.
	NotFound Kind = "not_found"
	// Duplicate means a uniqueness constraint was violated.
	Duplicate Kind = "duplicate"
	// AlreadyCompleted means a one-shot entity was completed before.
	AlreadyCompleted Kind = "already_completed"
	// InvalidInput means the request was rejected before any mutation.
	InvalidInput Kind = "invalid_input"
	// Internal covers store and transaction failures.
	Internal Kind = "internal"
)

// Error is a classified failure carrying the operation context it happened in.
type Error struct {
	Kind  Kind
	Op    string
	Owner string
	ID    string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		fmt.Fprintf(&b, " [id=%s]", e.ID)
	}
	if e.Owner != "" {
		fmt.Fprintf(&b, " [owner=%s]", e.Owner)
	}
	b.WriteString(": ")
	switch {
	case e.Msg != "" && e.Err != nil:
		fmt.Fprintf(&b, "%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound         = &Error{Kind: NotFound}
	ErrDuplicate        = &Error{Kind: Duplicate}
	ErrAlreadyCompleted = &Error{Kind: AlreadyCompleted}
	ErrInvalidInput     = &Error{Kind: InvalidInput}
	ErrInternal         = &Error{Kind: Internal}
)

// New builds a classified error.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithOwner returns a copy of e tagged with owner.
func (e *Error) WithOwner(owner string) *Error {
	c := *e
	c.Owner = owner
	return &c
}

// WithID returns a copy of e tagged with the entity id.
func (e *Error) WithID(id string) *Error {
	c := *e
	c.ID = id
	return &c
}

// KindOf reports the kind of err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Duplicate, AlreadyCompleted:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Internal details are hidden.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == Internal {
		return "internal error"
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}
