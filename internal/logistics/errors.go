package logistics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates an input failed a precondition.
	ErrValidation = errors.New("logistics: validation failed")
	// ErrNotFound indicates a referenced id or number does not exist.
	ErrNotFound = errors.New("logistics: not found")
	// ErrDuplicateID indicates a create targeted an existing id or number.
	ErrDuplicateID = errors.New("logistics: duplicate id")
	// ErrInvalidTransition indicates a status change outside the state machine.
	ErrInvalidTransition = errors.New("logistics: invalid status transition")
)

// Error carries the error kind plus the offending entity and key.
type Error struct {
	Kind   error
	Entity string
	Key    string
	From   string
	To     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
		if e.Key != "" {
			fmt.Fprintf(&b, " %s", e.Key)
		}
	}
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&b, ": %s -> %s", e.From, e.To)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationError(entity, key, detail string) *Error {
	return &Error{Kind: ErrValidation, Entity: entity, Key: key, Detail: detail}
}

func wrapValidation(entity, key string, cause error) *Error {
	return &Error{Kind: ErrValidation, Entity: entity, Key: key, Err: cause}
}

func notFoundError(entity, key string) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, Key: key}
}

func duplicateError(entity, key, detail string) *Error {
	return &Error{Kind: ErrDuplicateID, Entity: entity, Key: key, Detail: detail}
}

func transitionError[S ~string](entity, key string, from, to S) *Error {
	return &Error{Kind: ErrInvalidTransition, Entity: entity, Key: key, From: string(from), To: string(to)}
}

func transitionDetail[S ~string](entity, key string, from, to S, detail string) *Error {
	err := transitionError(entity, key, from, to)
	err.Detail = detail
	return err
}
