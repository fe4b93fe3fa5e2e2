// Package apperr defines the error taxonomy shared by storage, services and
// HTTP handlers. Services return a typed error instead of branching through
// wrapped control flow; the handler edge maps the kind to an HTTP status.
package apperr

import "errors"

// Kind classifies an error for the caller.
type Kind int

const (
	// KindValidation marks missing or invalid input fields.
	KindValidation Kind = iota + 1
	// KindUnauthorized marks a failed credential or token check.
	KindUnauthorized
	// KindForbidden marks a non-admin attempting an admin action.
	KindForbidden
	// KindNotFound marks an unknown id or a record owned by another caller;
	// the two are intentionally indistinguishable.
	KindNotFound
	// KindConflict marks a duplicate active subscription or a plan delete
	// blocked by active references.
	KindConflict
)

// Error carries a kind and a caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Validation returns a KindValidation error with the given message.
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// Unauthorized returns a KindUnauthorized error with the given message.
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Forbidden returns a KindForbidden error with the given message.
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }

// NotFound returns a KindNotFound error with the given message.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict returns a KindConflict error with the given message.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// KindOf extracts the kind from err, unwrapping as needed. It returns 0 for
// unclassified errors, which surface as server errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
