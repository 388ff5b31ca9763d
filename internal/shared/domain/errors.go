package domain

import (
	"errors"
	"fmt"
)

// ---------------- Resource error taxonomy ----------------

// ErrorKind is the closed set of failure kinds a facade caller can observe.
type ErrorKind string

const (
	KindMissing  ErrorKind = "resource_missing"
	KindUnique   ErrorKind = "resource_unique"
	KindConflict ErrorKind = "resource_conflict"
	KindError    ErrorKind = "resource_error"
)

// ResourceError carries the failing resource name and a human-readable
// detail alongside the kind. Store-specific causes stay wrapped inside
// and never leak as the caller-visible type.
type ResourceError struct {
	Kind     ErrorKind
	Resource string
	Detail   string
	cause    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: resource=%s detail=%s", e.Kind, e.Resource, e.Detail)
}

func (e *ResourceError) Unwrap() error { return e.cause }

// NewMissing signals that no entity matched where one was required.
func NewMissing(resource, detail string) *ResourceError {
	return &ResourceError{Kind: KindMissing, Resource: resource, Detail: detail}
}

// NewUnique signals that multiple entities matched where exactly one was required.
func NewUnique(resource, detail string) *ResourceError {
	return &ResourceError{Kind: KindUnique, Resource: resource, Detail: detail}
}

// NewConflict signals a uniqueness violation while persisting.
func NewConflict(resource, detail string, cause error) *ResourceError {
	return &ResourceError{Kind: KindConflict, Resource: resource, Detail: detail, cause: cause}
}

// WrapResource is the catch-all: any failure that is not already typed
// becomes a generic resource error tagged with the resource name.
func WrapResource(resource string, cause error) *ResourceError {
	return &ResourceError{Kind: KindError, Resource: resource, Detail: cause.Error(), cause: cause}
}

// IsKind reports whether err is a ResourceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *ResourceError
	return errors.As(err, &re) && re.Kind == kind
}

func IsMissing(err error) bool  { return IsKind(err, KindMissing) }
func IsUnique(err error) bool   { return IsKind(err, KindUnique) }
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// ---------------- Filter compilation errors ----------------

// Malformed filter keys are programmer errors, not runtime data
// conditions: they propagate as-is through the facade boundary.
var (
	ErrInvalidFilterOperator  = errors.New("invalid filter operator")
	ErrInvalidFilterAttribute = errors.New("invalid filter attribute")
)
