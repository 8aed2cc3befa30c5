package stac

import (
	"errors"
	"fmt"
)

// I/O failure taxonomy. Reader and Writer implementations wrap one of these so
// callers can tell a missing document from a broken one.
var (
	// ErrNotFound indicates that no document exists at an href.
	ErrNotFound = errors.New("stac: document not found")
	// ErrMalformed indicates that a document exists but is not a JSON object.
	ErrMalformed = errors.New("stac: malformed document")
	// ErrTransport covers every other read or write failure.
	ErrTransport = errors.New("stac: transport failure")
)

var (
	ErrStructural       = errors.New("stac: structural error")
	ErrDuplicateID      = errors.New("stac: duplicate id")
	ErrUnresolvableLink = errors.New("stac: unresolvable link")
	ErrLayout           = errors.New("stac: layout error")

	// ErrSelfLinkResolution is returned when a self link is resolved; self
	// links describe the owner's location, never another object.
	ErrSelfLinkResolution = errors.New("stac: self links cannot be resolved")
	ErrResolutionCycle    = errors.New("stac: link is already being resolved")
	ErrMissingSelfHref    = errors.New("stac: object has no self href")
	ErrNoCommonRoot       = errors.New("stac: hrefs share no common root")
	ErrObjectNotFound     = errors.New("stac: object not found")
	ErrTypeMismatch       = errors.New("stac: unexpected object type")
	ErrNoBaseHref         = errors.New("stac: relative href has no base")
	ErrNoReader           = errors.New("stac: no reader configured")
)

// StructuralError reports a document that cannot be typed as a Catalog,
// Collection or Item, or that lacks a field its type requires.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "stac: invalid document: " + e.Reason
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

func structural(format string, args ...any) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// DuplicateIDError is returned when a second, distinct object claims an id that
// is already taken within one root scope.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("stac: duplicate id %q in root scope", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// UnresolvableLinkError wraps the cause of a failed link resolution.
type UnresolvableLinkError struct {
	Rel  string
	Href string
	Err  error
}

func (e *UnresolvableLinkError) Error() string {
	return fmt.Sprintf("stac: cannot resolve %s link %q: %v", e.Rel, e.Href, e.Err)
}

func (e *UnresolvableLinkError) Unwrap() error { return e.Err }

func (e *UnresolvableLinkError) Is(target error) bool { return target == ErrUnresolvableLink }

// LayoutError reports the object whose href could not be assigned.
type LayoutError struct {
	ObjectID string
	Err      error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("stac: cannot lay out %q: %v", e.ObjectID, e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

func (e *LayoutError) Is(target error) bool { return target == ErrLayout }

// TemplateError is returned when a layout template references a variable the
// object does not provide.
type TemplateError struct {
	Template string
	Variable string
	Reason   string
}

func (e *TemplateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("stac: template %q: %s", e.Template, e.Reason)
	}
	return fmt.Sprintf("stac: template %q: no value for ${%s}", e.Template, e.Variable)
}

func (e *TemplateError) Is(target error) bool { return target == ErrLayout }
