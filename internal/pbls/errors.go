package pbls

import "fmt"

// errUnknownFile is returned when an operation names a URI the workspace has
// not opened.
type errUnknownFile struct {
	uri string
}

func (e *errUnknownFile) Error() string {
	return fmt.Sprintf("unknown file: %s", e.uri)
}

// errUnsupportedScheme is returned when didOpen names a non-file:// URI.
type errUnsupportedScheme struct {
	scheme string
}

func (e *errUnsupportedScheme) Error() string {
	return fmt.Sprintf("unsupported URI scheme: %q", e.scheme)
}

// errMissingEditRange is returned when a change event carries no range.
type errMissingEditRange struct{}

func (e *errMissingEditRange) Error() string {
	return "edit: change event has no range"
}

// errInvalidEditPosition is returned when a change event's line does not
// exist in the current text. Columns past end-of-line clamp instead of
// failing.
type errInvalidEditPosition struct {
	line, character int
}

func (e *errInvalidEditPosition) Error() string {
	return fmt.Sprintf("edit: position %d:%d is out of range", e.line, e.character)
}
