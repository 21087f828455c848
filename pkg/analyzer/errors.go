package analyzer

import (
	"errors"
	"fmt"
)

// ParseError reports input that could not be decoded as JSON.
type ParseError struct {
	// Offset is the byte offset at which decoding stopped, when known.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid JSON at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedStructureError reports a top-level value that cannot be turned
// into records (a bare scalar or null).
type UnsupportedStructureError struct {
	// Kind names the offending top-level value, e.g. "null" or "text".
	Kind string
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("unsupported JSON top-level structure: %s", e.Kind)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsUnsupportedStructure reports whether err is or wraps an
// *UnsupportedStructureError.
func IsUnsupportedStructure(err error) bool {
	var ue *UnsupportedStructureError
	return errors.As(err, &ue)
}
