package decl

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDeclaration  = errors.New("malformed declaration")
	ErrDuplicateDeclaration  = errors.New("duplicate declaration")
	ErrUnknownType           = errors.New("unknown type")
	ErrTypeAlreadyRegistered = errors.New("type already registered")
	ErrInvalidLayout         = errors.New("invalid layout")
	ErrValidation            = errors.New("validation failed")
)

// Validation sub-reasons. A *ValidationError carries exactly one of these.
var (
	ErrBadAutoSize          = errors.New("bad auto-size reference")
	ErrBadCheck             = errors.New("invalid check count")
	ErrMixedConventions     = errors.New("inconsistent output-buffer convention")
	ErrMultipleQueryBuffers = errors.New("more than one query-or-write buffer")
	ErrBadStatus            = errors.New("bad status parameter")
	ErrBadLengthOf          = errors.New("bad length_of reference")
	ErrBadExpression        = errors.New("bad size expression")
)

// ValidationError reports the first failed check for one function.
type ValidationError struct {
	Function string
	Param    string // empty when the failure concerns the return type or the function
	Reason   error
	Detail   string
}

func (e *ValidationError) Error() string {
	path := e.Function
	if e.Param != "" {
		path += "." + e.Param
	}
	msg := fmt.Sprintf("phase=validate path=%s: %v: %v", path, ErrValidation, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes both ErrValidation and the sub-reason to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("phase=parse path=%s: %w: %s", path, ErrMalformedDeclaration, fmt.Sprintf(format, args...))
}

func duplicate(path, kind, name string) error {
	return fmt.Errorf("phase=parse path=%s: %w: %s %q", path, ErrDuplicateDeclaration, kind, name)
}
