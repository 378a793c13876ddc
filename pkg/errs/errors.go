// Package errs defines the error classes reported by a reconciliation.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of an error.
type Kind string

const (
	// KindValidation indicates desired input that is malformed or contradictory.
	KindValidation Kind = "validation"
	// KindParse indicates device output that could not be turned into records.
	KindParse Kind = "parse"
	// KindUnsupported indicates a state the resource does not implement.
	KindUnsupported Kind = "unsupported"
)

// Error carries a Kind, the resource it was raised for and either a list of
// problems or a wrapped cause.
type Error struct {
	Kind     Kind
	Resource string
	Problems []string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindValidation:
		b.WriteString("validation failed")
	case KindParse:
		b.WriteString("parse failed")
	default:
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Problems) > 0 {
		b.WriteString(":\n - ")
		b.WriteString(strings.Join(e.Problems, "\n - "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validation returns a validation error listing every problem, or nil when
// problems is empty.
func Validation(resource string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Resource: resource, Problems: problems}
}

// Parse wraps a formatted cause as a parse error.
func Parse(resource string, format string, args ...any) error {
	return &Error{Kind: KindParse, Resource: resource, Err: fmt.Errorf(format, args...)}
}

// Unsupported reports a state that resource does not implement.
func Unsupported(resource, state string) error {
	return &Error{Kind: KindUnsupported, Resource: resource, Err: fmt.Errorf("state %q is not supported", state)}
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Problems returns the problem list of the first *Error in err's chain.
func Problems(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Problems
	}
	return nil
}
