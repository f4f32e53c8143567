// Package blockerr defines errors reported while parsing and compiling blocks.
//
// Every error carries an optional source location so the build pipeline and
// editors can point at the offending line. Several errors found on a single
// block are collected and reported together as one cascading error.
package blockerr

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Kind classifies block errors.
type Kind int

const (
	KindGeneric            Kind = iota // any other semantic problem
	KindInvalidBlockSyntax             // malformed or unresolvable block constructs
	KindMissingSourcePath              // stylesheet without identifying file path
	KindBlockPath                      // malformed block path expression
	KindCascading                      // several errors reported together
)

func (k Kind) String() string {
	switch k {
	case KindInvalidBlockSyntax:
		return "InvalidBlockSyntax"
	case KindMissingSourcePath:
		return "MissingSourcePath"
	case KindBlockPath:
		return "BlockPathError"
	case KindCascading:
		return "MultipleCssBlockErrors"
	default:
		return "Error"
	}
}

// Location points into a source file. Line and Column are 1 based, zero means
// unknown.
type Location struct {
	Filename string
	Line     int
	Column   int
}

func (l Location) String() string {
	switch {
	case l.Line == 0:
		return l.Filename
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.Filename, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
	}
}

// Error is a single block error.
type Error struct {
	Kind    Kind
	Message string
	Loc     *Location

	errs []error // only for KindCascading
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[css-blocks] ")
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Loc != nil && e.Loc.Filename != "" {
		b.WriteString(" (")
		b.WriteString(e.Loc.String())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes the individual errors of a cascading error.
func (e *Error) Unwrap() []error {
	return e.errs
}

// Errors returns individual errors for cascading error or the error itself.
func (e *Error) Errors() []error {
	if e.Kind == KindCascading {
		return e.errs
	}
	return []error{e}
}

// New returns a generic block error.
func New(loc *Location, format string, args ...any) error {
	return &Error{Kind: KindGeneric, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// Syntax returns an InvalidBlockSyntax error.
func Syntax(loc *Location, format string, args ...any) error {
	return &Error{Kind: KindInvalidBlockSyntax, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// Path returns a BlockPath error.
func Path(loc *Location, format string, args ...any) error {
	return &Error{Kind: KindBlockPath, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// MissingSourcePath is returned when a stylesheet has no file path to report
// errors against.
func MissingSourcePath() error {
	return &Error{Kind: KindMissingSourcePath, Message: "Stylesheet has no source file path. The source file path is required to compile blocks."}
}

// Cascade combines errors. It returns nil for no errors, the error itself when
// there is only one and a cascading error otherwise.
func Cascade(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var be *Error
		if errors.As(err, &be) && be.Kind == KindCascading {
			flat = append(flat, be.errs...)
			continue
		}
		flat = append(flat, err)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Error{
		Kind:    KindCascading,
		Message: fmt.Sprintf("%d errors: %s", len(flat), multierr.Combine(flat...).Error()),
		errs:    flat,
	}
}

// Is reports whether err (or anything it wraps) is a block error of the
// requested kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	if be.Kind == kind {
		return true
	}
	for _, e := range be.errs {
		if Is(e, kind) {
			return true
		}
	}
	return false
}

// LocOf returns location of the block error, if any.
func LocOf(err error) *Location {
	var be *Error
	if errors.As(err, &be) {
		return be.Loc
	}
	return nil
}
