package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a resolution failure. Kinds are stable strings
// so they survive logging and JSON round-trips.
type ErrorKind string

const (
	// ErrFileNotFound reports a local schema file that does not exist
	// or could not be read.
	ErrFileNotFound ErrorKind = "file_not_found"

	// ErrMalformedXML reports content that is not well-formed XML.
	ErrMalformedXML ErrorKind = "malformed_xml"

	// ErrInvalidSchema reports well-formed XML that is not a schema
	// document, or a directive that violates namespace rules.
	ErrInvalidSchema ErrorKind = "invalid_schema"

	// ErrCircularReference reports a reference back into a document
	// that is still being resolved.
	ErrCircularReference ErrorKind = "circular_reference"

	// ErrUnresolvedReference reports a schemaLocation that could not
	// be turned into a loadable document, including references blocked
	// by the URL safety gate.
	ErrUnresolvedReference ErrorKind = "unresolved_reference"

	// ErrMaxDepthExceeded reports an include chain deeper than the
	// configured limit.
	ErrMaxDepthExceeded ErrorKind = "max_depth_exceeded"

	// ErrNetwork reports a transport-level failure fetching a remote
	// schema document.
	ErrNetwork ErrorKind = "network_error"

	// ErrNetworkTimeout reports a remote fetch that exceeded its
	// deadline. It is distinct from ErrNetwork so callers can retry
	// timeouts without retrying hard failures.
	ErrNetworkTimeout ErrorKind = "network_timeout"
)

// Error is the failure type returned by every resolution operation in
// the module. It carries enough location detail to report the failing
// document, the reference that led to it, and, for parse failures, the
// position inside the document.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Source is the document in which the failure was observed, when
	// known. For fetch failures this is the referring document.
	Source SourceID

	// Ref is the raw schemaLocation (or resolved identity) of the
	// reference that failed, when the failure is tied to one.
	Ref string

	// Line and Column locate parse failures inside the document.
	// Zero means unknown.
	Line   int
	Column int

	// Message describes the failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if !e.Source.IsZero() {
		fmt.Fprintf(&b, " (source %s", e.Source)
		if e.Ref != "" {
			fmt.Fprintf(&b, ", ref %q", e.Ref)
		}
		b.WriteString(")")
	} else if e.Ref != "" {
		fmt.Fprintf(&b, " (ref %q)", e.Ref)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ", column %d", e.Column)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err, or any error it wraps, is a schema Error
// of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// KindOf returns the kind of the schema Error wrapped by err, or the
// empty string if err carries none.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Warning is a non-fatal finding produced during lenient resolution.
// Warnings are collected in document order and surfaced alongside the
// result rather than aborting it.
type Warning struct {
	// Source is the document the warning was raised in.
	Source SourceID

	// Ref is the reference the warning concerns, when applicable.
	Ref string

	// Message describes the finding.
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Message)
	if !w.Source.IsZero() {
		fmt.Fprintf(&b, " (source %s", w.Source)
		if w.Ref != "" {
			fmt.Fprintf(&b, ", ref %q", w.Ref)
		}
		b.WriteString(")")
	}
	return b.String()
}
