// Package errs implements the error taxonomy described for the engine:
// configuration errors (registration-time failures), job-runtime errors
// (a job function's returned error), and transport errors (loss of the
// frame-result channel). It is grounded on the original engine's
// Error/SourceLocation pair, adapted to Go's error-wrapping idiom
// (fmt.Errorf("...: %w", err), errors.Is/errors.As) rather than the
// source/message pair the Rust version used.
package errs

import (
	"fmt"
	"runtime"
)

// Kind distinguishes the three error categories named by the scheduler and
// scene-construction contracts.
type Kind int

const (
	// Configuration marks a registration/construction-time failure: an
	// unknown resource label, a missing JSON field, a cyclic job
	// dependency, or contradictory resource access. These abort scene or
	// scheduler construction and never reach the frame-result channel.
	Configuration Kind = iota
	// JobRuntime marks an error returned from a job function during a
	// frame.
	JobRuntime
	// Transport marks loss of the frame-result channel; treated as fatal
	// for the owning scene.
	Transport
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case JobRuntime:
		return "job-runtime"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// SourceLocation pinpoints where an error originated: either a Go
// file:line (the common case, captured via Here) or a path into a scene's
// JSON document (used by scene ingestion errors, e.g.
// "entities[3].components.unknown_label").
type SourceLocation struct {
	File      string
	Line      int
	ScenePath string
}

func (l SourceLocation) String() string {
	if l.ScenePath != "" {
		return l.ScenePath
	}
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Here captures the caller's file and line, mirroring the source's
// #[track_caller] convenience for constructing a SourceLocation inline at
// the error site.
func Here() SourceLocation {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return SourceLocation{}
	}
	return SourceLocation{File: file, Line: line}
}

// AtScenePath builds a SourceLocation pointing at a JSON path within a
// scene document, for errors raised during scene ingestion.
func AtScenePath(path string) SourceLocation {
	return SourceLocation{ScenePath: path}
}

// Error is the module's error type. It implements Unwrap so errors.Is/As
// compose through a wrapped cause, matching the rest of the module's
// fmt.Errorf("...: %w", err) wrapping idiom.
type Error struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Cause    error
}

func (e *Error) Error() string {
	loc := e.Location.String()
	if loc != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s error at %s: %s: %v", e.Kind, loc, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s error at %s: %s", e.Kind, loc, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, loc SourceLocation, message string) *Error {
	return &Error{Kind: kind, Message: message, Location: loc}
}

// Wrap builds an Error carrying cause, so errors.Is(err, cause) still
// succeeds after wrapping.
func Wrap(kind Kind, loc SourceLocation, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Location: loc, Cause: cause}
}

// AsJobRuntime wraps err as a JobRuntime Error unless it already is one, so
// the scheduler never double-wraps a job function's own *errs.Error.
func AsJobRuntime(loc SourceLocation, err error) error {
	if err == nil {
		return nil
	}
	if existing, ok := err.(*Error); ok {
		return existing
	}
	return Wrap(JobRuntime, loc, "job returned an error", err)
}
