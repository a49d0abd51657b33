// Package runerr defines the six error kinds the indexer surfaces
// (spec.md §7) inside a single typed envelope, and the "first error wins"
// capture primitive the driver uses across its parallel phases (spec.md
// §5). It is grounded on the teacher's errors.ErrorEnvelope, trimmed of the
// telemetry-emission and configurable-handling-strategy machinery that
// doesn't apply to a batch indexer (there is no request to attach
// telemetry to, and disposition for every kind here is "abort the run" —
// not a per-call strategy choice).
package runerr

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies one of the six error categories spec.md §7 names.
type Kind string

const (
	KindConfigurationValidation Kind = "ConfigurationValidationError"
	KindResolverOutsideBase     Kind = "ResolverOutsideBaseError"
	KindDuplicateIdentifier     Kind = "DuplicateIdentifierError"
	KindSchemaResolution        Kind = "SchemaResolutionError"
	KindMetaPackFormat          Kind = "MetaPackFormatError"
	KindURIParse                Kind = "URIParseError"
)

// Severity mirrors the teacher's Severity enum, kept because the driver's
// first-error-wins capture benefits from distinguishing a hard abort from
// a recorded-but-continuable warning (e.g. a health-lint finding is never
// wrapped in an Envelope; only abort-worthy failures are).
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Envelope is the structured error every abort-worthy failure is reported
// through.
type Envelope struct {
	Kind    Kind
	Message string
	// File and Pointer locate the failure inside a configuration or schema
	// document, when applicable (JSON Pointer syntax, e.g. "/schemas/a").
	File    string
	Pointer string
	// Severity defaults to SeverityError; SeverityCritical is reserved for
	// failures that also indicate on-disk corruption (MetaPackFormatError).
	Severity Severity
	// CorrelationID identifies this one failure instance across log lines
	// and, for an enterprise server rebuilding many registries, across a
	// fleet of concurrent runs — assigned once at construction, never
	// reused.
	CorrelationID string
}

func (e *Envelope) Error() string {
	switch {
	case e.File != "" && e.Pointer != "":
		return fmt.Sprintf("%s: %s (%s%s)", e.Kind, e.Message, e.File, e.Pointer)
	case e.File != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.File)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// New constructs an Envelope with SeverityError.
func New(kind Kind, format string, args ...any) *Envelope {
	return &Envelope{Kind: kind, Message: fmt.Sprintf(format, args...), Severity: SeverityError, CorrelationID: uuid.NewString()}
}

// NewAt constructs an Envelope carrying a source file and JSON Pointer.
func NewAt(kind Kind, file, pointer, format string, args ...any) *Envelope {
	return &Envelope{Kind: kind, Message: fmt.Sprintf(format, args...), File: file, Pointer: pointer, Severity: SeverityError, CorrelationID: uuid.NewString()}
}

// FirstErrorSlot captures the first error reported to it and ignores every
// subsequent one — the "first exception wins" semantics spec.md §5 and §7
// require across parallel workers. Safe for concurrent use.
type FirstErrorSlot struct {
	once sync.Once
	mu   sync.Mutex
	err  error
}

// Report records err if no error has been reported yet. Safe to call from
// many goroutines concurrently; only the first non-nil err is kept.
func (s *FirstErrorSlot) Report(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first error reported, or nil if none was.
func (s *FirstErrorSlot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
