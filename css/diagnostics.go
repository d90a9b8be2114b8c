package css

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Sentinel errors every Diagnostic unwraps to.
var (
	ErrMalformedRule         = errors.New("malformed rule")
	ErrMalformedSelector     = errors.New("malformed selector")
	ErrInvalidValue          = errors.New("invalid value")
	ErrCyclicVariable        = errors.New("cyclic variable reference")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
)

// DiagnosticKind classifies recoverable problems found while parsing or
// cascading. None of them is fatal.
type DiagnosticKind int

const (
	MalformedRule DiagnosticKind = iota
	MalformedSelector
	InvalidValue
	CyclicVariable
	ResourceLimitExceeded
)

var diagnosticKindNames = [...]string{
	MalformedRule:         "MalformedRule",
	MalformedSelector:     "MalformedSelector",
	InvalidValue:          "InvalidValue",
	CyclicVariable:        "CyclicVariable",
	ResourceLimitExceeded: "ResourceLimitExceeded",
}

var diagnosticKindErrors = [...]error{
	MalformedRule:         ErrMalformedRule,
	MalformedSelector:     ErrMalformedSelector,
	InvalidValue:          ErrInvalidValue,
	CyclicVariable:        ErrCyclicVariable,
	ResourceLimitExceeded: ErrResourceLimitExceeded,
}

func (k DiagnosticKind) String() string {
	if k < 0 || int(k) >= len(diagnosticKindNames) {
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
	return diagnosticKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diagnostic describes a single recoverable problem.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Line    int            `json:"line,omitempty"`    // 1-based source line, 0 when unknown
	Context string         `json:"context,omitempty"` // offending selector, property or rule text
}

func (d Diagnostic) Error() string {
	var s string
	if d.Line > 0 {
		s = fmt.Sprintf("line %d: ", d.Line)
	}
	s += d.Message
	if d.Context != "" {
		s += fmt.Sprintf(" (%s)", d.Context)
	}
	return s
}

// Unwrap allows errors.Is checks against the sentinel errors.
func (d Diagnostic) Unwrap() error {
	if d.Kind < 0 || int(d.Kind) >= len(diagnosticKindErrors) {
		return nil
	}
	return diagnosticKindErrors[d.Kind]
}

// Diagnostics is an ordered list of problems.
type Diagnostics []Diagnostic

// Count returns number of diagnostics of the given kind.
func (ds Diagnostics) Count(kind DiagnosticKind) int {
	var n int
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Err combines all diagnostics into a single error, nil if there are none.
func (ds Diagnostics) Err() error {
	var err error
	for _, d := range ds {
		err = multierr.Append(err, d)
	}
	return err
}
