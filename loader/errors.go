package loader

import (
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/tsextern/diag"
)

// Kind classifies everything a compile can report.
type Kind int

const (
	KindConfigValidation Kind = iota + 1
	KindConfigParse
	KindTypeDiagnostic
	KindEmissionMismatch
	KindMissingSourceMap
	KindWarning
)

// Severity decides whether a report aborts the compile.
type Severity int

const (
	// SeverityFatal aborts the compile; no output is produced.
	SeverityFatal Severity = iota
	// SeverityAdvisory is attached to the output as a warning.
	SeverityAdvisory
)

func (s Severity) String() string {
	if s == SeverityAdvisory {
		return "advisory"
	}
	return "fatal"
}

var kindNames = map[Kind]string{
	KindConfigValidation: "ConfigValidationError",
	KindConfigParse:      "ConfigParseError",
	KindTypeDiagnostic:   "TypeDiagnosticError",
	KindEmissionMismatch: "EmissionMismatchError",
	KindMissingSourceMap: "MissingSourceMapError",
	KindWarning:          "Warning",
}

// severities is the propagation table. Kinds missing from it are fatal.
var severities = map[Kind]Severity{
	KindConfigValidation: SeverityFatal,
	KindConfigParse:      SeverityFatal,
	KindTypeDiagnostic:   SeverityFatal,
	KindEmissionMismatch: SeverityFatal,
	KindMissingSourceMap: SeverityFatal,
	KindWarning:          SeverityAdvisory,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Severity returns the propagation rule of k.
func (k Kind) Severity() Severity {
	if severity, ok := severities[k]; ok {
		return severity
	}
	return SeverityFatal
}

// Sentinels for errors.Is, one per kind.
var (
	ErrConfigValidation = errors.New("invalid loader options")
	ErrConfigParse      = errors.New("invalid compiler configuration")
	ErrTypeDiagnostic   = errors.New("type diagnostics")
	ErrEmissionMismatch = errors.New("emission mismatch")
	ErrMissingSourceMap = errors.New("missing source map")
	ErrWarning          = errors.New("warning")
)

var sentinels = map[Kind]error{
	KindConfigValidation: ErrConfigValidation,
	KindConfigParse:      ErrConfigParse,
	KindTypeDiagnostic:   ErrTypeDiagnostic,
	KindEmissionMismatch: ErrEmissionMismatch,
	KindMissingSourceMap: ErrMissingSourceMap,
	KindWarning:          ErrWarning,
}

// Error is a report of one compile.
type Error struct {
	Kind Kind
	// Source is the file being compiled, empty for option failures.
	Source      string
	Message     string
	Diagnostics []diag.Diagnostic
	Err         error
}

func newError(kind Kind, source string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Source: source, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

// Fatal reports whether the error aborts the compile.
func (e *Error) Fatal() bool {
	return e.Kind.Severity() == SeverityFatal
}
