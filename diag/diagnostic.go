package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Severity is the category of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single finding reported against a file position.
// Line and Column are 1-based; a zero Line means the diagnostic has no position.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Code     int
	Severity Severity
	Message  string
}

// Errorf builds an error diagnostic.
func Errorf(file string, line, column, code int, format string, args ...any) Diagnostic {
	return Diagnostic{
		File:     file,
		Line:     line,
		Column:   column,
		Code:     code,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warningf builds a warning diagnostic.
func Warningf(file string, line, column, code int, format string, args ...any) Diagnostic {
	d := Errorf(file, line, column, code, format, args...)
	d.Severity = SeverityWarning
	return d
}

func (d Diagnostic) String() string {
	return d.format("")
}

func (d Diagnostic) format(currentDir string) string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(relativeTo(currentDir, d.File))
		if d.Line > 0 {
			fmt.Fprintf(&b, "(%d,%d)", d.Line, d.Column)
		}
		b.WriteString(": ")
	}
	if d.Code > 0 {
		fmt.Fprintf(&b, "%s TS%d: %s", d.Severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	}
	return b.String()
}

// Sort orders diagnostics by file, position, code and message.
func Sort(diagnostics []Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i], diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// Format renders diagnostics one per line with file names relative to currentDir.
// The input slice is not modified.
func Format(diagnostics []Diagnostic, currentDir string) string {
	sorted := append([]Diagnostic(nil), diagnostics...)
	Sort(sorted)

	lines := make([]string, 0, len(sorted))
	for _, d := range sorted {
		lines = append(lines, d.format(currentDir))
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether any diagnostic is error-severity.
func HasErrors(diagnostics []Diagnostic) bool {
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func relativeTo(currentDir, file string) string {
	if currentDir == "" {
		return file
	}
	rel, err := filepath.Rel(filepath.FromSlash(currentDir), filepath.FromSlash(file))
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}
