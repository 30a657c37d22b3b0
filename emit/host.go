// Package emit turns the files of a program into type-annotated JavaScript and
// Closure externs.
package emit

import (
	"strings"

	"github.com/LegacyCodeHQ/tsextern/diag"
)

// Flags selects the optional rewrites of an emit.
type Flags struct {
	// TransformDecorators lowers decorators into static metadata properties.
	TransformDecorators bool
	// TransformTypesToClosure rewrites TypeScript types into JSDoc annotations.
	TransformTypesToClosure bool
	// GenerateExtraSuppressions adds a @suppress block to each rewritten file.
	GenerateExtraSuppressions bool
	// PerFileExterns returns externs keyed by file instead of one aggregate.
	PerFileExterns bool
}

// Host supplies the decisions and naming the emitter cannot make on its own.
type Host interface {
	// ShouldSkipProcessing reports whether fileName gets plain type erasure
	// only, with no annotations and no externs. It is asked once per file per emit.
	ShouldSkipProcessing(fileName string) bool
	// LogWarning receives non-fatal diagnostics.
	LogWarning(d diag.Diagnostic)
	// PathToModuleName maps an import of importPath from context (or a file
	// name when context is empty) to a dotted module name.
	PathToModuleName(context, importPath string) string
	// FileNameToModuleID maps a file to a stable module identifier.
	FileNameToModuleID(fileName string) string
	// Flags returns the rewrites to apply.
	Flags() Flags
}

// Artifact is one emitted virtual file.
type Artifact struct {
	FileName string
	Text     string
	// SourceFiles are the program files the artifact was generated from.
	SourceFiles []string
}

// IsSourceMap reports whether the artifact is a source map.
func (a Artifact) IsSourceMap() bool {
	return strings.HasSuffix(a.FileName, ".map")
}

// Result is everything one emit produced.
type Result struct {
	Artifacts []Artifact
	// Externs is the aggregate of all generated externs, set unless Flags.PerFileExterns.
	Externs string
	// FileExterns maps file names to their externs, set with Flags.PerFileExterns.
	FileExterns map[string]string
	// Warnings repeats every diagnostic passed to Host.LogWarning.
	Warnings []diag.Diagnostic
}
