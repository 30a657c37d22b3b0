// Package loader compiles one TypeScript file per call into annotated
// JavaScript and appends the externs of every newly seen file to a shared
// externs file.
package loader

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/depgraph"
	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/emit"
	"github.com/LegacyCodeHQ/tsextern/internal/mcplogdlog"
	"github.com/LegacyCodeHQ/tsextern/program"
)

// Session is the state shared by every compile of one build: the ledger of
// files that contributed externs, the extern file writers and a source cache.
// It is safe for concurrent use.
type Session struct {
	ledger         *Ledger
	externs        *externFiles
	cache          *program.SourceCache
	fixer          Fixer
	perFileExterns bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithFixer replaces DefaultFixer.
func WithFixer(fixer Fixer) SessionOption {
	return func(s *Session) {
		s.fixer = fixer
	}
}

// WithAggregateExterns makes the emitter return one aggregate externs string
// instead of per-file externs. Both modes admit the same files.
func WithAggregateExterns() SessionOption {
	return func(s *Session) {
		s.perFileExterns = false
	}
}

// NewSession creates a session with an empty ledger.
func NewSession(options ...SessionOption) (*Session, error) {
	cache, err := program.NewSourceCache(program.DefaultSourceCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ledger:         NewLedger(),
		externs:        newExternFiles(),
		cache:          cache,
		fixer:          DefaultFixer{},
		perFileExterns: true,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Ledger returns the files that contributed externs so far.
func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// Invocation is one request to compile a file.
type Invocation struct {
	SourcePath string
	// Options is the raw loader option bag, see ParseOptions.
	Options map[string]any
	// SourceMap requests a source map; its absence is then an error.
	SourceMap bool
	// OnWarning, when set, receives each warning as it is reported.
	OnWarning func(*Error)
}

// Output is the result of a successful compile.
type Output struct {
	// SourcePath is the canonical name of the compiled file.
	SourcePath string
	Code       string
	SourceMap  string
	// Externs is the fragment appended to ExternFile, empty when none was.
	Externs    string
	ExternFile string
	Warnings   []*Error
}

// NormalizePath converts any separator to a slash.
func NormalizePath(fileName string) string {
	return strings.ReplaceAll(fileName, `\`, "/")
}

// Compile resolves the configuration, builds the program rooted at the
// invocation's file, checks it and emits it. Fatal failures are returned as
// *Error; files marked in the ledger before a failure stay marked.
func (s *Session) Compile(ctx context.Context, inv Invocation) (*Output, error) {
	config, err := ResolveConfig(inv.Options)
	if err != nil {
		mcplogdlog.Error("Failed to resolve loader configuration", map[string]any{"source": inv.SourcePath, "error": err.Error()})
		return nil, err
	}
	compilerOptions := config.Compiler.Options

	host, err := program.NewCompilerHost(s.cache)
	if err != nil {
		return nil, err
	}
	source := host.GetCanonicalFileName(NormalizePath(inv.SourcePath))
	rootModulePath := compilerOptions.RootDir
	if rootModulePath == "" {
		rootModulePath = path.Dir(source)
	}

	mcplogdlog.Info("Compiling", map[string]any{
		"source":     source,
		"tsconfig":   config.Compiler.ConfigFile,
		"externFile": config.ExternFile,
		"sourceMap":  inv.SourceMap,
	})

	prog, err := program.NewProgram(ctx, source, compilerOptions, host)
	if err != nil {
		return nil, fmt.Errorf("failed to build program for %s: %w", source, err)
	}
	defer prog.Close()

	diagnostics := prog.PreEmitDiagnostics()
	if err := checkDiagnostics(source, rootModulePath, diagnostics); err != nil {
		mcplogdlog.Warn("Pre-emit diagnostics", map[string]any{"source": source, "count": len(diagnostics), "errors": diag.HasErrors(diagnostics)})
		return nil, err
	}

	if cycles, err := depgraph.ImportCycles(prog.Graph()); err == nil && len(cycles) > 0 {
		mcplogdlog.Debug("Import cycles in compilation unit", map[string]any{"source": source, "cycles": cycles})
	}

	output := &Output{SourcePath: source, ExternFile: config.ExternFile}
	invocation := &invocationHost{
		policy:         skipPolicy{ledger: s.ledger, deny: config.Skip, rootFile: source},
		rootModulePath: rootModulePath,
		perFileExterns: s.perFileExterns,
		warn: func(d diag.Diagnostic) {
			warning := newError(KindWarning, source, nil, "%s", diag.Format([]diag.Diagnostic{d}, rootModulePath))
			warning.Diagnostics = []diag.Diagnostic{d}
			output.Warnings = append(output.Warnings, warning)
			if inv.OnWarning != nil {
				inv.OnWarning(warning)
			}
		},
	}

	result, err := emit.Emit(ctx, prog, invocation)
	if err != nil {
		return nil, fmt.Errorf("failed to emit %s: %w", source, err)
	}

	emitted := collectEmission(result, source, s.perFileExterns)
	if err := emitted.validate(source, inv.SourceMap); err != nil {
		mcplogdlog.Error("Emission rejected", map[string]any{"source": source, "error": err.Error()})
		return nil, err
	}

	if emitted.externs != "" {
		fragment := s.fixer.FixExtern(strings.TrimPrefix(emitted.externs, emit.ExternsHeader))
		if err := s.externs.append(config.ExternFile, fragment); err != nil {
			return nil, err
		}
		output.Externs = fragment
		mcplogdlog.Debug("Appended externs", map[string]any{"source": source, "externFile": config.ExternFile, "bytes": len(fragment)})
	}

	output.Code = s.fixer.FixCode(emitted.code[0])
	if inv.SourceMap {
		output.SourceMap = emitted.sourceMaps[0]
	}
	return output, nil
}
