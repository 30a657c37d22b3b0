// Package program builds the compilation unit for one root file: the root plus
// every file it transitively imports, parsed and resolved.
package program

import (
	"context"
	"fmt"

	"github.com/LegacyCodeHQ/tsextern/depgraph"
	"github.com/LegacyCodeHQ/tsextern/depgraph/typescript"
	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/tsconfig"
	sitter "github.com/smacker/go-tree-sitter"
)

// ResolvedImport is an import statement together with the file it resolved to.
type ResolvedImport struct {
	typescript.TypeScriptImport
	ResolvedFileName string
}

// IsResolved reports whether the import found a file.
func (i ResolvedImport) IsResolved() bool {
	return i.ResolvedFileName != ""
}

// SourceFile is one parsed file of a Program.
type SourceFile struct {
	FileName      string
	Text          []byte
	IsDeclaration bool
	Imports       []ResolvedImport

	tree    *sitter.Tree
	exports *typescript.ExportSet
}

// Root returns the syntax tree root.
func (f *SourceFile) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Exports returns the file's statically known export surface.
func (f *SourceFile) Exports() typescript.ExportSet {
	if f.exports == nil {
		exports := typescript.ExportedNames(f.Root(), f.Text)
		f.exports = &exports
	}
	return *f.exports
}

// Program is a type-checking context built from exactly one root file.
type Program struct {
	rootFileName string
	options      tsconfig.CompilerOptions
	host         *CompilerHost
	files        []*SourceFile
	byName       map[string]*SourceFile
	graph        depgraph.DependencyGraph
	diagnostics  []diag.Diagnostic
}

// NewProgram parses rootFileName and everything it imports. A missing root is
// reported as a diagnostic; only parser failures are returned as errors.
func NewProgram(ctx context.Context, rootFileName string, options tsconfig.CompilerOptions, host *CompilerHost) (*Program, error) {
	p := &Program{
		rootFileName: host.GetCanonicalFileName(rootFileName),
		options:      options,
		host:         host,
		byName:       make(map[string]*SourceFile),
	}

	if !host.FileExists(p.rootFileName) {
		p.diagnostics = append(p.diagnostics, diag.Errorf("", 0, 0, 6053, "File '%s' not found.", p.rootFileName))
		return p, nil
	}

	resolver := depgraph.DependencyResolverFunc(func(fileName string) ([]string, error) {
		return p.addSourceFile(ctx, fileName)
	})
	graph, err := depgraph.BuildDependencyClosure(p.rootFileName, resolver)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.graph = graph

	order, err := depgraph.DependencyOrder(graph, p.rootFileName)
	if err != nil {
		p.Close()
		return nil, err
	}
	for _, fileName := range order {
		if file, ok := p.byName[fileName]; ok {
			p.files = append(p.files, file)
		}
	}

	return p, nil
}

func (p *Program) addSourceFile(ctx context.Context, fileName string) ([]string, error) {
	content, err := p.host.ReadFile(fileName)
	if err != nil {
		p.diagnostics = append(p.diagnostics, diag.Errorf("", 0, 0, 6053, "File '%s' not found.", fileName))
		return nil, nil
	}

	tree, err := typescript.Parse(ctx, content, typescript.IsTSX(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	file := &SourceFile{
		FileName:      fileName,
		Text:          content,
		IsDeclaration: typescript.IsDeclarationFile(fileName),
		tree:          tree,
	}
	p.byName[fileName] = file

	resolutionOptions := typescript.ResolutionOptions{BaseURL: p.options.BaseURL}
	var deps []string
	for _, imp := range typescript.ImportsFromTree(file.Root(), content) {
		resolved := ResolvedImport{TypeScriptImport: imp}
		if target, ok := typescript.ResolveModuleName(imp, fileName, p.host, resolutionOptions); ok {
			resolved.ResolvedFileName = target
			deps = append(deps, target)
		}
		file.Imports = append(file.Imports, resolved)
	}

	return deps, nil
}

// RootFileName returns the canonical name of the root file.
func (p *Program) RootFileName() string {
	return p.rootFileName
}

// SourceFiles returns the program's files, each after the files it imports.
func (p *Program) SourceFiles() []*SourceFile {
	return p.files
}

// SourceFile looks up a file by canonical name.
func (p *Program) SourceFile(fileName string) *SourceFile {
	return p.byName[fileName]
}

// Options returns the compiler options the program was built with.
func (p *Program) Options() tsconfig.CompilerOptions {
	return p.options
}

// Host returns the resolution host.
func (p *Program) Host() *CompilerHost {
	return p.host
}

// Graph returns the import graph of the program.
func (p *Program) Graph() depgraph.DependencyGraph {
	return p.graph
}

// Close releases the syntax trees.
func (p *Program) Close() {
	for _, file := range p.byName {
		if file.tree != nil {
			file.tree.Close()
			file.tree = nil
		}
	}
}
