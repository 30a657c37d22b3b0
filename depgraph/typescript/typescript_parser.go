package typescript

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int
	Column int
}

// PositionOf returns the 1-based start position of a node.
func PositionOf(node *sitter.Node) Position {
	point := node.StartPoint()
	return Position{Line: int(point.Row) + 1, Column: int(point.Column) + 1}
}

// NamedBinding is one `name as alias` entry of an import or export clause.
type NamedBinding struct {
	Name  string
	Alias string
}

// Local returns the name the binding introduces in the importing file.
func (b NamedBinding) Local() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// Bindings describes what an import or re-export statement pulls from its module.
type Bindings struct {
	Default   string
	Namespace string
	Named     []NamedBinding
	ReExport  bool
	ExportAll bool
}

// TypeScriptImport represents an import in a TypeScript/TSX file
type TypeScriptImport interface {
	Path() string
	IsTypeOnly() bool
	Bindings() Bindings
	Position() Position
}

type importInfo struct {
	path       string
	isTypeOnly bool
	bindings   Bindings
	position   Position
}

func (i importInfo) Path() string {
	return i.path
}

func (i importInfo) IsTypeOnly() bool {
	return i.isTypeOnly
}

func (i importInfo) Bindings() Bindings {
	return i.bindings
}

func (i importInfo) Position() Position {
	return i.position
}

// NodeBuiltinImport represents a Node.js built-in module import (fs, path, http, node:fs)
type NodeBuiltinImport struct {
	importInfo
}

// ExternalImport represents an external npm package import
type ExternalImport struct {
	importInfo
}

// InternalImport represents an internal project file import (./, ../)
type InternalImport struct {
	importInfo
}

// nodeBuiltins contains known Node.js built-in module names
var nodeBuiltins = map[string]bool{
	"assert":         true,
	"buffer":         true,
	"child_process":  true,
	"cluster":        true,
	"crypto":         true,
	"dgram":          true,
	"dns":            true,
	"events":         true,
	"fs":             true,
	"http":           true,
	"https":          true,
	"net":            true,
	"os":             true,
	"path":           true,
	"querystring":    true,
	"readline":       true,
	"stream":         true,
	"string_decoder": true,
	"timers":         true,
	"tls":            true,
	"tty":            true,
	"url":            true,
	"util":           true,
	"v8":             true,
	"vm":             true,
	"zlib":           true,
	"worker_threads": true,
	"perf_hooks":     true,
	"async_hooks":    true,
	"fs/promises":    true,
	"path/posix":     true,
	"path/win32":     true,
}

// classifyTypeScriptImport classifies a TypeScript import path
func classifyTypeScriptImport(info importInfo) TypeScriptImport {
	importPath := info.path

	if strings.HasPrefix(importPath, "node:") || nodeBuiltins[importPath] {
		return NodeBuiltinImport{info}
	}

	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		return InternalImport{info}
	}

	return ExternalImport{info}
}

// Language returns the tree-sitter grammar for .ts or .tsx sources.
func Language(isTSX bool) *sitter.Language {
	if isTSX {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// IsTSX reports whether a file name needs the TSX grammar.
func IsTSX(fileName string) bool {
	return strings.HasSuffix(fileName, ".tsx")
}

// Parse builds a syntax tree for TypeScript source code. The caller owns the tree.
func Parse(ctx context.Context, sourceCode []byte, isTSX bool) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language(isTSX))

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TypeScript code: %w", err)
	}
	return tree, nil
}

// ParseTypeScriptImports parses TypeScript source code and extracts imports
func ParseTypeScriptImports(sourceCode []byte, isTSX bool) ([]TypeScriptImport, error) {
	tree, err := Parse(context.Background(), sourceCode, isTSX)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return ImportsFromTree(tree.RootNode(), sourceCode), nil
}

// ImportsFromTree extracts top-level import and re-export statements in source order.
func ImportsFromTree(root *sitter.Node, sourceCode []byte) []TypeScriptImport {
	var imports []TypeScriptImport

	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement := root.NamedChild(i)
		switch statement.Type() {
		case "import_statement":
			if imp, ok := importFromStatement(statement, sourceCode); ok {
				imports = append(imports, imp)
			}
		case "export_statement":
			if imp, ok := reExportFromStatement(statement, sourceCode); ok {
				imports = append(imports, imp)
			}
		}
	}

	return imports
}

func importFromStatement(statement *sitter.Node, sourceCode []byte) (TypeScriptImport, bool) {
	info := importInfo{isTypeOnly: hasKeywordChild(statement, "type")}

	source := statement.ChildByFieldName("source")
	for i := 0; i < int(statement.NamedChildCount()); i++ {
		child := statement.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			info.bindings = importClauseBindings(child, sourceCode)
		case "import_require_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				part := child.NamedChild(j)
				switch part.Type() {
				case "identifier":
					info.bindings.Namespace = part.Content(sourceCode)
				case "string":
					source = part
				}
			}
		case "string":
			if source == nil {
				source = child
			}
		}
	}

	if source == nil {
		return nil, false
	}
	info.path = cleanImportPath(source.Content(sourceCode))
	info.position = PositionOf(source)
	if info.path == "" {
		return nil, false
	}
	return classifyTypeScriptImport(info), true
}

func importClauseBindings(clause *sitter.Node, sourceCode []byte) Bindings {
	var bindings Bindings
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			bindings.Default = child.Content(sourceCode)
		case "namespace_import":
			if id := firstNamedChildOfType(child, "identifier"); id != nil {
				bindings.Namespace = id.Content(sourceCode)
			}
		case "named_imports":
			bindings.Named = namedBindings(child, "import_specifier", sourceCode)
		}
	}
	return bindings
}

func reExportFromStatement(statement *sitter.Node, sourceCode []byte) (TypeScriptImport, bool) {
	source := statement.ChildByFieldName("source")
	if source == nil {
		return nil, false
	}

	info := importInfo{
		path:       cleanImportPath(source.Content(sourceCode)),
		isTypeOnly: hasKeywordChild(statement, "type"),
		position:   PositionOf(source),
		bindings:   Bindings{ReExport: true},
	}
	if info.path == "" {
		return nil, false
	}

	clause := firstNamedChildOfType(statement, "export_clause")
	switch {
	case clause != nil:
		info.bindings.Named = namedBindings(clause, "export_specifier", sourceCode)
	case firstNamedChildOfType(statement, "namespace_export") != nil:
		ns := firstNamedChildOfType(statement, "namespace_export")
		info.bindings.Namespace = lastIdentifier(ns, sourceCode)
	default:
		info.bindings.ExportAll = true
	}

	return classifyTypeScriptImport(info), true
}

func namedBindings(list *sitter.Node, specifierType string, sourceCode []byte) []NamedBinding {
	var bindings []NamedBinding
	for i := 0; i < int(list.NamedChildCount()); i++ {
		spec := list.NamedChild(i)
		if spec.Type() != specifierType {
			continue
		}
		binding := NamedBinding{}
		if name := spec.ChildByFieldName("name"); name != nil {
			binding.Name = cleanImportPath(name.Content(sourceCode))
		}
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			binding.Alias = cleanImportPath(alias.Content(sourceCode))
		}
		if binding.Name != "" {
			bindings = append(bindings, binding)
		}
	}
	return bindings
}

func hasKeywordChild(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == keyword {
			return true
		}
	}
	return false
}

func firstNamedChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func lastIdentifier(node *sitter.Node, sourceCode []byte) string {
	name := ""
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" || child.Type() == "string" {
			name = cleanImportPath(child.Content(sourceCode))
		}
	}
	return name
}

// cleanImportPath removes quotes from import path strings
func cleanImportPath(raw string) string {
	cleaned := strings.Trim(raw, "'\"`")
	return strings.TrimSpace(cleaned)
}
