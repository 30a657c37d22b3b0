package program

import (
	"github.com/LegacyCodeHQ/tsextern/depgraph/typescript"
	"github.com/LegacyCodeHQ/tsextern/diag"
	sitter "github.com/smacker/go-tree-sitter"
)

// PreEmitDiagnostics runs the syntactic and semantic checks over every file of
// the program. The result is sorted.
func (p *Program) PreEmitDiagnostics() []diag.Diagnostic {
	diagnostics := append([]diag.Diagnostic(nil), p.diagnostics...)

	for _, file := range p.files {
		diagnostics = append(diagnostics, syntacticDiagnostics(file)...)
		diagnostics = append(diagnostics, p.importDiagnostics(file)...)
		if file.IsDeclaration {
			continue
		}
		diagnostics = append(diagnostics, duplicateDeclarationDiagnostics(file)...)
		if p.options.ImplicitAnyIsError() {
			diagnostics = append(diagnostics, implicitAnyDiagnostics(file)...)
		}
	}

	diag.Sort(diagnostics)
	return diagnostics
}

func at(file *SourceFile, node *sitter.Node, code int, format string, args ...any) diag.Diagnostic {
	pos := typescript.PositionOf(node)
	return diag.Errorf(file.FileName, pos.Line, pos.Column, code, format, args...)
}

func syntacticDiagnostics(file *SourceFile) []diag.Diagnostic {
	root := file.Root()
	if !root.HasError() {
		return nil
	}

	var diagnostics []diag.Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			diagnostics = append(diagnostics, at(file, n, 1005, "'%s' expected.", n.Type()))
			return
		case n.Type() == "ERROR":
			diagnostics = append(diagnostics, at(file, n, 1128, "Declaration or statement expected."))
			return
		case !n.HasError():
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return diagnostics
}

func (p *Program) importDiagnostics(file *SourceFile) []diag.Diagnostic {
	var diagnostics []diag.Diagnostic
	for _, imp := range file.Imports {
		pos := imp.Position()
		if !imp.IsResolved() {
			diagnostics = append(diagnostics, diag.Errorf(file.FileName, pos.Line, pos.Column, 2307,
				"Cannot find module '%s' or its corresponding type declarations.", imp.Path()))
			continue
		}

		target := p.byName[imp.ResolvedFileName]
		if target == nil || target.IsDeclaration {
			continue
		}
		exports := target.Exports()
		bindings := imp.Bindings()

		if bindings.Default != "" && !exports.Has("default") {
			diagnostics = append(diagnostics, diag.Errorf(file.FileName, pos.Line, pos.Column, 1192,
				"Module '\"%s\"' has no default export.", imp.Path()))
		}
		for _, binding := range bindings.Named {
			if !exports.Has(binding.Name) {
				diagnostics = append(diagnostics, diag.Errorf(file.FileName, pos.Line, pos.Column, 2305,
					"Module '\"%s\"' has no exported member '%s'.", imp.Path(), binding.Name))
			}
		}
	}
	return diagnostics
}

type declarationKind int

const (
	declaredBlockScoped declarationKind = iota
	declaredFunction
	declaredClass
	declaredImport
)

type topLevelDeclaration struct {
	kind declarationKind
	node *sitter.Node
}

func duplicateDeclarationDiagnostics(file *SourceFile) []diag.Diagnostic {
	root := file.Root()
	declared := make(map[string][]topLevelDeclaration)
	var order []string

	record := func(name string, kind declarationKind, node *sitter.Node) {
		if _, ok := declared[name]; !ok {
			order = append(order, name)
		}
		declared[name] = append(declared[name], topLevelDeclaration{kind: kind, node: node})
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement := root.NamedChild(i)
		if statement.Type() == "export_statement" {
			if declaration := statement.ChildByFieldName("declaration"); declaration != nil {
				statement = declaration
			}
		}

		switch statement.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := statement.ChildByFieldName("name"); name != nil {
				record(name.Content(file.Text), declaredFunction, name)
			}
		case "class_declaration", "abstract_class_declaration":
			if name := statement.ChildByFieldName("name"); name != nil {
				record(name.Content(file.Text), declaredClass, name)
			}
		case "lexical_declaration":
			for j := 0; j < int(statement.NamedChildCount()); j++ {
				declarator := statement.NamedChild(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				if name := declarator.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
					record(name.Content(file.Text), declaredBlockScoped, name)
				}
			}
		case "import_statement":
			for _, name := range importedLocalNames(statement, file.Text) {
				record(name.Content(file.Text), declaredImport, name)
			}
		}
	}

	var diagnostics []diag.Diagnostic
	for _, name := range order {
		declarations := declared[name]
		if len(declarations) < 2 {
			continue
		}
		for _, d := range declarations {
			switch {
			case anyKind(declarations, declaredBlockScoped):
				diagnostics = append(diagnostics, at(file, d.node, 2451, "Cannot redeclare block-scoped variable '%s'.", name))
			case allKind(declarations, declaredFunction):
				diagnostics = append(diagnostics, at(file, d.node, 2393, "Duplicate function implementation."))
			default:
				diagnostics = append(diagnostics, at(file, d.node, 2300, "Duplicate identifier '%s'.", name))
			}
		}
	}
	return diagnostics
}

func anyKind(declarations []topLevelDeclaration, kind declarationKind) bool {
	for _, d := range declarations {
		if d.kind == kind {
			return true
		}
	}
	return false
}

func allKind(declarations []topLevelDeclaration, kind declarationKind) bool {
	for _, d := range declarations {
		if d.kind != kind {
			return false
		}
	}
	return true
}

func importedLocalNames(statement *sitter.Node, source []byte) []*sitter.Node {
	var names []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_clause", "named_imports":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				walk(n.NamedChild(i))
			}
		case "identifier":
			names = append(names, n)
		case "namespace_import":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if child := n.NamedChild(i); child.Type() == "identifier" {
					names = append(names, child)
				}
			}
		case "import_specifier":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				names = append(names, alias)
			} else if name := n.ChildByFieldName("name"); name != nil {
				names = append(names, name)
			}
		}
	}
	for i := 0; i < int(statement.NamedChildCount()); i++ {
		if child := statement.NamedChild(i); child.Type() == "import_clause" {
			walk(child)
		}
	}
	return names
}

func implicitAnyDiagnostics(file *SourceFile) []diag.Diagnostic {
	var diagnostics []diag.Diagnostic

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			diagnostics = append(diagnostics, untypedParameters(file, n.ChildByFieldName("parameters"))...)
		case "method_definition":
			if parent := n.Parent(); parent != nil && parent.Type() == "class_body" {
				diagnostics = append(diagnostics, untypedParameters(file, n.ChildByFieldName("parameters"))...)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(file.Root())
	return diagnostics
}

func untypedParameters(file *SourceFile, parameters *sitter.Node) []diag.Diagnostic {
	if parameters == nil {
		return nil
	}
	var diagnostics []diag.Diagnostic
	for i := 0; i < int(parameters.NamedChildCount()); i++ {
		param := parameters.NamedChild(i)
		if param.Type() != "required_parameter" && param.Type() != "optional_parameter" {
			continue
		}
		if param.ChildByFieldName("type") != nil || param.ChildByFieldName("value") != nil {
			continue
		}
		pattern := param.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() == "this" {
			continue
		}
		if pattern.Type() == "rest_pattern" {
			diagnostics = append(diagnostics, at(file, pattern, 7019,
				"Rest parameter '%s' implicitly has an 'any[]' type.", restName(pattern, file.Text)))
			continue
		}
		diagnostics = append(diagnostics, at(file, pattern, 7006,
			"Parameter '%s' implicitly has an 'any' type.", pattern.Content(file.Text)))
	}
	return diagnostics
}

func restName(pattern *sitter.Node, source []byte) string {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		if child := pattern.NamedChild(i); child.Type() == "identifier" {
			return child.Content(source)
		}
	}
	return pattern.Content(source)
}
