package typescript

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ExportSet is the statically visible export surface of a module.
type ExportSet struct {
	Names map[string]bool
	// Star is set when the module re-exports another module wholesale, or uses
	// `export =`, so its surface cannot be enumerated from the file alone.
	Star bool
}

// Has reports whether name is known to be exported. Modules with a star
// export are assumed to export every name.
func (s ExportSet) Has(name string) bool {
	return s.Star || s.Names[name]
}

// ExportedNames collects the names a module exports.
func ExportedNames(root *sitter.Node, sourceCode []byte) ExportSet {
	set := ExportSet{Names: make(map[string]bool)}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement := root.NamedChild(i)
		switch statement.Type() {
		case "export_statement":
			collectExportStatement(statement, sourceCode, &set)
		case "ambient_declaration":
			if declaration := firstNamedChildOfType(statement, "export_statement"); declaration != nil {
				collectExportStatement(declaration, sourceCode, &set)
			}
		}
	}

	return set
}

func collectExportStatement(statement *sitter.Node, sourceCode []byte, set *ExportSet) {
	if hasKeywordChild(statement, "default") {
		set.Names["default"] = true
		return
	}
	if hasKeywordChild(statement, "=") {
		set.Star = true
		return
	}

	if declaration := statement.ChildByFieldName("declaration"); declaration != nil {
		for _, name := range DeclarationNames(declaration, sourceCode) {
			set.Names[name] = true
		}
		return
	}

	if clause := firstNamedChildOfType(statement, "export_clause"); clause != nil {
		for _, binding := range namedBindings(clause, "export_specifier", sourceCode) {
			set.Names[binding.Local()] = true
		}
		return
	}

	if ns := firstNamedChildOfType(statement, "namespace_export"); ns != nil {
		set.Names[lastIdentifier(ns, sourceCode)] = true
		return
	}

	if statement.ChildByFieldName("source") != nil {
		set.Star = true
	}
}

// DeclarationNames returns the names a declaration statement binds.
func DeclarationNames(declaration *sitter.Node, sourceCode []byte) []string {
	switch declaration.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(declaration.NamedChildCount()); i++ {
			declarator := declaration.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			if name := declarator.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, name.Content(sourceCode))
			}
		}
		return names
	case "ambient_declaration":
		for i := 0; i < int(declaration.NamedChildCount()); i++ {
			if names := DeclarationNames(declaration.NamedChild(i), sourceCode); len(names) > 0 {
				return names
			}
		}
		return nil
	default:
		if name := declaration.ChildByFieldName("name"); name != nil {
			return []string{cleanImportPath(name.Content(sourceCode))}
		}
		return nil
	}
}
