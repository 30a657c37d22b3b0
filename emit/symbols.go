package emit

import (
	"github.com/LegacyCodeHQ/tsextern/depgraph/typescript"
	"github.com/LegacyCodeHQ/tsextern/program"
	sitter "github.com/smacker/go-tree-sitter"
)

type symbolKind int

const (
	symbolValue symbolKind = iota
	symbolFunction
	symbolClass
	symbolInterface
	symbolEnum
	symbolTypeAlias
	symbolNamespace
)

// isTypeOnly reports whether the symbol disappears from emitted JavaScript.
func (k symbolKind) isTypeOnly() bool {
	return k == symbolInterface || k == symbolTypeAlias
}

type symbol struct {
	name     string
	kind     symbolKind
	exported bool
	// exportedAs is the name the module exports the declaration under,
	// "default" for a default export.
	exportedAs string
	file       *program.SourceFile
}

// exportName is the member name of the declaration on its module namespace.
func (s symbol) exportName() string {
	if s.exportedAs != "" {
		return s.exportedAs
	}
	return s.name
}

type fileSymbols struct {
	declared      map[string]symbol
	defaultExport string
	// exports maps exported names to the local names they alias.
	exports map[string]string
}

// symbolTable indexes the top-level declarations of every file in a program
// and follows imports one hop to the declaring file.
type symbolTable struct {
	prog  *program.Program
	files map[string]*fileSymbols
}

func newSymbolTable(prog *program.Program) *symbolTable {
	return &symbolTable{prog: prog, files: make(map[string]*fileSymbols)}
}

func (st *symbolTable) of(file *program.SourceFile) *fileSymbols {
	if fs, ok := st.files[file.FileName]; ok {
		return fs
	}
	fs := &fileSymbols{declared: make(map[string]symbol), exports: make(map[string]string)}
	st.files[file.FileName] = fs

	root := file.Root()
	type alias struct{ local, exportedAs string }
	var exportedLater []alias
	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement := root.NamedChild(i)
		exported := false
		exportedAs := ""
		if statement.Type() == "export_statement" {
			if declaration := statement.ChildByFieldName("declaration"); declaration != nil {
				exported = true
				if hasToken(statement, "default") {
					if name := declaration.ChildByFieldName("name"); name != nil {
						fs.defaultExport = name.Content(file.Text)
					}
					exportedAs = "default"
				}
				statement = declaration
			} else if value := statement.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
				fs.defaultExport = value.Content(file.Text)
				continue
			} else if clause := firstChildOfType(statement, "export_clause"); clause != nil && statement.ChildByFieldName("source") == nil {
				for j := 0; j < int(clause.NamedChildCount()); j++ {
					specifier := clause.NamedChild(j)
					name := specifier.ChildByFieldName("name")
					if name == nil {
						continue
					}
					a := alias{local: name.Content(file.Text)}
					a.exportedAs = a.local
					if as := specifier.ChildByFieldName("alias"); as != nil {
						a.exportedAs = as.Content(file.Text)
					}
					exportedLater = append(exportedLater, a)
				}
				continue
			}
		}
		if statement.Type() == "ambient_declaration" {
			for j := 0; j < int(statement.NamedChildCount()); j++ {
				inner := statement.NamedChild(j)
				if inner.Type() != "statement_block" {
					statement = inner
					break
				}
			}
		}

		kind, ok := declarationKind(statement)
		if !ok {
			continue
		}
		for _, name := range typescript.DeclarationNames(statement, file.Text) {
			sym := symbol{name: name, kind: kind, exported: exported || file.IsDeclaration, exportedAs: exportedAs, file: file}
			fs.declared[name] = sym
			if sym.exported {
				fs.exports[sym.exportName()] = name
			}
		}
	}
	for _, a := range exportedLater {
		sym, ok := fs.declared[a.local]
		if !ok {
			continue
		}
		if !sym.exported {
			sym.exported = true
			sym.exportedAs = a.exportedAs
			fs.declared[a.local] = sym
		}
		fs.exports[a.exportedAs] = a.local
	}
	return fs
}

func declarationKind(n *sitter.Node) (symbolKind, bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		return symbolFunction, true
	case "class_declaration", "abstract_class_declaration":
		return symbolClass, true
	case "interface_declaration":
		return symbolInterface, true
	case "enum_declaration":
		return symbolEnum, true
	case "type_alias_declaration":
		return symbolTypeAlias, true
	case "internal_module", "module":
		return symbolNamespace, true
	case "lexical_declaration", "variable_declaration":
		return symbolValue, true
	default:
		return 0, false
	}
}

// lookup resolves a name used in file to its declaration, following a named or
// default import into the imported program file.
func (st *symbolTable) lookup(file *program.SourceFile, name string) (symbol, bool) {
	if sym, ok := st.of(file).declared[name]; ok {
		return sym, true
	}
	for _, imp := range file.Imports {
		if !imp.IsResolved() {
			continue
		}
		target := st.prog.SourceFile(imp.ResolvedFileName)
		if target == nil {
			continue
		}
		bindings := imp.Bindings()
		if bindings.ReExport {
			continue
		}
		if bindings.Default == name {
			targetSymbols := st.of(target)
			if sym, ok := targetSymbols.declared[targetSymbols.defaultExport]; ok {
				return sym, true
			}
			return symbol{}, false
		}
		for _, binding := range bindings.Named {
			if binding.Local() != name {
				continue
			}
			targetSymbols := st.of(target)
			local, ok := targetSymbols.exports[binding.Name]
			if !ok {
				return symbol{}, false
			}
			if sym, ok := targetSymbols.declared[local]; ok && sym.exported {
				return sym, true
			}
			return symbol{}, false
		}
	}
	return symbol{}, false
}

func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

func firstChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}
