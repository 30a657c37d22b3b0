package emit

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/depgraph/typescript"
	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/program"
	sitter "github.com/smacker/go-tree-sitter"
)

const extraSuppressions = "checkTypes,extraRequire,missingOverride,missingRequire,missingReturn,unusedPrivateMembers,uselessCode"

// fileTransformer rewrites one TypeScript file into JavaScript.
type fileTransformer struct {
	file    *program.SourceFile
	symbols *symbolTable
	ed      *editor
	types   *typeTranslator
	// annotate enables JSDoc type annotations.
	annotate bool
	// lowerDecorators enables decorator lowering.
	lowerDecorators bool
	namespace       *namespaceScope
	warnings        []diag.Diagnostic
}

type namespaceScope struct {
	name     string
	exported []string
}

// transformFile erases the types of file and, unless skip is set, annotates
// it for Closure.
func transformFile(file *program.SourceFile, symbols *symbolTable, flags Flags, skip bool, moduleID string) (string, []mapping, []diag.Diagnostic) {
	ft := &fileTransformer{
		file:            file,
		symbols:         symbols,
		ed:              newEditor(file.Text),
		annotate:        !skip && flags.TransformTypesToClosure,
		lowerDecorators: flags.TransformDecorators,
	}
	ft.types = &typeTranslator{file: file, symbols: symbols, warn: ft.warn}

	if ft.annotate && flags.GenerateExtraSuppressions {
		ft.ed.insert(ft.headerPosition(), fmt.Sprintf("/**\n * @fileoverview Generated from: %s\n * @suppress {%s}\n */\n", moduleID, extraSuppressions))
	}

	ft.visitChildren(file.Root())

	text, mappings := ft.ed.apply()
	return text, mappings, ft.warnings
}

func (ft *fileTransformer) warn(n *sitter.Node, format string, args ...any) {
	pos := typescript.PositionOf(n)
	ft.warnings = append(ft.warnings, diag.Warningf(ft.file.FileName, pos.Line, pos.Column, 0, format, args...))
}

func (ft *fileTransformer) text(n *sitter.Node) string {
	return n.Content(ft.file.Text)
}

// headerPosition skips a leading #! line.
func (ft *fileTransformer) headerPosition() int {
	src := ft.file.Text
	if len(src) < 2 || src[0] != '#' || src[1] != '!' {
		return 0
	}
	for i, c := range src {
		if c == '\n' {
			return i + 1
		}
	}
	return len(src)
}

func (ft *fileTransformer) visitChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ft.visit(n.NamedChild(i))
	}
}

func (ft *fileTransformer) visit(n *sitter.Node) {
	switch n.Type() {
	case "comment":
	case "import_statement":
		ft.visitImport(n)
	case "export_statement":
		ft.visitExport(n)
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		ft.removeStatement(n)
	case "expression_statement":
		if n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "internal_module" {
			ft.visitNamespace(n.NamedChild(0), n)
			return
		}
		ft.visitChildren(n)
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"enum_declaration", "internal_module", "module",
		"lexical_declaration", "variable_declaration":
		ft.visitDeclaration(n, n)
	case "class":
		ft.visitClass(n, nil)
	case "arrow_function", "function_expression", "function", "generator_function":
		ft.visitFunction(n, nil, false, nil)
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation",
		"type_predicate_annotation", "asserts_annotation",
		"type_parameters", "type_arguments":
		ft.ed.remove(int(n.StartByte()), int(n.EndByte()))
	case "accessibility_modifier", "override_modifier":
		ft.ed.removeWithTrailingSpace(int(n.StartByte()), int(n.EndByte()))
	case "implements_clause":
		ft.removeWithLeadingSpace(n)
	case "as_expression", "satisfies_expression", "non_null_expression":
		expr := n.NamedChild(0)
		ft.ed.remove(int(expr.EndByte()), int(n.EndByte()))
		ft.visit(expr)
	case "type_assertion":
		expr := n.NamedChild(int(n.NamedChildCount()) - 1)
		ft.ed.remove(int(n.StartByte()), int(expr.StartByte()))
		ft.visit(expr)
	case "required_parameter", "optional_parameter":
		ft.visitParameter(n)
	case "variable_declarator":
		ft.removeTokens(n, "!")
		ft.visitChildren(n)
	default:
		ft.visitChildren(n)
	}
}

func (ft *fileTransformer) visitDeclaration(decl, anchor *sitter.Node) {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		ft.visitFunction(decl, anchor, false, nil)
	case "class_declaration", "abstract_class_declaration":
		ft.visitClass(decl, anchor)
	case "enum_declaration":
		ft.visitEnum(decl, anchor)
	case "internal_module", "module":
		ft.visitNamespace(decl, anchor)
	case "lexical_declaration", "variable_declaration":
		ft.visitVariables(decl, anchor)
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		ft.removeStatement(anchor)
	default:
		ft.visit(decl)
	}
}

// statementEnd includes a trailing semicolon that the grammar keeps as a sibling.
func statementEnd(n *sitter.Node) uint32 {
	if next := n.NextSibling(); next != nil && next.Type() == ";" {
		return next.EndByte()
	}
	return n.EndByte()
}

func (ft *fileTransformer) removeStatement(n *sitter.Node) {
	ft.ed.removeStatement(int(n.StartByte()), int(statementEnd(n)))
}

func (ft *fileTransformer) removeWithLeadingSpace(n *sitter.Node) {
	start := int(n.StartByte())
	for start > 0 && (ft.file.Text[start-1] == ' ' || ft.file.Text[start-1] == '\t') {
		start--
	}
	ft.ed.remove(start, int(n.EndByte()))
}

// removeTokens deletes anonymous children of n. Keywords take their trailing
// space with them; punctuation is removed exactly.
func (ft *fileTransformer) removeTokens(n *sitter.Node, tokens ...string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.IsNamed() {
			continue
		}
		for _, token := range tokens {
			if child.Type() != token {
				continue
			}
			if token == "?" || token == "!" {
				ft.ed.remove(int(child.StartByte()), int(child.EndByte()))
			} else {
				ft.ed.removeWithTrailingSpace(int(child.StartByte()), int(child.EndByte()))
			}
		}
	}
}

func (ft *fileTransformer) atLineStart(pos int) bool {
	i := pos
	for i > 0 && (ft.file.Text[i-1] == ' ' || ft.file.Text[i-1] == '\t') {
		i--
	}
	return i == 0 || ft.file.Text[i-1] == '\n'
}

// addJSDoc attaches tags to the statement starting at first, merging them into
// a documentation comment that directly precedes it.
func (ft *fileTransformer) addJSDoc(first *sitter.Node, tags []jsdocTag) {
	if len(tags) == 0 {
		return
	}
	if prev := first.PrevSibling(); prev != nil && prev.Type() == "comment" &&
		strings.TrimSpace(string(ft.file.Text[prev.EndByte():first.StartByte()])) == "" {
		if existing, ok := parseJSDoc(ft.text(prev)); ok {
			indent := ft.ed.indentAt(int(prev.StartByte()))
			ft.ed.replace(int(prev.StartByte()), int(prev.EndByte()), existing.merge(tags).render(indent))
			return
		}
	}

	start := int(first.StartByte())
	if !ft.atLineStart(start) {
		ft.ed.insert(start, jsdoc{tags: tags}.render("")+" ")
		return
	}
	indent := ft.ed.indentAt(start)
	ft.ed.insert(start, jsdoc{tags: tags}.render(indent)+"\n"+indent)
}

func (ft *fileTransformer) isTypeOnlyName(name string) bool {
	sym, ok := ft.symbols.lookup(ft.file, name)
	return ok && sym.kind.isTypeOnly()
}

func (ft *fileTransformer) visitImport(n *sitter.Node) {
	if hasToken(n, "type") || hasToken(n, "typeof") {
		ft.removeStatement(n)
		return
	}
	if require := firstChildOfType(n, "import_require_clause"); require != nil {
		ft.ed.replace(int(n.StartByte()), int(require.StartByte()), "const ")
		return
	}
	clause := firstChildOfType(n, "import_clause")
	if clause == nil {
		return
	}

	var parts []string
	var named []string
	dropped := false
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if ft.isTypeOnlyName(ft.text(child)) {
				dropped = true
				continue
			}
			parts = append(parts, ft.text(child))
		case "namespace_import":
			parts = append(parts, ft.text(child))
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if hasToken(spec, "type") || (local != nil && ft.isTypeOnlyName(ft.text(local))) {
					dropped = true
					continue
				}
				named = append(named, ft.text(spec))
			}
			if len(named) == 0 && child.NamedChildCount() == 0 {
				parts = append(parts, "{}")
			}
		}
	}
	if !dropped {
		return
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(parts) == 0 {
		ft.removeStatement(n)
		return
	}
	ft.ed.replace(int(clause.StartByte()), int(clause.EndByte()), strings.Join(parts, ", "))
}

func (ft *fileTransformer) visitExport(n *sitter.Node) {
	if hasToken(n, "type") || (hasToken(n, "as") && hasToken(n, "namespace")) {
		ft.removeStatement(n)
		return
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
			ft.removeStatement(n)
			return
		}
		if ft.namespace != nil {
			ft.ed.remove(int(exportKeywordStart(n)), int(decl.StartByte()))
			for _, name := range typescript.DeclarationNames(decl, ft.file.Text) {
				ft.namespace.exported = append(ft.namespace.exported, name)
			}
		}
		ft.visitDeclaration(decl, n)
		return
	}

	if hasToken(n, "=") && n.NamedChildCount() > 0 {
		value := n.NamedChild(int(n.NamedChildCount()) - 1)
		ft.warn(n, "export = is emitted as export default")
		ft.ed.replace(int(n.StartByte()), int(value.StartByte()), "export default ")
		ft.visit(value)
		return
	}
	if value := n.ChildByFieldName("value"); value != nil {
		ft.visit(value)
		return
	}

	clause := firstChildOfType(n, "export_clause")
	if clause == nil {
		return
	}
	source := n.ChildByFieldName("source")
	var kept []string
	dropped := false
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if hasToken(spec, "type") || (name != nil && ft.reexportsType(ft.text(name), source)) {
			dropped = true
			continue
		}
		kept = append(kept, ft.text(spec))
	}
	if !dropped {
		return
	}
	if len(kept) == 0 {
		ft.removeStatement(n)
		return
	}
	ft.ed.replace(int(clause.StartByte()), int(clause.EndByte()), "{ "+strings.Join(kept, ", ")+" }")
}

// exportKeywordStart skips decorators written before the export keyword.
func exportKeywordStart(n *sitter.Node) uint32 {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == "export" {
			return child.StartByte()
		}
	}
	return n.StartByte()
}

func (ft *fileTransformer) reexportsType(name string, source *sitter.Node) bool {
	if source == nil {
		return ft.isTypeOnlyName(name)
	}
	specifier := strings.Trim(ft.text(source), "'\"`")
	for _, imp := range ft.file.Imports {
		if !imp.IsResolved() || imp.Path() != specifier {
			continue
		}
		target := ft.symbols.prog.SourceFile(imp.ResolvedFileName)
		if target == nil {
			return false
		}
		sym, ok := ft.symbols.of(target).declared[name]
		return ok && sym.kind.isTypeOnly()
	}
	return false
}

// visitFunction erases a function-like node and, when anchor is set, annotates
// the statement starting at anchor.
func (ft *fileTransformer) visitFunction(fn, anchor *sitter.Node, isCtor bool, extra []jsdocTag) {
	scoped, typeParams := ft.types.withTypeParams(fn.ChildByFieldName("type_parameters"))
	saved := ft.types
	ft.types = scoped
	defer func() { ft.types = saved }()

	if ft.annotate && anchor != nil {
		tags, _ := scoped.signatureTags(fn, typeParams, isCtor)
		ft.addJSDoc(anchor, append(extra, tags...))
	}
	ft.visitChildren(fn)
}

func (ft *fileTransformer) visitParameter(n *sitter.Node) {
	if pattern := n.ChildByFieldName("pattern"); pattern != nil && pattern.Type() == "this" {
		if next := n.NextNamedSibling(); next != nil {
			ft.ed.remove(int(n.StartByte()), int(next.StartByte()))
		} else {
			ft.ed.remove(int(n.StartByte()), int(n.EndByte()))
		}
		return
	}
	ft.removeTokens(n, "readonly", "?")
	ft.visitChildren(n)
}

func (ft *fileTransformer) visitVariables(decl, anchor *sitter.Node) {
	if ft.annotate && statementContext(decl) {
		var declarators []*sitter.Node
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			if child := decl.NamedChild(i); child.Type() == "variable_declarator" {
				declarators = append(declarators, child)
			}
		}
		if len(declarators) == 1 {
			if typ := ft.declaratorType(declarators[0]); typ != "" {
				ft.addJSDoc(anchor, []jsdocTag{{name: "type", typ: typ}})
			}
		}
	}
	ft.visitChildren(decl)
}

func statementContext(decl *sitter.Node) bool {
	parent := decl.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "program", "statement_block", "export_statement", "switch_case", "switch_default":
		return true
	default:
		return false
	}
}

// declaratorType returns the declared or inferred type of a variable, or "".
func (ft *fileTransformer) declaratorType(declarator *sitter.Node) string {
	name := declarator.ChildByFieldName("name")
	if name == nil || name.Type() != "identifier" {
		return ""
	}
	if typeAnnotation := declarator.ChildByFieldName("type"); typeAnnotation != nil {
		return ft.types.annotation(typeAnnotation)
	}
	value := declarator.ChildByFieldName("value")
	if value == nil {
		return ""
	}
	switch value.Type() {
	case "arrow_function", "function_expression", "function", "generator_function", "class":
		return ""
	}
	return ft.types.inferExpression(value, nil)
}
