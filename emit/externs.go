package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/depgraph/typescript"
	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/program"
	sitter "github.com/smacker/go-tree-sitter"
)

// ExternsHeader heads every externs file produced by GeneratedExterns.
const ExternsHeader = `/**
 * @externs
 * @suppress {checkTypes,const,duplicate,missingOverride}
 */
// NOTE: generated externs, do not edit.
`

// GeneratedExterns joins per-file externs, ordered by file name, under
// ExternsHeader. It returns "" when there is nothing to join.
func GeneratedExterns(fileExterns map[string]string) string {
	fileNames := make([]string, 0, len(fileExterns))
	for fileName, fragment := range fileExterns {
		if fragment != "" {
			fileNames = append(fileNames, fileName)
		}
	}
	if len(fileNames) == 0 {
		return ""
	}
	sort.Strings(fileNames)

	fragments := make([]string, len(fileNames))
	for i, fileName := range fileNames {
		fragments[i] = fileExterns[fileName]
	}
	return ExternsHeader + strings.Join(fragments, "")
}

// isExternalModule reports whether file has top-level imports or exports.
func isExternalModule(file *program.SourceFile) bool {
	root := file.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}

// externsWriter renders the externs of one file.
type externsWriter struct {
	file      *program.SourceFile
	host      Host
	types     *typeTranslator
	namespace string
	module    bool
	exports   strings.Builder
	globals   strings.Builder
	declared  map[string]bool
	warnings  []diag.Diagnostic
}

// generateExterns describes the exported surface of a module under its
// namespace var, and ambient declarations as globals.
func generateExterns(file *program.SourceFile, symbols *symbolTable, host Host) (string, []diag.Diagnostic) {
	w := &externsWriter{
		file:      file,
		host:      host,
		namespace: ExternNamespace(host.PathToModuleName("", file.FileName)),
		module:    isExternalModule(file),
		declared:  make(map[string]bool),
	}
	w.types = &typeTranslator{file: file, symbols: symbols, qualify: w.qualify, warn: w.warn}

	root := file.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.statement(root.NamedChild(i))
	}
	if w.exports.Len() == 0 && w.globals.Len() == 0 {
		return "", w.warnings
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// externs from: %s\n", host.FileNameToModuleID(file.FileName))
	if w.exports.Len() > 0 {
		fmt.Fprintf(&b, "/** @const */\nvar %s = {};\n", w.namespace)
		b.WriteString(w.exports.String())
	}
	b.WriteString(w.globals.String())
	return b.String(), w.warnings
}

func (w *externsWriter) warn(n *sitter.Node, format string, args ...any) {
	pos := typescript.PositionOf(n)
	w.warnings = append(w.warnings, diag.Warningf(w.file.FileName, pos.Line, pos.Column, 0, format, args...))
}

func (w *externsWriter) text(n *sitter.Node) string {
	return n.Content(w.file.Text)
}

// qualify names a referenced declaration the way the externs declare it.
func (w *externsWriter) qualify(sym symbol) (string, bool) {
	if sym.file == nil || !isExternalModule(sym.file) {
		return sym.name, true
	}
	if !sym.exported {
		return "", false
	}
	return ExternNamespace(w.host.PathToModuleName("", sym.file.FileName)) + "." + sym.exportName(), true
}

func (w *externsWriter) statement(n *sitter.Node) {
	switch n.Type() {
	case "export_statement":
		w.exportStatement(n)
	case "ambient_declaration":
		if w.module && w.file.IsDeclaration && !hasToken(n, "global") {
			w.declaration(&w.exports, n, w.namespace, "")
			return
		}
		w.ambient(n, "")
	default:
		if !w.file.IsDeclaration {
			return
		}
		if w.module {
			w.declaration(&w.exports, n, w.namespace, "")
		} else {
			w.declaration(&w.globals, n, "", "")
		}
	}
}

func (w *externsWriter) exportStatement(n *sitter.Node) {
	if !w.module {
		return
	}
	decl := n.ChildByFieldName("declaration")
	if decl == nil {
		if clause := firstChildOfType(n, "export_clause"); clause != nil && n.ChildByFieldName("source") == nil {
			w.exportClause(clause)
		}
		return
	}
	if decl.Type() == "ambient_declaration" {
		decl = ambientInner(decl)
		if decl == nil {
			return
		}
	}
	name := ""
	if hasToken(n, "default") {
		name = "default"
	}
	w.declaration(&w.exports, decl, w.namespace, name)
}

// exportClause describes `export { a, b as c }` of local declarations.
func (w *externsWriter) exportClause(clause *sitter.Node) {
	local := make(map[string]*sitter.Node)
	root := w.file.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement := root.NamedChild(i)
		if statement.Type() == "ambient_declaration" {
			if inner := ambientInner(statement); inner != nil {
				statement = inner
			}
		}
		if name := statement.ChildByFieldName("name"); name != nil {
			local[w.text(name)] = statement
		}
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		decl, ok := local[w.text(name)]
		if !ok {
			continue
		}
		exportedAs := w.text(name)
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exportedAs = w.text(alias)
		}
		w.declaration(&w.exports, decl, w.namespace, exportedAs)
	}
}

func ambientInner(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != "statement_block" {
			return child
		}
	}
	return nil
}

// ambient describes a `declare` statement as globals, or under prefix inside
// a declared namespace.
func (w *externsWriter) ambient(n *sitter.Node, prefix string) {
	if hasToken(n, "global") {
		if block := firstChildOfType(n, "statement_block"); block != nil {
			for i := 0; i < int(block.NamedChildCount()); i++ {
				w.declaration(&w.globals, block.NamedChild(i), "", "")
			}
		}
		return
	}
	if inner := ambientInner(n); inner != nil {
		w.declaration(&w.globals, inner, prefix, "")
	}
}

func qualifiedName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func writeDoc(b *strings.Builder, tags []jsdocTag) {
	b.WriteString(jsdoc{tags: tags}.render(""))
	b.WriteString("\n")
}

// writeValue declares qualified without a value.
func writeValue(b *strings.Builder, qualified string) {
	if strings.Contains(qualified, ".") {
		fmt.Fprintf(b, "%s;\n", qualified)
	} else {
		fmt.Fprintf(b, "var %s;\n", qualified)
	}
}

func writeFunction(b *strings.Builder, qualified string, params []paramInfo) {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if !p.isThis {
			names = append(names, p.name)
		}
	}
	if strings.Contains(qualified, ".") {
		fmt.Fprintf(b, "%s = function(%s) {};\n", qualified, strings.Join(names, ", "))
	} else {
		fmt.Fprintf(b, "function %s(%s) {}\n", qualified, strings.Join(names, ", "))
	}
}

// declaration describes decl as prefix.name, or as a global when prefix is
// empty. exportedAs overrides the declared name.
func (w *externsWriter) declaration(b *strings.Builder, decl *sitter.Node, prefix, exportedAs string) {
	if decl.Type() == "ambient_declaration" {
		if inner := ambientInner(decl); inner != nil {
			decl = inner
		}
	}
	name := exportedAs
	if name == "" {
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			name = w.text(nameNode)
		}
	}

	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		w.variables(b, decl, prefix, exportedAs)
		return
	}
	if name == "" {
		return
	}
	qualified := qualifiedName(prefix, name)
	if w.declared[qualified] {
		return
	}

	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		w.declared[qualified] = true
		scoped, typeParams := w.types.withTypeParams(decl.ChildByFieldName("type_parameters"))
		tags, params := scoped.signatureTags(decl, typeParams, false)
		writeDoc(b, tags)
		writeFunction(b, qualified, params)
	case "class_declaration", "abstract_class_declaration":
		w.declared[qualified] = true
		w.class(b, decl, qualified)
	case "interface_declaration":
		w.declared[qualified] = true
		w.record(b, decl, qualified)
	case "enum_declaration":
		w.declared[qualified] = true
		members := enumMembers(decl, w.file.Text)
		writeDoc(b, []jsdocTag{{name: "enum", typ: enumType(members)}})
		if strings.Contains(qualified, ".") {
			fmt.Fprintf(b, "%s = {", qualified)
		} else {
			fmt.Fprintf(b, "var %s = {", qualified)
		}
		for _, m := range members {
			fmt.Fprintf(b, "\n  %s: %s,", m.key, m.value)
		}
		if len(members) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("};\n")
	case "type_alias_declaration":
		value := decl.ChildByFieldName("value")
		if value == nil {
			return
		}
		w.declared[qualified] = true
		scoped := w.types.withErasedTypeParams(decl.ChildByFieldName("type_parameters"))
		writeDoc(b, []jsdocTag{{name: "typedef", typ: scoped.translate(value)}})
		writeValue(b, qualified)
	case "internal_module", "module":
		body := decl.ChildByFieldName("body")
		nameNode := decl.ChildByFieldName("name")
		if body == nil || nameNode == nil || nameNode.Type() == "string" {
			return
		}
		w.declared[qualified] = true
		writeDoc(b, []jsdocTag{{name: "const"}})
		if strings.Contains(qualified, ".") {
			fmt.Fprintf(b, "%s = {};\n", qualified)
		} else {
			fmt.Fprintf(b, "var %s = {};\n", qualified)
		}
		ambient := prefix == "" || w.file.IsDeclaration
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "export_statement" {
				if inner := member.ChildByFieldName("declaration"); inner != nil {
					w.declaration(b, inner, qualified, "")
				}
				continue
			}
			if ambient {
				w.declaration(b, member, qualified, "")
			}
		}
	}
}

func (w *externsWriter) variables(b *strings.Builder, decl *sitter.Node, prefix, exportedAs string) {
	isConst := hasToken(decl, "const")
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := w.text(nameNode)
		if exportedAs != "" {
			if exportedAs != "default" && name != exportedAs && decl.NamedChildCount() > 1 {
				continue
			}
			name = exportedAs
		}
		qualified := qualifiedName(prefix, name)
		if w.declared[qualified] {
			continue
		}
		w.declared[qualified] = true

		typ := "?"
		if typeAnnotation := declarator.ChildByFieldName("type"); typeAnnotation != nil {
			typ = w.types.annotation(typeAnnotation)
		} else if value := declarator.ChildByFieldName("value"); value != nil {
			if inferred := w.types.inferExpression(value, nil); inferred != "" {
				typ = inferred
			}
		}
		if isConst {
			writeDoc(b, []jsdocTag{{name: "const", typ: typ}})
		} else {
			writeDoc(b, []jsdocTag{{name: "type", typ: typ}})
		}
		writeValue(b, qualified)
	}
}

func isPrivateMember(member *sitter.Node, source []byte) bool {
	if modifier := firstChildOfType(member, "accessibility_modifier"); modifier != nil && modifier.Content(source) == "private" {
		return true
	}
	name := member.ChildByFieldName("name")
	return name != nil && name.Type() == "private_property_identifier"
}

func (w *externsWriter) class(b *strings.Builder, decl *sitter.Node, qualified string) {
	scoped, typeParams := w.types.withTypeParams(decl.ChildByFieldName("type_parameters"))
	body := decl.ChildByFieldName("body")

	var ctor *sitter.Node
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if name := member.ChildByFieldName("name"); name != nil && w.text(name) == "constructor" &&
				(member.Type() == "method_definition" || member.Type() == "method_signature") {
				ctor = member
				break
			}
		}
	}

	tags := []jsdocTag{{name: "constructor"}}
	if heritage := firstChildOfType(decl, "class_heritage"); heritage != nil {
		if extends := firstChildOfType(heritage, "extends_clause"); extends != nil {
			if value := extends.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
				tags = append(tags, jsdocTag{name: "extends", typ: scoped.reference(w.text(value), extends.ChildByFieldName("type_arguments"))})
			}
		}
		if implements := firstChildOfType(heritage, "implements_clause"); implements != nil {
			for i := 0; i < int(implements.NamedChildCount()); i++ {
				tags = append(tags, jsdocTag{name: "implements", typ: scoped.translate(implements.NamedChild(i))})
			}
		}
	}
	if len(typeParams) > 0 {
		tags = append(tags, jsdocTag{name: "template", text: strings.Join(typeParams, ", ")})
	}
	var params []paramInfo
	if ctor != nil {
		var ctorTags []jsdocTag
		ctorTags, params = scoped.signatureTags(ctor, nil, true)
		tags = append(tags, ctorTags...)
	}
	writeDoc(b, tags)
	writeFunction(b, qualified, params)

	for _, p := range params {
		if p.modifier == "" || p.modifier == "private" {
			continue
		}
		member := qualified + ".prototype." + p.name
		if w.declared[member] {
			continue
		}
		w.declared[member] = true
		writeDoc(b, []jsdocTag{{name: "type", typ: p.typ}})
		writeValue(b, member)
	}
	if body == nil {
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if (ctor != nil && member.StartByte() == ctor.StartByte()) || isPrivateMember(member, w.file.Text) {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		target := qualified + ".prototype."
		if hasToken(member, "static") {
			target = qualified + "."
		}
		target += strings.Trim(w.text(nameNode), "'\"")
		if w.declared[target] {
			continue
		}

		switch member.Type() {
		case "public_field_definition", "property_signature":
			w.declared[target] = true
			typ := "?"
			if typeAnnotation := member.ChildByFieldName("type"); typeAnnotation != nil {
				typ = scoped.annotation(typeAnnotation)
			} else if value := member.ChildByFieldName("value"); value != nil {
				if inferred := scoped.inferExpression(value, nil); inferred != "" {
					typ = inferred
				}
			}
			writeDoc(b, []jsdocTag{{name: "type", typ: typ}})
			writeValue(b, target)
		case "method_definition", "method_signature", "abstract_method_signature":
			w.declared[target] = true
			if hasToken(member, "get") || hasToken(member, "set") {
				typ := "?"
				if rt := member.ChildByFieldName("return_type"); rt != nil {
					typ = scoped.annotation(rt)
				}
				writeDoc(b, []jsdocTag{{name: "type", typ: typ}})
				writeValue(b, target)
				continue
			}
			methodScope, methodTypeParams := scoped.withTypeParams(member.ChildByFieldName("type_parameters"))
			methodTags, methodParams := methodScope.signatureTags(member, methodTypeParams, false)
			writeDoc(b, methodTags)
			writeFunction(b, target, methodParams)
		}
	}
}

// record describes an interface as a @record constructor.
func (w *externsWriter) record(b *strings.Builder, decl *sitter.Node, qualified string) {
	scoped, typeParams := w.types.withTypeParams(decl.ChildByFieldName("type_parameters"))
	tags := []jsdocTag{{name: "record"}}
	if extends := firstChildOfType(decl, "extends_type_clause"); extends != nil {
		for i := 0; i < int(extends.NamedChildCount()); i++ {
			tags = append(tags, jsdocTag{name: "extends", typ: scoped.translate(extends.NamedChild(i))})
		}
	}
	if len(typeParams) > 0 {
		tags = append(tags, jsdocTag{name: "template", text: strings.Join(typeParams, ", ")})
	}
	writeDoc(b, tags)
	writeFunction(b, qualified, nil)

	body := decl.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		target := qualified + ".prototype." + strings.Trim(w.text(nameNode), "'\"")
		if w.declared[target] {
			continue
		}
		switch member.Type() {
		case "property_signature":
			w.declared[target] = true
			typ := scoped.annotation(member.ChildByFieldName("type"))
			if hasToken(member, "?") {
				typ = joinUnion(uniqueTypes(typ, "undefined"))
			}
			writeDoc(b, []jsdocTag{{name: "type", typ: typ}})
			writeValue(b, target)
		case "method_signature":
			w.declared[target] = true
			methodScope, methodTypeParams := scoped.withTypeParams(member.ChildByFieldName("type_parameters"))
			methodTags, methodParams := methodScope.signatureTags(member, methodTypeParams, false)
			writeDoc(b, methodTags)
			writeFunction(b, target, methodParams)
		}
	}
}
