package emit

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const decoratorInvocationType = "{type: !Function, args: (undefined|!Array<?>)}"

// decoratorInvocation is one lowered `@type(args)`.
type decoratorInvocation struct {
	typ  string
	args string
}

func (d decoratorInvocation) String() string {
	if d.args == "" {
		return "{ type: " + d.typ + " }"
	}
	return "{ type: " + d.typ + ", args: [" + d.args + "] }"
}

type propDecorators struct {
	name        string
	invocations []decoratorInvocation
}

type ctorParameter struct {
	typ         string
	invocations []decoratorInvocation
}

// classDecorators collects everything lowered from one class.
type classDecorators struct {
	class      []decoratorInvocation
	props      []propDecorators
	ctorParams []ctorParameter
	decorated  bool
}

func (ft *fileTransformer) decoratorInvocation(d *sitter.Node) decoratorInvocation {
	expr := d.NamedChild(0)
	if expr == nil {
		return decoratorInvocation{typ: "undefined"}
	}
	if expr.Type() == "call_expression" {
		inv := decoratorInvocation{typ: ft.text(expr.ChildByFieldName("function"))}
		if args := expr.ChildByFieldName("arguments"); args != nil {
			text := ft.text(args)
			inv.args = strings.TrimSpace(text[1 : len(text)-1])
		}
		return inv
	}
	return decoratorInvocation{typ: ft.text(expr)}
}

func (ft *fileTransformer) lowerDecoratorNodes(decorators []*sitter.Node) []decoratorInvocation {
	var invocations []decoratorInvocation
	for _, d := range decorators {
		invocations = append(invocations, ft.decoratorInvocation(d))
		ft.ed.removeWithTrailingSpace(int(d.StartByte()), int(d.EndByte()))
	}
	return invocations
}

func (cd *classDecorators) render(className, indent string, annotate bool) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString("\n" + indent + fmt.Sprintf(format, args...))
	}

	if len(cd.class) > 0 {
		if annotate {
			line("/** @type {!Array<%s>} */", decoratorInvocationType)
		}
		line("%s.decorators = [", className)
		for _, inv := range cd.class {
			line("    %s,", inv)
		}
		line("];")
	}
	if len(cd.ctorParams) > 0 {
		if annotate {
			line("/** @type {function(): !Array<(null|{type: ?, decorators: (undefined|!Array<%s>)})>} */", decoratorInvocationType)
		}
		line("%s.ctorParameters = () => [", className)
		for _, p := range cd.ctorParams {
			if len(p.invocations) == 0 {
				line("    { type: %s },", p.typ)
				continue
			}
			invocations := make([]string, len(p.invocations))
			for i, inv := range p.invocations {
				invocations[i] = inv.String()
			}
			line("    { type: %s, decorators: [%s] },", p.typ, strings.Join(invocations, ", "))
		}
		line("];")
	}
	if len(cd.props) > 0 {
		if annotate {
			line("/** @type {!Object<string, !Array<%s>>} */", decoratorInvocationType)
		}
		line("%s.propDecorators = {", className)
		for _, p := range cd.props {
			invocations := make([]string, len(p.invocations))
			for i, inv := range p.invocations {
				invocations[i] = inv.String()
			}
			line("    %s: [%s],", strconv.Quote(p.name), strings.Join(invocations, ", "))
		}
		line("};")
	}
	return b.String()
}

func childrenOfType(n *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}

// visitClass erases and annotates a class. anchor is the statement holding a
// class declaration; it is nil for class expressions.
func (ft *fileTransformer) visitClass(cls, anchor *sitter.Node) {
	nameNode := cls.ChildByFieldName("name")
	className := ""
	if nameNode != nil {
		className = ft.text(nameNode)
	}

	scoped, typeParams := ft.types.withTypeParams(cls.ChildByFieldName("type_parameters"))
	saved := ft.types
	ft.types = scoped
	defer func() { ft.types = saved }()

	if ft.annotate && anchor != nil {
		ft.addJSDoc(anchor, ft.classTags(cls, typeParams))
	}
	if cls.Type() == "abstract_class_declaration" {
		ft.removeTokens(cls, "abstract")
	}

	decorators := childrenOfType(cls, "decorator")
	if anchor != nil && anchor.Type() == "export_statement" {
		decorators = append(childrenOfType(anchor, "decorator"), decorators...)
	}
	lower := ft.lowerDecorators && className != "" && anchor != nil
	lowered := &classDecorators{}
	if lower && len(decorators) > 0 {
		lowered.class = ft.lowerDecoratorNodes(decorators)
		lowered.decorated = true
	}

	for i := 0; i < int(cls.NamedChildCount()); i++ {
		child := cls.NamedChild(i)
		switch child.Type() {
		case "decorator":
			if !lower {
				ft.visit(child)
			}
		case "class_heritage":
			if child.NamedChildCount() == 1 && child.NamedChild(0).Type() == "implements_clause" {
				ft.removeWithLeadingSpace(child)
				continue
			}
			ft.visitChildren(child)
		case "class_body":
			ft.visitClassBody(child, lower, lowered)
		default:
			ft.visit(child)
		}
	}

	if lowered.decorated {
		indent := ft.ed.indentAt(int(anchor.StartByte()))
		ft.ed.insert(int(anchor.EndByte()), lowered.render(className, indent, ft.annotate))
	}
}

func (ft *fileTransformer) classTags(cls *sitter.Node, typeParams []string) []jsdocTag {
	var tags []jsdocTag
	if cls.Type() == "abstract_class_declaration" {
		tags = append(tags, jsdocTag{name: "abstract"})
	}
	if len(typeParams) > 0 {
		tags = append(tags, jsdocTag{name: "template", text: strings.Join(typeParams, ", ")})
	}
	heritage := firstChildOfType(cls, "class_heritage")
	if heritage == nil {
		return tags
	}
	if extends := firstChildOfType(heritage, "extends_clause"); extends != nil {
		value := extends.ChildByFieldName("value")
		typeArguments := extends.ChildByFieldName("type_arguments")
		if value != nil && typeArguments != nil && value.Type() == "identifier" {
			tags = append(tags, jsdocTag{name: "extends", typ: ft.types.reference(ft.text(value), typeArguments)})
		}
	}
	if implements := firstChildOfType(heritage, "implements_clause"); implements != nil {
		for i := 0; i < int(implements.NamedChildCount()); i++ {
			tags = append(tags, jsdocTag{name: "implements", typ: ft.types.translate(implements.NamedChild(i))})
		}
	}
	return tags
}

func (ft *fileTransformer) visitClassBody(body *sitter.Node, lower bool, lowered *classDecorators) {
	var pending []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "decorator":
			pending = append(pending, member)
			continue
		case "comment":
			continue
		}
		decorators := append(pending, childrenOfType(member, "decorator")...)
		pending = nil
		first := member
		if len(decorators) > 0 && decorators[0].StartByte() < member.StartByte() {
			first = decorators[0]
		}

		switch member.Type() {
		case "method_signature", "abstract_method_signature", "index_signature":
			ft.ed.removeStatement(int(first.StartByte()), int(statementEnd(member)))
			continue
		case "public_field_definition":
			if hasToken(member, "declare") || hasToken(member, "abstract") {
				ft.ed.removeStatement(int(first.StartByte()), int(statementEnd(member)))
				continue
			}
			ft.visitField(member, first)
		case "method_definition":
			ft.visitMethod(member, first, lower, lowered)
		default:
			ft.visit(member)
			continue
		}

		if lower && len(decorators) > 0 {
			name := member.ChildByFieldName("name")
			if name == nil {
				continue
			}
			lowered.props = append(lowered.props, propDecorators{
				name:        strings.Trim(ft.text(name), "'\""),
				invocations: ft.lowerDecoratorNodes(decorators),
			})
			lowered.decorated = true
		}
	}
}

func accessibilityTags(member *sitter.Node, source []byte) []jsdocTag {
	if modifier := firstChildOfType(member, "accessibility_modifier"); modifier != nil {
		switch modifier.Content(source) {
		case "private":
			return []jsdocTag{{name: "private"}}
		case "protected":
			return []jsdocTag{{name: "protected"}}
		}
	}
	return nil
}

func (ft *fileTransformer) visitField(field, first *sitter.Node) {
	if ft.annotate {
		typ := "?"
		if typeAnnotation := field.ChildByFieldName("type"); typeAnnotation != nil {
			typ = ft.types.annotation(typeAnnotation)
		} else if value := field.ChildByFieldName("value"); value != nil {
			if inferred := ft.types.inferExpression(value, nil); inferred != "" {
				typ = inferred
			}
		}
		if hasToken(field, "?") {
			typ = joinUnion(uniqueTypes(typ, "undefined"))
		}
		tags := []jsdocTag{{name: "type", typ: typ}}
		tags = append(tags, accessibilityTags(field, ft.file.Text)...)
		if hasToken(field, "readonly") {
			tags = append(tags, jsdocTag{name: "const"})
		}
		ft.addJSDoc(first, tags)
	}
	ft.removeTokens(field, "readonly", "?", "!")
	for i := 0; i < int(field.NamedChildCount()); i++ {
		if child := field.NamedChild(i); child.Type() != "decorator" {
			ft.visit(child)
		}
	}
}

func (ft *fileTransformer) visitMethod(method, first *sitter.Node, lower bool, lowered *classDecorators) {
	name := method.ChildByFieldName("name")
	isCtor := name != nil && ft.text(name) == "constructor"
	ft.removeTokens(method, "?")

	if isCtor {
		ft.lowerParameterProperties(method)
		if lower {
			ft.collectCtorParameters(method, lowered)
		}
	}

	var extra []jsdocTag
	if ft.annotate {
		extra = accessibilityTags(method, ft.file.Text)
	}
	ft.visitFunction(method, first, isCtor, extra)
}

// lowerParameterProperties turns `constructor(private x)` into an assignment
// at the start of the constructor body, after a super call.
func (ft *fileTransformer) lowerParameterProperties(ctor *sitter.Node) {
	params := ctor.ChildByFieldName("parameters")
	body := ctor.ChildByFieldName("body")
	if params == nil || body == nil {
		return
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		if firstChildOfType(param, "accessibility_modifier") == nil && !hasToken(param, "readonly") && firstChildOfType(param, "override_modifier") == nil {
			continue
		}
		if pattern := param.ChildByFieldName("pattern"); pattern != nil && pattern.Type() == "identifier" {
			names = append(names, ft.text(pattern))
		}
	}
	if len(names) == 0 {
		return
	}

	memberIndent := ft.ed.indentAt(int(ctor.StartByte()))
	indent := memberIndent + memberIndent
	if indent == "" {
		indent = "    "
	}
	insertAt := int(body.StartByte()) + 1
	var statements []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if child := body.NamedChild(i); child.Type() != "comment" {
			statements = append(statements, child)
		}
	}
	if len(statements) > 0 {
		if statementIndent := ft.ed.indentAt(int(statements[0].StartByte())); statementIndent != "" {
			indent = statementIndent
		}
	}
	for _, statement := range statements {
		if isSuperCall(statement) {
			insertAt = int(statement.EndByte())
			break
		}
	}

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "\n%sthis.%s = %s;", indent, name, name)
	}
	if len(statements) == 0 && !strings.Contains(ft.text(body), "\n") {
		b.WriteString("\n" + memberIndent)
	}
	ft.ed.insert(insertAt, b.String())
}

func isSuperCall(statement *sitter.Node) bool {
	if statement.Type() != "expression_statement" || statement.NamedChildCount() == 0 {
		return false
	}
	call := statement.NamedChild(0)
	if call.Type() != "call_expression" {
		return false
	}
	fn := call.ChildByFieldName("function")
	return fn != nil && fn.Type() == "super"
}

func (ft *fileTransformer) collectCtorParameters(ctor *sitter.Node, lowered *classDecorators) {
	params := ctor.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	var ctorParams []ctorParameter
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		if param.Type() != "required_parameter" && param.Type() != "optional_parameter" {
			continue
		}
		p := ctorParameter{typ: ft.ctorParameterType(param.ChildByFieldName("type"))}
		if decorators := childrenOfType(param, "decorator"); len(decorators) > 0 {
			p.invocations = ft.lowerDecoratorNodes(decorators)
			lowered.decorated = true
		}
		ctorParams = append(ctorParams, p)
	}
	lowered.ctorParams = ctorParams
}

// ctorParameterType names the runtime value behind a parameter type, or
// undefined when the type has none.
func (ft *fileTransformer) ctorParameterType(typeAnnotation *sitter.Node) string {
	if typeAnnotation == nil || typeAnnotation.NamedChildCount() == 0 {
		return "undefined"
	}
	typ := typeAnnotation.NamedChild(0)
	if typ.Type() == "generic_type" {
		typ = typ.ChildByFieldName("name")
	}
	if typ == nil || typ.Type() != "type_identifier" {
		return "undefined"
	}
	name := ft.text(typ)
	if sym, ok := ft.symbols.lookup(ft.file, name); ok && sym.kind != symbolClass {
		return "undefined"
	}
	return name
}

// enumMember is one lowered enum entry.
type enumMember struct {
	// key is the property as written in the object literal.
	key string
	// name is the member name without quotes.
	name     string
	value    string
	isString bool
}

func enumMembers(enum *sitter.Node, source []byte) []enumMember {
	enumName := ""
	if name := enum.ChildByFieldName("name"); name != nil {
		enumName = name.Content(source)
	}
	body := enum.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var members []enumMember
	next, nextKnown := int64(0), true
	previous := ""
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		keyNode, value := child, (*sitter.Node)(nil)
		switch child.Type() {
		case "enum_assignment":
			keyNode, value = child.ChildByFieldName("name"), child.ChildByFieldName("value")
		case "property_identifier", "string", "number":
		default:
			continue
		}
		if keyNode == nil {
			continue
		}
		member := enumMember{key: keyNode.Content(source), name: strings.Trim(keyNode.Content(source), "'\"")}
		switch {
		case value == nil && nextKnown:
			member.value = strconv.FormatInt(next, 10)
			next++
		case value == nil:
			member.value = previous + " + 1"
		case value.Type() == "string" || value.Type() == "template_string":
			member.value = value.Content(source)
			member.isString = true
			nextKnown = false
		default:
			member.value = value.Content(source)
			if n, err := strconv.ParseInt(member.value, 0, 64); err == nil {
				next, nextKnown = n+1, true
			} else {
				nextKnown = false
			}
		}
		previous = enumName + "[" + strconv.Quote(member.name) + "]"
		members = append(members, member)
	}
	return members
}

func enumType(members []enumMember) string {
	stringCount, numberCount := 0, 0
	for _, m := range members {
		if m.isString {
			stringCount++
		} else {
			numberCount++
		}
	}
	switch {
	case stringCount == 0:
		return "number"
	case numberCount == 0:
		return "string"
	default:
		return "?"
	}
}

// visitEnum replaces an enum with a frozen-shape object literal plus the
// reverse mapping of its numeric members.
func (ft *fileTransformer) visitEnum(enum, anchor *sitter.Node) {
	name := enum.ChildByFieldName("name")
	if name == nil {
		return
	}
	enumName := ft.text(name)
	members := enumMembers(enum, ft.file.Text)
	indent := ft.ed.indentAt(int(anchor.StartByte()))

	if ft.annotate {
		ft.addJSDoc(anchor, []jsdocTag{{name: "enum", typ: enumType(members)}})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "const %s = {", enumName)
	for _, m := range members {
		fmt.Fprintf(&b, "\n%s    %s: %s,", indent, m.key, m.value)
	}
	if len(members) > 0 {
		b.WriteString("\n" + indent)
	}
	b.WriteString("};")
	for _, m := range members {
		if m.isString {
			continue
		}
		fmt.Fprintf(&b, "\n%s%s[%s[%s]] = %s;", indent, enumName, enumName, strconv.Quote(m.name), strconv.Quote(m.name))
	}
	ft.ed.replace(int(enum.StartByte()), int(enum.EndByte()), b.String())
}

// instantiated reports whether a namespace body holds any runtime code.
func instantiated(body *sitter.Node) bool {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		statement := body.NamedChild(i)
		if statement.Type() == "export_statement" {
			if decl := statement.ChildByFieldName("declaration"); decl != nil {
				statement = decl
			}
		}
		switch statement.Type() {
		case "comment", "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
			continue
		case "internal_module", "module":
			if inner := statement.ChildByFieldName("body"); inner != nil && !instantiated(inner) {
				continue
			}
		case "expression_statement":
			if statement.NamedChildCount() == 1 && statement.NamedChild(0).Type() == "internal_module" {
				if inner := statement.NamedChild(0).ChildByFieldName("body"); inner != nil && !instantiated(inner) {
					continue
				}
			}
		}
		return true
	}
	return false
}

// visitNamespace lowers a namespace into an immediately invoked function that
// populates a var of the same name.
func (ft *fileTransformer) visitNamespace(ns, anchor *sitter.Node) {
	name := ns.ChildByFieldName("name")
	body := ns.ChildByFieldName("body")
	if name == nil || body == nil {
		ft.removeStatement(anchor)
		return
	}
	if !instantiated(body) {
		ft.removeStatement(anchor)
		return
	}
	if name.Type() != "identifier" {
		ft.warn(ns, "namespace %s is not lowered", ft.text(name))
		return
	}

	nsName := ft.text(name)
	indent := ft.ed.indentAt(int(anchor.StartByte()))
	ft.ed.replace(int(ns.StartByte()), int(body.StartByte())+1, fmt.Sprintf("var %s;\n%s(function (%s) {", nsName, indent, nsName))

	saved := ft.namespace
	ft.namespace = &namespaceScope{name: nsName}
	ft.visitChildren(body)
	scope := ft.namespace
	ft.namespace = saved

	var b strings.Builder
	if !ft.atLineStart(int(body.EndByte()) - 1) {
		b.WriteString("\n" + indent)
	}
	for _, exported := range scope.exported {
		fmt.Fprintf(&b, "    %s.%s = %s;\n%s", nsName, exported, exported, indent)
	}
	fmt.Fprintf(&b, "})(%s || (%s = {}));", nsName, nsName)
	ft.ed.replace(int(body.EndByte())-1, int(ns.EndByte()), b.String())
}
