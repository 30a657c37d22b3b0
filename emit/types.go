package emit

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/program"
	sitter "github.com/smacker/go-tree-sitter"
)

var builtinGenerics = map[string]bool{
	"Array":         true,
	"ReadonlyArray": true,
	"Promise":       true,
	"Map":           true,
	"Set":           true,
	"WeakMap":       true,
	"WeakSet":       true,
	"Iterable":      true,
	"Iterator":      true,
	"Generator":     true,
	"IThenable":     true,
}

// typeTranslator converts TypeScript type syntax into Closure type expressions.
type typeTranslator struct {
	file    *program.SourceFile
	symbols *symbolTable
	// typeParams maps type parameter names in scope to their rendering.
	typeParams map[string]string
	// qualify names a referenced declaration; ok=false renders it as ?.
	qualify func(sym symbol) (string, bool)
	warn    func(n *sitter.Node, format string, args ...any)
}

func (t *typeTranslator) text(n *sitter.Node) string {
	return n.Content(t.file.Text)
}

// withTypeParams returns a copy of t with the names declared by a
// type_parameters node in scope as @template names.
func (t *typeTranslator) withTypeParams(typeParams *sitter.Node) (*typeTranslator, []string) {
	return t.scopeTypeParams(typeParams, false)
}

// withErasedTypeParams is withTypeParams for declarations that cannot carry
// @template, such as typedefs; the parameters render as ?.
func (t *typeTranslator) withErasedTypeParams(typeParams *sitter.Node) *typeTranslator {
	scoped, _ := t.scopeTypeParams(typeParams, true)
	return scoped
}

func (t *typeTranslator) scopeTypeParams(typeParams *sitter.Node, erase bool) (*typeTranslator, []string) {
	if typeParams == nil {
		return t, nil
	}
	scoped := *t
	scoped.typeParams = make(map[string]string, len(t.typeParams))
	for name, rendered := range t.typeParams {
		scoped.typeParams[name] = rendered
	}
	var names []string
	for i := 0; i < int(typeParams.NamedChildCount()); i++ {
		param := typeParams.NamedChild(i)
		name := param.ChildByFieldName("name")
		if name == nil {
			continue
		}
		names = append(names, t.text(name))
		if erase {
			scoped.typeParams[t.text(name)] = "?"
		} else {
			scoped.typeParams[t.text(name)] = t.text(name)
		}
	}
	return &scoped, names
}

// annotation translates the type inside a type_annotation node.
func (t *typeTranslator) annotation(n *sitter.Node) string {
	if n == nil {
		return "?"
	}
	switch n.Type() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation":
		if n.NamedChildCount() == 0 {
			return "?"
		}
		return t.translate(n.NamedChild(0))
	case "type_predicate_annotation":
		return "boolean"
	case "asserts_annotation":
		return "void"
	default:
		return t.translate(n)
	}
}

func (t *typeTranslator) translate(n *sitter.Node) string {
	switch n.Type() {
	case "predefined_type":
		return predefinedType(t.text(n))
	case "type_identifier", "identifier":
		return t.reference(t.text(n), nil)
	case "nested_type_identifier":
		return "!" + t.text(n)
	case "generic_type":
		name := n.ChildByFieldName("name")
		if name == nil {
			name = n.NamedChild(0)
		}
		return t.reference(t.text(name), n.ChildByFieldName("type_arguments"))
	case "array_type":
		return "!Array<" + t.translate(n.NamedChild(0)) + ">"
	case "readonly_type", "parenthesized_type":
		return t.translate(n.NamedChild(int(n.NamedChildCount()) - 1))
	case "union_type":
		return t.union(n)
	case "literal_type":
		return literalType(n.NamedChild(0))
	case "function_type", "constructor_type":
		return t.functionType(n)
	case "object_type":
		return t.objectType(n)
	case "tuple_type":
		return "!Array<?>"
	case "type_predicate":
		return "boolean"
	case "asserts":
		return "void"
	case "this_type", "existential_type":
		return "?"
	default:
		t.warn(n, "unsupported type emitted as ?: %s", t.text(n))
		return "?"
	}
}

func predefinedType(name string) string {
	switch name {
	case "string", "number", "boolean", "symbol", "bigint", "void", "undefined", "null":
		return name
	case "unknown":
		return "*"
	case "object":
		return "!Object"
	default:
		return "?"
	}
}

func literalType(n *sitter.Node) string {
	if n == nil {
		return "?"
	}
	switch n.Type() {
	case "string", "template_string":
		return "string"
	case "number", "unary_expression":
		return "number"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "undefined":
		return "undefined"
	default:
		return "?"
	}
}

func (t *typeTranslator) reference(name string, typeArguments *sitter.Node) string {
	var args []string
	if typeArguments != nil {
		for i := 0; i < int(typeArguments.NamedChildCount()); i++ {
			args = append(args, t.translate(typeArguments.NamedChild(i)))
		}
	}
	withArgs := func(base string) string {
		if len(args) == 0 {
			return base
		}
		return base + "<" + strings.Join(args, ", ") + ">"
	}

	if rendered, ok := t.typeParams[name]; ok {
		return rendered
	}

	switch name {
	case "Array", "ReadonlyArray":
		if len(args) == 0 {
			args = []string{"?"}
		}
		return withArgs("!Array")
	case "Record":
		return withArgs("!Object")
	case "Object":
		return "!Object"
	case "Function":
		return "!Function"
	case "String", "Number", "Boolean":
		return strings.ToLower(name)
	case "Partial", "Required", "Readonly", "Pick", "Omit", "Exclude", "Extract", "NonNullable", "ReturnType", "Parameters", "InstanceType":
		return "?"
	}

	if sym, ok := t.symbols.lookup(t.file, name); ok {
		qualified, known := name, true
		if t.qualify != nil {
			qualified, known = t.qualify(sym)
		}
		if !known {
			return "?"
		}
		switch sym.kind {
		case symbolClass, symbolInterface:
			return withArgs("!" + qualified)
		case symbolEnum, symbolTypeAlias:
			return qualified
		default:
			return "?"
		}
	}

	if builtinGenerics[name] && len(args) == 0 {
		args = []string{"?"}
	}
	return withArgs("!" + name)
}

func (t *typeTranslator) union(n *sitter.Node) string {
	var members []string
	seen := make(map[string]bool)
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n.Type() == "union_type" {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				collect(n.NamedChild(i))
			}
			return
		}
		translated := t.translate(n)
		if !seen[translated] {
			seen[translated] = true
			members = append(members, translated)
		}
	}
	collect(n)
	return joinUnion(members)
}

func joinUnion(members []string) string {
	for _, m := range members {
		if m == "?" {
			return "?"
		}
	}
	if len(members) == 1 {
		return members[0]
	}
	return "(" + strings.Join(members, "|") + ")"
}

func (t *typeTranslator) functionType(n *sitter.Node) string {
	scoped, _ := t.withTypeParams(n.ChildByFieldName("type_parameters"))
	parameters := n.ChildByFieldName("parameters")
	if parameters == nil {
		parameters = firstChildOfType(n, "formal_parameters")
	}

	var params []string
	for _, p := range scoped.params(parameters, nil) {
		if p.isThis {
			continue
		}
		params = append(params, p.jsdocType())
	}

	returnType := "?"
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		returnType = scoped.annotation(rt)
	}
	prefix := "function("
	if n.Type() == "constructor_type" {
		prefix = "function(new: ?"
		if len(params) > 0 {
			prefix += ", "
		}
	}
	return prefix + strings.Join(params, ", ") + "): " + returnType
}

func (t *typeTranslator) objectType(n *sitter.Node) string {
	if n.NamedChildCount() == 0 {
		return "!Object"
	}

	var fields []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		member := n.NamedChild(i)
		switch member.Type() {
		case "property_signature":
			name := member.ChildByFieldName("name")
			if name == nil {
				return "?"
			}
			fieldType := t.annotation(member.ChildByFieldName("type"))
			if hasToken(member, "?") {
				fieldType = joinUnion([]string{fieldType, "undefined"})
			}
			fields = append(fields, fmt.Sprintf("%s: %s", t.text(name), fieldType))
		case "index_signature":
			if n.NamedChildCount() != 1 {
				return "?"
			}
			return "!Object<" + t.indexKeyType(member) + ", " + t.annotation(firstChildOfType(member, "type_annotation")) + ">"
		case "comment":
		default:
			return "?"
		}
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func (t *typeTranslator) indexKeyType(indexSignature *sitter.Node) string {
	for i := 0; i < int(indexSignature.NamedChildCount()); i++ {
		child := indexSignature.NamedChild(i)
		if child.Type() == "predefined_type" && t.text(child) == "number" {
			return "number"
		}
	}
	return "string"
}

// paramInfo describes one formal parameter.
type paramInfo struct {
	node       *sitter.Node
	name       string
	typ        string
	typeNode   *sitter.Node
	optional   bool
	rest       bool
	isThis     bool
	modifier   string
	decorators []*sitter.Node
}

func (p paramInfo) jsdocType() string {
	switch {
	case p.rest:
		return "..." + p.typ
	case p.optional:
		return p.typ + "="
	default:
		return p.typ
	}
}

// params describes a formal_parameters node. inferScope, when non-nil, is used
// to infer types from default values and receives each parameter's type.
func (t *typeTranslator) params(parameters *sitter.Node, inferScope map[string]string) []paramInfo {
	if parameters == nil {
		return nil
	}
	var infos []paramInfo
	for i := 0; i < int(parameters.NamedChildCount()); i++ {
		param := parameters.NamedChild(i)
		if param.Type() != "required_parameter" && param.Type() != "optional_parameter" {
			continue
		}
		info := paramInfo{node: param, typ: "?", optional: param.Type() == "optional_parameter"}

		for j := 0; j < int(param.ChildCount()); j++ {
			child := param.Child(j)
			switch child.Type() {
			case "decorator":
				info.decorators = append(info.decorators, child)
			case "accessibility_modifier":
				info.modifier = t.text(child)
			case "readonly":
				if info.modifier == "" {
					info.modifier = "readonly"
				}
			}
		}

		pattern := param.ChildByFieldName("pattern")
		switch {
		case pattern == nil:
			info.name = fmt.Sprintf("__%d", i)
		case pattern.Type() == "this":
			info.isThis = true
			info.name = "this"
		case pattern.Type() == "rest_pattern":
			info.rest = true
			info.name = fmt.Sprintf("__%d", i)
			if id := firstChildOfType(pattern, "identifier"); id != nil {
				info.name = t.text(id)
			}
		case pattern.Type() == "identifier":
			info.name = t.text(pattern)
		default:
			info.name = fmt.Sprintf("__%d", i)
		}

		typeAnnotation := param.ChildByFieldName("type")
		value := param.ChildByFieldName("value")
		switch {
		case typeAnnotation != nil:
			info.typeNode = typeAnnotation
			if info.rest {
				info.typ = t.restElementType(typeAnnotation)
			} else {
				info.typ = t.annotation(typeAnnotation)
			}
		case value != nil && inferScope != nil:
			if inferred := t.inferExpression(value, inferScope); inferred != "" {
				info.typ = inferred
			}
		}
		if value != nil {
			info.optional = true
		}
		if inferScope != nil && !info.isThis {
			inferScope[info.name] = info.typ
		}
		infos = append(infos, info)
	}
	return infos
}

func (t *typeTranslator) restElementType(typeAnnotation *sitter.Node) string {
	n := typeAnnotation
	if n.Type() == "type_annotation" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	switch n.Type() {
	case "array_type":
		return t.translate(n.NamedChild(0))
	case "generic_type":
		name := n.ChildByFieldName("name")
		args := n.ChildByFieldName("type_arguments")
		if name != nil && args != nil && args.NamedChildCount() == 1 && (t.text(name) == "Array" || t.text(name) == "ReadonlyArray") {
			return t.translate(args.NamedChild(0))
		}
	}
	return "?"
}
