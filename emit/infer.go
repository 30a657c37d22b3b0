package emit

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// inferExpression guesses the Closure type of an expression without a type
// checker. It returns "" when nothing useful can be said.
func (t *typeTranslator) inferExpression(n *sitter.Node, scope map[string]string) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "string", "template_string":
		return "string"
	case "number":
		return "number"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "undefined":
		return "undefined"
	case "regex":
		return "!RegExp"
	case "array":
		return t.inferArray(n, scope)
	case "object":
		return "!Object"
	case "arrow_function", "function_expression", "function":
		return "!Function"
	case "parenthesized_expression":
		return t.inferExpression(n.NamedChild(0), scope)
	case "identifier":
		if scope != nil {
			if typ, ok := scope[t.text(n)]; ok && typ != "?" {
				return typ
			}
		}
		return ""
	case "unary_expression":
		switch t.text(n.ChildByFieldName("operator")) {
		case "!":
			return "boolean"
		case "typeof":
			return "string"
		case "-", "+", "~":
			return "number"
		case "void":
			return "undefined"
		}
		return ""
	case "update_expression":
		return "number"
	case "binary_expression":
		return t.inferBinary(n, scope)
	case "ternary_expression":
		consequence := t.inferExpression(n.ChildByFieldName("consequence"), scope)
		alternative := t.inferExpression(n.ChildByFieldName("alternative"), scope)
		if consequence == "" || alternative == "" {
			return ""
		}
		return joinUnion(uniqueTypes(consequence, alternative))
	case "new_expression":
		constructor := n.ChildByFieldName("constructor")
		if constructor != nil && constructor.Type() == "identifier" {
			return t.reference(t.text(constructor), n.ChildByFieldName("type_arguments"))
		}
		return ""
	case "as_expression", "satisfies_expression":
		if n.NamedChildCount() == 2 {
			return t.translate(n.NamedChild(1))
		}
		return ""
	case "await_expression":
		if n.NamedChildCount() == 0 {
			return ""
		}
		inner := t.inferExpression(n.NamedChild(0), scope)
		if len(inner) > len("!Promise<>") && inner[:len("!Promise<")] == "!Promise<" {
			return inner[len("!Promise<") : len(inner)-1]
		}
		return inner
	default:
		return ""
	}
}

func (t *typeTranslator) inferArray(n *sitter.Node, scope map[string]string) string {
	var elementTypes []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		element := t.inferExpression(n.NamedChild(i), scope)
		if element == "" {
			return "!Array<?>"
		}
		elementTypes = uniqueTypes(append(elementTypes, element)...)
	}
	if len(elementTypes) == 0 {
		return "!Array<?>"
	}
	return "!Array<" + joinUnion(elementTypes) + ">"
}

func (t *typeTranslator) inferBinary(n *sitter.Node, scope map[string]string) string {
	operator := t.text(n.ChildByFieldName("operator"))
	switch operator {
	case "==", "===", "!=", "!==", "<", "<=", ">", ">=", "instanceof", "in":
		return "boolean"
	case "-", "*", "/", "%", "**", "|", "&", "^", "<<", ">>", ">>>":
		return "number"
	case "+":
		left := t.inferExpression(n.ChildByFieldName("left"), scope)
		right := t.inferExpression(n.ChildByFieldName("right"), scope)
		if left == "string" || right == "string" {
			return "string"
		}
		if left == "number" && right == "number" {
			return "number"
		}
		return ""
	case "&&", "||", "??":
		left := t.inferExpression(n.ChildByFieldName("left"), scope)
		right := t.inferExpression(n.ChildByFieldName("right"), scope)
		if left != "" && left == right {
			return left
		}
		return ""
	default:
		return ""
	}
}

// inferReturnType derives a function's return type from its return
// statements, ignoring nested functions and classes.
func (t *typeTranslator) inferReturnType(body *sitter.Node, scope map[string]string, async, generator bool) string {
	if generator {
		return "!Generator<?>"
	}
	if body == nil {
		return "?"
	}

	var result string
	if body.Type() != "statement_block" {
		result = t.inferExpression(body, scope)
		if result == "" {
			result = "?"
		}
	} else {
		var types []string
		unknown := false
		sawValue := false
		var walk func(n *sitter.Node)
		walk = func(n *sitter.Node) {
			switch n.Type() {
			case "function_declaration", "function_expression", "function", "arrow_function",
				"generator_function_declaration", "generator_function", "class_declaration", "class", "method_definition":
				return
			case "return_statement":
				if n.NamedChildCount() == 0 {
					return
				}
				sawValue = true
				typ := t.inferExpression(n.NamedChild(0), scope)
				if typ == "" {
					unknown = true
					return
				}
				types = uniqueTypes(append(types, typ)...)
				return
			}
			for i := 0; i < int(n.NamedChildCount()); i++ {
				walk(n.NamedChild(i))
			}
		}
		walk(body)

		switch {
		case !sawValue:
			result = "void"
		case unknown:
			result = "?"
		default:
			result = joinUnion(types)
		}
	}

	if async {
		if result == "void" {
			result = "undefined"
		}
		return "!Promise<" + result + ">"
	}
	return result
}

func uniqueTypes(types ...string) []string {
	seen := make(map[string]bool, len(types))
	var out []string
	for _, typ := range types {
		if !seen[typ] {
			seen[typ] = true
			out = append(out, typ)
		}
	}
	return out
}
