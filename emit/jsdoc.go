package emit

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type jsdocTag struct {
	name string
	typ  string
	// param is the parameter name of @param.
	param string
	text  string
}

func (tag jsdocTag) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(tag.name)
	if tag.typ != "" {
		b.WriteString(" {")
		b.WriteString(tag.typ)
		b.WriteString("}")
	}
	if tag.param != "" {
		b.WriteString(" ")
		b.WriteString(tag.param)
	}
	if tag.text != "" {
		b.WriteString(" ")
		b.WriteString(tag.text)
	}
	return b.String()
}

// jsdoc is a parsed or generated documentation comment.
type jsdoc struct {
	description []string
	tags        []jsdocTag
}

var jsdocTagLine = regexp.MustCompile(`^@(\w+)(?:\s+\{([^}]*)\})?\s*(.*)$`)

// typedTags are replaced by generated annotations; the rest of an existing
// comment is kept.
var typedTags = map[string]bool{
	"param":    true,
	"return":   true,
	"returns":  true,
	"type":     true,
	"template": true,
	"const":    true,
	"enum":     true,
	"typedef":  true,
	"record":   true,
}

func parseJSDoc(comment string) (jsdoc, bool) {
	if !strings.HasPrefix(comment, "/**") || !strings.HasSuffix(comment, "*/") || len(comment) < 5 {
		return jsdoc{}, false
	}
	body := comment[3 : len(comment)-2]
	var doc jsdoc
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := jsdocTagLine.FindStringSubmatch(line)
		if m == nil {
			if len(doc.tags) > 0 {
				last := &doc.tags[len(doc.tags)-1]
				last.text = strings.TrimSpace(last.text + " " + line)
				continue
			}
			doc.description = append(doc.description, line)
			continue
		}
		tag := jsdocTag{name: m[1], typ: m[2], text: m[3]}
		if tag.name == "param" {
			fields := strings.SplitN(tag.text, " ", 2)
			tag.param = fields[0]
			tag.text = ""
			if len(fields) == 2 {
				tag.text = strings.TrimSpace(fields[1])
			}
		}
		doc.tags = append(doc.tags, tag)
	}
	return doc, true
}

// merge combines an existing comment with generated tags. Generated tags win
// over existing typed tags, keeping their prose.
func (doc jsdoc) merge(generated []jsdocTag) jsdoc {
	paramText := make(map[string]string)
	var returnText string
	merged := jsdoc{description: doc.description}
	for _, tag := range doc.tags {
		switch {
		case tag.name == "param":
			paramText[tag.param] = tag.text
		case tag.name == "return" || tag.name == "returns":
			returnText = tag.text
		case typedTags[tag.name]:
		default:
			merged.tags = append(merged.tags, tag)
		}
	}
	for _, tag := range generated {
		switch tag.name {
		case "param":
			if text, ok := paramText[tag.param]; ok && tag.text == "" {
				tag.text = text
			}
		case "return":
			if tag.text == "" {
				tag.text = returnText
			}
		}
		merged.tags = append(merged.tags, tag)
	}
	return merged
}

// render prints the comment. A lone tag without prose stays on one line.
func (doc jsdoc) render(indent string) string {
	if len(doc.description) == 0 && len(doc.tags) == 1 {
		return "/** " + doc.tags[0].String() + " */"
	}
	var b strings.Builder
	b.WriteString("/**\n")
	for _, line := range doc.description {
		b.WriteString(indent + " * " + line + "\n")
	}
	for _, tag := range doc.tags {
		b.WriteString(indent + " * " + tag.String() + "\n")
	}
	b.WriteString(indent + " */")
	return b.String()
}

// signatureTags builds the @template, @this, @param and @return tags of a
// function-like node. t must already have the node's type parameters in scope.
func (t *typeTranslator) signatureTags(fn *sitter.Node, typeParams []string, isCtor bool) ([]jsdocTag, []paramInfo) {
	var tags []jsdocTag
	if len(typeParams) > 0 {
		tags = append(tags, jsdocTag{name: "template", text: strings.Join(typeParams, ", ")})
	}

	scope := make(map[string]string)
	params := t.params(fn.ChildByFieldName("parameters"), scope)
	for _, p := range params {
		if p.isThis {
			tags = append(tags, jsdocTag{name: "this", typ: p.typ})
			continue
		}
		tags = append(tags, jsdocTag{name: "param", typ: p.jsdocType(), param: p.name})
	}
	if single := fn.ChildByFieldName("parameter"); single != nil && single.Type() == "identifier" {
		tags = append(tags, jsdocTag{name: "param", typ: "?", param: t.text(single)})
	}

	if isCtor || hasToken(fn, "set") {
		return tags, params
	}
	returnType := "?"
	if rt := fn.ChildByFieldName("return_type"); rt != nil {
		returnType = t.annotation(rt)
	} else if body := fn.ChildByFieldName("body"); body != nil {
		generator := hasToken(fn, "*") || strings.Contains(fn.Type(), "generator")
		returnType = t.inferReturnType(body, scope, hasToken(fn, "async"), generator)
	}
	tags = append(tags, jsdocTag{name: "return", typ: returnType})
	return tags, params
}
