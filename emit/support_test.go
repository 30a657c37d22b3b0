package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathToModuleName(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		fileName string
		expected string
	}{
		{"absolute file", "", "/root/src/foo-bar.ts", "src.foo_bar"},
		{"declaration file", "", "/root/types/api.d.ts", "types.api"},
		{"relative import", "/root/src/a.ts", "./b", "src.b"},
		{"parent import", "/root/src/a.ts", "../lib/c.js", "lib.c"},
		{"leading digit", "", "/root/1x.ts", "_1x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PathToModuleName("/root", tt.context, tt.fileName))
		})
	}
}

func TestPathToModuleName_OutsideRoot(t *testing.T) {
	assert.Equal(t, "__.lib.x", PathToModuleName("/root/src", "", "/root/lib/x.ts"))
}

func TestExternNamespace(t *testing.T) {
	assert.Equal(t, "module$src$foo_bar", ExternNamespace("src.foo_bar"))
}

func TestFileNameToModuleID(t *testing.T) {
	assert.Equal(t, "src/a.ts", FileNameToModuleID("/root", "/root/src/a.ts"))
	assert.Equal(t, "../b.ts", FileNameToModuleID("/root/src", "/root/b.ts"))
}

func TestVLQ(t *testing.T) {
	for _, value := range []int{0, 1, -1, 15, 16, -16, 1234, -98765} {
		var b strings.Builder
		writeVLQ(&b, value)

		decoded, consumed := decodeVLQ(b.String())
		assert.Equal(t, value, decoded)
		assert.Equal(t, b.Len(), consumed)
	}
}

func TestEncodeMappings(t *testing.T) {
	mappings := []mapping{
		{genLine: 0, genCol: 0, srcLine: 0, srcCol: 0},
		{genLine: 0, genCol: 5, srcLine: 0, srcCol: 13},
		{genLine: 1, genCol: 0, srcLine: 1, srcCol: 0},
	}

	assert.Equal(t, "AAAA,KAAa;AACb", encodeMappings(mappings))
}

func TestEditor_Apply(t *testing.T) {
	ed := newEditor([]byte("let x: number = 1;"))
	ed.remove(5, 13)

	text, mappings := ed.apply()

	assert.Equal(t, "let x = 1;", text)
	assert.Equal(t, []mapping{
		{genLine: 0, genCol: 0, srcLine: 0, srcCol: 0},
		{genLine: 0, genCol: 5, srcLine: 0, srcCol: 13},
	}, mappings)
}

func TestEditor_InsertBeforeRemovalAtSamePosition(t *testing.T) {
	ed := newEditor([]byte("abc"))
	ed.remove(1, 2)
	ed.insert(1, "X")

	text, _ := ed.apply()

	assert.Equal(t, "aXc", text)
}

func TestEditor_DropsEditsInsideRemovedRange(t *testing.T) {
	ed := newEditor([]byte("keep drop keep"))
	ed.remove(5, 10)
	ed.replace(6, 8, "zz")

	text, _ := ed.apply()

	assert.Equal(t, "keep keep", text)
}

func TestEditor_RemoveStatementTakesWholeLine(t *testing.T) {
	ed := newEditor([]byte("a\n  b;\nc"))
	ed.removeStatement(4, 6)

	text, _ := ed.apply()

	assert.Equal(t, "a\nc", text)
}

func TestJSDoc_ParseAndMerge(t *testing.T) {
	doc, ok := parseJSDoc("/**\n * Greets.\n * @param name who\n *   to greet\n * @deprecated\n * @return {number} nothing\n */")
	assert.True(t, ok)

	merged := doc.merge([]jsdocTag{
		{name: "param", typ: "string", param: "name"},
		{name: "return", typ: "string"},
	})

	assert.Equal(t, "/**\n * Greets.\n * @deprecated\n * @param {string} name who to greet\n * @return {string} nothing\n */", merged.render(""))
}

func TestJSDoc_RenderSingleTag(t *testing.T) {
	assert.Equal(t, "/** @type {number} */", jsdoc{tags: []jsdocTag{{name: "type", typ: "number"}}}.render("  "))

	_, ok := parseJSDoc("// not a doc comment")
	assert.False(t, ok)
}
