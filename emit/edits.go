package emit

import (
	"sort"
	"strings"
)

type edit struct {
	start int
	end   int
	text  string
	seq   int
}

// editor collects non-overlapping rewrites against a source text and applies
// them in one pass, recording where each copied source span lands.
type editor struct {
	src        []byte
	lineStarts []int
	edits      []edit
}

func newEditor(src []byte) *editor {
	lineStarts := []int{0}
	for i, c := range src {
		if c == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &editor{src: src, lineStarts: lineStarts}
}

func (e *editor) replace(start, end int, text string) {
	e.edits = append(e.edits, edit{start: start, end: end, text: text, seq: len(e.edits)})
}

func (e *editor) remove(start, end int) {
	e.replace(start, end, "")
}

func (e *editor) insert(pos int, text string) {
	e.replace(pos, pos, text)
}

// removeStatement deletes [start, end) and, when the span occupies whole
// lines, the surrounding indentation and line break too.
func (e *editor) removeStatement(start, end int) {
	lineStart := start
	for lineStart > 0 && (e.src[lineStart-1] == ' ' || e.src[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(e.src) && (e.src[lineEnd] == ' ' || e.src[lineEnd] == '\t') {
		lineEnd++
	}
	if (lineStart == 0 || e.src[lineStart-1] == '\n') && (lineEnd == len(e.src) || e.src[lineEnd] == '\n' || e.src[lineEnd] == '\r') {
		if lineEnd < len(e.src) && e.src[lineEnd] == '\r' {
			lineEnd++
		}
		if lineEnd < len(e.src) && e.src[lineEnd] == '\n' {
			lineEnd++
		}
		e.remove(lineStart, lineEnd)
		return
	}
	e.remove(start, end)
}

// removeWithTrailingSpace deletes [start, end) plus the whitespace that follows.
func (e *editor) removeWithTrailingSpace(start, end int) {
	for end < len(e.src) && isSpace(e.src[end]) {
		end++
	}
	e.remove(start, end)
}

// indentAt returns the whitespace that precedes pos on its line, or "" when
// pos is not the first token of the line.
func (e *editor) indentAt(pos int) string {
	i := pos
	for i > 0 && (e.src[i-1] == ' ' || e.src[i-1] == '\t') {
		i--
	}
	if i > 0 && e.src[i-1] != '\n' {
		return ""
	}
	return string(e.src[i:pos])
}

func (e *editor) position(offset int) (int, int) {
	line := sort.Search(len(e.lineStarts), func(i int) bool { return e.lineStarts[i] > offset }) - 1
	return line, offset - e.lineStarts[line]
}

// apply produces the rewritten text and the mappings of every copied span.
// Insertions at a position go before a replacement starting there. Edits
// starting inside an already replaced range are dropped.
func (e *editor) apply() (string, []mapping) {
	edits := append([]edit(nil), e.edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if (a.start == a.end) != (b.start == b.end) {
			return a.start == a.end
		}
		return a.seq < b.seq
	})

	var out strings.Builder
	var mappings []mapping
	genLine, genCol := 0, 0

	write := func(text string) {
		out.WriteString(text)
		for i := 0; i < len(text); i++ {
			if text[i] == '\n' {
				genLine++
				genCol = 0
			} else {
				genCol++
			}
		}
	}
	copySource := func(from, to int) {
		if from >= to {
			return
		}
		lineStart := true
		for i := from; i < to; i++ {
			if lineStart || i == from {
				srcLine, srcCol := e.position(i)
				mappings = append(mappings, mapping{genLine: genLine, genCol: genCol, srcLine: srcLine, srcCol: srcCol})
				lineStart = false
			}
			c := e.src[i]
			out.WriteByte(c)
			if c == '\n' {
				genLine++
				genCol = 0
				lineStart = i+1 < to
			} else {
				genCol++
			}
		}
	}

	cursor := 0
	for _, ed := range edits {
		if ed.start < cursor {
			if ed.end <= cursor {
				continue
			}
			ed.start = cursor
		}
		copySource(cursor, ed.start)
		write(ed.text)
		if ed.end > cursor {
			cursor = ed.end
		}
	}
	copySource(cursor, len(e.src))

	return out.String(), mappings
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
