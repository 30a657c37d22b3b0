package loader

import (
	"regexp"
	"strings"
)

// Fixer post-processes emitted text before it leaves the loader. Extern
// fragments reach FixExtern without the externs header; the aggregate file
// carries it once.
type Fixer interface {
	FixCode(code string) string
	FixExtern(extern string) string
}

// DefaultFixer drops the sourceMappingURL comment from code, since the map
// travels next to it, and terminates extern fragments with a newline.
type DefaultFixer struct{}

var sourceMappingURL = regexp.MustCompile(`(?m)^//# sourceMappingURL=\S*[ \t]*$\n?`)

func (DefaultFixer) FixCode(code string) string {
	return sourceMappingURL.ReplaceAllString(code, "")
}

func (DefaultFixer) FixExtern(extern string) string {
	if extern != "" && !strings.HasSuffix(extern, "\n") {
		extern += "\n"
	}
	return extern
}
