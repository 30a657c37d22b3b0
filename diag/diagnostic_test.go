package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_SortsAndRelativizes(t *testing.T) {
	diagnostics := []Diagnostic{
		Errorf("/repo/src/b.ts", 3, 1, 2307, "Cannot find module '%s' or its corresponding type declarations.", "./missing"),
		Errorf("/repo/src/a.ts", 10, 4, 7006, "Parameter '%s' implicitly has an 'any' type.", "x"),
		Errorf("/repo/src/a.ts", 2, 8, 1005, "';' expected."),
	}

	got := Format(diagnostics, "/repo")

	assert.Equal(t, "src/a.ts(2,8): error TS1005: ';' expected.\n"+
		"src/a.ts(10,4): error TS7006: Parameter 'x' implicitly has an 'any' type.\n"+
		"src/b.ts(3,1): error TS2307: Cannot find module './missing' or its corresponding type declarations.", got)
	assert.Equal(t, "/repo/src/b.ts", diagnostics[0].File, "input must not be reordered")
}

func TestFormat_WithoutPosition(t *testing.T) {
	d := Errorf("", 0, 0, 5083, "Cannot read file '%s'.", "tsconfig.json")

	assert.Equal(t, "error TS5083: Cannot read file 'tsconfig.json'.", Format([]Diagnostic{d}, "/repo"))
}

func TestWarningf(t *testing.T) {
	d := Warningf("/repo/a.ts", 1, 1, 0, "unsupported type")

	assert.Equal(t, SeverityWarning, d.Severity)
	assert.False(t, HasErrors([]Diagnostic{d}))
	assert.Equal(t, "/repo/a.ts(1,1): warning: unsupported type", d.String())
}
