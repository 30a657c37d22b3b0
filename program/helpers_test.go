package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/tsconfig"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.ToSlash(t.TempDir())
	for name, content := range files {
		fileName := filepath.Join(filepath.FromSlash(dir), filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(fileName), 0o755))
		require.NoError(t, os.WriteFile(fileName, []byte(content), 0o644))
	}
	return dir
}

func newProgram(t *testing.T, rootFileName string, options tsconfig.CompilerOptions) *Program {
	t.Helper()
	host, err := NewCompilerHost(nil)
	require.NoError(t, err)
	prog, err := NewProgram(t.Context(), rootFileName, options, host)
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return prog
}

func codes(diagnostics []diag.Diagnostic) []int {
	result := make([]int, 0, len(diagnostics))
	for _, d := range diagnostics {
		result = append(result, d.Code)
	}
	return result
}

func fileNames(files []*SourceFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.FileName)
	}
	return names
}
