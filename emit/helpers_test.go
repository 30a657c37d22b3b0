package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/program"
	"github.com/LegacyCodeHQ/tsextern/tsconfig"
	"github.com/stretchr/testify/require"
)

type testHost struct {
	root     string
	flags    Flags
	skip     func(fileName string) bool
	asked    []string
	warnings []diag.Diagnostic
}

func newTestHost(root string) *testHost {
	return &testHost{
		root: root,
		flags: Flags{
			TransformDecorators:       true,
			TransformTypesToClosure:   true,
			GenerateExtraSuppressions: true,
		},
	}
}

func (h *testHost) ShouldSkipProcessing(fileName string) bool {
	h.asked = append(h.asked, fileName)
	return h.skip != nil && h.skip(fileName)
}

func (h *testHost) LogWarning(d diag.Diagnostic) {
	h.warnings = append(h.warnings, d)
}

func (h *testHost) PathToModuleName(context, importPath string) string {
	return PathToModuleName(h.root, context, importPath)
}

func (h *testHost) FileNameToModuleID(fileName string) string {
	return FileNameToModuleID(h.root, fileName)
}

func (h *testHost) Flags() Flags {
	return h.flags
}

// writeProject writes files below a fresh directory and returns it in
// slash-separated form.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.ToSlash(t.TempDir())
	for name, content := range files {
		fileName := filepath.Join(filepath.FromSlash(dir), filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(fileName), 0o755))
		require.NoError(t, os.WriteFile(fileName, []byte(content), 0o644))
	}
	return dir
}

func buildProgram(t *testing.T, dir, root string, options tsconfig.CompilerOptions) *program.Program {
	t.Helper()
	host, err := program.NewCompilerHost(nil)
	require.NoError(t, err)
	prog, err := program.NewProgram(t.Context(), dir+"/"+root, options, host)
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return prog
}

// transformSource erases or annotates a single file named main.ts.
func transformSource(t *testing.T, source string, flags Flags, skip bool) (string, []diag.Diagnostic) {
	t.Helper()
	dir := writeProject(t, map[string]string{"main.ts": source})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	file := prog.SourceFile(prog.RootFileName())
	require.NotNil(t, file)

	code, _, warnings := transformFile(file, newSymbolTable(prog), flags, skip, "main.ts")
	return code, warnings
}

func codeArtifact(t *testing.T, result *Result, fileName string) Artifact {
	t.Helper()
	for _, artifact := range result.Artifacts {
		if artifact.FileName == fileName {
			return artifact
		}
	}
	require.Failf(t, "artifact not emitted", "no artifact named %s", fileName)
	return Artifact{}
}
