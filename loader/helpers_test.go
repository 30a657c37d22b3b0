package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

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

func newTestSession(t *testing.T, options ...SessionOption) *Session {
	t.Helper()
	session, err := NewSession(options...)
	require.NoError(t, err)
	return session
}

// loaderOptions points the loader at dir's tsconfig.json and dir/externs.
func loaderOptions(dir string, extra map[string]any) map[string]any {
	options := map[string]any{
		"tsconfig":  dir + "/tsconfig.json",
		"externDir": dir + "/externs",
	}
	for key, value := range extra {
		options[key] = value
	}
	return options
}

func readExterns(t *testing.T, dir string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.FromSlash(dir + "/externs/" + ExternsFileName))
	require.NoError(t, err)
	return string(content)
}
