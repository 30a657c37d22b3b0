package program

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{"relative", "src/a.ts", "/repo/src/a.ts"},
		{"dot segments", "./src/../lib/b.ts", "/repo/lib/b.ts"},
		{"absolute", "/other/c.ts", "/other/c.ts"},
		{"absolute with parent", "/other/x/../c.ts", "/other/c.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalFileName("/repo", tt.fileName))
		})
	}
}

func TestCompilerHost_FileExists(t *testing.T) {
	dir := writeFiles(t, map[string]string{"src/a.ts": "export const a = 1;\n"})
	host, err := NewCompilerHost(nil)
	require.NoError(t, err)

	assert.True(t, host.FileExists(dir+"/src/a.ts"))
	assert.False(t, host.FileExists(dir+"/src"), "directories are not files")
	assert.False(t, host.FileExists(dir+"/src/missing.ts"))
}

func TestCompilerHost_ReadFileMissing(t *testing.T) {
	host, err := NewCompilerHost(nil)
	require.NoError(t, err)

	_, err = host.ReadFile("/definitely/not/here.ts")

	assert.Error(t, err)
}

func TestSourceCache_ServesUnchangedFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.ts": "let a = 1;\n"})
	cache, err := NewSourceCache(8)
	require.NoError(t, err)
	host, err := NewCompilerHost(cache)
	require.NoError(t, err)

	first, err := host.ReadFile(dir + "/a.ts")
	require.NoError(t, err)
	second, err := host.ReadFile(dir + "/a.ts")
	require.NoError(t, err)

	assert.Equal(t, "let a = 1;\n", string(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestSourceCache_InvalidatesChangedFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.ts": "let a = 1;\n"})
	cache, err := NewSourceCache(8)
	require.NoError(t, err)
	host, err := NewCompilerHost(cache)
	require.NoError(t, err)

	_, err = host.ReadFile(dir + "/a.ts")
	require.NoError(t, err)

	native := filepath.FromSlash(dir + "/a.ts")
	require.NoError(t, os.WriteFile(native, []byte("let a = 12345;\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(native, later, later))

	content, err := host.ReadFile(dir + "/a.ts")
	require.NoError(t, err)

	assert.Equal(t, "let a = 12345;\n", string(content))
}

func TestSourceCache_Evicts(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.ts": "", "b.ts": "", "c.ts": ""})
	cache, err := NewSourceCache(2)
	require.NoError(t, err)
	host, err := NewCompilerHost(cache)
	require.NoError(t, err)

	for _, name := range []string{"a.ts", "b.ts", "c.ts"} {
		_, err := host.ReadFile(dir + "/" + name)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Len())
}

func TestNewSourceCache_RejectsZeroSize(t *testing.T) {
	_, err := NewSourceCache(0)

	assert.Error(t, err)
}
