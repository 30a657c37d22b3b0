package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "compile")
	assert.Contains(t, names, "watch")
}

func TestRootCommand_VersionTemplate(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "tsextern version dev")
	assert.Contains(t, out.String(), "Build date: unknown")
	assert.Contains(t, out.String(), "Commit: unknown")
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("TSEXTERN_EXTERN_DIR", "")
	os.Unsetenv("TSEXTERN_EXTERN_DIR")
	t.Setenv("TSEXTERN_TSCONFIG", "from-environment.json")
	fileName := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(fileName, []byte("TSEXTERN_EXTERN_DIR=build/externs\nTSEXTERN_TSCONFIG=from-file.json\n"), 0o644))

	require.NoError(t, loadEnvFile(fileName))

	assert.Equal(t, "build/externs", os.Getenv("TSEXTERN_EXTERN_DIR"))
	assert.Equal(t, "from-environment.json", os.Getenv("TSEXTERN_TSCONFIG"), "the environment wins over the file")
}

func TestLoadEnvFile_MissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), ".env")))
	assert.NoError(t, loadEnvFile(""))
}
