package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/tsextern/loader"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedOptions(t *testing.T, args ...string) (*Options, *cobra.Command) {
	t.Helper()
	opts := &Options{}
	cmd := &cobra.Command{Use: "test"}
	opts.AddFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return opts, cmd
}

func writeOptionsFile(t *testing.T, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "loader.yaml")
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0o644))
	return fileName
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvTSConfig, EnvExternDir, EnvSkip} {
		t.Setenv(name, "")
	}
}

func TestLoaderOptions_Defaults(t *testing.T) {
	clearEnv(t)
	opts, cmd := parsedOptions(t)

	raw, err := opts.LoaderOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		loader.OptionTSConfig:  loader.DefaultTSConfig,
		loader.OptionExternDir: loader.DefaultExternDir,
	}, raw)
}

func TestLoaderOptions_Layering(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTSConfig, "env.tsconfig.json")
	t.Setenv(EnvExternDir, "env/externs")
	t.Setenv(EnvSkip, "env-vendor/")
	file := writeOptionsFile(t, "externDir: file/externs\nskipTsickleProcessing:\n  - gen/\n  - vendor/\nsourceMap: true\noutDir: file/out\n")

	opts, cmd := parsedOptions(t, "--options", file, "--skip", "*")

	raw, err := opts.LoaderOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, "env.tsconfig.json", raw[loader.OptionTSConfig], "environment fills what nothing else sets")
	assert.Equal(t, "file/externs", raw[loader.OptionExternDir], "the options file wins over the environment")
	assert.Equal(t, "*", raw[loader.OptionSkip], "flags win over the options file")
	assert.True(t, opts.SourceMap)
	assert.Equal(t, "file/out", opts.OutDir)
}

func TestLoaderOptions_FlagsWinOverOutputOptionsInFile(t *testing.T) {
	clearEnv(t)
	file := writeOptionsFile(t, "sourceMap: true\noutDir: file/out\n")

	opts, cmd := parsedOptions(t, "--options", file, "--source-map=false", "--out-dir", "flag/out")

	_, err := opts.LoaderOptions(cmd)
	require.NoError(t, err)

	assert.False(t, opts.SourceMap)
	assert.Equal(t, "flag/out", opts.OutDir)
}

func TestLoaderOptions_FileValuesReachLoaderValidation(t *testing.T) {
	clearEnv(t)
	file := writeOptionsFile(t, "skipTsickleProcessing:\n  - vendor/\n  - 7\n")
	opts, cmd := parsedOptions(t, "--options", file)

	raw, err := opts.LoaderOptions(cmd)
	require.NoError(t, err)

	_, err = loader.ParseOptions(raw)
	assert.ErrorIs(t, err, loader.ErrConfigValidation)
}

func TestLoaderOptions_BadOptionsFile(t *testing.T) {
	clearEnv(t)

	opts, cmd := parsedOptions(t, "--options", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := opts.LoaderOptions(cmd)
	assert.Error(t, err)

	opts, cmd = parsedOptions(t, "--options", writeOptionsFile(t, "externDir: [unclosed\n"))
	_, err = opts.LoaderOptions(cmd)
	assert.Error(t, err)
}

func TestSkipValue(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		expected any
	}{
		{"wildcard", []string{"*"}, "*"},
		{"trimmed wildcard", []string{" * "}, "*"},
		{"substrings", []string{"vendor/", " gen/", ""}, []string{"vendor/", "gen/"}},
		{"wildcard among substrings", []string{"*", "gen/"}, []string{"*", "gen/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, skipValue(tt.items))
		})
	}
}
