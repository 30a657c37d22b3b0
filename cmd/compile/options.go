package compile

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/loader"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Environment variables read as loader option defaults.
const (
	EnvTSConfig  = "TSEXTERN_TSCONFIG"
	EnvExternDir = "TSEXTERN_EXTERN_DIR"
	EnvSkip      = "TSEXTERN_SKIP"
)

// Options are the settings shared by the compile and watch commands.
type Options struct {
	TSConfig    string
	ExternDir   string
	Skip        []string
	SourceMap   bool
	OutDir      string
	OptionsFile string
}

// AddFlags registers the shared flags on cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.TSConfig, "tsconfig", "p", loader.DefaultTSConfig, "Compiler configuration file")
	cmd.Flags().StringVar(&o.ExternDir, "extern-dir", loader.DefaultExternDir, "Directory that receives "+loader.ExternsFileName)
	cmd.Flags().StringSliceVar(&o.Skip, "skip", nil, "Skip externs for paths containing any of these substrings, or '*' for all but the compiled file (comma-separated)")
	cmd.Flags().BoolVar(&o.SourceMap, "source-map", false, "Require and write a source map for every compiled file")
	cmd.Flags().StringVarP(&o.OutDir, "out-dir", "o", "dist", "Directory that receives the compiled JavaScript")
	cmd.Flags().StringVar(&o.OptionsFile, "options", "", "YAML file with loader options (tsconfig, externDir, skipTsickleProcessing, sourceMap, outDir)")
}

// LoaderOptions assembles the loader's option bag. Flags set on the command
// line win over the options file, which wins over the environment.
func (o *Options) LoaderOptions(cmd *cobra.Command) (map[string]any, error) {
	raw := envOptions(os.Getenv)

	if o.OptionsFile != "" {
		fileOptions, err := readOptionsFile(o.OptionsFile)
		if err != nil {
			return nil, err
		}
		o.applyOutputOptions(cmd, fileOptions)
		maps.Copy(raw, fileOptions)
	}

	flags := cmd.Flags()
	if flags.Changed("tsconfig") {
		raw[loader.OptionTSConfig] = o.TSConfig
	}
	if flags.Changed("extern-dir") {
		raw[loader.OptionExternDir] = o.ExternDir
	}
	if flags.Changed("skip") {
		raw[loader.OptionSkip] = skipValue(o.Skip)
	}

	if _, ok := raw[loader.OptionTSConfig]; !ok {
		raw[loader.OptionTSConfig] = o.TSConfig
	}
	if _, ok := raw[loader.OptionExternDir]; !ok {
		raw[loader.OptionExternDir] = o.ExternDir
	}
	return raw, nil
}

// applyOutputOptions takes sourceMap and outDir from the options file unless
// the matching flag was given.
func (o *Options) applyOutputOptions(cmd *cobra.Command, fileOptions map[string]any) {
	if v, ok := fileOptions["sourceMap"].(bool); ok && !cmd.Flags().Changed("source-map") {
		o.SourceMap = v
	}
	if v, ok := fileOptions["outDir"].(string); ok && !cmd.Flags().Changed("out-dir") {
		o.OutDir = v
	}
}

func envOptions(getenv func(string) string) map[string]any {
	raw := make(map[string]any)
	if v := getenv(EnvTSConfig); v != "" {
		raw[loader.OptionTSConfig] = v
	}
	if v := getenv(EnvExternDir); v != "" {
		raw[loader.OptionExternDir] = v
	}
	if v := getenv(EnvSkip); v != "" {
		raw[loader.OptionSkip] = skipValue(strings.Split(v, ","))
	}
	return raw
}

// skipValue turns a lone wildcard into the string form the loader expects.
func skipValue(items []string) any {
	trimmed := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			trimmed = append(trimmed, item)
		}
	}
	if len(trimmed) == 1 && trimmed[0] == loader.SkipAll {
		return loader.SkipAll
	}
	return trimmed
}

func readOptionsFile(fileName string) (map[string]any, error) {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", fileName, err)
	}
	return raw, nil
}
