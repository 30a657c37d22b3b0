package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/tsconfig"
)

const (
	// DefaultTSConfig is read when no configuration file is named.
	DefaultTSConfig = "tsconfig.json"
	// DefaultExternDir receives the aggregate externs file.
	DefaultExternDir = "dist/externs"
	// ExternsFileName is the aggregate externs file inside the extern dir.
	ExternsFileName = "externs.js"
)

// Option keys of the loader's option bag.
const (
	OptionTSConfig  = "tsconfig"
	OptionExternDir = "externDir"
	OptionSkip      = "skipTsickleProcessing"
)

// Options are validated loader options.
type Options struct {
	TSConfig  string
	ExternDir string
	Skip      DenyList
}

// ParseOptions validates a raw option bag. tsconfig is a path, or a boolean
// selecting DefaultTSConfig; externDir is a path; skipTsickleProcessing is a
// string or a list of strings. Absent and nil values take defaults and
// unknown keys are ignored.
func ParseOptions(raw map[string]any) (Options, error) {
	options := Options{TSConfig: DefaultTSConfig, ExternDir: DefaultExternDir}
	var violations []string

	switch v := raw[OptionTSConfig].(type) {
	case nil, bool:
	case string:
		options.TSConfig = v
	default:
		violations = append(violations, fmt.Sprintf("options.%s should be a string or a boolean, got %T", OptionTSConfig, v))
	}

	switch v := raw[OptionExternDir].(type) {
	case nil:
	case string:
		options.ExternDir = v
	default:
		violations = append(violations, fmt.Sprintf("options.%s should be a string, got %T", OptionExternDir, v))
	}

	skip, ok := parseDenyList(raw[OptionSkip])
	if !ok {
		violations = append(violations, fmt.Sprintf("options.%s should be a string or an array of strings", OptionSkip))
	}
	options.Skip = skip

	if len(violations) > 0 {
		sort.Strings(violations)
		return Options{}, newError(KindConfigValidation, "", nil, "%s", strings.Join(violations, "; "))
	}
	return options, nil
}

// parseDenyList accepts the wildcard, a single substring or a list of
// substrings. Empty strings match every path and are dropped.
func parseDenyList(value any) (DenyList, bool) {
	var items []string
	switch v := value.(type) {
	case nil:
		return DenyList{}, true
	case string:
		if v == SkipAll {
			return DenyList{All: true}, true
		}
		items = []string{v}
	case []string:
		items = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return DenyList{}, false
			}
			items = append(items, s)
		}
	default:
		return DenyList{}, false
	}

	var deny DenyList
	for _, item := range items {
		if item != "" {
			deny.Substrings = append(deny.Substrings, item)
		}
	}
	return deny, true
}

// Config is the resolved configuration of one compile.
type Config struct {
	Options
	// ExternFile is the absolute, slash-separated path of the aggregate externs.
	ExternFile string
	Compiler   *tsconfig.ParsedConfig
}

// ResolveConfig validates raw, creates the extern directory and reads the
// compiler configuration. Creating an existing directory is not an error.
func ResolveConfig(raw map[string]any) (*Config, error) {
	options, err := ParseOptions(raw)
	if err != nil {
		return nil, err
	}

	externDir, err := filepath.Abs(options.ExternDir)
	if err != nil {
		return nil, newError(KindConfigValidation, "", err, "failed to resolve extern directory %s", options.ExternDir)
	}
	if err := os.MkdirAll(externDir, 0o755); err != nil {
		return nil, newError(KindConfigValidation, "", err, "failed to create extern directory %s", options.ExternDir)
	}

	compiler, err := tsconfig.ReadConfigFile(options.TSConfig, os.ReadFile)
	if err != nil {
		cause := newError(KindConfigParse, "", err, "failed to read %s", options.TSConfig)
		var parseErr *tsconfig.ParseError
		if errors.As(err, &parseErr) {
			cause.Diagnostics = parseErr.Diagnostics
		}
		return nil, cause
	}

	return &Config{
		Options:    options,
		ExternFile: filepath.ToSlash(filepath.Join(externDir, ExternsFileName)),
		Compiler:   compiler,
	}, nil
}
