// Package tsconfig reads TypeScript project configuration files.
package tsconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/tailscale/hujson"
)

// DefaultConfigFile is used when no configuration path is given.
const DefaultConfigFile = "tsconfig.json"

const maxExtendsDepth = 16

// ReadFileFunc reads a file by path.
type ReadFileFunc func(fileName string) ([]byte, error)

// CompilerOptions are the normalized compiler flags of a project.
// Path-valued options are absolute and slash-separated.
type CompilerOptions struct {
	RootDir                string
	OutDir                 string
	BaseURL                string
	SourceMap              bool
	InlineSources          bool
	Strict                 bool
	NoImplicitAny          *bool
	NoImplicitReturns      bool
	ExperimentalDecorators bool
	Declaration            bool
	Target                 string
	Module                 string
	// Raw holds every compiler option as written, recognized or not.
	Raw map[string]json.RawMessage
}

// ImplicitAnyIsError reports whether untyped parameters are errors.
func (o CompilerOptions) ImplicitAnyIsError() bool {
	if o.NoImplicitAny != nil {
		return *o.NoImplicitAny
	}
	return o.Strict
}

// ParsedConfig is a configuration file with its extends chain applied.
type ParsedConfig struct {
	ConfigFile string
	Options    CompilerOptions
	Files      []string
	Include    []string
	Exclude    []string
}

// ParseError reports a configuration file that could not be read or understood.
type ParseError struct {
	ConfigFile  string
	Diagnostics []diag.Diagnostic
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s:\n%s", e.ConfigFile, diag.Format(e.Diagnostics, ""))
}

type rawConfig struct {
	Extends         string                     `json:"extends"`
	CompilerOptions map[string]json.RawMessage `json:"compilerOptions"`
	Files           []string                   `json:"files"`
	Include         []string                   `json:"include"`
	Exclude         []string                   `json:"exclude"`
}

// ReadConfigFile reads configFile, follows its extends chain and normalizes the
// compiler options. Any failure is returned as a *ParseError.
func ReadConfigFile(configFile string, readFile ReadFileFunc) (*ParsedConfig, error) {
	absPath, err := filepath.Abs(configFile)
	if err != nil {
		return nil, &ParseError{ConfigFile: configFile, Diagnostics: []diag.Diagnostic{
			diag.Errorf("", 0, 0, 5083, "Cannot read file '%s'.", configFile),
		}}
	}
	absPath = filepath.ToSlash(absPath)

	parsed := &ParsedConfig{ConfigFile: absPath, Options: CompilerOptions{Raw: make(map[string]json.RawMessage)}}
	var diagnostics []diag.Diagnostic
	if err := readInto(absPath, readFile, parsed, &diagnostics, 0, map[string]bool{}); err != nil {
		return nil, err
	}
	if len(diagnostics) > 0 {
		return nil, &ParseError{ConfigFile: absPath, Diagnostics: diagnostics}
	}
	return parsed, nil
}

func readInto(
	configFile string,
	readFile ReadFileFunc,
	parsed *ParsedConfig,
	diagnostics *[]diag.Diagnostic,
	depth int,
	seen map[string]bool,
) error {
	if seen[configFile] || depth > maxExtendsDepth {
		return &ParseError{ConfigFile: configFile, Diagnostics: []diag.Diagnostic{
			diag.Errorf(configFile, 0, 0, 18000, "Circularity detected while resolving configuration: %s", configFile),
		}}
	}
	seen[configFile] = true

	content, err := readFile(filepath.FromSlash(configFile))
	if err != nil {
		return &ParseError{ConfigFile: configFile, Diagnostics: []diag.Diagnostic{
			diag.Errorf("", 0, 0, 5083, "Cannot read file '%s'.", configFile),
		}}
	}

	raw, err := decode(content)
	if err != nil {
		line, column := errorPosition(content, err)
		return &ParseError{ConfigFile: configFile, Diagnostics: []diag.Diagnostic{
			diag.Errorf(configFile, line, column, 1136, "%s", err.Error()),
		}}
	}

	configDir := path.Dir(configFile)
	if raw.Extends != "" {
		base := raw.Extends
		if !path.IsAbs(base) {
			base = path.Join(configDir, base)
		}
		if !strings.HasSuffix(base, ".json") {
			base += ".json"
		}
		if err := readInto(base, readFile, parsed, diagnostics, depth+1, seen); err != nil {
			return err
		}
	}

	for name, value := range raw.CompilerOptions {
		parsed.Options.Raw[name] = value
		if diagnostic, ok := applyOption(&parsed.Options, name, value, configDir); !ok {
			diagnostic.File = configFile
			*diagnostics = append(*diagnostics, diagnostic)
		}
	}
	if raw.Files != nil {
		parsed.Files = raw.Files
	}
	if raw.Include != nil {
		parsed.Include = raw.Include
	}
	if raw.Exclude != nil {
		parsed.Exclude = raw.Exclude
	}
	return nil
}

func decode(content []byte) (rawConfig, error) {
	var raw rawConfig
	standardized, err := hujson.Standardize(content)
	if err != nil {
		return raw, err
	}
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func applyOption(options *CompilerOptions, name string, value json.RawMessage, configDir string) (diag.Diagnostic, bool) {
	switch name {
	case "rootDir", "outDir", "baseUrl":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return typeMismatch(name, "string"), false
		}
		if !path.IsAbs(filepath.ToSlash(s)) {
			s = path.Join(configDir, filepath.ToSlash(s))
		}
		switch name {
		case "rootDir":
			options.RootDir = path.Clean(s)
		case "outDir":
			options.OutDir = path.Clean(s)
		default:
			options.BaseURL = path.Clean(s)
		}
	case "sourceMap", "inlineSources", "strict", "noImplicitAny", "noImplicitReturns", "experimentalDecorators", "declaration":
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return typeMismatch(name, "boolean"), false
		}
		switch name {
		case "sourceMap":
			options.SourceMap = b
		case "inlineSources":
			options.InlineSources = b
		case "strict":
			options.Strict = b
		case "noImplicitAny":
			options.NoImplicitAny = &b
		case "noImplicitReturns":
			options.NoImplicitReturns = b
		case "experimentalDecorators":
			options.ExperimentalDecorators = b
		default:
			options.Declaration = b
		}
	case "target", "module":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return typeMismatch(name, "string"), false
		}
		if name == "target" {
			options.Target = strings.ToLower(s)
		} else {
			options.Module = strings.ToLower(s)
		}
	}
	return diag.Diagnostic{}, true
}

func typeMismatch(name, kind string) diag.Diagnostic {
	return diag.Errorf("", 0, 0, 5024, "Compiler option '%s' requires a value of type %s.", name, kind)
}

// errorPosition locates a decode error in the original content. hujson
// standardization keeps byte offsets, so JSON syntax error offsets apply directly.
func errorPosition(content []byte, err error) (int, int) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) && int(syntaxErr.Offset) <= len(content) {
		return offsetPosition(content, int(syntaxErr.Offset))
	}
	if m := lineColumnPattern.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		column, _ := strconv.Atoi(m[2])
		return line, column
	}
	return 1, 1
}

var lineColumnPattern = regexp.MustCompile(`line (\d+), column (\d+)`)

func offsetPosition(content []byte, offset int) (int, int) {
	line, column := 1, 1
	for _, c := range content[:offset] {
		if c == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
