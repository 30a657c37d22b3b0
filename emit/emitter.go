package emit

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/program"
)

// Emit transforms every file of prog in dependency order. The host's skip
// predicate is asked exactly once per file, declaration files included.
func Emit(ctx context.Context, prog *program.Program, host Host) (*Result, error) {
	flags := host.Flags()
	options := prog.Options()
	symbols := newSymbolTable(prog)
	commonDir := commonSourceDirectory(prog)

	result := &Result{}
	if flags.PerFileExterns {
		result.FileExterns = make(map[string]string)
	}
	var fragments []string

	for _, file := range prog.SourceFiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		skip := host.ShouldSkipProcessing(file.FileName)
		var warnings []diag.Diagnostic

		if !file.IsDeclaration {
			code, mappings, transformWarnings := transformFile(file, symbols, flags, skip, host.FileNameToModuleID(file.FileName))
			warnings = append(warnings, transformWarnings...)

			artifacts, err := outputArtifacts(file, code, mappings, options.OutDir, commonDir, options.SourceMap, options.InlineSources)
			if err != nil {
				return nil, fmt.Errorf("failed to emit %s: %w", file.FileName, err)
			}
			result.Artifacts = append(result.Artifacts, artifacts...)
		}

		if !skip {
			fragment, externWarnings := generateExterns(file, symbols, host)
			warnings = append(warnings, externWarnings...)
			if fragment != "" {
				if flags.PerFileExterns {
					result.FileExterns[file.FileName] = fragment
				} else {
					fragments = append(fragments, fragment)
				}
			}
		}

		for _, w := range warnings {
			host.LogWarning(w)
		}
		result.Warnings = append(result.Warnings, warnings...)
	}

	if len(fragments) > 0 {
		result.Externs = ExternsHeader + strings.Join(fragments, "")
	}
	return result, nil
}

// commonSourceDirectory is the longest directory prefix shared by the
// program's non-declaration files, or rootDir when configured.
func commonSourceDirectory(prog *program.Program) string {
	if rootDir := prog.Options().RootDir; rootDir != "" {
		return rootDir
	}
	var common []string
	first := true
	for _, file := range prog.SourceFiles() {
		if file.IsDeclaration {
			continue
		}
		dir := splitPath(path.Dir(file.FileName))
		if first {
			common, first = dir, false
			continue
		}
		n := 0
		for n < len(common) && n < len(dir) && common[n] == dir[n] {
			n++
		}
		common = common[:n]
	}
	if first {
		return path.Dir(prog.RootFileName())
	}
	joined := strings.Join(common, "/")
	if strings.HasPrefix(prog.RootFileName(), "/") {
		return "/" + joined
	}
	return joined
}

var outputExtensions = map[string]string{
	".ts":  ".js",
	".tsx": ".js",
	".mts": ".mjs",
	".cts": ".cjs",
}

// outputFileName places the JavaScript for fileName under outDir, mirroring
// its position below commonDir, or beside the source without an outDir.
func outputFileName(fileName, outDir, commonDir string) string {
	ext := path.Ext(fileName)
	jsExt, ok := outputExtensions[ext]
	if !ok {
		jsExt = ".js"
	}
	base := strings.TrimSuffix(fileName, ext) + jsExt
	if outDir == "" {
		return base
	}
	rel, ok := relativePath(commonDir, base)
	if !ok {
		rel = path.Base(base)
	}
	return path.Join(outDir, rel)
}

func outputArtifacts(file *program.SourceFile, code string, mappings []mapping, outDir, commonDir string, sourceMap, inlineSources bool) ([]Artifact, error) {
	jsName := outputFileName(file.FileName, outDir, commonDir)
	sources := []string{file.FileName}
	if !sourceMap {
		return []Artifact{{FileName: jsName, Text: code, SourceFiles: sources}}, nil
	}

	mapName := jsName + ".map"
	source, ok := relativePath(path.Dir(mapName), file.FileName)
	if !ok {
		source = file.FileName
	}
	var content *string
	if inlineSources {
		text := string(file.Text)
		content = &text
	}
	mapText, err := renderSourceMap(path.Base(jsName), source, content, mappings)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	code += "//# sourceMappingURL=" + path.Base(mapName)

	return []Artifact{
		{FileName: jsName, Text: code, SourceFiles: sources},
		{FileName: mapName, Text: mapText, SourceFiles: sources},
	}, nil
}
