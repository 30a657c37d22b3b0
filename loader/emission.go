package loader

import (
	"slices"

	"github.com/LegacyCodeHQ/tsextern/emit"
)

// emission is what one emit produced for the compiled file.
type emission struct {
	code       []string
	sourceMaps []string
	externs    string
}

// collectEmission keeps the artifacts generated from source, split into code
// and source maps, and joins the externs of every admitted file.
func collectEmission(result *emit.Result, source string, perFileExterns bool) emission {
	var e emission
	for _, artifact := range result.Artifacts {
		if !slices.Contains(artifact.SourceFiles, source) {
			continue
		}
		if artifact.IsSourceMap() {
			e.sourceMaps = append(e.sourceMaps, artifact.Text)
		} else {
			e.code = append(e.code, artifact.Text)
		}
	}
	if perFileExterns {
		e.externs = emit.GeneratedExterns(result.FileExterns)
	} else {
		e.externs = result.Externs
	}
	return e
}

// validate requires exactly one code artifact, and exactly one source map
// when one was requested.
func (e emission) validate(source string, sourceMapRequested bool) error {
	switch {
	case len(e.code) == 0 && e.externs == "":
		return newError(KindEmissionMismatch, source, nil, "missing both compiled code and externs for source file: %s", source)
	case len(e.code) != 1:
		return newError(KindEmissionMismatch, source, nil, "expected one compiled output for source file %s, got %d", source, len(e.code))
	case sourceMapRequested && len(e.sourceMaps) == 0:
		return newError(KindMissingSourceMap, source, nil, "source map requested but not emitted for source file: %s", source)
	case sourceMapRequested && len(e.sourceMaps) > 1:
		return newError(KindEmissionMismatch, source, nil, "expected one source map for source file %s, got %d", source, len(e.sourceMaps))
	}
	return nil
}
