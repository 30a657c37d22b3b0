package loader

import "github.com/LegacyCodeHQ/tsextern/diag"

// checkDiagnostics fails closed: any diagnostic stops the compile before
// emission. Paths in the report are relative to rootModulePath.
func checkDiagnostics(source, rootModulePath string, diagnostics []diag.Diagnostic) error {
	if len(diagnostics) == 0 {
		return nil
	}
	sorted := append([]diag.Diagnostic(nil), diagnostics...)
	diag.Sort(sorted)
	err := newError(KindTypeDiagnostic, source, nil, "%s", diag.Format(sorted, rootModulePath))
	err.Diagnostics = sorted
	return err
}
