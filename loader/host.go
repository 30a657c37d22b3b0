package loader

import (
	"github.com/LegacyCodeHQ/tsextern/diag"
	"github.com/LegacyCodeHQ/tsextern/emit"
)

// invocationHost is the emitter's view of one compile.
type invocationHost struct {
	policy         skipPolicy
	rootModulePath string
	perFileExterns bool
	warn           func(d diag.Diagnostic)
}

var _ emit.Host = (*invocationHost)(nil)

func (h *invocationHost) ShouldSkipProcessing(fileName string) bool {
	return h.policy.shouldSkip(fileName)
}

func (h *invocationHost) LogWarning(d diag.Diagnostic) {
	h.warn(d)
}

func (h *invocationHost) PathToModuleName(context, importPath string) string {
	return emit.PathToModuleName(h.rootModulePath, context, importPath)
}

func (h *invocationHost) FileNameToModuleID(fileName string) string {
	return emit.FileNameToModuleID(h.rootModulePath, fileName)
}

func (h *invocationHost) Flags() emit.Flags {
	return emit.Flags{
		TransformDecorators:       true,
		TransformTypesToClosure:   true,
		GenerateExtraSuppressions: true,
		PerFileExterns:            h.perFileExterns,
	}
}
