package emit

import (
	"path"
	"regexp"
	"strings"
)

var sourceSuffix = regexp.MustCompile(`(\.d)?\.(ts|tsx|js|jsx)$`)

// PathToModuleName converts an import into a dotted module name relative to
// rootModulePath. Relative imports resolve against the directory of context.
func PathToModuleName(rootModulePath, context, fileName string) string {
	fileName = sourceSuffix.ReplaceAllString(fileName, "")
	if strings.HasPrefix(fileName, ".") && context != "" {
		fileName = path.Join(path.Dir(context), fileName)
	}
	if path.IsAbs(fileName) {
		if rel, ok := relativePath(rootModulePath, fileName); ok {
			fileName = rel
		}
	}

	segments := strings.Split(fileName, "/")
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		escaped = append(escaped, escapeSegment(segment))
	}
	return strings.Join(escaped, ".")
}

// FileNameToModuleID returns fileName relative to rootModulePath.
func FileNameToModuleID(rootModulePath, fileName string) string {
	if rel, ok := relativePath(rootModulePath, fileName); ok {
		return rel
	}
	return fileName
}

// ExternNamespace returns the extern variable that holds a module's exports.
func ExternNamespace(moduleName string) string {
	return "module$" + strings.ReplaceAll(moduleName, ".", "$")
}

func escapeSegment(segment string) string {
	if segment == ".." {
		return "__"
	}
	var b strings.Builder
	for i, r := range segment {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// relativePath returns target relative to base for slash-separated absolute paths.
func relativePath(base, target string) (string, bool) {
	base = path.Clean(base)
	target = path.Clean(target)
	if base == target {
		return ".", true
	}

	baseParts := splitPath(base)
	targetParts := splitPath(target)
	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}
	if common == 0 && (len(baseParts) > 0 && len(targetParts) > 0) && !path.IsAbs(base) {
		return "", false
	}

	parts := make([]string, 0, len(baseParts)-common+len(targetParts)-common)
	for i := common; i < len(baseParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	return strings.Join(parts, "/"), true
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
