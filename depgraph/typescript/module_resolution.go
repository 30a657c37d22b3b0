package typescript

import (
	"encoding/json"
	"path"
	"strings"
)

// FileSystem is the part of a compiler host that module resolution reads through.
// Paths are absolute and slash-separated.
type FileSystem interface {
	FileExists(fileName string) bool
	ReadFile(fileName string) ([]byte, error)
}

// ResolutionOptions carries the compiler options that influence resolution.
type ResolutionOptions struct {
	BaseURL string
}

var sourceExtensions = []string{".ts", ".tsx", ".d.ts"}

// ResolveModuleName resolves an import specifier written in containingFile to a
// source or declaration file. The second result is false when nothing matches.
func ResolveModuleName(imp TypeScriptImport, containingFile string, fs FileSystem, opts ResolutionOptions) (string, bool) {
	switch imp.(type) {
	case InternalImport:
		resolved := ResolveTypeScriptImportPath(containingFile, imp.Path(), fs.FileExists)
		if len(resolved) == 0 {
			return "", false
		}
		return resolved[0], true
	case NodeBuiltinImport:
		return resolveNodeModules("@types/node", path.Dir(containingFile), fs)
	default:
		if opts.BaseURL != "" {
			if resolved, ok := resolveFileOrDirectory(path.Join(opts.BaseURL, imp.Path()), fs); ok {
				return resolved, true
			}
		}
		return resolveNodeModules(imp.Path(), path.Dir(containingFile), fs)
	}
}

// ResolveTypeScriptImportPath resolves a relative import to the candidate files that exist,
// in TypeScript's lookup order.
func ResolveTypeScriptImportPath(sourceFile, importPath string, exists func(string) bool) []string {
	sourceDir := path.Dir(sourceFile)
	basePath := path.Clean(path.Join(sourceDir, importPath))

	var resolvedPaths []string
	seen := make(map[string]bool)
	add := func(candidate string) {
		if !seen[candidate] && exists(candidate) {
			seen[candidate] = true
			resolvedPaths = append(resolvedPaths, candidate)
		}
	}

	// ESM-style specifiers name the emitted .js file.
	if stem, ok := trimJavaScriptExtension(basePath); ok {
		for _, ext := range sourceExtensions {
			add(stem + ext)
		}
	}

	if hasTypeScriptExtension(importPath) {
		add(basePath)
	}

	for _, ext := range sourceExtensions {
		add(basePath + ext)
	}

	for _, ext := range sourceExtensions {
		add(path.Join(basePath, "index"+ext))
	}

	return resolvedPaths
}

func resolveFileOrDirectory(basePath string, fs FileSystem) (string, bool) {
	resolved := ResolveTypeScriptImportPath(basePath, "./"+path.Base(basePath), fs.FileExists)
	if len(resolved) > 0 {
		return resolved[0], true
	}
	if typesPath, ok := packageTypesEntry(basePath, fs); ok {
		return typesPath, true
	}
	return "", false
}

func resolveNodeModules(packagePath, startDir string, fs FileSystem) (string, bool) {
	candidates := []string{packagePath}
	if !strings.HasPrefix(packagePath, "@types/") {
		candidates = append(candidates, path.Join("@types", typesPackageName(packagePath)))
	}

	for dir := startDir; ; dir = path.Dir(dir) {
		if path.Base(dir) != "node_modules" {
			for _, candidate := range candidates {
				if resolved, ok := resolveFileOrDirectory(path.Join(dir, "node_modules", candidate), fs); ok {
					return resolved, true
				}
			}
		}
		if parent := path.Dir(dir); parent == dir {
			return "", false
		}
	}
}

// typesPackageName maps a package name to its DefinitelyTyped name: @scope/pkg -> scope__pkg.
func typesPackageName(packagePath string) string {
	if strings.HasPrefix(packagePath, "@") {
		parts := strings.SplitN(strings.TrimPrefix(packagePath, "@"), "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "__" + strings.Join(parts[1:], "/")
		}
	}
	return packagePath
}

type packageManifest struct {
	Types   string `json:"types"`
	Typings string `json:"typings"`
}

func packageTypesEntry(packageDir string, fs FileSystem) (string, bool) {
	manifestPath := path.Join(packageDir, "package.json")
	if !fs.FileExists(manifestPath) {
		return "", false
	}
	content, err := fs.ReadFile(manifestPath)
	if err != nil {
		return "", false
	}
	var manifest packageManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return "", false
	}

	entry := manifest.Types
	if entry == "" {
		entry = manifest.Typings
	}
	if entry == "" {
		return "", false
	}
	entryPath := path.Join(packageDir, entry)
	if fs.FileExists(entryPath) {
		return entryPath, true
	}
	resolved := ResolveTypeScriptImportPath(entryPath, "./"+path.Base(entryPath), fs.FileExists)
	if len(resolved) > 0 {
		return resolved[0], true
	}
	return "", false
}

// hasTypeScriptExtension checks if a path already has a TypeScript extension
func hasTypeScriptExtension(p string) bool {
	ext := path.Ext(p)
	return ext == ".ts" || ext == ".tsx"
}

func trimJavaScriptExtension(p string) (string, bool) {
	for _, ext := range []string{".js", ".jsx", ".mjs"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext), true
		}
	}
	return "", false
}

// IsDeclarationFile reports whether a file name is a .d.ts declaration file.
func IsDeclarationFile(fileName string) bool {
	return strings.HasSuffix(fileName, ".d.ts")
}
