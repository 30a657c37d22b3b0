package depgraph

import (
	"fmt"
)

// DependencyResolver resolves the project files a single file imports.
type DependencyResolver interface {
	ResolveProjectImports(fileName string) ([]string, error)
}

// DependencyResolverFunc adapts a function to DependencyResolver.
type DependencyResolverFunc func(fileName string) ([]string, error)

func (f DependencyResolverFunc) ResolveProjectImports(fileName string) ([]string, error) {
	return f(fileName)
}

// BuildDependencyClosure walks imports breadth-first from root and returns the
// graph of every file transitively reachable from it. Each file is resolved once.
func BuildDependencyClosure(root string, dependencyResolver DependencyResolver) (DependencyGraph, error) {
	if dependencyResolver == nil {
		return nil, fmt.Errorf("dependency resolver is required")
	}

	graph := make(DependencyGraph)
	queue := []string{root}
	queued := map[string]bool{root: true}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		projectImports, err := dependencyResolver.ResolveProjectImports(file)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve imports of %s: %w", file, err)
		}

		if len(projectImports) > 0 {
			projectImports = deduplicatePaths(projectImports)
		}
		graph[file] = projectImports

		for _, dep := range projectImports {
			if !queued[dep] {
				queued[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	return graph, nil
}

// deduplicatePaths removes duplicate entries while preserving insertion order
func deduplicatePaths(paths []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}
