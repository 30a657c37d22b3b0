package depgraph

import (
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// DependencyGraph represents a mapping from file paths to their project dependencies
type DependencyGraph map[string][]string

// Files returns every file in the graph, sorted.
func (g DependencyGraph) Files() []string {
	files := make([]string, 0, len(g))
	for file := range g {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// Directed converts the adjacency map into a directed graph. Edges point from
// an importing file to the file it imports.
func (g DependencyGraph) Directed() (graphlib.Graph[string, string], error) {
	directed := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, file := range g.Files() {
		if err := directed.AddVertex(file); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add %s: %w", file, err)
		}
	}
	for _, file := range g.Files() {
		for _, dep := range g[file] {
			if err := directed.AddVertex(dep); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("failed to add %s: %w", dep, err)
			}
			if err := directed.AddEdge(file, dep); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to link %s -> %s: %w", file, dep, err)
			}
		}
	}

	return directed, nil
}

// DependencyOrder lists the files reachable from root with every file after
// the files it imports, root last. Import cycles are broken at the edge that
// closes them; siblings are visited in lexical order so the result is stable.
func DependencyOrder(g DependencyGraph, root string) ([]string, error) {
	directed, err := g.Directed()
	if err != nil {
		return nil, err
	}
	adjacency, err := directed.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency map: %w", err)
	}
	if _, ok := adjacency[root]; !ok {
		return nil, fmt.Errorf("root %s is not part of the dependency graph", root)
	}

	visited := make(map[string]bool, len(adjacency))
	order := make([]string, 0, len(adjacency))

	var visit func(file string)
	visit = func(file string) {
		visited[file] = true

		deps := make([]string, 0, len(adjacency[file]))
		for dep := range adjacency[file] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)

		for _, dep := range deps {
			if !visited[dep] {
				visit(dep)
			}
		}
		order = append(order, file)
	}
	visit(root)

	return order, nil
}

// ImportCycles returns the groups of files that import each other, each group sorted.
func ImportCycles(g DependencyGraph) ([][]string, error) {
	directed, err := g.Directed()
	if err != nil {
		return nil, err
	}
	components, err := graphlib.StronglyConnectedComponents(directed)
	if err != nil {
		return nil, fmt.Errorf("failed to find import cycles: %w", err)
	}

	var cycles [][]string
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		cycles = append(cycles, component)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}
