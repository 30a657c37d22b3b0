package depgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(graph DependencyGraph) DependencyResolver {
	return DependencyResolverFunc(func(fileName string) ([]string, error) {
		return graph[fileName], nil
	})
}

func TestBuildDependencyClosure_OnlyReachableFiles(t *testing.T) {
	imports := DependencyGraph{
		"/src/main.ts":      {"/src/shared.ts", "/src/util.ts", "/src/shared.ts"},
		"/src/shared.ts":    {"/src/util.ts"},
		"/src/util.ts":      nil,
		"/src/unrelated.ts": {"/src/util.ts"},
	}

	graph, err := BuildDependencyClosure("/src/main.ts", staticResolver(imports))

	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.ts", "/src/shared.ts", "/src/util.ts"}, graph.Files())
	assert.Equal(t, []string{"/src/shared.ts", "/src/util.ts"}, graph["/src/main.ts"])
}

func TestBuildDependencyClosure_PropagatesResolverErrors(t *testing.T) {
	failing := DependencyResolverFunc(func(string) ([]string, error) {
		return nil, errors.New("boom")
	})

	_, err := BuildDependencyClosure("/src/main.ts", failing)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "/src/main.ts")
}

func TestBuildDependencyClosure_RequiresResolver(t *testing.T) {
	_, err := BuildDependencyClosure("/src/main.ts", nil)

	assert.Error(t, err)
}
