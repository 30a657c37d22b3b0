package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyOrder_DependenciesFirst(t *testing.T) {
	graph := DependencyGraph{
		"/src/main.ts":   {"/src/shared.ts", "/src/b.ts"},
		"/src/shared.ts": {"/src/util.ts"},
		"/src/b.ts":      {"/src/util.ts"},
		"/src/util.ts":   {},
	}

	order, err := DependencyOrder(graph, "/src/main.ts")

	require.NoError(t, err)
	assert.Equal(t, []string{"/src/util.ts", "/src/b.ts", "/src/shared.ts", "/src/main.ts"}, order)
}

func TestDependencyOrder_ToleratesCycles(t *testing.T) {
	graph := DependencyGraph{
		"/src/a.ts": {"/src/b.ts"},
		"/src/b.ts": {"/src/a.ts"},
	}

	order, err := DependencyOrder(graph, "/src/a.ts")

	require.NoError(t, err)
	assert.Equal(t, []string{"/src/b.ts", "/src/a.ts"}, order)
}

func TestDependencyOrder_UnknownRoot(t *testing.T) {
	_, err := DependencyOrder(DependencyGraph{"/src/a.ts": nil}, "/src/missing.ts")

	assert.Error(t, err)
}

func TestImportCycles(t *testing.T) {
	graph := DependencyGraph{
		"/src/a.ts": {"/src/b.ts"},
		"/src/b.ts": {"/src/a.ts", "/src/c.ts"},
		"/src/c.ts": {},
	}

	cycles, err := ImportCycles(graph)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"/src/a.ts", "/src/b.ts"}}, cycles)
}
