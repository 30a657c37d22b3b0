package emit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/LegacyCodeHQ/tsextern/tsconfig"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}

const geometrySource = `export interface Point {
  x: number;
  y?: number;
}

export function distance(a: Point, b: Point): number {
  return Math.abs(a.x - b.x);
}

export const ORIGIN_NAME = "origin";
`

func TestEmit_Externs(t *testing.T) {
	dir := writeProject(t, map[string]string{"geometry.ts": geometrySource})
	prog := buildProgram(t, dir, "geometry.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	emitGoldie(t).Assert(t, "geometry_externs", []byte(result.Externs))
}

func TestEmit_HelloWorld(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"hello-world.ts": "export function greet(name: string = \"world\") {\n  return \"Hello, \" + name;\n}\n",
	})
	prog := buildProgram(t, dir, "hello-world.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	code := codeArtifact(t, result, dir+"/hello-world.js")
	assert.Contains(t, code.Text, "@return {string}")
	assert.Equal(t, []string{dir + "/hello-world.ts"}, code.SourceFiles)
	assert.Contains(t, result.Externs, "// externs from: hello-world.ts\n")
	assert.Contains(t, result.Externs, "/**\n * @param {string=} name\n * @return {string}\n */\nmodule$hello_world.greet = function(name) {};\n")
	assert.Empty(t, result.FileExterns)
}

func TestEmit_AsksSkipPredicateOncePerFileInDependencyOrder(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts":    "import { shared } from \"./shared\";\nimport type { Options } from \"./types\";\nexport const main = shared + 1;\n",
		"shared.ts":  "export const shared = 1;\n",
		"types.d.ts": "export interface Options {\n  verbose: boolean;\n}\n",
	})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{dir + "/main.ts", dir + "/shared.ts", dir + "/types.d.ts"}, host.asked)
	assert.Equal(t, dir+"/main.ts", host.asked[len(host.asked)-1])
	assert.Len(t, result.Artifacts, 2, "declaration files emit no JavaScript")
	assert.Contains(t, result.Externs, "// externs from: types.d.ts\n")
	assert.Contains(t, result.Externs, "/** @record */\nmodule$types.Options = function() {};\n")
}

func TestEmit_SkippedFilesAreErasedOnly(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts":       "import { helper } from \"./vendor/lib\";\nexport function run(n: number): number {\n  return helper(n);\n}\n",
		"vendor/lib.ts": "export function helper(n: number): number {\n  return n * 2;\n}\n",
	})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)
	host.skip = func(fileName string) bool { return strings.Contains(fileName, "vendor/") }

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	lib := codeArtifact(t, result, dir+"/vendor/lib.js")
	assert.Equal(t, "export function helper(n) {\n  return n * 2;\n}\n", lib.Text)
	assert.NotContains(t, result.Externs, "vendor/lib.ts")
	assert.Contains(t, result.Externs, "// externs from: main.ts\n")
}

func TestEmit_PerFileExterns(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts":   "import { shared } from \"./shared\";\nexport const main: number = shared;\n",
		"shared.ts": "export const shared = 1;\n",
	})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)
	host.flags.PerFileExterns = true

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	assert.Empty(t, result.Externs)
	require.Len(t, result.FileExterns, 2)
	assert.Equal(t, "// externs from: shared.ts\n/** @const */\nvar module$shared = {};\n/** @const {number} */\nmodule$shared.shared;\n", result.FileExterns[dir+"/shared.ts"])

	joined := GeneratedExterns(result.FileExterns)
	assert.True(t, strings.HasPrefix(joined, ExternsHeader))
	assert.Less(t, strings.Index(joined, "externs from: main.ts"), strings.Index(joined, "externs from: shared.ts"))
}

func TestEmit_SourceMap(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts": "export const answer: number = 42;\n",
	})
	prog := buildProgram(t, dir, "src/main.ts", tsconfig.CompilerOptions{SourceMap: true, InlineSources: true})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 2)

	code := codeArtifact(t, result, dir+"/src/main.js")
	assert.True(t, strings.HasSuffix(code.Text, "\n//# sourceMappingURL=main.js.map"))

	sourceMap := codeArtifact(t, result, dir+"/src/main.js.map")
	assert.True(t, sourceMap.IsSourceMap())
	var decoded sourceMapV3
	require.NoError(t, json.Unmarshal([]byte(sourceMap.Text), &decoded))
	assert.Equal(t, 3, decoded.Version)
	assert.Equal(t, "main.js", decoded.File)
	assert.Equal(t, []string{"main.ts"}, decoded.Sources)
	assert.Equal(t, []string{"export const answer: number = 42;\n"}, decoded.SourcesContent)
	assert.NotEmpty(t, decoded.Mappings)
}

func TestEmit_OutDir(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts":     "import { util } from \"./lib/util\";\nexport const main = util;\n",
		"src/lib/util.ts": "export const util = 1;\n",
	})
	prog := buildProgram(t, dir, "src/main.ts", tsconfig.CompilerOptions{OutDir: dir + "/out"})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	var names []string
	for _, artifact := range result.Artifacts {
		names = append(names, artifact.FileName)
	}
	assert.ElementsMatch(t, []string{dir + "/out/main.js", dir + "/out/lib/util.js"}, names)
}

func TestEmit_ForwardsWarnings(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.ts": "export let keys: keyof Window;\n"})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	require.NotEmpty(t, host.warnings)
	assert.Equal(t, host.warnings, result.Warnings)
	assert.Equal(t, dir+"/main.ts", host.warnings[0].File)
}

func TestEmit_CanceledContext(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.ts": "export const a = 1;\n"})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Emit(ctx, prog, newTestHost(dir))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "/p/src/a.js", outputFileName("/p/src/a.ts", "", "/p/src"))
	assert.Equal(t, "/p/out/a.js", outputFileName("/p/src/a.tsx", "/p/out", "/p/src"))
	assert.Equal(t, "/p/out/x/b.mjs", outputFileName("/p/src/x/b.mts", "/p/out", "/p/src"))
}

func TestEmit_ExternsReferToExportedNames(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"shape.ts": "export default class Shape<T> {\n  static of(value: string): Shape<string> {\n    return new Shape<string>();\n  }\n}\n",
		"box.ts":   "class Box {\n  size: number = 1;\n}\nexport function open(box: Box): void {}\nexport { Box as Crate };\n",
		"main.ts":  "import Shape from \"./shape\";\nimport { Crate } from \"./box\";\nexport function pack(shape: Shape<number>, crate: Crate): void {}\n",
	})
	prog := buildProgram(t, dir, "main.ts", tsconfig.CompilerOptions{})
	host := newTestHost(dir)

	result, err := Emit(t.Context(), prog, host)
	require.NoError(t, err)

	assert.Contains(t, result.Externs, "module$shape.default = function() {};\n")
	assert.Contains(t, result.Externs, "@return {!module$shape.default<string>}")
	assert.Contains(t, result.Externs, "@param {!module$box.Crate} box")
	assert.Contains(t, result.Externs, "@param {!module$shape.default<number>} shape")
	assert.Contains(t, result.Externs, "@param {!module$box.Crate} crate")
	assert.NotContains(t, result.Externs, "module$shape.Shape")
	assert.NotContains(t, result.Externs, "module$box.Box")
}
