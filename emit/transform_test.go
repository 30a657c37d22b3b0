package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformFile_Erasure(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "variable annotation",
			source:   "let x: number = 1;\n",
			expected: "let x = 1;\n",
		},
		{
			name:     "optional parameter and return type",
			source:   "function f(a?: string): void {}\n",
			expected: "function f(a) {}\n",
		},
		{
			name:     "interface",
			source:   "interface A {\n  x: number;\n}\nconst a = 1;\n",
			expected: "const a = 1;\n",
		},
		{
			name:     "type alias",
			source:   "type Id = string;\nconst id = \"a\";\n",
			expected: "const id = \"a\";\n",
		},
		{
			name:     "non-null assertion",
			source:   "declare const value: string | undefined;\nconst n = value!;\n",
			expected: "const n = value;\n",
		},
		{
			name:     "as expression",
			source:   "const input: unknown = 1;\nconst s = input as string;\n",
			expected: "const input = 1;\nconst s = input;\n",
		},
		{
			name:     "implements clause",
			source:   "interface B {}\nclass A implements B {}\n",
			expected: "class A {}\n",
		},
		{
			name:     "type-only import",
			source:   "import type { T } from \"./t\";\nexport const v = 1;\n",
			expected: "export const v = 1;\n",
		},
		{
			name:     "generic function",
			source:   "function id<T>(value: T): T {\n  return value;\n}\nid<number>(1);\n",
			expected: "function id(value) {\n  return value;\n}\nid(1);\n",
		},
		{
			name:     "access modifiers and readonly fields",
			source:   "class A {\n  private readonly x: number = 1;\n  public m(): void {}\n}\n",
			expected: "class A {\n  x = 1;\n  m() {}\n}\n",
		},
		{
			name:     "abstract class",
			source:   "abstract class Shape {\n  abstract area(): number;\n  name = \"shape\";\n}\n",
			expected: "class Shape {\n  name = \"shape\";\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := transformSource(t, tt.source, Flags{}, true)

			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestTransformFile_Enum(t *testing.T) {
	code, _ := transformSource(t, "enum Color { Red, Green = 5, Blue }\n", Flags{}, true)

	expected := "const Color = {\n" +
		"    Red: 0,\n" +
		"    Green: 5,\n" +
		"    Blue: 6,\n" +
		"};\n" +
		"Color[Color[\"Red\"]] = \"Red\";\n" +
		"Color[Color[\"Green\"]] = \"Green\";\n" +
		"Color[Color[\"Blue\"]] = \"Blue\";\n"
	assert.Equal(t, expected, code)
}

func TestTransformFile_StringEnumHasNoReverseMapping(t *testing.T) {
	code, _ := transformSource(t, "export enum Mode { On = \"on\", Off = \"off\" }\n", Flags{TransformTypesToClosure: true}, false)

	assert.Contains(t, code, "/** @enum {string} */\nexport const Mode = {")
	assert.Contains(t, code, "On: \"on\",")
	assert.NotContains(t, code, "Mode[Mode")
}

func TestTransformFile_ParameterProperties(t *testing.T) {
	source := "class Base {\n  constructor(n: number) {}\n}\n" +
		"class Point extends Base {\n" +
		"  constructor(private x: number, public readonly y: number) {\n" +
		"    super(x);\n" +
		"  }\n" +
		"}\n"

	code, _ := transformSource(t, source, Flags{}, true)

	assert.Contains(t, code, "constructor(x, y) {\n    super(x);\n    this.x = x;\n    this.y = y;\n  }")
}

func TestTransformFile_AnnotatesFunctions(t *testing.T) {
	source := "export function greet(name: string = \"world\") {\n  return \"Hello, \" + name;\n}\n"

	code, warnings := transformSource(t, source, Flags{TransformTypesToClosure: true}, false)

	assert.Empty(t, warnings)
	assert.Contains(t, code, "/**\n * @param {string=} name\n * @return {string}\n */\nexport function greet(name = \"world\") {")
}

func TestTransformFile_InfersReturnTypes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"no value", "function f() { return; }\n", "@return {void}"},
		{"number", "function f() { return 1 + 2; }\n", "@return {number}"},
		{"comparison", "function f(a: number) { return a > 1; }\n", "@return {boolean}"},
		{"parameter", "function f(a: string) { return a; }\n", "@return {string}"},
		{"union", "function f(a: boolean) { if (a) { return 1; } return \"x\"; }\n", "@return {(number|string)}"},
		{"async", "async function f() { return 1; }\n", "@return {!Promise<number>}"},
		{"new", "class A {}\nfunction f() { return new A(); }\n", "@return {!A}"},
		{"unknown", "function f(a: any) { return a.b; }\n", "@return {?}"},
		{"nested function ignored", "function f() { const g = () => { return 1; }; }\n", "@return {void}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := transformSource(t, tt.source, Flags{TransformTypesToClosure: true}, false)

			assert.Contains(t, code, tt.expected)
		})
	}
}

func TestTransformFile_TypeTranslation(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"any", "let x: any;\n", "/** @type {?} */"},
		{"unknown", "let x: unknown;\n", "/** @type {*} */"},
		{"array", "let x: string[] = [];\n", "/** @type {!Array<string>} */"},
		{"generic array", "let x: Array<number> = [];\n", "/** @type {!Array<number>} */"},
		{"readonly array", "let x: readonly string[] = [];\n", "/** @type {!Array<string>} */"},
		{"parenthesized", "let x: (string | null)[] = [];\n", "/** @type {!Array<(string|null)>} */"},
		{"union", "let x: string | null = null;\n", "/** @type {(string|null)} */"},
		{"literal", "let x: \"a\" | \"b\" = \"a\";\n", "/** @type {string} */"},
		{"record", "let x: Record<string, number> = {};\n", "/** @type {!Object<string, number>} */"},
		{"function", "let x: (a: number, b?: string) => void;\n", "/** @type {function(number, string=): void} */"},
		{"object", "let x: { a: number } = { a: 1 };\n", "/** @type {{a: number}} */"},
		{"index signature", "let x: { [key: string]: boolean } = {};\n", "/** @type {!Object<string, boolean>} */"},
		{"interface", "interface P { x: number }\nlet x: P;\n", "/** @type {!P} */"},
		{"promise", "let x: Promise<string>;\n", "/** @type {!Promise<string>} */"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := transformSource(t, tt.source, Flags{TransformTypesToClosure: true}, false)

			assert.Contains(t, code, tt.expected)
		})
	}
}

func TestTransformFile_UnsupportedTypeWarns(t *testing.T) {
	code, warnings := transformSource(t, "let x: keyof Window;\n", Flags{TransformTypesToClosure: true}, false)

	assert.Contains(t, code, "/** @type {?} */")
	if assert.Len(t, warnings, 1) {
		assert.Equal(t, 1, warnings[0].Line)
		assert.Contains(t, warnings[0].Message, "unsupported type")
	}
}

func TestTransformFile_MergesExistingJSDoc(t *testing.T) {
	source := "/**\n * Adds numbers.\n * @param a the first\n */\nfunction add(a: number, b: number): number {\n  return a + b;\n}\n"

	code, _ := transformSource(t, source, Flags{TransformTypesToClosure: true}, false)

	expected := "/**\n * Adds numbers.\n * @param {number} a the first\n * @param {number} b\n * @return {number}\n */\nfunction add(a, b) {"
	assert.Contains(t, code, expected)
}

func TestTransformFile_ClassMembers(t *testing.T) {
	source := "export class Counter<T> implements Iterable<T> {\n" +
		"  private count: number = 0;\n" +
		"  protected label = \"c\";\n" +
		"  increment(by: number): number {\n" +
		"    return this.count + by;\n" +
		"  }\n" +
		"}\n"

	code, _ := transformSource(t, source, Flags{TransformTypesToClosure: true}, false)

	assert.Contains(t, code, "/**\n * @template T\n * @implements {!Iterable<T>}\n */\nexport class Counter {")
	assert.Contains(t, code, "  /**\n   * @type {number}\n   * @private\n   */\n  count = 0;")
	assert.Contains(t, code, "  /**\n   * @type {string}\n   * @protected\n   */\n  label = \"c\";")
	assert.Contains(t, code, "  /**\n   * @param {number} by\n   * @return {number}\n   */\n  increment(by) {")
}

func TestTransformFile_SuppressionHeader(t *testing.T) {
	code, _ := transformSource(t, "export const a = 1;\n", Flags{TransformTypesToClosure: true, GenerateExtraSuppressions: true}, false)

	assert.True(t, len(code) > 0)
	assert.Contains(t, code, "/**\n * @fileoverview Generated from: main.ts\n * @suppress {"+extraSuppressions+"}\n */\n")

	skipped, _ := transformSource(t, "export const a = 1;\n", Flags{TransformTypesToClosure: true, GenerateExtraSuppressions: true}, true)
	assert.Equal(t, "export const a = 1;\n", skipped)
}

func TestTransformFile_LowersDecorators(t *testing.T) {
	source := "function Component(config: object) { return (c: any) => c; }\n" +
		"function Input() { return (t: any, k: string) => {}; }\n" +
		"function Inject(token: string) { return (t: any, k: any, i: number) => {}; }\n" +
		"class Service {}\n" +
		"@Component({ selector: \"app\" })\n" +
		"export class App {\n" +
		"  @Input()\n" +
		"  title: string = \"\";\n" +
		"  constructor(private service: Service, @Inject(\"TOKEN\") token: string) {}\n" +
		"}\n"

	code, _ := transformSource(t, source, Flags{TransformDecorators: true}, true)

	assert.NotContains(t, code, "@Component")
	assert.NotContains(t, code, "@Input")
	assert.NotContains(t, code, "@Inject")
	assert.Contains(t, code, "App.decorators = [\n    { type: Component, args: [{ selector: \"app\" }] },\n];")
	assert.Contains(t, code, "App.ctorParameters = () => [\n    { type: Service },\n    { type: undefined, decorators: [{ type: Inject, args: [\"TOKEN\"] }] },\n];")
	assert.Contains(t, code, "App.propDecorators = {\n    \"title\": [{ type: Input }],\n};")
}

func TestTransformFile_Namespace(t *testing.T) {
	source := "namespace Util {\n  export const x = 1;\n  export interface Shape {}\n}\n"

	code, _ := transformSource(t, source, Flags{}, true)

	assert.Equal(t, "var Util;\n(function (Util) {\n  const x = 1;\n    Util.x = x;\n})(Util || (Util = {}));\n", code)
}

func TestTransformFile_TypeOnlyNamespaceIsRemoved(t *testing.T) {
	code, _ := transformSource(t, "namespace Types {\n  export interface A {}\n}\nconst a = 1;\n", Flags{}, true)

	assert.Equal(t, "const a = 1;\n", code)
}
