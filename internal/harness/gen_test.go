package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukisama9292/judgemicro/internal/model"
)

func num(s string) json.Number { return json.Number(s) }

func TestGenerateCScalars(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "a", Type: model.TypeInt, InputValue: num("3")},
			{Name: "b", Type: model.TypeInt, InputValue: num("4")},
		},
		FunctionType: "int",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "int solve(int *a, int *b);")
	assert.Contains(t, src, "int a = 3;")
	assert.Contains(t, src, "int b = 4;")
	assert.Contains(t, src, "int ret = solve(&a, &b);")
	assert.Contains(t, src, `printf("a: %d\n", a);`)
	assert.Contains(t, src, `printf("b: %d\n", b);`)
	assert.Contains(t, src, `printf("return_value: %d\n", ret);`)
}

func TestGenerateCArrays(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "arr", Type: model.TypeArrayInt, InputValue: []any{num("1"), num("2"), num("3")}},
		},
		FunctionType: "int",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "int solve(int *arr);")
	assert.Contains(t, src, "int arr[3] = {1, 2, 3};")
	assert.Contains(t, src, "int ret = solve(arr);") // arrays decay, no address-of
	assert.Contains(t, src, "for (i = 0; i < 3; i++)")
	assert.Contains(t, src, "int i;")
}

func TestGenerateCEmptyArray(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "arr", Type: model.TypeArrayInt, InputValue: []any{}},
		},
		FunctionType: "void",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "int arr[1] = {0};")
	assert.Contains(t, src, "for (i = 0; i < 0; i++)")
	assert.NotContains(t, src, "return_value")
}

func TestGenerateCStringAndBool(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "s", Type: model.TypeString, InputValue: "hi \"there\"\n"},
			{Name: "ok", Type: model.TypeBool, InputValue: true},
			{Name: "c", Type: model.TypeChar, InputValue: "x"},
		},
		FunctionType: "bool",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "#include <stdbool.h>")
	assert.Contains(t, src, `char s[256] = "hi \"there\"\n";`)
	assert.Contains(t, src, "bool ok = true;")
	assert.Contains(t, src, "char c = 'x';")
	assert.Contains(t, src, "bool solve(char *s, bool *ok, char *c);")
	assert.Contains(t, src, "solve(s, &ok, &c);")
	assert.Contains(t, src, `printf("ok: %s\n", ok ? "true" : "false");`)
	assert.Contains(t, src, `printf("c: \"%c\"\n", c);`)
}

func TestGenerateCNoParams(t *testing.T) {
	cfg := model.TestConfig{FunctionType: "int"}
	src, err := GenerateC(cfg)
	require.NoError(t, err)
	assert.Contains(t, src, "int solve(void);")
	assert.Contains(t, src, "int ret = solve();")
}

func TestGenerateCFloatFormats(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "f", Type: model.TypeFloat, InputValue: num("1.5")},
			{Name: "d", Type: model.TypeDouble, InputValue: num("2")},
		},
		FunctionType: "void",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)
	assert.Contains(t, src, "float f = 1.5;")
	assert.Contains(t, src, "double d = 2.0;") // bare integers get a decimal point
	assert.Contains(t, src, `printf("f: %.9g\n", f);`)
	assert.Contains(t, src, `printf("d: %.17g\n", d);`)
}

func TestGenerateCPPReferences(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "a", Type: model.TypeInt, InputValue: num("1")},
		},
		FunctionType: "int",
	}
	src, err := GenerateCPP(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "int solve(int& a);")
	assert.Contains(t, src, "int a = 1;")
	assert.Contains(t, src, "int ret = solve(a);") // by reference, no address-of
	assert.Contains(t, src, `printf("a: %d\n", a);`)
}

func TestGenerateCPPVectorsAndStrings(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "v", Type: model.TypeVectorInt, InputValue: []any{num("3"), num("1")}},
			{Name: "names", Type: model.TypeVectorString, InputValue: []any{"a", "b"}},
			{Name: "s", Type: model.TypeString, InputValue: "hey"},
			{Name: "empty", Type: model.TypeArrayFloat, InputValue: []any{}},
		},
		FunctionType: "void",
	}
	src, err := GenerateCPP(cfg)
	require.NoError(t, err)

	assert.Contains(t, src, "#include <vector>")
	assert.Contains(t, src, "#include <string>")
	assert.Contains(t, src, "std::vector<int> v = {3, 1};")
	assert.Contains(t, src, `std::vector<std::string> names = {"a", "b"};`)
	assert.Contains(t, src, `std::string s = "hey";`)
	assert.Contains(t, src, "std::vector<float> empty;")
	assert.Contains(t, src,
		"void solve(std::vector<int>& v, std::vector<std::string>& names, std::string& s, std::vector<float>& empty);")
	assert.Contains(t, src, "solve(v, names, s, empty);")
	assert.Contains(t, src, `printf("s: \"%s\"\n", s.c_str());`)
	assert.NotContains(t, src, "return_value")
}

func TestGenerateDeclarationOrderMatchesConfig(t *testing.T) {
	cfg := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "z", Type: model.TypeInt, InputValue: num("1")},
			{Name: "a", Type: model.TypeInt, InputValue: num("2")},
		},
		FunctionType: "int",
	}
	src, err := GenerateC(cfg)
	require.NoError(t, err)
	zPos := indexOf(t, src, "int z = 1;")
	aPos := indexOf(t, src, "int a = 2;")
	assert.Less(t, zPos, aPos)
	assert.Contains(t, src, "int solve(int *z, int *a);")
}

func TestCompileStandard(t *testing.T) {
	assert.Equal(t, "c99", CompileStandard(model.LangC, ""))
	assert.Equal(t, "c11", CompileStandard(model.LangC, "c11"))
	assert.Equal(t, "c++17", CompileStandard(model.LangCPP, ""))
	assert.Equal(t, "c++20", CompileStandard(model.LangCPP, "cpp20"))
	assert.Equal(t, "c++14", CompileStandard(model.LangCPP, "c++14"))
}

func TestCharAndStringLiterals(t *testing.T) {
	assert.Equal(t, `'\''`, charLiteral("'"))
	assert.Equal(t, `'\n'`, charLiteral("\n"))
	assert.Equal(t, "'x'", charLiteral("x"))
	assert.Equal(t, `"a\"b\\c"`, stringLiteral(`a"b\c`))
	assert.Equal(t, `"tab\there"`, stringLiteral("tab\there"))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := -1
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "missing %q", needle)
	return idx
}
