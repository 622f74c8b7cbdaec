package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Language:   LangC,
		SourceCode: "int solve(int *a) { *a = 42; return 0; }",
		Params: []Parameter{
			{Name: "a", Type: TypeInt, InputValue: float64(1)},
		},
		Expected: map[string]any{"a": float64(42)},
		FuncType: "int",
	}
}

func TestValidateOK(t *testing.T) {
	sub := validSubmission()
	require.NoError(t, sub.Validate())
}

func TestValidateRejectsUnknownLanguage(t *testing.T) {
	sub := validSubmission()
	sub.Language = "python"
	err := sub.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestValidateRejectsOversizeSource(t *testing.T) {
	sub := validSubmission()
	sub.SourceCode = strings.Repeat("x", MaxSourceBytes+1)
	require.Error(t, sub.Validate())
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	sub := validSubmission()
	sub.Params = append(sub.Params, Parameter{Name: "a", Type: TypeInt, InputValue: float64(2)})
	err := sub.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateRejectsReservedName(t *testing.T) {
	sub := validSubmission()
	sub.Params[0].Name = ReturnValueKey
	require.Error(t, sub.Validate())
}

func TestValidateRejectsBadIdentifier(t *testing.T) {
	sub := validSubmission()
	sub.Params[0].Name = "1bad"
	require.Error(t, sub.Validate())
}

func TestValidateRejectsUnknownType(t *testing.T) {
	sub := validSubmission()
	sub.Params[0].Type = "int128"
	require.Error(t, sub.Validate())
}

func TestValidateRejectsNonConformingValue(t *testing.T) {
	sub := validSubmission()
	sub.Params[0].InputValue = "three"
	require.Error(t, sub.Validate())

	sub = validSubmission()
	sub.Params[0].InputValue = 1.5 // fractional part on an int
	require.Error(t, sub.Validate())
}

func TestValidateRejectsUnknownExpectedKey(t *testing.T) {
	sub := validSubmission()
	sub.Expected = map[string]any{"b": float64(1)}
	err := sub.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")
}

func TestValidateRejectsReturnValueForVoid(t *testing.T) {
	sub := validSubmission()
	sub.FuncType = FunctionTypeVoid
	sub.Expected = map[string]any{ReturnValueKey: float64(0)}
	require.Error(t, sub.Validate())
}

func TestValidateLimitsCeilings(t *testing.T) {
	sub := validSubmission()
	sub.Limits = &ResourceLimits{ExecutionTimeoutS: MaxExecutionTimeoutS + 1}
	require.Error(t, sub.Validate())

	sub.Limits = &ResourceLimits{MemoryBytes: MaxMemoryBytes + 1}
	require.Error(t, sub.Validate())

	sub.Limits = &ResourceLimits{CPUCores: 4.5}
	require.Error(t, sub.Validate())

	sub.Limits = &ResourceLimits{
		CompileTimeoutS:   MaxCompileTimeoutS,
		ExecutionTimeoutS: MaxExecutionTimeoutS,
		MemoryBytes:       MaxMemoryBytes,
		CPUCores:          MaxCPUCores,
	}
	require.NoError(t, sub.Validate())
}

func TestValueConformsSequences(t *testing.T) {
	assert.True(t, ValueConforms(TypeArrayInt, []any{float64(1), float64(2)}))
	assert.True(t, ValueConforms(TypeArrayInt, []any{}))
	assert.False(t, ValueConforms(TypeArrayInt, []any{1.5}))
	assert.True(t, ValueConforms(TypeVectorString, []any{"a", "bc"}))
	assert.False(t, ValueConforms(TypeVectorString, []any{float64(1)}))
	assert.True(t, ValueConforms(TypeArrayChar, []any{"a", "b"}))
	assert.False(t, ValueConforms(TypeArrayChar, []any{"ab"}))
}

func TestWithDefaults(t *testing.T) {
	var l *ResourceLimits
	eff := l.WithDefaults()
	assert.Equal(t, DefaultCompileTimeoutS, eff.CompileTimeoutS)
	assert.Equal(t, DefaultExecutionTimeoutS, eff.ExecutionTimeoutS)
	assert.Equal(t, int64(DefaultMemoryBytes), eff.MemoryBytes)
	assert.Equal(t, DefaultCPUCores, eff.CPUCores)

	part := &ResourceLimits{ExecutionTimeoutS: 5}
	eff = part.WithDefaults()
	assert.Equal(t, 5, eff.ExecutionTimeoutS)
	assert.Equal(t, DefaultCompileTimeoutS, eff.CompileTimeoutS)
}

func TestSchemaHash(t *testing.T) {
	params := []Parameter{
		{Name: "a", Type: TypeInt, InputValue: float64(1)},
		{Name: "b", Type: TypeString, InputValue: "x"},
	}
	h1 := SchemaHash(params, "int")

	// initial values do not participate
	params[0].InputValue = float64(99)
	assert.Equal(t, h1, SchemaHash(params, "int"))

	// order does
	swapped := []Parameter{params[1], params[0]}
	assert.NotEqual(t, h1, SchemaHash(swapped, "int"))

	// so do types, names and the function type
	assert.NotEqual(t, h1, SchemaHash(params, "void"))
	renamed := []Parameter{{Name: "c", Type: TypeInt}, params[1]}
	assert.NotEqual(t, h1, SchemaHash(renamed, "int"))
}
