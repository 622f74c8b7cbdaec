package model

// Language identifies a supported compiled language.
type Language string

const (
	LangC   Language = "c"
	LangCPP Language = "cpp"
)

// ParamType is the closed set of wire types a solve parameter can have.
type ParamType string

const (
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeDouble ParamType = "double"
	TypeChar   ParamType = "char"
	TypeString ParamType = "string"
	TypeBool   ParamType = "bool"

	TypeArrayInt   ParamType = "array_int"
	TypeArrayFloat ParamType = "array_float"
	TypeArrayChar  ParamType = "array_char"

	TypeVectorInt    ParamType = "vector<int>"
	TypeVectorFloat  ParamType = "vector<float>"
	TypeVectorDouble ParamType = "vector<double>"
	TypeVectorString ParamType = "vector<string>"
)

// FunctionTypeVoid is the only return type that is not also a scalar
// parameter type.
const FunctionTypeVoid = "void"

// ReturnValueKey is the reserved key under which the solve return value
// appears in expected/actual maps.
const ReturnValueKey = "return_value"

var paramTypes = map[ParamType]bool{
	TypeInt: true, TypeFloat: true, TypeDouble: true, TypeChar: true,
	TypeString: true, TypeBool: true,
	TypeArrayInt: true, TypeArrayFloat: true, TypeArrayChar: true,
	TypeVectorInt: true, TypeVectorFloat: true, TypeVectorDouble: true,
	TypeVectorString: true,
}

var scalarTypes = map[ParamType]bool{
	TypeInt: true, TypeFloat: true, TypeDouble: true, TypeChar: true,
	TypeString: true, TypeBool: true,
}

// IsParamType reports whether t is a member of the closed parameter type set.
func IsParamType(t ParamType) bool { return paramTypes[t] }

// IsScalarType reports whether t is a scalar (non-sequence) parameter type.
func IsScalarType(t ParamType) bool { return scalarTypes[t] }

// IsSequenceType reports whether t holds an ordered sequence of elements.
func IsSequenceType(t ParamType) bool { return paramTypes[t] && !scalarTypes[t] }

// IsFunctionType reports whether t is valid as a solve return type.
func IsFunctionType(t string) bool {
	return t == FunctionTypeVoid || scalarTypes[ParamType(t)]
}

// ElemType returns the element type of a sequence type.
func ElemType(t ParamType) ParamType {
	switch t {
	case TypeArrayInt, TypeVectorInt:
		return TypeInt
	case TypeArrayFloat, TypeVectorFloat:
		return TypeFloat
	case TypeVectorDouble:
		return TypeDouble
	case TypeArrayChar:
		return TypeChar
	case TypeVectorString:
		return TypeString
	}
	return ""
}

// Parameter is one ordered entry of the solve signature: a unique name, a
// wire type, and the initial value the generated driver assigns before the
// call.
type Parameter struct {
	Name       string    `json:"name"`
	Type       ParamType `json:"type"`
	InputValue any       `json:"input_value"`
}

// CompilerSettings selects the language standard and extra compile flags.
type CompilerSettings struct {
	Standard     string `json:"standard,omitempty"`
	Flags        string `json:"flags,omitempty"`
	Optimization string `json:"optimization,omitempty"`
}

// TestConfig is one test configuration: the parameter schema with initial
// values, the expected map, and the declared return type. It is both the
// optimized-batch item and the document the codec writes for the harness.
type TestConfig struct {
	SolveParams  []Parameter       `json:"solve_params"`
	Expected     map[string]any    `json:"expected,omitempty"`
	FunctionType string            `json:"function_type"`
	Compiler     *CompilerSettings `json:"compiler_settings,omitempty"`
}

// Submission is an immutable judging request for a single configuration.
type Submission struct {
	Language   Language          `json:"language"`
	SourceCode string            `json:"user_code"`
	Params     []Parameter       `json:"solve_params"`
	Expected   map[string]any    `json:"expected,omitempty"`
	FuncType   string            `json:"function_type"`
	Compiler   *CompilerSettings `json:"compiler_settings,omitempty"`
	Limits     *ResourceLimits   `json:"resource_limits,omitempty"`
}

// Config returns the test configuration embedded in the submission.
func (s *Submission) Config() TestConfig {
	return TestConfig{
		SolveParams:  s.Params,
		Expected:     s.Expected,
		FunctionType: s.FuncType,
		Compiler:     s.Compiler,
	}
}
