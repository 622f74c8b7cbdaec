package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"
)

// ValidationError marks a request that is rejected before any sandbox is
// acquired. It is surfaced as a 4xx by the facade and never becomes a
// Verdict.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the submission against the request contract: known
// language, bounded source, well-formed parameter schema, conforming
// values, and limits within the hard ceilings.
func (s *Submission) Validate() error {
	switch s.Language {
	case LangC, LangCPP:
	default:
		return invalid("language", "unsupported language %q", s.Language)
	}
	if s.SourceCode == "" {
		return invalid("user_code", "source code is empty")
	}
	if len(s.SourceCode) > MaxSourceBytes {
		return invalid("user_code", "source exceeds %d bytes", MaxSourceBytes)
	}
	cfg := s.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.Limits.Validate()
}

// Validate checks one test configuration: unique identifier names, known
// type tags, conforming initial values, expected keys that refer to declared
// parameters, and a valid return type.
func (c *TestConfig) Validate() error {
	seen := make(map[string]bool, len(c.SolveParams))
	for i, p := range c.SolveParams {
		field := fmt.Sprintf("solve_params[%d]", i)
		if !identRe.MatchString(p.Name) {
			return invalid(field, "name %q is not a valid identifier", p.Name)
		}
		if p.Name == ReturnValueKey {
			return invalid(field, "name %q is reserved", ReturnValueKey)
		}
		if seen[p.Name] {
			return invalid(field, "duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true
		if !IsParamType(p.Type) {
			return invalid(field, "unknown type tag %q", p.Type)
		}
		if !ValueConforms(p.Type, p.InputValue) {
			return invalid(field, "input_value does not conform to type %q", p.Type)
		}
	}
	for key, v := range c.Expected {
		if key == ReturnValueKey {
			if c.FunctionType == FunctionTypeVoid {
				return invalid("expected", "return_value expected but function type is void")
			}
			if !ValueConforms(ParamType(c.FunctionType), v) {
				return invalid("expected", "return_value does not conform to function type %q", c.FunctionType)
			}
			continue
		}
		if !seen[key] {
			return invalid("expected", "key %q does not name a parameter", key)
		}
		for _, p := range c.SolveParams {
			if p.Name == key && !ValueConforms(p.Type, v) {
				return invalid("expected", "value for %q does not conform to type %q", key, p.Type)
			}
		}
	}
	if !IsFunctionType(c.FunctionType) {
		return invalid("function_type", "unknown function type %q", c.FunctionType)
	}
	return nil
}

// Validate checks explicit limits against the hard ceilings.
func (l *ResourceLimits) Validate() error {
	if l == nil {
		return nil
	}
	if l.CompileTimeoutS < 0 || l.CompileTimeoutS > MaxCompileTimeoutS {
		return invalid("resource_limits.compile_timeout", "must be within (0, %d] seconds", MaxCompileTimeoutS)
	}
	if l.ExecutionTimeoutS < 0 || l.ExecutionTimeoutS > MaxExecutionTimeoutS {
		return invalid("resource_limits.execution_timeout", "must be within (0, %d] seconds", MaxExecutionTimeoutS)
	}
	if l.MemoryBytes < 0 || l.MemoryBytes > MaxMemoryBytes {
		return invalid("resource_limits.memory_bytes", "must be within (0, %d] bytes", MaxMemoryBytes)
	}
	if l.CPUCores < 0 || l.CPUCores > MaxCPUCores {
		return invalid("resource_limits.cpu_cores", "must be within (0, %.1f] cores", MaxCPUCores)
	}
	return nil
}

// ValueConforms reports whether a decoded JSON value is a legal literal for
// the given type tag. Integers must carry no fractional part; chars are
// one-rune strings; sequences check every element against the element type.
func ValueConforms(t ParamType, v any) bool {
	switch t {
	case TypeInt:
		return isIntValue(v)
	case TypeFloat, TypeDouble:
		return isNumberValue(v)
	case TypeChar:
		s, ok := v.(string)
		return ok && utf8.RuneCountInString(s) == 1
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	}
	if IsSequenceType(t) {
		items, ok := v.([]any)
		if !ok {
			return false
		}
		elem := ElemType(t)
		for _, item := range items {
			if !ValueConforms(elem, item) {
				return false
			}
		}
		return true
	}
	return false
}

func isIntValue(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0) && !math.IsNaN(n)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

func isNumberValue(v any) bool {
	switch n := v.(type) {
	case int, int32, int64, float64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}
