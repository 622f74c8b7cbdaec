package harness

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

// ParseActual scans driver stdout for `name: <literal>` result lines and
// rebuilds the actual map. Only declared parameter names and return_value
// are considered, so ordinary user prints pass through; a user line that
// happens to collide with a declared name is overridden by the driver's own
// line, which is printed last. Values are parsed as JSON literals.
func ParseActual(stdout string, cfg model.TestConfig) map[string]any {
	declared := make(map[string]model.ParamType, len(cfg.SolveParams)+1)
	order := make([]string, 0, len(cfg.SolveParams)+1)
	for _, p := range cfg.SolveParams {
		declared[p.Name] = p.Type
		order = append(order, p.Name)
	}
	if cfg.FunctionType != model.FunctionTypeVoid {
		declared[model.ReturnValueKey] = model.ParamType(cfg.FunctionType)
		order = append(order, model.ReturnValueKey)
	}

	found := make(map[string]any)
	for _, line := range strings.Split(stdout, "\n") {
		name, rest, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		t, isDeclared := declared[name]
		if !isDeclared {
			continue
		}
		v, err := parseLiteral(rest)
		if err != nil {
			continue
		}
		found[name] = codec.Normalize(t, v)
	}

	actual := make(map[string]any, len(found))
	for _, name := range order {
		if v, ok := found[name]; ok {
			actual[name] = v
		}
	}
	return actual
}

func parseLiteral(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(s))))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// CompareExpected checks every declared expected key against the actual
// map using the typed equality rules: exact for integers and floats,
// bytewise for strings, elementwise ordered for sequences. Keys absent from
// actual fail the comparison.
func CompareExpected(cfg model.TestConfig, actual map[string]any) bool {
	for key, want := range cfg.Expected {
		t, ok := expectedType(cfg, key)
		if !ok {
			return false
		}
		got, ok := actual[key]
		if !ok {
			return false
		}
		if !codec.Equal(t, want, got) {
			return false
		}
	}
	return true
}

func expectedType(cfg model.TestConfig, key string) (model.ParamType, bool) {
	if key == model.ReturnValueKey {
		if cfg.FunctionType == model.FunctionTypeVoid {
			return "", false
		}
		return model.ParamType(cfg.FunctionType), true
	}
	for _, p := range cfg.SolveParams {
		if p.Name == key {
			return p.Type, true
		}
	}
	return "", false
}
