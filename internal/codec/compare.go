package codec

import (
	"encoding/json"
	"math"

	"github.com/tsukisama9292/judgemicro/internal/model"
)

// Normalize converts a decoded JSON literal into its canonical Go value for
// the given type tag: int64 for int, float64 for float/double, string for
// char/string, bool for bool, []any of normalized elements for sequences.
// Values that do not conform are returned unchanged; callers validate first.
func Normalize(t model.ParamType, v any) any {
	switch t {
	case model.TypeInt:
		if n, ok := toInt64(v); ok {
			return n
		}
	case model.TypeFloat, model.TypeDouble:
		if f, ok := toFloat64(v); ok {
			return f
		}
	case model.TypeChar, model.TypeString:
		if s, ok := v.(string); ok {
			return s
		}
	case model.TypeBool:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if model.IsSequenceType(t) {
		items, ok := v.([]any)
		if !ok {
			return v
		}
		elem := model.ElemType(t)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = Normalize(elem, item)
		}
		return out
	}
	return v
}

// Equal compares two literals of the same declared type: exact for integers,
// bytewise for strings, bit-equal for floats, elementwise ordered for
// sequences.
func Equal(t model.ParamType, a, b any) bool {
	if model.IsSequenceType(t) {
		as, aok := Normalize(t, a).([]any)
		bs, bok := Normalize(t, b).([]any)
		if !aok || !bok || len(as) != len(bs) {
			return false
		}
		elem := model.ElemType(t)
		for i := range as {
			if !Equal(elem, as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return Normalize(t, a) == Normalize(t, b)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}
