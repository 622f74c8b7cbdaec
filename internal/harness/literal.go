package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

// cLiteral renders a normalized config value as a C/C++ literal for the
// given scalar type.
func cLiteral(t model.ParamType, v any) string {
	switch t {
	case model.TypeInt:
		n, _ := codec.Normalize(t, v).(int64)
		return strconv.FormatInt(n, 10)
	case model.TypeFloat, model.TypeDouble:
		f, _ := codec.Normalize(t, v).(float64)
		return formatFloatLiteral(f)
	case model.TypeChar:
		s, _ := v.(string)
		return charLiteral(s)
	case model.TypeString:
		s, _ := v.(string)
		return stringLiteral(s)
	case model.TypeBool:
		if b, _ := v.(bool); b {
			return "true"
		}
		return "false"
	}
	return "0"
}

func formatFloatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// bare integers need a decimal point to stay floating literals
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// charLiteral renders a one-rune string as a C character constant.
func charLiteral(s string) string {
	if s == "" {
		return `'\0'`
	}
	b := s[0]
	switch b {
	case '\'':
		return `'\''`
	case '\\':
		return `'\\'`
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\r':
		return `'\r'`
	}
	if b < 0x20 || b == 0x7f {
		return fmt.Sprintf(`'\%03o'`, b)
	}
	return fmt.Sprintf("'%c'", b)
}

// stringLiteral renders a UTF-8 string as a C string literal. Non-printable
// bytes use octal escapes, which are bounded at three digits and therefore
// safe in front of ordinary characters.
func stringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// sequenceValues returns the elements of a sequence initial value.
func sequenceValues(v any) []any {
	items, _ := v.([]any)
	return items
}

// printfSpec returns the printf verb that prints a scalar of type t in the
// JSON-shaped result-line format. Chars and strings are emitted quoted by
// the generators themselves.
func printfSpec(t model.ParamType) string {
	switch t {
	case model.TypeInt:
		return "%d"
	case model.TypeFloat:
		return "%.9g"
	case model.TypeDouble:
		return "%.17g"
	}
	return "%d"
}
