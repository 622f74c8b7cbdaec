package harness

import (
	"fmt"
	"strings"

	"github.com/tsukisama9292/judgemicro/internal/model"
)

// stringBufSize is the capacity of generated character buffers backing
// mutable string parameters in C. Buffers grow beyond it only when the
// initial value is already longer.
const stringBufSize = 256

// GenerateC renders the C test driver for one configuration. Parameters are
// declared in config order, passed by pointer so user code can mutate them,
// and printed as `name: <literal>` lines after the call. Sequence lengths
// are fixed at generation time from the initial values.
func GenerateC(cfg model.TestConfig) (string, error) {
	var b strings.Builder
	b.WriteString("/* generated test driver, do not edit */\n")
	b.WriteString("#include <stdio.h>\n")
	if usesBool(cfg) {
		b.WriteString("#include <stdbool.h>\n")
	}
	b.WriteString("\n")

	proto, err := cPrototype(cfg)
	if err != nil {
		return "", err
	}
	b.WriteString(proto)
	b.WriteString("\n\nint main(void) {\n")

	if hasSequence(cfg.SolveParams) {
		b.WriteString("    int i;\n")
	}

	for _, p := range cfg.SolveParams {
		decl, err := cDeclaration(p)
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
	}

	b.WriteString("    " + cCall(cfg) + "\n")

	for _, p := range cfg.SolveParams {
		b.WriteString(cPrint(p))
	}
	b.WriteString(cReturnPrint(cfg.FunctionType))

	b.WriteString("    return 0;\n}\n")
	return b.String(), nil
}

func usesBool(cfg model.TestConfig) bool {
	if cfg.FunctionType == string(model.TypeBool) {
		return true
	}
	for _, p := range cfg.SolveParams {
		if p.Type == model.TypeBool {
			return true
		}
	}
	return false
}

func hasSequence(params []model.Parameter) bool {
	for _, p := range params {
		if model.IsSequenceType(p.Type) {
			return true
		}
	}
	return false
}

func cScalarType(t model.ParamType) string {
	switch t {
	case model.TypeInt:
		return "int"
	case model.TypeFloat:
		return "float"
	case model.TypeDouble:
		return "double"
	case model.TypeChar:
		return "char"
	case model.TypeBool:
		return "bool"
	}
	return ""
}

// cParamDecl renders the solve prototype entry for one parameter. Every
// parameter is handed over by address: scalars as pointers, sequences as
// decayed arrays, strings as char pointers.
func cParamDecl(p model.Parameter) (string, error) {
	if s := cScalarType(p.Type); s != "" {
		return fmt.Sprintf("%s *%s", s, p.Name), nil
	}
	switch p.Type {
	case model.TypeString:
		return fmt.Sprintf("char *%s", p.Name), nil
	case model.TypeVectorString:
		return fmt.Sprintf("char (*%s)[%d]", p.Name, stringBufSize), nil
	}
	if model.IsSequenceType(p.Type) {
		elem := cScalarType(model.ElemType(p.Type))
		if elem == "" {
			return "", fmt.Errorf("type %q has no C representation", p.Type)
		}
		return fmt.Sprintf("%s *%s", elem, p.Name), nil
	}
	return "", fmt.Errorf("type %q has no C representation", p.Type)
}

func cReturnType(functionType string) (string, error) {
	if functionType == model.FunctionTypeVoid {
		return "void", nil
	}
	if s := cScalarType(model.ParamType(functionType)); s != "" {
		return s, nil
	}
	if functionType == string(model.TypeString) {
		return "char *", nil
	}
	return "", fmt.Errorf("function type %q has no C representation", functionType)
}

func cPrototype(cfg model.TestConfig) (string, error) {
	ret, err := cReturnType(cfg.FunctionType)
	if err != nil {
		return "", err
	}
	decls := make([]string, 0, len(cfg.SolveParams))
	for _, p := range cfg.SolveParams {
		d, err := cParamDecl(p)
		if err != nil {
			return "", err
		}
		decls = append(decls, d)
	}
	args := "void"
	if len(decls) > 0 {
		args = strings.Join(decls, ", ")
	}
	if strings.HasSuffix(ret, "*") {
		return fmt.Sprintf("%ssolve(%s);", ret, args), nil
	}
	return fmt.Sprintf("%s solve(%s);", ret, args), nil
}

func cDeclaration(p model.Parameter) (string, error) {
	if s := cScalarType(p.Type); s != "" {
		return fmt.Sprintf("    %s %s = %s;\n", s, p.Name, cLiteral(p.Type, p.InputValue)), nil
	}
	switch p.Type {
	case model.TypeString:
		s, _ := p.InputValue.(string)
		size := stringBufSize
		if len(s)+1 > size {
			size = len(s) + 1
		}
		return fmt.Sprintf("    char %s[%d] = %s;\n", p.Name, size, stringLiteral(s)), nil
	case model.TypeVectorString:
		items := sequenceValues(p.InputValue)
		if len(items) == 0 {
			return fmt.Sprintf("    char %s[1][%d] = {\"\"};\n", p.Name, stringBufSize), nil
		}
		lits := make([]string, len(items))
		for i, item := range items {
			s, _ := item.(string)
			lits[i] = stringLiteral(s)
		}
		return fmt.Sprintf("    char %s[%d][%d] = {%s};\n",
			p.Name, len(items), stringBufSize, strings.Join(lits, ", ")), nil
	}
	if model.IsSequenceType(p.Type) {
		elemType := model.ElemType(p.Type)
		elem := cScalarType(elemType)
		if elem == "" {
			return "", fmt.Errorf("type %q has no C representation", p.Type)
		}
		items := sequenceValues(p.InputValue)
		if len(items) == 0 {
			// zero-length sequences still need storage to take an address of
			return fmt.Sprintf("    %s %s[1] = {0};\n", elem, p.Name), nil
		}
		lits := make([]string, len(items))
		for i, item := range items {
			lits[i] = cLiteral(elemType, item)
		}
		return fmt.Sprintf("    %s %s[%d] = {%s};\n", elem, p.Name, len(items), strings.Join(lits, ", ")), nil
	}
	return "", fmt.Errorf("type %q has no C representation", p.Type)
}

func cCall(cfg model.TestConfig) string {
	args := make([]string, 0, len(cfg.SolveParams))
	for _, p := range cfg.SolveParams {
		if model.IsScalarType(p.Type) && p.Type != model.TypeString {
			args = append(args, "&"+p.Name)
		} else {
			args = append(args, p.Name)
		}
	}
	call := fmt.Sprintf("solve(%s);", strings.Join(args, ", "))
	if cfg.FunctionType == model.FunctionTypeVoid {
		return call
	}
	ret, _ := cReturnType(cfg.FunctionType)
	if strings.HasSuffix(ret, "*") {
		return fmt.Sprintf("%sret = %s", ret, call)
	}
	return fmt.Sprintf("%s ret = %s", ret, call)
}

func cPrint(p model.Parameter) string {
	if model.IsScalarType(p.Type) {
		return "    " + cScalarPrint(p.Name, p.Type, p.Name) + "\n"
	}
	items := sequenceValues(p.InputValue)
	elemType := model.ElemType(p.Type)
	var b strings.Builder
	fmt.Fprintf(&b, "    printf(\"%s: [\");\n", p.Name)
	fmt.Fprintf(&b, "    for (i = 0; i < %d; i++) {\n", len(items))
	b.WriteString("        if (i) printf(\", \");\n")
	b.WriteString("        " + cElemPrint(p, elemType) + "\n")
	b.WriteString("    }\n")
	b.WriteString("    printf(\"]\\n\");\n")
	return b.String()
}

func cScalarPrint(name string, t model.ParamType, expr string) string {
	switch t {
	case model.TypeChar:
		return fmt.Sprintf("printf(\"%s: \\\"%%c\\\"\\n\", %s);", name, expr)
	case model.TypeString:
		return fmt.Sprintf("printf(\"%s: \\\"%%s\\\"\\n\", %s);", name, expr)
	case model.TypeBool:
		return fmt.Sprintf("printf(\"%s: %%s\\n\", %s ? \"true\" : \"false\");", name, expr)
	}
	return fmt.Sprintf("printf(\"%s: %s\\n\", %s);", name, printfSpec(t), expr)
}

func cElemPrint(p model.Parameter, elemType model.ParamType) string {
	expr := fmt.Sprintf("%s[i]", p.Name)
	switch elemType {
	case model.TypeChar:
		return fmt.Sprintf("printf(\"\\\"%%c\\\"\", %s);", expr)
	case model.TypeString:
		return fmt.Sprintf("printf(\"\\\"%%s\\\"\", %s);", expr)
	}
	return fmt.Sprintf("printf(\"%s\", %s);", printfSpec(elemType), expr)
}

func cReturnPrint(functionType string) string {
	if functionType == model.FunctionTypeVoid {
		return ""
	}
	t := model.ParamType(functionType)
	return "    " + cScalarPrint(model.ReturnValueKey, t, "ret") + "\n"
}
