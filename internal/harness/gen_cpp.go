package harness

import (
	"fmt"
	"strings"

	"github.com/tsukisama9292/judgemicro/internal/model"
)

// GenerateCPP renders the C++ test driver for one configuration. Parameters
// are declared in config order and passed by reference; array and vector
// tags both become std::vector (std::string for strings).
func GenerateCPP(cfg model.TestConfig) (string, error) {
	var b strings.Builder
	b.WriteString("// generated test driver, do not edit\n")
	b.WriteString("#include <cstdio>\n")
	if usesCPPString(cfg) {
		b.WriteString("#include <string>\n")
	}
	if usesCPPVector(cfg) {
		b.WriteString("#include <vector>\n")
	}
	b.WriteString("\n")

	proto, err := cppPrototype(cfg)
	if err != nil {
		return "", err
	}
	b.WriteString(proto)
	b.WriteString("\n\nint main() {\n")

	for _, p := range cfg.SolveParams {
		decl, err := cppDeclaration(p)
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
	}

	b.WriteString("    " + cppCall(cfg) + "\n")

	for _, p := range cfg.SolveParams {
		b.WriteString(cppPrint(p))
	}
	b.WriteString(cppReturnPrint(cfg.FunctionType))

	b.WriteString("    return 0;\n}\n")
	return b.String(), nil
}

func usesCPPString(cfg model.TestConfig) bool {
	if cfg.FunctionType == string(model.TypeString) {
		return true
	}
	for _, p := range cfg.SolveParams {
		if p.Type == model.TypeString || p.Type == model.TypeVectorString {
			return true
		}
	}
	return false
}

func usesCPPVector(cfg model.TestConfig) bool {
	for _, p := range cfg.SolveParams {
		if model.IsSequenceType(p.Type) {
			return true
		}
	}
	return false
}

func cppValueType(t model.ParamType) (string, error) {
	switch t {
	case model.TypeInt:
		return "int", nil
	case model.TypeFloat:
		return "float", nil
	case model.TypeDouble:
		return "double", nil
	case model.TypeChar:
		return "char", nil
	case model.TypeBool:
		return "bool", nil
	case model.TypeString:
		return "std::string", nil
	}
	if model.IsSequenceType(t) {
		elem, err := cppValueType(model.ElemType(t))
		if err != nil {
			return "", err
		}
		return "std::vector<" + elem + ">", nil
	}
	return "", fmt.Errorf("type %q has no C++ representation", t)
}

func cppReturnType(functionType string) (string, error) {
	if functionType == model.FunctionTypeVoid {
		return "void", nil
	}
	return cppValueType(model.ParamType(functionType))
}

func cppPrototype(cfg model.TestConfig) (string, error) {
	ret, err := cppReturnType(cfg.FunctionType)
	if err != nil {
		return "", err
	}
	decls := make([]string, 0, len(cfg.SolveParams))
	for _, p := range cfg.SolveParams {
		t, err := cppValueType(p.Type)
		if err != nil {
			return "", err
		}
		decls = append(decls, fmt.Sprintf("%s& %s", t, p.Name))
	}
	return fmt.Sprintf("%s solve(%s);", ret, strings.Join(decls, ", ")), nil
}

func cppDeclaration(p model.Parameter) (string, error) {
	t, err := cppValueType(p.Type)
	if err != nil {
		return "", err
	}
	if model.IsScalarType(p.Type) {
		return fmt.Sprintf("    %s %s = %s;\n", t, p.Name, cppLiteral(p.Type, p.InputValue)), nil
	}
	items := sequenceValues(p.InputValue)
	if len(items) == 0 {
		return fmt.Sprintf("    %s %s;\n", t, p.Name), nil
	}
	elemType := model.ElemType(p.Type)
	lits := make([]string, len(items))
	for i, item := range items {
		lits[i] = cppLiteral(elemType, item)
	}
	return fmt.Sprintf("    %s %s = {%s};\n", t, p.Name, strings.Join(lits, ", ")), nil
}

func cppLiteral(t model.ParamType, v any) string {
	// C literal syntax is valid C++ for every scalar in the set
	return cLiteral(t, v)
}

func cppCall(cfg model.TestConfig) string {
	args := make([]string, 0, len(cfg.SolveParams))
	for _, p := range cfg.SolveParams {
		args = append(args, p.Name)
	}
	call := fmt.Sprintf("solve(%s);", strings.Join(args, ", "))
	if cfg.FunctionType == model.FunctionTypeVoid {
		return call
	}
	ret, _ := cppReturnType(cfg.FunctionType)
	return fmt.Sprintf("%s ret = %s", ret, call)
}

func cppPrint(p model.Parameter) string {
	if model.IsScalarType(p.Type) {
		return "    " + cppScalarPrint(p.Name, p.Type, p.Name) + "\n"
	}
	elemType := model.ElemType(p.Type)
	var b strings.Builder
	fmt.Fprintf(&b, "    printf(\"%s: [\");\n", p.Name)
	fmt.Fprintf(&b, "    for (size_t i = 0; i < %s.size(); i++) {\n", p.Name)
	b.WriteString("        if (i) printf(\", \");\n")
	b.WriteString("        " + cppElemPrint(p.Name+"[i]", elemType) + "\n")
	b.WriteString("    }\n")
	b.WriteString("    printf(\"]\\n\");\n")
	return b.String()
}

func cppScalarPrint(name string, t model.ParamType, expr string) string {
	switch t {
	case model.TypeChar:
		return fmt.Sprintf("printf(\"%s: \\\"%%c\\\"\\n\", %s);", name, expr)
	case model.TypeString:
		return fmt.Sprintf("printf(\"%s: \\\"%%s\\\"\\n\", %s.c_str());", name, expr)
	case model.TypeBool:
		return fmt.Sprintf("printf(\"%s: %%s\\n\", %s ? \"true\" : \"false\");", name, expr)
	}
	return fmt.Sprintf("printf(\"%s: %s\\n\", %s);", name, printfSpec(t), expr)
}

func cppElemPrint(expr string, elemType model.ParamType) string {
	switch elemType {
	case model.TypeChar:
		return fmt.Sprintf("printf(\"\\\"%%c\\\"\", %s);", expr)
	case model.TypeString:
		return fmt.Sprintf("printf(\"\\\"%%s\\\"\", %s.c_str());", expr)
	}
	return fmt.Sprintf("printf(\"%s\", %s);", printfSpec(elemType), expr)
}

func cppReturnPrint(functionType string) string {
	if functionType == model.FunctionTypeVoid {
		return ""
	}
	t := model.ParamType(functionType)
	return "    " + cppScalarPrint(model.ReturnValueKey, t, "ret") + "\n"
}
