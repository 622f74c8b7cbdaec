// Package codec owns the two on-disk documents the judge exchanges with the
// in-container harness: the per-test config document and the result document
// the harness writes back. Numeric decoding is unambiguous by construction:
// integers are 64-bit signed, floats are IEEE-754 doubles.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tsukisama9292/judgemicro/internal/model"
)

// ConfigDoc is the wire shape of the per-test configuration read by the
// harness inside the sandbox.
type ConfigDoc struct {
	SolveParams  []model.Parameter `json:"solve_params"`
	Expected     map[string]any    `json:"expected,omitempty"`
	FunctionType string            `json:"function_type"`

	CStandard     string `json:"c_standard,omitempty"`
	CPPStandard   string `json:"cpp_standard,omitempty"`
	CompilerFlags string `json:"compiler_flags,omitempty"`
}

// Compiler defaults per language.
const (
	DefaultCStandard   = "c99"
	DefaultCFlags      = "-Wall -Wextra"
	DefaultCPPStandard = "cpp17"
	DefaultCPPFlags    = "-Wall -Wextra -O2"
)

// EncodeConfig renders a test configuration into the config document for the
// given language, resolving compiler defaults. The standard is keyed
// c_standard or cpp_standard depending on the language.
func EncodeConfig(lang model.Language, cfg model.TestConfig) ([]byte, error) {
	doc := ConfigDoc{
		SolveParams:  cfg.SolveParams,
		Expected:     cfg.Expected,
		FunctionType: cfg.FunctionType,
	}
	standard, flags := ResolveCompiler(lang, cfg.Compiler)
	switch lang {
	case model.LangC:
		doc.CStandard = standard
	case model.LangCPP:
		doc.CPPStandard = standard
	default:
		return nil, fmt.Errorf("encode config: unsupported language %q", lang)
	}
	doc.CompilerFlags = flags

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// ResolveCompiler merges explicit compiler settings with the per-language
// defaults. The optimization field is folded onto the flags.
func ResolveCompiler(lang model.Language, cs *model.CompilerSettings) (standard, flags string) {
	switch lang {
	case model.LangCPP:
		standard, flags = DefaultCPPStandard, DefaultCPPFlags
	default:
		standard, flags = DefaultCStandard, DefaultCFlags
	}
	if cs == nil {
		return standard, flags
	}
	if cs.Standard != "" {
		standard = cs.Standard
	}
	if cs.Flags != "" {
		flags = cs.Flags
	}
	if cs.Optimization != "" {
		flags = flags + " " + cs.Optimization
	}
	return standard, flags
}

// DecodeConfig parses a config document. Numbers are kept as json.Number so
// integer literals survive without float rounding.
func DecodeConfig(data []byte) (*ConfigDoc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc ConfigDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if doc.FunctionType == "" {
		return nil, fmt.Errorf("decode config: function_type is missing")
	}
	return &doc, nil
}

// TestConfig converts the wire document back into the model form.
func (d *ConfigDoc) TestConfig() model.TestConfig {
	cfg := model.TestConfig{
		SolveParams:  d.SolveParams,
		Expected:     d.Expected,
		FunctionType: d.FunctionType,
	}
	standard := d.CStandard
	if standard == "" {
		standard = d.CPPStandard
	}
	if standard != "" || d.CompilerFlags != "" {
		cfg.Compiler = &model.CompilerSettings{Standard: standard, Flags: d.CompilerFlags}
	}
	return cfg
}

// ResultDoc is the wire shape of the result document the harness writes.
type ResultDoc struct {
	Status   string `json:"status"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`

	CompileTimeMs int64   `json:"compile_time_ms"`
	TimeMs        int64   `json:"time_ms"`
	CPUUtime      float64 `json:"cpu_utime"`
	CPUStime      float64 `json:"cpu_stime"`
	MaxRSSMB      float64 `json:"maxrss_mb"`

	Expected map[string]any `json:"expected,omitempty"`
	Actual   map[string]any `json:"actual,omitempty"`
	Match    *bool          `json:"match,omitempty"`

	Recompiled bool   `json:"recompiled,omitempty"`
	Error      string `json:"error,omitempty"`
}

// EncodeResult renders a result document.
func EncodeResult(doc *ResultDoc) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeResult parses a result document written by the harness.
func DecodeResult(data []byte) (*ResultDoc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc ResultDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if doc.Status == "" {
		return nil, fmt.Errorf("decode result: status is missing")
	}
	return &doc, nil
}

// VerdictSkeleton maps a parsed result document onto a Verdict. The
// classifier finalizes status and match afterwards.
func VerdictSkeleton(doc *ResultDoc) model.Verdict {
	v := model.Verdict{
		Status:      model.Status(doc.Status),
		Match:       doc.Match,
		Expected:    doc.Expected,
		Actual:      doc.Actual,
		Stdout:      doc.Stdout,
		Stderr:      doc.Stderr,
		ExitCode:    doc.ExitCode,
		ErrorDetail: doc.Error,
		Metrics: model.Metrics{
			WallMs:         doc.TimeMs,
			CompileMs:      doc.CompileTimeMs,
			UserCPUSeconds: doc.CPUUtime,
			SysCPUSeconds:  doc.CPUStime,
			MaxRSSBytes:    int64(doc.MaxRSSMB * float64(1<<20)),
			Recompiled:     doc.Recompiled,
		},
	}
	return v
}
