// Package harness implements the in-container test driver: it reads a config
// document, synthesizes a test main around the user source, compiles and
// runs it under resource accounting, and writes a result document. The same
// binary ships in every language image.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

// Exit codes of the harness binary.
const (
	ExitRunPath        = 0 // SUCCESS or WRONG_ANSWER
	ExitCompileFailure = 1 // COMPILE_ERROR or COMPILE_TIMEOUT
	ExitRunFailure     = 2 // RUNTIME_ERROR or TIMEOUT
	ExitInternal       = 3 // harness-level failures
)

// Well-known file names inside the sandbox workdir.
const (
	RunnerFile = "test_runner"
	SchemaFile = "schema.sha"
)

// Options parameterizes one harness invocation.
type Options struct {
	ConfigPath string
	OutPath    string

	// Lang selects the generator; when empty it is detected from which
	// user source file exists in the workdir.
	Lang model.Language

	// SkipCompile requests reuse of an existing test_runner. The runner is
	// reused only when the stored schema hash matches the config; otherwise
	// the harness recompiles and reports recompiled=true.
	SkipCompile bool

	CompileTimeout   time.Duration
	ExecutionTimeout time.Duration
}

// Run executes the full harness pipeline and returns the process exit code.
// A result document is written on every path; the harness never aborts
// without one.
func Run(ctx context.Context, opts Options) int {
	if opts.CompileTimeout <= 0 {
		opts.CompileTimeout = model.DefaultLimits().CompileTimeout()
	}
	if opts.ExecutionTimeout <= 0 {
		opts.ExecutionTimeout = model.DefaultLimits().ExecutionTimeout()
	}
	workdir := filepath.Dir(opts.ConfigPath)

	code, doc := run(ctx, workdir, opts)
	if err := writeResult(opts.OutPath, doc); err != nil {
		fmt.Fprintf(os.Stderr, "harness: write result: %v\n", err)
		return ExitInternal
	}
	return code
}

func run(ctx context.Context, workdir string, opts Options) (int, *codec.ResultDoc) {
	raw, err := os.ReadFile(opts.ConfigPath)
	if err != nil {
		return ExitInternal, internalDoc(fmt.Sprintf("read config: %v", err))
	}
	confDoc, err := codec.DecodeConfig(raw)
	if err != nil {
		return ExitInternal, internalDoc(err.Error())
	}
	cfg := confDoc.TestConfig()
	if err := cfg.Validate(); err != nil {
		return ExitInternal, internalDoc(err.Error())
	}

	lang := opts.Lang
	if lang == "" {
		lang = detectLanguage(workdir)
	}

	compileMs, recompiled, doc := ensureRunner(ctx, workdir, lang, confDoc, cfg, opts)
	if doc != nil {
		if doc.Status == string(model.StatusCompileError) || doc.Status == string(model.StatusCompileTimeout) {
			return ExitCompileFailure, doc
		}
		return ExitInternal, doc
	}

	outcome, err := runCommand(ctx, workdir, opts.ExecutionTimeout, "./"+RunnerFile)
	if err != nil {
		return ExitInternal, internalDoc(fmt.Sprintf("start test runner: %v", err))
	}

	result := &codec.ResultDoc{
		Stdout:        outcome.Stdout,
		Stderr:        outcome.Stderr,
		ExitCode:      outcome.ExitCode,
		CompileTimeMs: compileMs,
		TimeMs:        outcome.WallMs,
		CPUUtime:      outcome.UserCPUSeconds,
		CPUStime:      outcome.SysCPUSeconds,
		MaxRSSMB:      float64(outcome.MaxRSSKiB) / 1024,
		Recompiled:    recompiled,
	}

	if outcome.TimedOut {
		result.Status = string(model.StatusTimeout)
		result.Error = fmt.Sprintf("execution exceeded timeout limit of %v", opts.ExecutionTimeout)
		return ExitRunFailure, result
	}
	if outcome.ExitCode != 0 {
		result.Status = string(model.StatusRuntimeError)
		result.Error = fmt.Sprintf("test runner exited with code %d", outcome.ExitCode)
		return ExitRunFailure, result
	}

	actual := ParseActual(outcome.Stdout, cfg)
	result.Actual = actual
	if len(cfg.Expected) > 0 {
		result.Expected = cfg.Expected
		match := CompareExpected(cfg, actual)
		result.Match = &match
		if match {
			result.Status = string(model.StatusSuccess)
		} else {
			result.Status = string(model.StatusWrongAnswer)
		}
	} else {
		result.Status = string(model.StatusSuccess)
	}
	return ExitRunPath, result
}

// ensureRunner produces the compiled test runner, reusing an existing one
// when permitted. A non-nil doc return is a compile-path failure or, with
// status ERROR, a harness-level failure.
func ensureRunner(ctx context.Context, workdir string, lang model.Language, confDoc *codec.ConfigDoc, cfg model.TestConfig, opts Options) (compileMs int64, recompiled bool, doc *codec.ResultDoc) {
	hash := model.SchemaHash(cfg.SolveParams, cfg.FunctionType)
	if opts.SkipCompile {
		if runnerReusable(workdir, hash) {
			return 0, false, nil
		}
		recompiled = true
	}

	source, err := generate(lang, cfg)
	if err != nil {
		return 0, recompiled, internalDoc(err.Error())
	}
	mainFile := "test_main." + sourceExt(lang)
	if err := os.WriteFile(filepath.Join(workdir, mainFile), []byte(source), 0o644); err != nil {
		return 0, recompiled, internalDoc(fmt.Sprintf("write driver: %v", err))
	}

	name, args := compileCommand(lang, confDoc, mainFile)
	outcome, err := runCommand(ctx, workdir, opts.CompileTimeout, name, args...)
	if err != nil {
		return 0, recompiled, internalDoc(fmt.Sprintf("start compiler: %v", err))
	}
	compileMs = outcome.WallMs

	if outcome.TimedOut {
		return compileMs, recompiled, &codec.ResultDoc{
			Status:        string(model.StatusCompileTimeout),
			Stderr:        outcome.Stderr,
			ExitCode:      outcome.ExitCode,
			CompileTimeMs: compileMs,
			Recompiled:    recompiled,
			Error:         fmt.Sprintf("compilation exceeded timeout limit of %v", opts.CompileTimeout),
		}
	}
	if outcome.ExitCode != 0 {
		return compileMs, recompiled, &codec.ResultDoc{
			Status:        string(model.StatusCompileError),
			Stderr:        outcome.Stderr,
			ExitCode:      outcome.ExitCode,
			CompileTimeMs: compileMs,
			Recompiled:    recompiled,
			Error:         "compilation failed",
		}
	}

	if err := os.WriteFile(filepath.Join(workdir, SchemaFile), []byte(hash), 0o644); err != nil {
		return compileMs, recompiled, internalDoc(fmt.Sprintf("write schema hash: %v", err))
	}
	return compileMs, recompiled, nil
}

func runnerReusable(workdir, hash string) bool {
	if _, err := os.Stat(filepath.Join(workdir, RunnerFile)); err != nil {
		return false
	}
	stored, err := os.ReadFile(filepath.Join(workdir, SchemaFile))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(stored)) == hash
}

func generate(lang model.Language, cfg model.TestConfig) (string, error) {
	switch lang {
	case model.LangCPP:
		return GenerateCPP(cfg)
	default:
		return GenerateC(cfg)
	}
}

func sourceExt(lang model.Language) string {
	if lang == model.LangCPP {
		return "cpp"
	}
	return "c"
}

func detectLanguage(workdir string) model.Language {
	if _, err := os.Stat(filepath.Join(workdir, "user.cpp")); err == nil {
		return model.LangCPP
	}
	return model.LangC
}

// compileCommand builds the compiler invocation for the language, standard
// and flags of the config document.
func compileCommand(lang model.Language, doc *codec.ConfigDoc, mainFile string) (string, []string) {
	var name, standard, userFile string
	switch lang {
	case model.LangCPP:
		name = "g++"
		standard = CompileStandard(lang, doc.CPPStandard)
		userFile = "user.cpp"
	default:
		name = "gcc"
		standard = CompileStandard(lang, doc.CStandard)
		userFile = "user.c"
	}
	args := []string{"-std=" + standard}
	args = append(args, strings.Fields(doc.CompilerFlags)...)
	args = append(args, userFile, mainFile, "-o", RunnerFile)
	if lang == model.LangC {
		args = append(args, "-lm")
	}
	return name, args
}

// CompileStandard maps a wire standard tag onto the -std= spelling. C++
// tags accept both the cppNN and c++NN forms.
func CompileStandard(lang model.Language, standard string) string {
	if standard == "" {
		if lang == model.LangCPP {
			return "c++17"
		}
		return "c99"
	}
	if lang == model.LangCPP && strings.HasPrefix(standard, "cpp") {
		return "c++" + strings.TrimPrefix(standard, "cpp")
	}
	return standard
}

func internalDoc(detail string) *codec.ResultDoc {
	// ERROR is the legacy spelling; the classifier maps it to INTERNAL_ERROR
	return &codec.ResultDoc{
		Status: "ERROR",
		Error:  detail,
	}
}

func writeResult(path string, doc *codec.ResultDoc) error {
	data, err := codec.EncodeResult(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
