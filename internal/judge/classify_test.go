package judge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/model"
	"github.com/tsukisama9292/judgemicro/internal/sandbox"
)

func TestClassifyOuterDeadlineRunPhase(t *testing.T) {
	exec := &sandbox.ExecResult{DeadlineExceeded: true, WallMs: 10500}
	doc := &codec.ResultDoc{Status: "RUNTIME_ERROR", CompileTimeMs: 200}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusTimeout, v.Status)
	assert.Nil(t, v.Match)
}

func TestClassifyOuterDeadlineCompilePhase(t *testing.T) {
	// no result document at all: the compile never finished
	exec := &sandbox.ExecResult{DeadlineExceeded: true, WallMs: 30400}
	v := Classify(exec, nil, nil)
	assert.Equal(t, model.StatusCompileTimeout, v.Status)
	assert.Equal(t, int64(30400), v.Metrics.WallMs)
}

func TestClassifyOuterDeadlineCompileFailureDoc(t *testing.T) {
	exec := &sandbox.ExecResult{DeadlineExceeded: true}
	doc := &codec.ResultDoc{Status: "COMPILE_ERROR", CompileTimeMs: 5000}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusCompileTimeout, v.Status)
}

func TestClassifyMissingDocument(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 0, Stderr: "boom", WallMs: 7}
	v := Classify(exec, nil, nil)
	assert.Equal(t, model.StatusInternalError, v.Status)
	assert.Equal(t, "boom", v.Stderr)
	assert.NotEmpty(t, v.ErrorDetail)
}

func TestClassifyMalformedDocument(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 0}
	v := Classify(exec, nil, errors.New("decode result: unexpected EOF"))
	assert.Equal(t, model.StatusInternalError, v.Status)
	assert.Contains(t, v.ErrorDetail, "unexpected EOF")
}

func TestClassifyHarnessInternalExit(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 3}
	doc := &codec.ResultDoc{Status: "SUCCESS"}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusInternalError, v.Status)
}

func TestClassifyAdoptsHarnessStatus(t *testing.T) {
	match := true
	exec := &sandbox.ExecResult{ExitCode: 0}
	doc := &codec.ResultDoc{
		Status:        "SUCCESS",
		Match:         &match,
		CompileTimeMs: 150,
		TimeMs:        12,
		Actual:        map[string]any{"a": int64(6)},
	}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusSuccess, v.Status)
	require.NotNil(t, v.Match)
	assert.True(t, *v.Match)
	assert.Equal(t, int64(150), v.Metrics.CompileMs)
}

func TestClassifyNormalizesSynonyms(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 2}
	v := Classify(exec, &codec.ResultDoc{Status: "TIMEOUT_ERROR"}, nil)
	assert.Equal(t, model.StatusTimeout, v.Status)

	exec = &sandbox.ExecResult{ExitCode: 0}
	v = Classify(exec, &codec.ResultDoc{Status: "ERROR", Error: "oops"}, nil)
	assert.Equal(t, model.StatusInternalError, v.Status)
}

func TestClassifyUnknownStatus(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 0}
	v := Classify(exec, &codec.ResultDoc{Status: "PARTIALLY_OK"}, nil)
	assert.Equal(t, model.StatusInternalError, v.Status)
}

func TestClassifyWrongAnswerMatchFalse(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 0}
	doc := &codec.ResultDoc{Status: "WRONG_ANSWER"}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusWrongAnswer, v.Status)
	require.NotNil(t, v.Match)
	assert.False(t, *v.Match)
}

func TestClassifyCompileErrorCarriesOutput(t *testing.T) {
	exec := &sandbox.ExecResult{ExitCode: 1}
	doc := &codec.ResultDoc{
		Status:   "COMPILE_ERROR",
		Stderr:   "user.c:1: error: expected ';'",
		ExitCode: 1,
	}
	v := Classify(exec, doc, nil)
	assert.Equal(t, model.StatusCompileError, v.Status)
	assert.Contains(t, v.CompileOutput, "error")
	assert.Nil(t, v.Match)
}

func TestClassifyStatusSetIsClosed(t *testing.T) {
	// verdict totality: whatever comes in, the status is from the closed set
	inputs := []struct {
		exec *sandbox.ExecResult
		doc  *codec.ResultDoc
		err  error
	}{
		{&sandbox.ExecResult{DeadlineExceeded: true}, nil, nil},
		{&sandbox.ExecResult{ExitCode: 42}, nil, nil},
		{&sandbox.ExecResult{}, &codec.ResultDoc{Status: "???"}, nil},
		{&sandbox.ExecResult{}, &codec.ResultDoc{Status: "SUCCESS"}, nil},
		{&sandbox.ExecResult{}, nil, errors.New("x")},
	}
	for _, in := range inputs {
		v := Classify(in.exec, in.doc, in.err)
		assert.True(t, model.KnownStatus(v.Status), "status %q", v.Status)
	}
}
