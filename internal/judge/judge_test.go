package judge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/model"
	"github.com/tsukisama9292/judgemicro/internal/sandbox"
)

// fakeManager scripts sandbox behavior for orchestrator tests.
type fakeManager struct {
	mu       sync.Mutex
	acquired int
	released int

	// onExec is invoked for every harness exec; returning a non-nil doc
	// stores it as result.json inside the box.
	onExec func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc)
}

type fakeBox struct {
	m       *fakeManager
	mu      sync.Mutex
	files   map[string][]byte
	uploads map[string]int
	execs   [][]string
	calls   int
}

func (m *fakeManager) Acquire(ctx context.Context, lang languages.Language, limits model.ResourceLimits) (sandbox.Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	return &fakeBox{m: m, files: make(map[string][]byte), uploads: make(map[string]int)}, nil
}

func (m *fakeManager) EnsureImage(ctx context.Context, image string) error { return nil }
func (m *fakeManager) Close() error                                        { return nil }

func (m *fakeManager) releaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (b *fakeBox) ID() string { return "fake-box" }

func (b *fakeBox) Upload(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = append([]byte(nil), data...)
	b.uploads[name]++
	return nil
}

func (b *fakeBox) Exec(ctx context.Context, cmd []string, timeout time.Duration) (*sandbox.ExecResult, error) {
	b.mu.Lock()
	b.execs = append(b.execs, cmd)
	call := b.calls
	b.calls++
	b.mu.Unlock()

	res, doc := b.m.onExec(b, call, cmd)
	if doc != nil {
		data, err := codec.EncodeResult(doc)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.files[resultFile] = data
		b.mu.Unlock()
	} else {
		b.mu.Lock()
		delete(b.files, resultFile)
		b.mu.Unlock()
	}
	return res, nil
}

func (b *fakeBox) Download(ctx context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file %s", name)
	}
	return data, nil
}

func (b *fakeBox) Release() {
	b.m.mu.Lock()
	b.m.released++
	b.m.mu.Unlock()
}

func successDoc(actual map[string]any) *codec.ResultDoc {
	match := true
	return &codec.ResultDoc{
		Status:        string(model.StatusSuccess),
		CompileTimeMs: 100,
		TimeMs:        10,
		Actual:        actual,
		Match:         &match,
	}
}

func newTestJudge(m *fakeManager) *Judge {
	logger := zerolog.Nop()
	return New(m, languages.NewRegistry(), &logger)
}

func testSubmission() model.Submission {
	return model.Submission{
		Language:   model.LangC,
		SourceCode: "int solve(int *a) { *a = 42; return 0; }",
		Params:     []model.Parameter{{Name: "a", Type: model.TypeInt, InputValue: float64(1)}},
		Expected:   map[string]any{"a": float64(42)},
		FuncType:   "int",
	}
}

func TestEvaluateSuccess(t *testing.T) {
	m := &fakeManager{
		onExec: func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
			// user source and config must be in place before the harness runs
			box.mu.Lock()
			_, hasSource := box.files["user.c"]
			_, hasConfig := box.files[configFile]
			box.mu.Unlock()
			require.True(t, hasSource)
			require.True(t, hasConfig)
			return &sandbox.ExecResult{ExitCode: 0, WallMs: 110}, successDoc(map[string]any{"a": int64(42), "return_value": int64(0)})
		},
	}
	j := newTestJudge(m)

	v, err := j.Evaluate(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, v.Status)
	require.NotNil(t, v.Match)
	assert.True(t, *v.Match)
	assert.Equal(t, 1, m.acquired)
	assert.Equal(t, 1, m.releaseCount())
}

func TestEvaluateMissingResultIsInternal(t *testing.T) {
	m := &fakeManager{
		onExec: func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
			return &sandbox.ExecResult{ExitCode: 0}, nil
		},
	}
	j := newTestJudge(m)

	v, err := j.Evaluate(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, model.StatusInternalError, v.Status)
	assert.Equal(t, 1, m.releaseCount())
}

func TestEvaluateCancellationPropagates(t *testing.T) {
	m := &fakeManager{}
	j := newTestJudge(m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.Evaluate(ctx, testSubmission())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.acquired)
}

func TestEvaluateReleasesOnPanic(t *testing.T) {
	m := &fakeManager{
		onExec: func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
			panic("injected")
		},
	}
	j := newTestJudge(m)

	require.Panics(t, func() {
		_, _ = j.Evaluate(context.Background(), testSubmission())
	})
	assert.Equal(t, 1, m.releaseCount())
}

func TestEvaluateOuterDeadline(t *testing.T) {
	m := &fakeManager{
		onExec: func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
			return &sandbox.ExecResult{DeadlineExceeded: true, WallMs: 40500}, nil
		},
	}
	j := newTestJudge(m)

	v, err := j.Evaluate(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompileTimeout, v.Status)
	assert.Equal(t, 1, m.releaseCount())
}

func TestEvaluateBatchPreservesOrder(t *testing.T) {
	m := &fakeManager{
		onExec: func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
			box.mu.Lock()
			confData := box.files[configFile]
			box.mu.Unlock()
			doc, err := codec.DecodeConfig(confData)
			require.NoError(t, err)
			// echo the configured initial value back as the actual value
			v := codec.Normalize(model.TypeInt, doc.SolveParams[0].InputValue)
			return &sandbox.ExecResult{ExitCode: 0}, successDoc(map[string]any{"a": v})
		},
	}
	j := newTestJudge(m)

	subs := make([]model.Submission, 10)
	for i := range subs {
		sub := testSubmission()
		sub.Params = []model.Parameter{{Name: "a", Type: model.TypeInt, InputValue: float64(i)}}
		sub.Expected = nil
		subs[i] = sub
	}

	verdicts, err := j.EvaluateBatch(context.Background(), subs)
	require.NoError(t, err)
	require.Len(t, verdicts, 10)
	for i, v := range verdicts {
		assert.Equal(t, int64(i), v.Actual["a"], "verdict %d", i)
	}
	assert.Equal(t, 10, m.releaseCount())
}

func optimizedConfigs() []model.TestConfig {
	mk := func(a, b int) model.TestConfig {
		return model.TestConfig{
			SolveParams: []model.Parameter{
				{Name: "a", Type: model.TypeInt, InputValue: float64(a)},
				{Name: "b", Type: model.TypeInt, InputValue: float64(b)},
			},
			Expected:     map[string]any{"a": float64(a * 2)},
			FunctionType: "int",
		}
	}
	extra := model.TestConfig{
		SolveParams: []model.Parameter{
			{Name: "a", Type: model.TypeInt, InputValue: float64(1)},
			{Name: "b", Type: model.TypeInt, InputValue: float64(2)},
			{Name: "c", Type: model.TypeInt, InputValue: float64(3)},
		},
		FunctionType: "int",
	}
	return []model.TestConfig{mk(1, 2), mk(3, 4), mk(5, 6), extra}
}

func TestOptimizedBatchCompileOnce(t *testing.T) {
	var boxes []*fakeBox
	m := &fakeManager{}
	m.onExec = func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
		boxes = append(boxes, box)
		doc := successDoc(map[string]any{"a": int64(call)})
		if call == 3 {
			// schema changed: the harness reports it recompiled
			doc.Recompiled = true
		} else if call > 0 {
			doc.CompileTimeMs = 0
		}
		return &sandbox.ExecResult{ExitCode: 0}, doc
	}
	j := newTestJudge(m)

	verdicts, err := j.EvaluateOptimizedBatch(context.Background(), "c",
		"int solve(int *a, int *b) { return 0; }", optimizedConfigs(), nil)
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	// one sandbox for the whole batch
	assert.Equal(t, 1, m.acquired)
	assert.Equal(t, 1, m.releaseCount())

	box := boxes[0]
	require.Len(t, box.execs, 4)
	assert.NotContains(t, box.execs[0], "--skip-compile")
	for i := 1; i < 4; i++ {
		assert.Contains(t, box.execs[i], "--skip-compile", "exec %d", i)
	}

	// verdict order follows config order
	for i, v := range verdicts {
		assert.Equal(t, int64(i), v.Actual["a"], "verdict %d", i)
	}

	// first item compiled, middle ones reused, schema change recompiled
	assert.Greater(t, verdicts[0].Metrics.CompileMs, int64(0))
	assert.False(t, verdicts[1].Metrics.Recompiled)
	assert.Equal(t, int64(0), verdicts[1].Metrics.CompileMs)
	assert.True(t, verdicts[3].Metrics.Recompiled)
}

func TestOptimizedBatchCompileFailureReplicates(t *testing.T) {
	var execCount int
	m := &fakeManager{}
	m.onExec = func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
		execCount++
		return &sandbox.ExecResult{ExitCode: 1}, &codec.ResultDoc{
			Status:   string(model.StatusCompileError),
			Stderr:   "user.c:1: error: expected ';'",
			ExitCode: 1,
		}
	}
	j := newTestJudge(m)

	verdicts, err := j.EvaluateOptimizedBatch(context.Background(), "c",
		"int solve(int *a, int *b) { return 0 }", optimizedConfigs(), nil)
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	assert.Equal(t, 1, execCount, "no work after the shared compile fails")
	for i, v := range verdicts {
		assert.Equal(t, model.StatusCompileError, v.Status, "verdict %d", i)
		assert.Contains(t, v.CompileOutput, "error")
	}
	assert.Equal(t, 1, m.releaseCount())
}

func TestOptimizedBatchPartialFailureContinues(t *testing.T) {
	m := &fakeManager{}
	m.onExec = func(box *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
		if call == 2 {
			return &sandbox.ExecResult{ExitCode: 2}, &codec.ResultDoc{
				Status:   string(model.StatusRuntimeError),
				ExitCode: 139,
				Stderr:   "segfault",
			}
		}
		return &sandbox.ExecResult{ExitCode: 0}, successDoc(map[string]any{"a": int64(call)})
	}
	j := newTestJudge(m)

	verdicts, err := j.EvaluateOptimizedBatch(context.Background(), "c",
		"int solve(int *a, int *b) { return 0; }", optimizedConfigs(), nil)
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	assert.Equal(t, model.StatusSuccess, verdicts[0].Status)
	assert.Equal(t, model.StatusSuccess, verdicts[1].Status)
	assert.Equal(t, model.StatusRuntimeError, verdicts[2].Status)
	assert.Equal(t, 139, verdicts[2].ExitCode)
	assert.Equal(t, model.StatusSuccess, verdicts[3].Status)
}

func TestOptimizedBatchUploadsSourceOnce(t *testing.T) {
	var box *fakeBox
	m := &fakeManager{}
	m.onExec = func(b *fakeBox, call int, cmd []string) (*sandbox.ExecResult, *codec.ResultDoc) {
		box = b
		return &sandbox.ExecResult{ExitCode: 0}, successDoc(nil)
	}
	j := newTestJudge(m)

	configs := optimizedConfigs()
	verdicts, err := j.EvaluateOptimizedBatch(context.Background(), "cpp",
		"int solve(int& a, int& b) { return 0; }", configs, nil)
	require.NoError(t, err)
	require.Len(t, verdicts, len(configs))

	require.NotNil(t, box)
	assert.Equal(t, 1, box.uploads["user.cpp"])
	assert.Equal(t, len(configs), box.uploads[configFile])
}

func TestOptimizedBatchEmpty(t *testing.T) {
	j := newTestJudge(&fakeManager{})
	verdicts, err := j.EvaluateOptimizedBatch(context.Background(), "c", "int solve(void);", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}
