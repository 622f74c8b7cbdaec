// Package judge orchestrates evaluations: it owns the sandbox for the
// duration of a request, drives the in-container harness, and funnels every
// outcome through the classifier.
package judge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/metrics"
	"github.com/tsukisama9292/judgemicro/internal/model"
	"github.com/tsukisama9292/judgemicro/internal/sandbox"
)

const (
	configFile = "config.json"
	resultFile = "result.json"
)

type Judge struct {
	sandboxes sandbox.Manager
	registry  *languages.Registry
	logger    *zerolog.Logger
}

func New(sandboxes sandbox.Manager, registry *languages.Registry, logger *zerolog.Logger) *Judge {
	return &Judge{
		sandboxes: sandboxes,
		registry:  registry,
		logger:    logger,
	}
}

// Evaluate judges a single submission. The returned error is non-nil only
// for caller cancellation; every other failure becomes an INTERNAL_ERROR
// verdict so each submission yields exactly one verdict.
func (j *Judge) Evaluate(ctx context.Context, sub model.Submission) (model.Verdict, error) {
	start := time.Now()
	lang, err := j.registry.Get(string(sub.Language))
	if err != nil {
		return model.InternalVerdict(fmt.Sprintf("language %q not registered", sub.Language)), nil
	}
	limits := sub.Limits.WithDefaults()

	box, err := j.sandboxes.Acquire(ctx, lang, limits)
	if err != nil {
		if ctx.Err() != nil {
			return model.Verdict{}, ctx.Err()
		}
		return model.InternalVerdict(fmt.Sprintf("sandbox acquisition failed: %v", err)), nil
	}
	defer box.Release()

	verdict, err := j.runOne(ctx, box, lang, limits, sub.SourceCode, sub.Config(), false)
	if err != nil {
		return model.Verdict{}, err
	}
	j.observe(lang.ID, verdict, time.Since(start))
	return verdict, nil
}

// EvaluateBatch judges independent submissions concurrently and returns
// verdicts in request order.
func (j *Judge) EvaluateBatch(ctx context.Context, subs []model.Submission) ([]model.Verdict, error) {
	verdicts := make([]model.Verdict, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		g.Go(func() error {
			v, err := j.Evaluate(gctx, sub)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// EvaluateOptimizedBatch judges many configurations of one source inside a
// single sandbox, compiling once per parameter schema. If the first compile
// fails, its verdict is replicated for every configuration and no further
// work happens.
func (j *Judge) EvaluateOptimizedBatch(ctx context.Context, langID string, source string, configs []model.TestConfig, limits *model.ResourceLimits) ([]model.Verdict, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	start := time.Now()
	lang, err := j.registry.Get(langID)
	if err != nil {
		return replicate(model.InternalVerdict(fmt.Sprintf("language %q not registered", langID)), len(configs)), nil
	}
	eff := limits.WithDefaults()

	box, err := j.sandboxes.Acquire(ctx, lang, eff)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return replicate(model.InternalVerdict(fmt.Sprintf("sandbox acquisition failed: %v", err)), len(configs)), nil
	}
	defer box.Release()

	if err := box.Upload(ctx, lang.Config.SourceFile, []byte(source)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return replicate(model.InternalVerdict(fmt.Sprintf("source upload failed: %v", err)), len(configs)), nil
	}

	verdicts := make([]model.Verdict, len(configs))
	for i, cfg := range configs {
		v, err := j.runOne(ctx, box, lang, eff, "", cfg, i > 0)
		if err != nil {
			return nil, err
		}
		if i == 0 && (v.Status == model.StatusCompileError || v.Status == model.StatusCompileTimeout) {
			// shared compile failed: every configuration gets the same verdict
			return replicate(v, len(configs)), nil
		}
		if v.Metrics.Recompiled {
			metrics.BatchRecompiles.Inc()
		}
		metrics.EvaluationsTotal.WithLabelValues(langID, string(v.Status)).Inc()
		verdicts[i] = v
	}

	j.logger.Info().
		Str("language", langID).
		Int("configs", len(configs)).
		Dur("elapsed", time.Since(start)).
		Msg("optimized batch finished")
	return verdicts, nil
}

// runOne drives the harness for one configuration inside an already
// acquired box. source is uploaded when non-empty; skipCompile asks the
// harness to reuse the compiled runner when the parameter schema allows.
func (j *Judge) runOne(ctx context.Context, box sandbox.Box, lang languages.Language, limits model.ResourceLimits, source string, cfg model.TestConfig, skipCompile bool) (model.Verdict, error) {
	fail := func(format string, args ...any) (model.Verdict, error) {
		if ctx.Err() != nil {
			return model.Verdict{}, ctx.Err()
		}
		return model.InternalVerdict(fmt.Sprintf(format, args...)), nil
	}

	if source != "" {
		if err := box.Upload(ctx, lang.Config.SourceFile, []byte(source)); err != nil {
			return fail("source upload failed: %v", err)
		}
	}

	confData, err := codec.EncodeConfig(model.Language(lang.ID), cfg)
	if err != nil {
		return model.InternalVerdict(err.Error()), nil
	}
	if err := box.Upload(ctx, configFile, confData); err != nil {
		return fail("config upload failed: %v", err)
	}

	cmd := []string{
		lang.Config.HarnessPath,
		"--lang", lang.ID,
		"--compile-timeout", strconv.Itoa(limits.CompileTimeoutS),
		"--exec-timeout", strconv.Itoa(limits.ExecutionTimeoutS),
	}
	if skipCompile {
		cmd = append(cmd, "--skip-compile")
	}
	cmd = append(cmd, configFile, resultFile)

	deadline := limits.CompileTimeout() + limits.ExecutionTimeout()
	execRes, err := box.Exec(ctx, cmd, deadline)
	if err != nil {
		return fail("harness exec failed: %v", err)
	}

	var doc *codec.ResultDoc
	var parseErr error
	data, err := box.Download(ctx, resultFile)
	if err != nil {
		if ctx.Err() != nil {
			return model.Verdict{}, ctx.Err()
		}
		if !execRes.DeadlineExceeded {
			parseErr = fmt.Errorf("result download failed: %w", err)
		}
	} else {
		doc, parseErr = codec.DecodeResult(data)
	}

	verdict := Classify(execRes, doc, parseErr)
	j.logger.Debug().
		Str("sandbox", box.ID()).
		Str("language", lang.ID).
		Str("status", string(verdict.Status)).
		Int64("wall_ms", verdict.Metrics.WallMs).
		Msg("evaluation classified")
	return verdict, nil
}

func (j *Judge) observe(langID string, v model.Verdict, elapsed time.Duration) {
	metrics.EvaluationsTotal.WithLabelValues(langID, string(v.Status)).Inc()
	metrics.EvaluationDuration.WithLabelValues(langID, "compile").Observe(float64(v.Metrics.CompileMs))
	metrics.EvaluationDuration.WithLabelValues(langID, "run").Observe(float64(v.Metrics.WallMs))
	metrics.EvaluationDuration.WithLabelValues(langID, "total").Observe(float64(elapsed.Milliseconds()))
	if v.Metrics.MaxRSSBytes > 0 {
		metrics.MaxRSS.WithLabelValues(langID).Observe(float64(v.Metrics.MaxRSSBytes))
	}
}

func replicate(v model.Verdict, n int) []model.Verdict {
	out := make([]model.Verdict, n)
	for i := range out {
		out[i] = v
	}
	return out
}
