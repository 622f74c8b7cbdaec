package judge

import (
	"github.com/tsukisama9292/judgemicro/internal/codec"
	"github.com/tsukisama9292/judgemicro/internal/harness"
	"github.com/tsukisama9292/judgemicro/internal/model"
	"github.com/tsukisama9292/judgemicro/internal/sandbox"
)

// Classify is the single funnel from raw observations to a canonical
// Verdict. Inputs: the sandbox exec outcome, the parsed result document (nil
// when missing) and its parse error. First matching rule wins:
//
//  1. outer-deadline kill: TIMEOUT when the harness reached its run phase,
//     COMPILE_TIMEOUT otherwise
//  2. harness exit >= 3 or missing/malformed result document: INTERNAL_ERROR
//  3. adopt the harness status, normalizing legacy synonyms
//
// Match is defined only on the run path: true for SUCCESS, false for
// WRONG_ANSWER, absent otherwise.
func Classify(exec *sandbox.ExecResult, doc *codec.ResultDoc, parseErr error) model.Verdict {
	if exec != nil && exec.DeadlineExceeded {
		v := skeletonOrEmpty(doc)
		v.ErrorDetail = "killed by sandbox deadline"
		if v.Metrics.WallMs == 0 {
			v.Metrics.WallMs = exec.WallMs
		}
		if runPhaseReached(doc) {
			v.Status = model.StatusTimeout
		} else {
			v.Status = model.StatusCompileTimeout
		}
		v.Match = nil
		return v
	}

	if doc == nil || parseErr != nil {
		detail := "harness produced no result document"
		if parseErr != nil {
			detail = parseErr.Error()
		}
		v := model.InternalVerdict(detail)
		if exec != nil {
			v.ExitCode = exec.ExitCode
			v.Stderr = exec.Stderr
			v.Metrics.WallMs = exec.WallMs
		}
		return v
	}

	if exec != nil && exec.ExitCode >= harness.ExitInternal {
		v := codec.VerdictSkeleton(doc)
		v.Status = model.StatusInternalError
		if v.ErrorDetail == "" {
			v.ErrorDetail = "harness internal failure"
		}
		v.Match = nil
		return v
	}

	v := codec.VerdictSkeleton(doc)
	v.Status = normalizeStatus(doc.Status)
	if !model.KnownStatus(v.Status) {
		v = model.InternalVerdict("unknown harness status " + doc.Status)
		return v
	}

	switch v.Status {
	case model.StatusSuccess:
		// match stays as reported: true, or absent without expectations
	case model.StatusWrongAnswer:
		f := false
		v.Match = &f
	default:
		v.Match = nil
	}

	if v.Status == model.StatusCompileError || v.Status == model.StatusCompileTimeout {
		v.CompileOutput = doc.Stderr
	}
	return v
}

// runPhaseReached infers whether the harness got past compilation: a
// recorded compile time with no failing compile status means the runner was
// built and running when the deadline hit.
func runPhaseReached(doc *codec.ResultDoc) bool {
	if doc == nil {
		return false
	}
	switch normalizeStatus(doc.Status) {
	case model.StatusCompileError, model.StatusCompileTimeout:
		return false
	}
	return doc.CompileTimeMs > 0
}

func normalizeStatus(s string) model.Status {
	switch s {
	case "ERROR":
		return model.StatusInternalError
	case "TIMEOUT_ERROR":
		return model.StatusTimeout
	}
	return model.Status(s)
}

func skeletonOrEmpty(doc *codec.ResultDoc) model.Verdict {
	if doc == nil {
		return model.Verdict{}
	}
	return codec.VerdictSkeleton(doc)
}
