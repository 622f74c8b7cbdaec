package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tsukisama9292/judgemicro/internal/judge"
	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/model"
	"github.com/tsukisama9292/judgemicro/internal/queue"
)

// scheduleSlack is added to the per-request deadline on top of the resource
// limits to cover queueing and sandbox startup.
const scheduleSlack = 30 * time.Second

type Handler struct {
	queueManager *queue.Manager
	judge        *judge.Judge
	registry     *languages.Registry
}

func NewHandler(manager *queue.Manager, j *judge.Judge, registry *languages.Registry) *Handler {
	return &Handler{
		queueManager: manager,
		judge:        j,
		registry:     registry,
	}
}

// Submit judges a single submission: POST /judge/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var sub model.Submission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := sub.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	limits := sub.Limits.WithDefaults()
	total := limits.CompileTimeout() + limits.ExecutionTimeout() + scheduleSlack
	ctx, cancel := context.WithTimeout(r.Context(), total)
	defer cancel()

	job := &queue.Job{
		ID:         uuid.NewString(),
		Submission: sub,
		Result:     make(chan model.Verdict, 1),
		Err:        make(chan error, 1),
		Ctx:        ctx,
	}
	h.queueManager.Submit(job)

	select {
	case verdict := <-job.Result:
		writeJSON(w, http.StatusOK, verdict)
	case err := <-job.Err:
		writeError(w, http.StatusInternalServerError, err.Error())
	case <-ctx.Done():
		writeError(w, http.StatusGatewayTimeout, "evaluation timed out in queue")
	}
}

// BatchRequest is the wire shape of POST /judge/batch.
type BatchRequest struct {
	Tests []model.Submission `json:"tests"`
}

// BatchResponse carries per-test verdicts in request order plus aggregate
// statistics.
type BatchResponse struct {
	Results []model.Verdict `json:"results"`
	Summary BatchSummary    `json:"summary"`
}

type BatchSummary struct {
	TotalTests         int     `json:"total_tests"`
	SuccessCount       int     `json:"success_count"`
	ErrorCount         int     `json:"error_count"`
	SuccessRate        float64 `json:"success_rate"`
	TotalExecutionTime float64 `json:"total_execution_time"`
	AverageTimePerTest float64 `json:"average_time_per_test"`
}

// Batch judges independent submissions concurrently: POST /judge/batch.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Tests) == 0 {
		writeError(w, http.StatusBadRequest, "tests list is empty")
		return
	}
	if len(req.Tests) > model.MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d tests", model.MaxBatchSize))
		return
	}
	for i, sub := range req.Tests {
		if err := sub.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("tests[%d]: %v", i, err))
			return
		}
	}

	start := time.Now()
	verdicts, err := h.judge.EvaluateBatch(r.Context(), req.Tests)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	success := 0
	for _, v := range verdicts {
		if v.Status == model.StatusSuccess {
			success++
		}
	}
	elapsed := time.Since(start).Seconds()
	writeJSON(w, http.StatusOK, BatchResponse{
		Results: verdicts,
		Summary: BatchSummary{
			TotalTests:         len(verdicts),
			SuccessCount:       success,
			ErrorCount:         len(verdicts) - success,
			SuccessRate:        float64(success) / float64(len(verdicts)),
			TotalExecutionTime: elapsed,
			AverageTimePerTest: elapsed / float64(len(verdicts)),
		},
	})
}

// OptimizedBatchRequest is the wire shape of POST /judge/optimized: one
// source judged against many configurations with a shared compile.
type OptimizedBatchRequest struct {
	Language   string                `json:"language"`
	SourceCode string                `json:"user_code"`
	Configs    []model.TestConfig    `json:"configs"`
	Limits     *model.ResourceLimits `json:"resource_limits,omitempty"`
}

type OptimizedBatchResponse struct {
	Results []model.Verdict `json:"results"`
}

// OptimizedBatch: POST /judge/optimized.
func (h *Handler) OptimizedBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OptimizedBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if _, err := h.registry.Get(req.Language); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported language %q", req.Language))
		return
	}
	if req.SourceCode == "" || len(req.SourceCode) > model.MaxSourceBytes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("user_code must be non-empty and at most %d bytes", model.MaxSourceBytes))
		return
	}
	if len(req.Configs) == 0 {
		writeError(w, http.StatusBadRequest, "configs list is empty")
		return
	}
	if len(req.Configs) > model.MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d configs", model.MaxBatchSize))
		return
	}
	for i := range req.Configs {
		if err := req.Configs[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("configs[%d]: %v", i, err))
			return
		}
	}
	if err := req.Limits.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	limits := req.Limits.WithDefaults()
	total := limits.CompileTimeout() +
		time.Duration(len(req.Configs))*limits.ExecutionTimeout() + scheduleSlack
	ctx, cancel := context.WithTimeout(r.Context(), total)
	defer cancel()

	verdicts, err := h.judge.EvaluateOptimizedBatch(ctx, req.Language, req.SourceCode, req.Configs, req.Limits)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OptimizedBatchResponse{Results: verdicts})
}

// Languages lists the registry: GET /judge/languages.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	type langInfo struct {
		Language        string   `json:"language"`
		Name            string   `json:"name"`
		Standards       []string `json:"standards"`
		DefaultStandard string   `json:"default_standard"`
	}
	langs := h.registry.List()
	infos := make([]langInfo, 0, len(langs))
	for _, l := range langs {
		infos = append(infos, langInfo{
			Language:        l.ID,
			Name:            l.Name,
			Standards:       l.Standards,
			DefaultStandard: l.DefaultStandard,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_languages": infos,
		"parameter_types": []model.ParamType{
			model.TypeInt, model.TypeFloat, model.TypeDouble, model.TypeChar,
			model.TypeString, model.TypeBool,
			model.TypeArrayInt, model.TypeArrayFloat, model.TypeArrayChar,
			model.TypeVectorInt, model.TypeVectorFloat, model.TypeVectorDouble,
			model.TypeVectorString,
		},
		"function_types": []string{
			"int", "float", "double", "char", "string", "bool", "void",
		},
	})
}

// Limits reports default and maximum resource limits: GET /judge/limits.
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default_limits": model.DefaultLimits(),
		"maximum_limits": model.ResourceLimits{
			CompileTimeoutS:   model.MaxCompileTimeoutS,
			ExecutionTimeoutS: model.MaxExecutionTimeoutS,
			MemoryBytes:       model.MaxMemoryBytes,
			CPUCores:          model.MaxCPUCores,
		},
		"code_limits": map[string]int{
			"max_code_length": model.MaxSourceBytes,
			"max_batch_size":  model.MaxBatchSize,
		},
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Reason,
			"field": verr.Field,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
