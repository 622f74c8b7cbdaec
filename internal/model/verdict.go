package model

// Status is the canonical outcome taxonomy. Every evaluation yields exactly
// one of these.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusWrongAnswer    Status = "WRONG_ANSWER"
	StatusCompileError   Status = "COMPILE_ERROR"
	StatusCompileTimeout Status = "COMPILE_TIMEOUT"
	StatusRuntimeError   Status = "RUNTIME_ERROR"
	StatusTimeout        Status = "TIMEOUT"
	StatusInternalError  Status = "INTERNAL_ERROR"
)

// KnownStatus reports whether s belongs to the canonical set.
func KnownStatus(s Status) bool {
	switch s {
	case StatusSuccess, StatusWrongAnswer, StatusCompileError,
		StatusCompileTimeout, StatusRuntimeError, StatusTimeout,
		StatusInternalError:
		return true
	}
	return false
}

// Metrics carries the compile/run telemetry of one evaluation.
type Metrics struct {
	WallMs         int64   `json:"wall_ms"`
	CompileMs      int64   `json:"compile_ms"`
	UserCPUSeconds float64 `json:"user_cpu_s"`
	SysCPUSeconds  float64 `json:"sys_cpu_s"`
	MaxRSSBytes    int64   `json:"max_rss_bytes"`
	Recompiled     bool    `json:"recompiled,omitempty"`
}

// Verdict is the canonical result record produced for every submission.
// Match is set only when expected values were declared and the run path was
// reached.
type Verdict struct {
	Status        Status         `json:"status"`
	Match         *bool          `json:"match,omitempty"`
	Expected      map[string]any `json:"expected,omitempty"`
	Actual        map[string]any `json:"actual,omitempty"`
	Stdout        string         `json:"stdout,omitempty"`
	Stderr        string         `json:"stderr,omitempty"`
	CompileOutput string         `json:"compile_output,omitempty"`
	ExitCode      int            `json:"exit_code"`
	Metrics       Metrics        `json:"metrics"`
	ErrorDetail   string         `json:"error_detail,omitempty"`
}

// InternalVerdict builds an INTERNAL_ERROR verdict with a diagnostic.
func InternalVerdict(detail string) Verdict {
	return Verdict{Status: StatusInternalError, ErrorDetail: detail}
}
