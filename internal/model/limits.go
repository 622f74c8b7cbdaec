package model

import "time"

// ResourceLimits bounds a single evaluation. Timeouts are whole seconds on
// the wire, matching the public API.
type ResourceLimits struct {
	CompileTimeoutS   int     `json:"compile_timeout,omitempty"`
	ExecutionTimeoutS int     `json:"execution_timeout,omitempty"`
	MemoryBytes       int64   `json:"memory_bytes,omitempty"`
	CPUCores          float64 `json:"cpu_cores,omitempty"`
}

// Defaults applied when a submission leaves a limit unset.
const (
	DefaultCompileTimeoutS   = 30
	DefaultExecutionTimeoutS = 10
	DefaultMemoryBytes       = 128 << 20
	DefaultCPUCores          = 1.0
)

// Hard ceilings a submission may not exceed.
const (
	MaxCompileTimeoutS   = 300
	MaxExecutionTimeoutS = 60
	MaxMemoryBytes       = 1 << 30
	MaxCPUCores          = 4.0
)

// MaxSourceBytes caps user source text.
const MaxSourceBytes = 50000

// MaxBatchSize caps the number of items in one batch request.
const MaxBatchSize = 100

// DefaultLimits returns a fully populated limits record.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		CompileTimeoutS:   DefaultCompileTimeoutS,
		ExecutionTimeoutS: DefaultExecutionTimeoutS,
		MemoryBytes:       DefaultMemoryBytes,
		CPUCores:          DefaultCPUCores,
	}
}

// WithDefaults fills unset fields from the defaults. A nil receiver yields
// the full default record.
func (l *ResourceLimits) WithDefaults() ResourceLimits {
	out := DefaultLimits()
	if l == nil {
		return out
	}
	if l.CompileTimeoutS > 0 {
		out.CompileTimeoutS = l.CompileTimeoutS
	}
	if l.ExecutionTimeoutS > 0 {
		out.ExecutionTimeoutS = l.ExecutionTimeoutS
	}
	if l.MemoryBytes > 0 {
		out.MemoryBytes = l.MemoryBytes
	}
	if l.CPUCores > 0 {
		out.CPUCores = l.CPUCores
	}
	return out
}

// CompileTimeout returns the compile deadline as a duration.
func (l ResourceLimits) CompileTimeout() time.Duration {
	return time.Duration(l.CompileTimeoutS) * time.Second
}

// ExecutionTimeout returns the run deadline as a duration.
func (l ResourceLimits) ExecutionTimeout() time.Duration {
	return time.Duration(l.ExecutionTimeoutS) * time.Second
}
