// Package sandbox provides isolated, resource-capped, network-less
// execution contexts backed by containers. A Box is exclusively owned by
// one evaluation from Acquire to Release; Release is unconditional and
// idempotent so containers never leak.
package sandbox

import (
	"context"
	"time"

	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

// DeadlineMargin is added to every in-sandbox deadline before the outer
// kill fires. It bounds how far an observed wall time may exceed the
// configured limit.
const DeadlineMargin = 500 * time.Millisecond

// ExecResult is the raw outcome of one command run inside a box.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	WallMs   int64

	// DeadlineExceeded is set when the outer deadline killed the container.
	DeadlineExceeded bool
}

// Box is one acquired sandbox. All methods may be called until Release;
// Release may be called any number of times.
type Box interface {
	// ID identifies the sandbox for logging.
	ID() string

	// Upload places a file into the sandbox workdir as an in-memory tar
	// stream; no volume mounts are involved.
	Upload(ctx context.Context, name string, data []byte) error

	// Exec runs a command in the workdir under an outer wall deadline of
	// timeout+DeadlineMargin. Breaching the deadline kills the container
	// and returns a result with DeadlineExceeded set.
	Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error)

	// Download reads a file from the sandbox workdir.
	Download(ctx context.Context, name string) ([]byte, error)

	// Release destroys the sandbox and frees its slot.
	Release()
}

// Manager acquires sandboxes. Acquisition is gated by a semaphore sized to
// the configured maximum of concurrent sandboxes; waiting is cancellable.
type Manager interface {
	Acquire(ctx context.Context, lang languages.Language, limits model.ResourceLimits) (Box, error)
	EnsureImage(ctx context.Context, image string) error
	Close() error
}
