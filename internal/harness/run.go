package harness

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// execOutcome is the raw observation of one child process: captured streams,
// exit information, wall time, and the kernel's resource accounting.
type execOutcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
	WallMs   int64
	TimedOut bool

	UserCPUSeconds float64
	SysCPUSeconds  float64
	MaxRSSKiB      int64
}

// runCommand executes one child under a wall-clock deadline. The child gets
// its own process group so a timeout kill reaps everything it forked.
func runCommand(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (*execOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	out := &execOutcome{}
	select {
	case <-ctx.Done():
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		<-waitCh
		out.TimedOut = true
		out.ExitCode = -1
	case waitErr := <-waitCh:
		out.ExitCode = exitCode(cmd, waitErr)
	}
	out.WallMs = time.Since(start).Milliseconds()
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	fillRusage(cmd, out)
	return out, nil
}

// exitCode maps the process state to the conventional shell exit code:
// 128+signal for signal deaths, the plain code otherwise.
func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState == nil {
		if waitErr != nil {
			return -1
		}
		return 0
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return cmd.ProcessState.ExitCode()
}

func fillRusage(cmd *exec.Cmd, out *execOutcome) {
	if cmd.ProcessState == nil {
		return
	}
	ru, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage)
	if !ok {
		return
	}
	out.UserCPUSeconds = tvSeconds(ru.Utime)
	out.SysCPUSeconds = tvSeconds(ru.Stime)
	out.MaxRSSKiB = ru.Maxrss
}

func tvSeconds(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}
