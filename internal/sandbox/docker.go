package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/tsukisama9292/judgemicro/internal/languages"
	"github.com/tsukisama9292/judgemicro/internal/metrics"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

const workdir = "/app"

// DockerManager implements Manager on a Docker runtime, local or remote.
// Acquisition is gated by a weighted semaphore; a released box returns its
// slot exactly once.
type DockerManager struct {
	cli    *client.Client
	sem    *semaphore.Weighted
	logger *zerolog.Logger
}

// NewManager connects to the local Docker runtime.
func NewManager(logger *zerolog.Logger, maxSandboxes int64) (*DockerManager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return newManager(cli, logger, maxSandboxes), nil
}

func newManager(cli *client.Client, logger *zerolog.Logger, maxSandboxes int64) *DockerManager {
	if maxSandboxes <= 0 {
		maxSandboxes = 1
	}
	return &DockerManager{
		cli:    cli,
		sem:    semaphore.NewWeighted(maxSandboxes),
		logger: logger,
	}
}

func (m *DockerManager) Acquire(ctx context.Context, lang languages.Language, limits model.ResourceLimits) (Box, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("sandbox slot: %w", err)
	}

	box, err := m.createBox(ctx, lang, limits)
	if err != nil {
		m.sem.Release(1)
		return nil, err
	}
	return box, nil
}

func (m *DockerManager) createBox(ctx context.Context, lang languages.Language, limits model.ResourceLimits) (*dockerBox, error) {
	pidsLimit := int64(64)
	start := time.Now()

	resp, err := m.cli.ContainerCreate(ctx, &container.Config{
		Image:           lang.Config.Image,
		Cmd:             []string{"sleep", "infinity"},
		Tty:             false,
		NetworkDisabled: true,
		WorkingDir:      workdir,
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:     limits.MemoryBytes,
			MemorySwap: limits.MemoryBytes, // no swap allowed
			NanoCPUs:   int64(limits.CPUCores * 1e9),
			PidsLimit:  &pidsLimit,
		},
		NetworkMode: "none",
		SecurityOpt: []string{"no-new-privileges"},
		CapDrop:     []string{"ALL"},
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	metrics.SandboxStartTime.Observe(float64(time.Since(start).Milliseconds()))
	metrics.SandboxesActive.Inc()

	box := &dockerBox{
		manager:     m,
		containerID: resp.ID,
		id:          uuid.NewString(),
		logger:      m.logger,
	}
	m.logger.Debug().
		Str("sandbox", box.id).
		Str("container", resp.ID[:12]).
		Str("image", lang.Config.Image).
		Msg("sandbox acquired")
	return box, nil
}

func (m *DockerManager) EnsureImage(ctx context.Context, img string) error {
	_, _, err := m.cli.ImageInspectWithRaw(ctx, img)
	if err == nil {
		return nil // image already exists
	}

	m.logger.Info().Str("image", img).Msg("pulling docker image")
	reader, err := m.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	defer reader.Close()

	// must consume the reader to finish the pull
	_, _ = io.Copy(io.Discard, reader)

	m.logger.Info().Str("image", img).Msg("successfully pulled docker image")
	return nil
}

func (m *DockerManager) Close() error {
	return m.cli.Close()
}

// dockerBox is one running container owned by a single evaluation.
type dockerBox struct {
	manager     *DockerManager
	containerID string
	id          string
	logger      *zerolog.Logger
	releaseOnce sync.Once
}

func (b *dockerBox) ID() string { return b.id }

func (b *dockerBox) Upload(ctx context.Context, name string, data []byte) error {
	buf, err := tarFile(name, data)
	if err != nil {
		return err
	}
	if err := b.manager.cli.CopyToContainer(ctx, b.containerID, workdir, buf, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

func (b *dockerBox) Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error) {
	execResp, err := b.manager.cli.ContainerExecCreate(ctx, b.containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := b.manager.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		done <- err
	}()

	start := time.Now()
	timer := time.NewTimer(timeout + DeadlineMargin)
	defer timer.Stop()

	result := &ExecResult{}
	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("failed to read exec output: %w", err)
		}
	case <-timer.C:
		// outer safety net: the harness deadline should have fired first
		b.logger.Warn().Str("sandbox", b.id).Msg("exec breached outer deadline, killing container")
		_ = b.manager.cli.ContainerKill(context.Background(), b.containerID, "KILL")
		<-done
		result.DeadlineExceeded = true
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	result.WallMs = time.Since(start).Milliseconds()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if result.DeadlineExceeded {
		result.ExitCode = -1
		return result, nil
	}

	inspect, err := b.manager.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}
	result.ExitCode = inspect.ExitCode
	return result, nil
}

func (b *dockerBox) Download(ctx context.Context, name string) ([]byte, error) {
	rc, _, err := b.manager.cli.CopyFromContainer(ctx, b.containerID, workdir+"/"+name)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer rc.Close()
	return untarFile(rc, name)
}

// Release destroys the container and frees the acquisition slot. Safe to
// call from deferred paths any number of times.
func (b *dockerBox) Release() {
	b.releaseOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.manager.cli.ContainerRemove(ctx, b.containerID, container.RemoveOptions{Force: true}); err != nil {
			b.logger.Error().Err(err).Str("sandbox", b.id).Msg("failed to remove container")
		}
		metrics.SandboxesActive.Dec()
		b.manager.sem.Release(1)
		b.logger.Debug().Str("sandbox", b.id).Msg("sandbox released")
	})
}
