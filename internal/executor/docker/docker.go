// Package docker is an executor.Executor that runs code in throwaway,
// network-less containers drawn from per-language warm pools.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/executor"
)

// timeoutExitCode mirrors coreutils timeout(1).
const timeoutExitCode = 124

var _ executor.Executor = (*Executor)(nil)

type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*langPool
}

// New connects to the local Docker daemon, pulls every runtime image and
// starts one pool per language.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	e := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*langPool, len(cfg.Runtimes)),
	}

	for lang, rt := range cfg.Runtimes {
		if err := e.pull(rt.Image); err != nil {
			e.Close()
			return nil, err
		}
		pool := newLangPool(cli, lang, rt, cfg, logger)
		pool.run()
		e.pools[lang] = pool
	}

	return e, nil
}

func (e *Executor) pull(img string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	e.logger.Info("ensuring docker image is available", slog.String("image", img))
	reader, err := e.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("docker: pulling %s: %w", img, err)
	}
	defer reader.Close()
	// Drain to block until the pull completes.
	io.Copy(io.Discard, reader)
	return nil
}

// Close stops every pool and the docker client.
func (e *Executor) Close() error {
	for _, p := range e.pools {
		p.shutdown()
	}
	return e.cli.Close()
}

// Execute runs req.Code with the runtime registered for req.Language.
// req.Version is ignored; the image decides the version.
func (e *Executor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	rt, ok := e.config.Runtimes[req.Language]
	pool := e.pools[req.Language]
	if !ok || pool == nil {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("language %q is not available in the sandbox", req.Language))
	}

	start := time.Now()

	containerID, err := pool.take(ctx)
	if err != nil {
		return nil, apperror.Upstream("docker", err)
	}

	// Containers are single use.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	cmd := append(append([]string{}, rt.Command...), req.Code)
	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          cmd,
	})
	if err != nil {
		return nil, apperror.Upstream("docker", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, apperror.Upstream("docker", err)
	}
	defer attachResp.Close()

	run := &executor.StageOutcome{}
	out, timedOut := demux(executeCtx, attachResp.Reader, attachResp.Close)
	if timedOut {
		run.ExitCode = timeoutExitCode
		out.stderr += "Execution timed out.\n"
	} else if inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID); err == nil {
		run.ExitCode = inspect.ExitCode
	}
	run.Stdout = out.stdout
	run.Stderr = out.stderr

	result := executor.Resolve("", nil, run)
	result.Duration = time.Since(start)
	return result, nil
}

type streams struct {
	stdout, stderr string
}

// demux splits a multiplexed exec stream until it ends or ctx is done. On
// timeout it calls closeStream and waits for the copy to return, so the
// buffers are never read while still being written.
func demux(ctx context.Context, r io.Reader, closeStream func()) (streams, bool) {
	done := make(chan streams, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		_, _ = stdcopy.StdCopy(&stdout, &stderr, r)
		done <- streams{stdout: stdout.String(), stderr: stderr.String()}
	}()

	select {
	case out := <-done:
		return out, false
	case <-ctx.Done():
		closeStream()
		return <-done, true
	}
}
