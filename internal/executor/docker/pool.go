package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/sakif/codecraft/internal/metrics"
)

// sandboxLabel tags every container a pool creates with its language so
// leftovers from a crashed process can be found and removed.
const sandboxLabel = "codecraft.sandbox"

const (
	refillBackoff = time.Second
	refillIdle    = 100 * time.Millisecond
)

// langPool holds idle sandboxes for a single language. Containers are handed
// out once and never returned.
type langPool struct {
	cli    *client.Client
	lang   string
	rt     Runtime
	limits Config
	logger *slog.Logger

	idle   chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newLangPool(cli *client.Client, lang string, rt Runtime, limits Config, logger *slog.Logger) *langPool {
	size := limits.PoolSize
	if size < 1 {
		size = 1
	}
	return &langPool{
		cli:    cli,
		lang:   lang,
		rt:     rt,
		limits: limits,
		logger: logger.With(slog.String("language", lang), slog.String("image", rt.Image)),
		idle:   make(chan string, size),
	}
}

// run sweeps orphaned sandboxes for this language and starts the refill loop.
func (p *langPool) run() {
	p.sweep()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.refill(ctx)

	p.logger.Info("sandbox pool started", slog.Int("size", cap(p.idle)))
}

// shutdown stops refilling and removes every idle sandbox.
func (p *langPool) shutdown() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	for {
		select {
		case id := <-p.idle:
			p.remove(id)
		default:
			metrics.SandboxWarmContainers.WithLabelValues(p.lang).Set(0)
			p.logger.Info("sandbox pool stopped")
			return
		}
	}
}

// take hands the caller a started sandbox. The caller must remove it.
func (p *langPool) take(ctx context.Context) (string, error) {
	select {
	case id := <-p.idle:
		metrics.SandboxWarmContainers.WithLabelValues(p.lang).Set(float64(len(p.idle)))
		return id, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for %s sandbox: %w", p.lang, ctx.Err())
	}
}

func (p *langPool) refill(ctx context.Context) {
	defer p.wg.Done()

	for ctx.Err() == nil {
		if len(p.idle) == cap(p.idle) {
			sleep(ctx, refillIdle)
			continue
		}

		id, err := p.create(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("creating sandbox", slog.String("error", err.Error()))
			sleep(ctx, refillBackoff)
			continue
		}

		select {
		case p.idle <- id:
			metrics.SandboxWarmContainers.WithLabelValues(p.lang).Set(float64(len(p.idle)))
		case <-ctx.Done():
			p.remove(id)
			return
		}
	}
}

// create starts an idle container that sleeps until a program is exec'd into it.
func (p *langPool) create(parent context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	resp, err := p.cli.ContainerCreate(ctx,
		&container.Config{
			Image:  p.rt.Image,
			Cmd:    []string{"sleep", "infinity"},
			User:   "nobody",
			Labels: map[string]string{sandboxLabel: p.lang},
		},
		sandboxHostConfig(p.limits), nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("docker: creating %s sandbox: %w", p.lang, err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.remove(resp.ID)
		return "", fmt.Errorf("docker: starting %s sandbox %s: %w", p.lang, resp.ID, err)
	}
	return resp.ID, nil
}

// sweep removes sandboxes left behind by a previous process.
func (p *langPool) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stale, err := p.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", sandboxLabel+"="+p.lang)),
	})
	if err != nil {
		p.logger.Warn("listing stale sandboxes", slog.String("error", err.Error()))
		return
	}
	for _, c := range stale {
		p.remove(c.ID)
	}
	if len(stale) > 0 {
		p.logger.Info("removed stale sandboxes", slog.Int("count", len(stale)))
	}
}

func (p *langPool) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Warn("removing sandbox", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// sandboxHostConfig denies networking, caps memory and CPU and mounts a
// small non-executable /tmp over a read-only root.
func sandboxHostConfig(limits Config) *container.HostConfig {
	return &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   limits.MemoryLimit,
			NanoCPUs: int64(limits.CPULimit * 1e9),
		},
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/tmp": "rw,noexec,size=16m"},
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
