// Package docker runs site generators inside containers. Importing the
// package registers the docker builder.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sitepush/sitepush/pkg/builder"
	"github.com/sitepush/sitepush/pkg/log"
)

const (
	containerSite   = "/site"
	containerOutput = "/output"

	// DefaultImage builds hugo sites when no image is configured.
	DefaultImage = "hugomods/hugo:latest"
)

func init() {
	if err := builder.Register(New()); err != nil {
		panic(fmt.Sprintf("failed to register docker builder: %v", err))
	}
}

// Builder runs the configured image with the site bind-mounted at /site and
// the output directory at /output. Without a command override the container
// receives hugo-style arguments, which matches the common site builder
// images; other entrypoints need build.command in the configuration.
type Builder struct {
	mu  sync.Mutex
	cli *client.Client
}

// New creates a docker builder. The docker client is created on first use so
// registration works on hosts without a docker daemon.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) Name() string {
	return "docker"
}

func (b *Builder) client() (*client.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cli != nil {
		return b.cli, nil
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	b.cli = cli
	return cli, nil
}

func (b *Builder) Available() error {
	cli, err := b.client()
	if err != nil {
		return err
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}

// containerCmd assembles the command passed to the container.
func containerCmd(req builder.BuildRequest) []string {
	if len(req.Command) > 0 {
		return append(append([]string{}, req.Command...), req.ExtraArgs...)
	}
	argv := []string{"--destination=" + containerOutput}
	if req.Theme != "" {
		argv = append(argv, "--theme="+req.Theme)
	}
	return append(argv, req.ExtraArgs...)
}

// containerEnv assembles the container environment. The output path and the
// host uid/gid travel along so entrypoint scripts can fix file ownership.
func containerEnv(extra map[string]string) []string {
	env := []string{}
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	env = append(env, "SITEPUSH_OUTPUT="+containerOutput)
	env = append(env, fmt.Sprintf("HOST_UID=%d", os.Getuid()))
	env = append(env, fmt.Sprintf("HOST_GID=%d", os.Getgid()))
	return env
}

func (b *Builder) Build(ctx context.Context, req builder.BuildRequest) (*builder.BuildResult, error) {
	if req.Image == "" {
		req.Image = DefaultImage
	}
	cli, err := b.client()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	log.Progressf("Pulling image %s", req.Image)
	reader, err := cli.ImagePull(ctx, req.Image, image.PullOptions{})
	if err != nil {
		log.Warnf("Failed to pull image %s: %v (using local copy if present)", req.Image, err)
	} else {
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: req.SiteDir,
			Target: containerSite,
		},
		{
			Type:   mount.TypeBind,
			Source: req.OutputDir,
			Target: containerOutput,
		},
	}

	cmd := containerCmd(req)
	cfg := &container.Config{
		Image:      req.Image,
		Cmd:        cmd,
		Env:        containerEnv(req.Env),
		WorkingDir: containerSite,
		Tty:        false,
	}
	if uid := os.Getuid(); uid >= 0 {
		cfg.User = fmt.Sprintf("%d:%d", uid, os.Getgid())
	}

	resp, err := cli.ContainerCreate(ctx, cfg, &container.HostConfig{
		Mounts:     mounts,
		AutoRemove: true,
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	stdout := req.Stdout
	stderr := req.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	out, err := cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err == nil {
		defer out.Close()
		go stdcopy.StdCopy(stdout, stderr, out)
	}

	statusCh, errCh := cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return nil, &builder.Error{
				Builder:  b.Name(),
				ExitCode: int(status.StatusCode),
				Err:      fmt.Errorf("container exited with code %d", status.StatusCode),
			}
		}
	}

	return &builder.BuildResult{
		Builder:  b.Name(),
		Command:  builder.CommandLine(append([]string{"docker", "run", req.Image}, cmd...)),
		Duration: time.Since(start),
	}, nil
}
