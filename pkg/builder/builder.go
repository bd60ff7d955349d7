// Package builder runs site generators. Each builder knows how to invoke
// one generator family; the deploy flow picks a builder by name or through
// site detection.
package builder

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Builder generates a site into an output directory.
type Builder interface {
	// Name is the registry key (hugo, jekyll, command, docker).
	Name() string

	// Available reports whether the builder can run on this host.
	Available() error

	// Build runs the generator. Output streams to the request writers while
	// the build runs; a failure preserves the generator's exit code in *Error.
	Build(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest carries everything a builder needs for one run.
type BuildRequest struct {
	// SiteDir is the site source root and the working directory of the build.
	SiteDir string

	// OutputDir is where the generator must write the site.
	OutputDir string

	// Theme is passed to generators that accept a theme flag.
	Theme string

	// ExtraArgs append to the generated command line.
	ExtraArgs []string

	// Command is the full argv for the command builder, and overrides the
	// container command for the docker builder.
	Command []string

	// Image selects the container image for the docker builder.
	Image string

	// Env adds variables to the build process environment.
	Env map[string]string

	// Stdout and Stderr receive generator output. Nil writers fall back to
	// the host streams.
	Stdout io.Writer
	Stderr io.Writer
}

// BuildResult describes a finished build.
type BuildResult struct {
	Builder  string
	Command  string
	Duration time.Duration
}

// Error is a build failure that preserves the generator's exit code so the
// process can propagate it.
type Error struct {
	Builder  string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s build failed with exit code %d: %v", e.Builder, e.ExitCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
