package builder

import (
	"context"
	"fmt"
	"os/exec"
)

// Jekyll builds sites with the jekyll binary.
type Jekyll struct {
	binary string
}

// NewJekyll creates a jekyll builder.
func NewJekyll() *Jekyll {
	return &Jekyll{binary: "jekyll"}
}

func (j *Jekyll) Name() string {
	return "jekyll"
}

func (j *Jekyll) Available() error {
	if _, err := exec.LookPath(j.binary); err != nil {
		return fmt.Errorf("jekyll binary not found in PATH: %w", err)
	}
	return nil
}

func (j *Jekyll) args(req BuildRequest) []string {
	argv := []string{j.binary, "build"}
	if req.OutputDir != "" {
		argv = append(argv, "--destination", req.OutputDir)
	}
	return append(argv, req.ExtraArgs...)
}

func (j *Jekyll) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	return runCommand(ctx, j.Name(), req, j.args(req))
}
