package builder

import (
	"context"
	"fmt"
	"os/exec"
)

// Hugo builds sites with the hugo binary.
type Hugo struct {
	binary string
}

// NewHugo creates a hugo builder.
func NewHugo() *Hugo {
	return &Hugo{binary: "hugo"}
}

func (h *Hugo) Name() string {
	return "hugo"
}

func (h *Hugo) Available() error {
	if _, err := exec.LookPath(h.binary); err != nil {
		return fmt.Errorf("hugo binary not found in PATH: %w", err)
	}
	return nil
}

func (h *Hugo) args(req BuildRequest) []string {
	argv := []string{h.binary}
	if req.Theme != "" {
		argv = append(argv, "--theme="+req.Theme)
	}
	if req.OutputDir != "" {
		argv = append(argv, "--destination="+req.OutputDir)
	}
	return append(argv, req.ExtraArgs...)
}

func (h *Hugo) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	return runCommand(ctx, h.Name(), req, h.args(req))
}
