package builder

import (
	"context"
	"fmt"
	"os/exec"
)

// Command runs a user-supplied build command. The command comes from the
// build configuration and runs verbatim in the site directory.
type Command struct{}

// NewCommand creates a command builder.
func NewCommand() *Command {
	return &Command{}
}

func (c *Command) Name() string {
	return "command"
}

// Available always succeeds; whether the configured command exists is only
// known per request.
func (c *Command) Available() error {
	return nil
}

func (c *Command) args(req BuildRequest) []string {
	if len(req.Command) == 0 {
		return nil
	}
	return append(append([]string{}, req.Command...), req.ExtraArgs...)
}

func (c *Command) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	argv := c.args(req)
	if len(argv) == 0 {
		return nil, fmt.Errorf("command builder requires a build command")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("build command %q not found: %w", argv[0], err)
	}
	return runCommand(ctx, c.Name(), req, argv)
}
