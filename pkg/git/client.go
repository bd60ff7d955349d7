// Package git wraps system git for the queries the deploy flow needs around
// the object database: identity resolution, remote lookups, work tree state.
// Commit and push themselves run through go-git in pkg/publisher.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs git commands against one working directory.
type Client struct {
	dir string
}

// NewClient returns a client bound to dir.
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// Dir returns the working directory the client is bound to.
func (c *Client) Dir() string {
	return c.dir
}

// run executes git with -C so the client never depends on the process cwd.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", c.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo reports whether the directory is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// HeadSHA returns the commit hash HEAD points at.
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	return c.run(ctx, "rev-parse", "HEAD")
}

// CurrentBranch returns the checked-out branch name, empty on detached HEAD.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	return c.run(ctx, "branch", "--show-current")
}

// RemoteURL returns the fetch URL of the named remote.
func (c *Client) RemoteURL(ctx context.Context, name string) (string, error) {
	return c.run(ctx, "remote", "get-url", name)
}

// HasRemote reports whether the named remote is configured.
func (c *Client) HasRemote(ctx context.Context, name string) bool {
	_, err := c.RemoteURL(ctx, name)
	return err == nil
}

// ConfigGet reads one config key, local scope taking precedence over global
// and system. Unset keys return an error.
func (c *Client) ConfigGet(ctx context.Context, key string) (string, error) {
	return c.run(ctx, "config", "--get", key)
}

// IsClean reports whether the work tree has no staged or unstaged changes.
func (c *Client) IsClean(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// CommitCount returns the number of commits reachable from HEAD. An
// unborn branch counts as zero.
func (c *Client) CommitCount(ctx context.Context) (int, error) {
	out, err := c.run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		if strings.Contains(err.Error(), "unknown revision") || strings.Contains(err.Error(), "ambiguous argument") {
			return 0, nil
		}
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(out, "%d", &n); err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}
