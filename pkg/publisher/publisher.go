// Package publisher records generated site output in the output checkout and
// pushes it to the configured remote. The output directory is a git
// repository of its own; publishing stages everything in it, commits, and
// pushes the branch.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	gitx "github.com/sitepush/sitepush/pkg/git"
	"github.com/sitepush/sitepush/pkg/log"
)

// Publisher handles the git side of a deploy.
type Publisher struct {
	opts Options
	repo *git.Repository
}

// New opens the output checkout and fills in option defaults.
func New(opts Options) (*Publisher, error) {
	if opts.Remote == "" {
		opts.Remote = DefaultRemote
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.AuthorName == "" {
		opts.AuthorName = gitx.DefaultAuthorName
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = gitx.DefaultAuthorEmail
	}

	repo, err := git.PlainOpen(opts.Dir)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, fmt.Errorf("output directory %s is not a git repository", opts.Dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Publisher{opts: opts, repo: repo}, nil
}

// Stage stages every change in the checkout, including deletions and
// untracked files.
func (p *Publisher) Stage() error {
	worktree, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Commit commits the staged checkout with the given message.
// Returns the commit hash if successful. A clean checkout returns
// ErrNoChanges unless empty commits are allowed.
func (p *Publisher) Commit(message string) (string, error) {
	worktree, err := p.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	commit, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.opts.AuthorName,
			Email: p.opts.AuthorEmail,
			When:  time.Now(),
		},
		AllowEmptyCommits: p.opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrNoChanges
		}
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return commit.String(), nil
}

// Push pushes the configured branch to the configured remote. A remote that
// is already up to date counts as success.
func (p *Publisher) Push(ctx context.Context) error {
	remote, err := p.repo.Remote(p.opts.Remote)
	if err != nil {
		return fmt.Errorf("failed to get remote '%s': %w", p.opts.Remote, err)
	}

	opts := &git.PushOptions{
		RemoteName: p.opts.Remote,
		RefSpecs: []config.RefSpec{
			config.RefSpec("refs/heads/" + p.opts.Branch + ":refs/heads/" + p.opts.Branch),
		},
	}

	// Token auth only applies to https transports. SSH and local
	// remotes authenticate on their own.
	if p.opts.Token != "" {
		if url, uerr := p.RemoteURL(); uerr == nil && strings.HasPrefix(url, "https://") {
			opts.Auth = &http.BasicAuth{
				Username: "x-access-token", // Generic token auth convention
				Password: p.opts.Token,
			}
		}
	}

	if err := remote.PushContext(ctx, opts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Debugf("Remote %s already up to date", p.opts.Remote)
			return nil
		}
		return fmt.Errorf("failed to push branch: %w", err)
	}
	return nil
}

// Head returns the hash of the current HEAD commit.
func (p *Publisher) Head() (string, error) {
	ref, err := p.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (p *Publisher) CurrentBranch() (string, error) {
	ref, err := p.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Name().Short(), nil
}

// IsClean reports whether the checkout has no uncommitted changes.
func (p *Publisher) IsClean() (bool, error) {
	worktree, err := p.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

// RemoteURL returns the first URL of the configured remote.
func (p *Publisher) RemoteURL() (string, error) {
	remote, err := p.repo.Remote(p.opts.Remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote '%s': %w", p.opts.Remote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote '%s' has no URL", p.opts.Remote)
	}
	return urls[0], nil
}

// Options returns the effective options after defaulting.
func (p *Publisher) Options() Options {
	return p.opts
}
