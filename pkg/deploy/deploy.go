// Package deploy runs the pipeline that turns site sources into a
// pushed commit: preflight, build, verify, stage, commit, push, and an
// optional GitHub deployment record. The pipeline is fail fast; a
// failed step stops the run and its exit code is preserved.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sitepush/sitepush/pkg/builder"
	"github.com/sitepush/sitepush/pkg/config"
	gitx "github.com/sitepush/sitepush/pkg/git"
	"github.com/sitepush/sitepush/pkg/github"
	"github.com/sitepush/sitepush/pkg/lockfile"
	"github.com/sitepush/sitepush/pkg/log"
	"github.com/sitepush/sitepush/pkg/preflight"
	"github.com/sitepush/sitepush/pkg/publisher"
	"github.com/sitepush/sitepush/pkg/site"
)

// Options configures a deploy run.
type Options struct {
	// Site is the resolved site layout.
	Site *site.Site
	// Config carries the project settings (default config when nil).
	Config *config.Config
	// Builder runs the site generator. Required unless SkipBuild.
	Builder builder.Builder
	// DryRun validates and builds but commits and pushes nothing.
	DryRun bool
	// SkipBuild publishes the output directory as it stands.
	SkipBuild bool
	// SkipPush commits locally without touching the remote.
	SkipPush bool
	// SkipPreflight bypasses the environment checks.
	SkipPreflight bool
	// Message overrides the generated commit message.
	Message string
	// ResultPath overrides where the deploy record is written.
	ResultPath string
	// Token is the GitHub token for pushes and deployment records.
	// Empty falls back to the environment.
	Token string
	// Stdout and Stderr receive generator output (default os streams).
	Stdout io.Writer
	Stderr io.Writer
	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Runner executes the deploy pipeline.
type Runner struct {
	opts Options
	now  func() time.Time
}

// New validates options and builds a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Site == nil {
		return nil, fmt.Errorf("site is required")
	}
	if opts.Builder == nil && !opts.SkipBuild {
		return nil, fmt.Errorf("a builder is required unless the build step is skipped")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{opts: opts, now: now}, nil
}

// Run executes the pipeline and records the outcome. The returned
// Result is non-nil even on failure.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.opts.Config

	result := &Result{
		ID:        uuid.NewString(),
		StartedAt: r.now(),
		Remote:    cfg.Publish.Remote,
		Branch:    cfg.Publish.Branch,
		DryRun:    r.opts.DryRun,
	}
	if r.opts.Builder != nil {
		result.Builder = r.opts.Builder.Name()
	}

	err := r.run(ctx, result)

	result.FinishedAt = r.now()
	result.DurationMS = result.FinishedAt.Sub(result.StartedAt).Milliseconds()
	if err != nil {
		result.Error = err.Error()
	}

	path := r.opts.ResultPath
	if path == "" {
		path = ResultPath(r.opts.Site.Root)
	}
	if werr := WriteResult(path, result); werr != nil {
		log.Warnf("Failed to record deploy result: %v", werr)
	}

	return result, err
}

func (r *Runner) run(ctx context.Context, result *Result) error {
	st := r.opts.Site
	cfg := r.opts.Config

	if r.opts.SkipPreflight {
		r.skip(result, StepPreflight, "disabled")
	} else {
		err := r.step(result, StepPreflight, func() error {
			remote := ""
			if !r.opts.SkipPush && !r.opts.DryRun {
				remote = cfg.Publish.Remote
			}
			checker := preflight.NewChecker(preflight.Config{
				Builder:          r.opts.Builder,
				SitePath:         st.Root,
				OutputPath:       st.OutputDir,
				Remote:           remote,
				CheckGitHubToken: cfg.GitHub.Deployments,
			})
			return checker.Run(ctx)
		})
		if err != nil {
			return err
		}
	}

	lock, err := lockfile.Acquire(st.OutputDir)
	if err != nil {
		return &StepError{Step: StepPreflight, Err: err}
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			log.Warnf("Failed to release deploy lock: %v", rerr)
		}
	}()

	if r.opts.SkipBuild {
		r.skip(result, StepBuild, "disabled")
	} else {
		r.warnDrafts()
		err := r.step(result, StepBuild, func() error {
			res, berr := r.opts.Builder.Build(ctx, builder.BuildRequest{
				SiteDir:   st.Root,
				OutputDir: st.OutputDir,
				Theme:     st.Theme,
				ExtraArgs: cfg.Build.Args,
				Command:   cfg.Build.Command,
				Image:     cfg.Build.Image,
				Env:       cfg.Build.Env,
				Stdout:    r.opts.Stdout,
				Stderr:    r.opts.Stderr,
			})
			if berr != nil {
				var buildErr *builder.Error
				if errors.As(berr, &buildErr) {
					return &StepError{Step: StepBuild, ExitCode: buildErr.ExitCode, Err: berr}
				}
				return berr
			}
			result.BuildCommand = res.Command
			log.Progressf("Build finished in %s", res.Duration.Round(time.Millisecond))
			return nil
		})
		if err != nil {
			return err
		}
	}

	var pub *publisher.Publisher
	err = r.step(result, StepVerify, func() error {
		identity := gitx.ResolveIdentity(ctx, st.OutputDir, gitx.IdentityOptions{
			ExplicitName:  cfg.Publish.Author.Name,
			ExplicitEmail: cfg.Publish.Author.Email,
		})
		log.Debugf("Committing as %s", identity)

		p, perr := publisher.New(publisher.Options{
			Dir:         st.OutputDir,
			Remote:      cfg.Publish.Remote,
			Branch:      cfg.Publish.Branch,
			AuthorName:  identity.Name,
			AuthorEmail: identity.Email,
			AllowEmpty:  cfg.Publish.AllowEmpty,
			Token:       r.resolveToken(),
		})
		if perr != nil {
			return perr
		}
		pub = p
		return nil
	})
	if err != nil {
		return err
	}

	message := r.opts.Message
	if message == "" {
		message = commitMessage(cfg.Publish.MessagePrefix, r.now())
	}
	result.Message = message

	if r.opts.DryRun {
		r.skip(result, StepStage, "dry run")
		r.skip(result, StepCommit, "dry run")
		r.skip(result, StepPush, "dry run")
		log.Infof("Dry run: would commit %q and push %s to %s", message, cfg.Publish.Branch, cfg.Publish.Remote)
		return nil
	}

	if err := r.step(result, StepStage, pub.Stage); err != nil {
		return err
	}

	var noChanges bool
	err = r.step(result, StepCommit, func() error {
		hash, cerr := pub.Commit(message)
		if cerr != nil {
			if errors.Is(cerr, publisher.ErrNoChanges) {
				noChanges = true
				log.Info("No changes to deploy")
				return nil
			}
			return cerr
		}
		result.CommitHash = hash
		result.Committed = true
		log.Progressf("Committed %s: %s", shortHash(hash), message)
		return nil
	})
	if err != nil {
		return err
	}

	if noChanges {
		r.skip(result, StepPush, "no changes")
		return nil
	}

	if r.opts.SkipPush {
		r.skip(result, StepPush, "disabled")
	} else {
		if err := r.step(result, StepPush, func() error { return pub.Push(ctx) }); err != nil {
			return err
		}
		result.Pushed = true
		log.Progressf("Pushed %s to %s", cfg.Publish.Branch, cfg.Publish.Remote)
	}

	if cfg.GitHub.Deployments && result.Pushed {
		r.mark(ctx, result, pub)
	}

	return nil
}

// step runs fn, records its outcome, and wraps failures with the step
// name.
func (r *Runner) step(result *Result, name Step, fn func() error) error {
	start := r.now()
	err := fn()

	sr := StepResult{
		Name:       name,
		Status:     StatusOK,
		DurationMS: r.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		sr.Status = StatusFailed
		sr.Detail = err.Error()
	}
	result.Steps = append(result.Steps, sr)

	if err == nil {
		return nil
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return err
	}
	return &StepError{Step: name, Err: err}
}

func (r *Runner) skip(result *Result, name Step, detail string) {
	result.Steps = append(result.Steps, StepResult{
		Name:   name,
		Status: StatusSkipped,
		Detail: detail,
	})
}

// mark records the deploy on GitHub. Failures are logged and ignored;
// the site is already live at this point.
func (r *Runner) mark(ctx context.Context, result *Result, pub *publisher.Publisher) {
	start := r.now()
	id, err := r.markDeployment(ctx, result, pub)

	sr := StepResult{
		Name:       StepMark,
		Status:     StatusOK,
		DurationMS: r.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		sr.Status = StatusFailed
		sr.Detail = err.Error()
		log.Warnf("Failed to mark deployment on GitHub: %v", err)
	} else {
		result.DeploymentID = id
		log.Infof("Marked deployment %d on GitHub", id)
	}
	result.Steps = append(result.Steps, sr)
}

func (r *Runner) markDeployment(ctx context.Context, result *Result, pub *publisher.Publisher) (int64, error) {
	url, err := pub.RemoteURL()
	if err != nil {
		return 0, err
	}
	repo, err := github.ParseRemote(url)
	if err != nil {
		return 0, err
	}

	token := r.resolveToken()
	if token == "" {
		return 0, fmt.Errorf("no GitHub token available")
	}

	client := github.NewClient(ctx, token)
	return github.MarkDeployment(ctx, client, *repo, github.MarkOptions{
		Ref:         result.CommitHash,
		Environment: r.opts.Config.GitHub.Environment,
	})
}

// warnDrafts notes content the generator will leave out of the build.
func (r *Runner) warnDrafts() {
	st := r.opts.Site
	if !st.HasContent() {
		return
	}
	posts, err := site.ScanContent(st.ContentDir)
	if err != nil {
		log.Debugf("Content scan failed: %v", err)
		return
	}
	if drafts := site.Drafts(posts); len(drafts) > 0 {
		log.Warnf("%d draft post(s) will not be published", len(drafts))
	}
}

// resolveToken picks the push/API token: the explicit option, then the
// GitHub token variables, then GIT_TOKEN for other https remotes.
func (r *Runner) resolveToken() string {
	if r.opts.Token != "" {
		return r.opts.Token
	}
	if token := github.Token(); token != "" {
		return token
	}
	return os.Getenv("GIT_TOKEN")
}

// commitMessage builds the deploy commit message: the configured
// prefix and the current date in the classic date(1) format.
func commitMessage(prefix string, when time.Time) string {
	return prefix + " " + when.Format(time.UnixDate)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
