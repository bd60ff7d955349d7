// Package preflight validates the host before a deploy touches anything.
// Checks cover the generator binary, the site and output directories, and
// the credentials a push needs. The doctor command runs the full set.
package preflight

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitepush/sitepush/pkg/builder"
	gitx "github.com/sitepush/sitepush/pkg/git"
	"github.com/sitepush/sitepush/pkg/github"
	"github.com/sitepush/sitepush/pkg/log"
)

// CheckLevel represents the severity level of a preflight check
type CheckLevel int

const (
	// LevelError indicates a critical failure that prevents deploying
	LevelError CheckLevel = iota
	// LevelWarn indicates a problem that should be addressed but doesn't block
	LevelWarn
	// LevelInfo indicates informational output
	LevelInfo
)

// String renders the level for the doctor output.
func (l CheckLevel) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	default:
		return "ok"
	}
}

// CheckResult represents the result of a single preflight check
type CheckResult struct {
	Name    string     // Check name
	Level   CheckLevel // Severity level
	Message string     // Human-readable message
	Error   error      // Underlying error (if any)
}

// Check represents a single preflight check
type Check interface {
	// Name returns the check name
	Name() string
	// Run executes the check and returns a CheckResult
	Run(ctx context.Context) CheckResult
}

// Checker runs a collection of preflight checks
type Checker struct {
	checks  []Check
	skipped bool
	quiet   bool
}

// Config configures the preflight checker
type Config struct {
	// Skip skips all preflight checks
	Skip bool
	// Quiet suppresses info-level messages
	Quiet bool
	// Builder is checked for availability when set
	Builder builder.Builder
	// SitePath is the site root for existence checks
	SitePath string
	// OutputPath is the output checkout; it must be a git repository
	OutputPath string
	// Remote is the remote the output checkout must have configured
	Remote string
	// CheckGitHubToken includes the token check
	CheckGitHubToken bool
	// RequireGitHubToken raises a missing token from warning to error
	RequireGitHubToken bool
	// CheckNetwork includes the best-effort connectivity check
	CheckNetwork bool
	// CheckDiskSpace includes the disk space check
	CheckDiskSpace bool
}

// NewChecker creates a new preflight checker with the given configuration
func NewChecker(cfg Config) *Checker {
	c := &Checker{
		skipped: cfg.Skip,
		quiet:   cfg.Quiet,
	}

	c.checks = append(c.checks, &GitCheck{})
	if cfg.Builder != nil {
		c.checks = append(c.checks, &GeneratorCheck{Builder: cfg.Builder})
	}
	if cfg.SitePath != "" {
		c.checks = append(c.checks, &SiteCheck{Path: cfg.SitePath})
	}
	if cfg.OutputPath != "" {
		c.checks = append(c.checks, &OutputCheck{Path: cfg.OutputPath, Remote: cfg.Remote})
		c.checks = append(c.checks, &WritableCheck{Path: cfg.OutputPath})
	}
	if cfg.CheckGitHubToken {
		c.checks = append(c.checks, &GitHubTokenCheck{Required: cfg.RequireGitHubToken})
	}
	if cfg.CheckNetwork {
		c.checks = append(c.checks, &NetworkCheck{})
	}
	if cfg.CheckDiskSpace {
		c.checks = append(c.checks, &DiskSpaceCheck{Path: cfg.OutputPath})
	}

	return c
}

// RunAll executes every registered check and returns the individual results.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	results := make([]CheckResult, 0, len(c.checks))
	for _, check := range c.checks {
		results = append(results, check.Run(ctx))
	}
	return results
}

// Run executes all registered checks and returns an error if any critical checks fail
func (c *Checker) Run(ctx context.Context) error {
	if c.skipped {
		log.Info("Preflight checks skipped")
		return nil
	}

	log.Progress("Running preflight checks")

	var errors []error
	var warnings []string

	for _, result := range c.RunAll(ctx) {
		switch result.Level {
		case LevelError:
			log.Errorf("Preflight check %s failed: %s", result.Name, result.Message)
			if result.Error != nil {
				errors = append(errors, result.Error)
			} else {
				errors = append(errors, fmt.Errorf("%s: %s", result.Name, result.Message))
			}
		case LevelWarn:
			log.Warnf("Preflight check %s: %s", result.Name, result.Message)
			warnings = append(warnings, fmt.Sprintf("%s: %s", result.Name, result.Message))
		case LevelInfo:
			if !c.quiet {
				log.Debugf("Preflight check %s: %s", result.Name, result.Message)
			}
		}
	}

	if len(warnings) > 0 {
		log.Infof("Preflight finished with %d warning(s)", len(warnings))
	}

	if len(errors) > 0 {
		var errMsgs []string
		for _, err := range errors {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("preflight checks failed:\n  - %s", strings.Join(errMsgs, "\n  - "))
	}

	log.Progress("Preflight checks passed")
	return nil
}

// GeneratorCheck checks that the selected site generator can run
type GeneratorCheck struct {
	Builder builder.Builder
}

func (c *GeneratorCheck) Name() string {
	return "generator"
}

func (c *GeneratorCheck) Run(ctx context.Context) CheckResult {
	if c.Builder == nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: "no site generator selected; set build.generator or add a generator config to the site",
			Error:   fmt.Errorf("no generator selected"),
		}
	}

	if err := c.Builder.Available(); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("generator %s is not usable: %v", c.Builder.Name(), err),
			Error:   err,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("generator %s is available", c.Builder.Name()),
	}
}

// GitCheck checks if git is installed
type GitCheck struct{}

func (c *GitCheck) Name() string {
	return "git"
}

func (c *GitCheck) Run(ctx context.Context) CheckResult {
	_, err := exec.LookPath("git")
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: "git command not found. Please install Git from https://git-scm.com/downloads",
			Error:   err,
		}
	}

	cmd := exec.CommandContext(ctx, "git", "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: "git is installed but may not be working correctly",
			Error:   err,
		}
	}

	version := strings.TrimSpace(string(output))
	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("git is available (%s)", version),
	}
}

// SiteCheck checks that the site root exists
type SiteCheck struct {
	Path string
}

func (c *SiteCheck) Name() string {
	return "site"
}

func (c *SiteCheck) Run(ctx context.Context) CheckResult {
	absPath, err := filepath.Abs(c.Path)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("failed to resolve site path: %s", c.Path),
			Error:   err,
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:    c.Name(),
				Level:   LevelError,
				Message: fmt.Sprintf("site path does not exist: %s", absPath),
				Error:   err,
			}
		}
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("cannot access site path: %s", absPath),
			Error:   err,
		}
	}

	if !info.IsDir() {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("site path is not a directory: %s", absPath),
			Error:   fmt.Errorf("not a directory"),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("site is accessible: %s", absPath),
	}
}

// OutputCheck checks that the output directory is a git checkout ready to
// publish. The directory is never created here; a missing checkout is a
// setup error the user has to fix.
type OutputCheck struct {
	Path   string
	Remote string
}

func (c *OutputCheck) Name() string {
	return "output"
}

func (c *OutputCheck) Run(ctx context.Context) CheckResult {
	absPath, err := filepath.Abs(c.Path)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("failed to resolve output path: %s", c.Path),
			Error:   err,
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:    c.Name(),
				Level:   LevelError,
				Message: fmt.Sprintf("output directory does not exist: %s (clone the publish repository there first)", absPath),
				Error:   err,
			}
		}
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("cannot access output directory: %s", absPath),
			Error:   err,
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("output path is not a directory: %s", absPath),
			Error:   fmt.Errorf("not a directory"),
		}
	}

	client := gitx.NewClient(absPath)
	if !client.IsRepo(ctx) {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("output directory is not a git repository: %s (clone the publish repository there first)", absPath),
			Error:   fmt.Errorf("not a git repository"),
		}
	}

	if c.Remote != "" && !client.HasRemote(ctx, c.Remote) {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("output checkout has no remote '%s': %s", c.Remote, absPath),
			Error:   fmt.Errorf("remote '%s' not configured", c.Remote),
		}
	}

	if clean, err := client.IsClean(ctx); err == nil && !clean {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: fmt.Sprintf("output checkout has uncommitted changes: %s (next deploy will include them)", absPath),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("output checkout is ready: %s", absPath),
	}
}

// WritableCheck checks that a directory accepts new files
type WritableCheck struct {
	Path string
}

func (c *WritableCheck) Name() string {
	return "writable"
}

func (c *WritableCheck) Run(ctx context.Context) CheckResult {
	testFile := filepath.Join(c.Path, fmt.Sprintf(".sitepush-write-test-%d", os.Getpid()))
	f, err := os.Create(testFile)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("directory is not writable: %s", c.Path),
			Error:   err,
		}
	}
	f.Close()
	_ = os.Remove(testFile)

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("directory is writable: %s", c.Path),
	}
}

// GitHubTokenCheck checks if a GitHub token is available
type GitHubTokenCheck struct {
	// Required raises a missing token to an error
	Required bool
}

func (c *GitHubTokenCheck) Name() string {
	return "github-token"
}

func (c *GitHubTokenCheck) Run(ctx context.Context) CheckResult {
	if token := github.Token(); token != "" {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelInfo,
			Message: "GitHub token available (from environment)",
		}
	}

	// Fall back to the gh CLI session
	if _, err := exec.LookPath("gh"); err == nil {
		cmd := exec.CommandContext(ctx, "gh", "auth", "token")
		output, err := cmd.Output()
		if err == nil && strings.TrimSpace(string(output)) != "" {
			return CheckResult{
				Name:    c.Name(),
				Level:   LevelInfo,
				Message: "GitHub token available (from gh auth token)",
			}
		}
	}

	level := LevelWarn
	if c.Required {
		level = LevelError
	}
	return CheckResult{
		Name:    c.Name(),
		Level:   level,
		Message: "GitHub token not found. Set GITHUB_TOKEN, or run 'gh auth login' to authenticate with the gh CLI",
		Error:   fmt.Errorf("no GitHub token found"),
	}
}

// NetworkCheck performs a basic connectivity check against the push host.
// This is best-effort and may not catch all network issues.
type NetworkCheck struct {
	URL string // URL to check (default: https://github.com/)
}

func (c *NetworkCheck) Name() string {
	return "network"
}

func (c *NetworkCheck) Run(ctx context.Context) CheckResult {
	url := c.URL
	if url == "" {
		url = "https://github.com/"
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, url, nil)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: "failed to create network check request",
			Error:   err,
		}
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: "network may be unavailable or restricted (pushes can fail)",
			Error:   err,
		}
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		log.Debugf("Failed to drain response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: fmt.Sprintf("network check returned unexpected status: %d", resp.StatusCode),
			Error:   fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: "network connectivity appears functional",
	}
}

// DiskSpaceCheck verifies the output volume accepts a modest test write
type DiskSpaceCheck struct {
	Path string
}

func (c *DiskSpaceCheck) Name() string {
	return "disk-space"
}

func (c *DiskSpaceCheck) Run(ctx context.Context) CheckResult {
	path := c.Path
	if path == "" {
		path = os.TempDir()
	}

	testFile := filepath.Join(path, fmt.Sprintf(".sitepush-dspace-test-%d", os.Getpid()))
	f, err := os.Create(testFile)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: "cannot verify disk space (write test failed)",
			Error:   err,
		}
	}

	chunk := make([]byte, 1024*1024) // 1MB chunks
	for i := 0; i < 10; i++ {
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			_ = os.Remove(testFile)
			return CheckResult{
				Name:    c.Name(),
				Level:   LevelWarn,
				Message: "low disk space detected",
				Error:   err,
			}
		}
	}
	f.Close()
	_ = os.Remove(testFile)

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: "disk space appears sufficient",
	}
}
