// Package github marks site deployments on GitHub after a push, so the repo
// shows an environment history next to the commits. Everything here is
// best-effort from the deploy flow's point of view; a failed API call never
// rolls back a published site.
package github

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/sitepush/sitepush/pkg/log"
)

const (
	// TokenEnv is the primary environment variable for the API token.
	TokenEnv = "GITHUB_TOKEN"

	// FallbackTokenEnv is checked when TokenEnv is unset. It matches the gh
	// CLI convention.
	FallbackTokenEnv = "GH_TOKEN"

	// DefaultEnvironment is the deployment environment reported when none is
	// configured.
	DefaultEnvironment = "production"
)

// Token returns the GitHub API token from the environment, or empty.
func Token() string {
	if token := os.Getenv(TokenEnv); token != "" {
		return token
	}
	return os.Getenv(FallbackTokenEnv)
}

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// MarkOptions describes the deployment to record.
type MarkOptions struct {
	// Ref is the pushed commit SHA or branch name.
	Ref string

	// Environment names the deployment environment (default: production).
	Environment string

	// Description is attached to the deployment.
	Description string

	// Retry overrides the default retry configuration.
	Retry *RetryConfig
}

// MarkDeployment creates a deployment for the pushed ref and immediately
// flags it successful. Returns the deployment ID.
func MarkDeployment(ctx context.Context, client *github.Client, repo RepoRef, opts MarkOptions) (int64, error) {
	if opts.Ref == "" {
		return 0, fmt.Errorf("deployment ref is required")
	}
	if opts.Environment == "" {
		opts.Environment = DefaultEnvironment
	}
	if opts.Description == "" {
		opts.Description = "Deployed by sitepush"
	}
	rc := opts.Retry
	if rc == nil {
		rc = DefaultRetryConfig()
	}

	req := &github.DeploymentRequest{
		Ref:         github.String(opts.Ref),
		Environment: github.String(opts.Environment),
		Description: github.String(opts.Description),
		AutoMerge:   github.Bool(false),
		// No commit status gates on deploy records
		RequiredContexts: &[]string{},
	}

	deployment, err := createDeploymentWithRetry(ctx, client, repo, req, rc)
	if err != nil {
		return 0, fmt.Errorf("failed to create deployment for %s: %w", repo, err)
	}

	status := &github.DeploymentStatusRequest{
		State:       github.String("success"),
		Description: github.String(opts.Description),
		Environment: github.String(opts.Environment),
	}
	if _, _, err := client.Repositories.CreateDeploymentStatus(ctx, repo.Owner, repo.Repo, deployment.GetID(), status); err != nil {
		return deployment.GetID(), fmt.Errorf("failed to set deployment status: %w", err)
	}

	return deployment.GetID(), nil
}

func createDeploymentWithRetry(ctx context.Context, client *github.Client, repo RepoRef, req *github.DeploymentRequest, rc *RetryConfig) (*github.Deployment, error) {
	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		deployment, resp, err := client.Repositories.CreateDeployment(ctx, repo.Owner, repo.Repo, req)
		if err == nil {
			return deployment, nil
		}
		lastErr = err

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		if !rc.ShouldRetry(statusCode) && !IsRetryableError(err) {
			return nil, err
		}
		if attempt == rc.MaxAttempts-1 {
			break
		}

		delay := rc.GetDelay(attempt)
		log.Debugf("Deployment create attempt %d failed (%v), retrying in %s", attempt+1, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// DeploymentInfo is the subset of deployment metadata the status command
// shows.
type DeploymentInfo struct {
	ID          int64
	SHA         string
	Ref         string
	Environment string
	Description string
	Creator     string
	CreatedAt   time.Time
}

// convertFromGitHubDeployment converts a github.Deployment to our DeploymentInfo type
func convertFromGitHubDeployment(d *github.Deployment) DeploymentInfo {
	creator := ""
	if user := d.GetCreator(); user != nil {
		creator = user.GetLogin()
	}
	return DeploymentInfo{
		ID:          d.GetID(),
		SHA:         d.GetSHA(),
		Ref:         d.GetRef(),
		Environment: d.GetEnvironment(),
		Description: d.GetDescription(),
		Creator:     creator,
		CreatedAt:   d.GetCreatedAt().Time,
	}
}

// ListDeployments returns the repository's deployments for an environment,
// newest first, handling pagination.
func ListDeployments(ctx context.Context, client *github.Client, repo RepoRef, environment string) ([]DeploymentInfo, error) {
	opts := &github.DeploymentsListOptions{
		Environment: environment,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []DeploymentInfo
	for {
		deployments, resp, err := client.Repositories.ListDeployments(ctx, repo.Owner, repo.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}

		for _, d := range deployments {
			all = append(all, convertFromGitHubDeployment(d))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// LatestDeployment returns the most recent deployment for an environment, or
// nil when the repository has none.
func LatestDeployment(ctx context.Context, client *github.Client, repo RepoRef, environment string) (*DeploymentInfo, error) {
	opts := &github.DeploymentsListOptions{
		Environment: environment,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	deployments, _, err := client.Repositories.ListDeployments(ctx, repo.Owner, repo.Repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	if len(deployments) == 0 {
		return nil, nil
	}
	info := convertFromGitHubDeployment(deployments[0])
	return &info, nil
}
