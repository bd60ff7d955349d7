package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitepush/sitepush/pkg/deploy"
	gitx "github.com/sitepush/sitepush/pkg/git"
	"github.com/sitepush/sitepush/pkg/github"
	"github.com/sitepush/sitepush/pkg/lockfile"
	"github.com/sitepush/sitepush/pkg/redact"
	"github.com/sitepush/sitepush/pkg/site"
)

var statusGitHub bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the site, its content, and the publish checkout state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		proj, err := loadProject(buildOverrides{})
		if err != nil {
			return err
		}

		fmt.Printf("Site:      %s\n", proj.site.Root)
		if proj.configPath != "" {
			fmt.Printf("Config:    %s\n", proj.configPath)
		} else {
			fmt.Printf("Config:    defaults (no sitepush.yaml)\n")
		}
		printGenerator(proj)
		printContent(proj)
		remote := printOutput(ctx, proj)
		printLock(proj)
		printLastDeploy(proj)

		if statusGitHub {
			if err := printGitHubDeployment(ctx, proj, remote); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusGitHub, "github", false, "Also query GitHub for the latest deployment record")
	rootCmd.AddCommand(statusCmd)
}

func printGenerator(proj *project) {
	switch {
	case proj.site.Generator == "":
		fmt.Printf("Generator: none detected\n")
	case proj.site.Theme != "":
		fmt.Printf("Generator: %s (theme %s)\n", proj.site.Generator, proj.site.Theme)
	default:
		fmt.Printf("Generator: %s\n", proj.site.Generator)
	}
}

func printContent(proj *project) {
	if !proj.site.HasContent() {
		fmt.Printf("Content:   %s (missing)\n", proj.site.ContentDir)
		return
	}
	posts, err := site.ScanContent(proj.site.ContentDir)
	if err != nil {
		fmt.Printf("Content:   %s (scan failed: %v)\n", proj.site.ContentDir, err)
		return
	}
	drafts := len(site.Drafts(posts))
	fmt.Printf("Content:   %d posts, %d drafts\n", len(posts), drafts)
	if latest := site.Latest(posts); latest != nil {
		fmt.Printf("Latest:    %q (%s)\n", latest.Title, latest.Date.Format("2006-01-02"))
	}
}

// printOutput reports the publish checkout state and returns its remote
// URL so the GitHub lookup can reuse it.
func printOutput(ctx context.Context, proj *project) string {
	fmt.Printf("Output:    %s\n", proj.site.OutputDir)

	client := gitx.NewClient(proj.site.OutputDir)
	if !client.IsRepo(ctx) {
		fmt.Printf("           not a git checkout; clone the publish repository there first\n")
		return ""
	}

	branch, _ := client.CurrentBranch(ctx)
	state := "clean"
	if clean, err := client.IsClean(ctx); err == nil && !clean {
		state = "has unpublished changes"
	}
	if count, err := client.CommitCount(ctx); err == nil {
		fmt.Printf("           branch %s, %s, %d commits\n", branch, state, count)
	} else {
		fmt.Printf("           branch %s, %s\n", branch, state)
	}

	remote, err := client.RemoteURL(ctx, proj.cfg.Publish.Remote)
	if err != nil {
		fmt.Printf("           remote %s not configured\n", proj.cfg.Publish.Remote)
		return ""
	}
	fmt.Printf("           remote %s %s\n", proj.cfg.Publish.Remote, redact.URL(remote))
	return remote
}

func printLock(proj *project) {
	info, err := lockfile.Inspect(proj.site.OutputDir)
	if err != nil || info == nil {
		return
	}
	if info.Stale {
		fmt.Printf("Lock:      stale lock at %s; the next deploy will take it over\n", info.Path)
		return
	}
	fmt.Printf("Lock:      deploy in progress (pid %d)\n", info.PID)
}

func printLastDeploy(proj *project) {
	result, err := deploy.ReadResult(deploy.ResultPath(proj.site.Root))
	if err != nil {
		fmt.Printf("Deploy:    last record unreadable: %v\n", err)
		return
	}
	if result == nil {
		fmt.Printf("Deploy:    never deployed from this checkout\n")
		return
	}
	when := result.FinishedAt.Format("2006-01-02 15:04:05")
	switch {
	case result.Error != "":
		fmt.Printf("Deploy:    failed %s: %s\n", when, result.Error)
	case result.DryRun:
		fmt.Printf("Deploy:    dry run %s\n", when)
	case !result.Committed:
		fmt.Printf("Deploy:    no changes %s\n", when)
	default:
		fmt.Printf("Deploy:    %.8s %s (%s)\n", result.CommitHash, when, result.Message)
	}
}

func printGitHubDeployment(ctx context.Context, proj *project, remote string) error {
	if remote == "" {
		return fmt.Errorf("no remote to query; configure %s on the output checkout", proj.cfg.Publish.Remote)
	}
	repo, err := github.ParseRemote(remote)
	if err != nil {
		return err
	}

	client := github.NewClient(ctx, github.Token())
	info, err := github.LatestDeployment(ctx, client, *repo, proj.cfg.GitHub.Environment)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Printf("GitHub:    no deployments in %s\n", proj.cfg.GitHub.Environment)
		return nil
	}
	fmt.Printf("GitHub:    deployment %d (%s) %.8s at %s\n",
		info.ID, info.Environment, info.SHA, info.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
