package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitepush/sitepush/pkg/builder"
	"github.com/sitepush/sitepush/pkg/deploy"
)

var (
	deployGenerator     string
	deployTheme         string
	deployOutput        string
	deployMessage       string
	deployToken         string
	deployDryRun        bool
	deploySkipBuild     bool
	deploySkipPush      bool
	deploySkipPreflight bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build the site and push the output checkout",
	Long: `Deploy runs the full pipeline: preflight checks, the site generator,
then stage, commit, and push of the output checkout. The commit message
is the configured prefix followed by the current date, so every deploy
leaves a dated mark in the publish history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		proj, err := loadProject(buildOverrides{
			generator: deployGenerator,
			theme:     deployTheme,
			output:    deployOutput,
		})
		if err != nil {
			return err
		}

		var b builder.Builder
		if !deploySkipBuild {
			if b, err = proj.resolveBuilder(); err != nil {
				return err
			}
		}

		runner, err := deploy.New(deploy.Options{
			Site:          proj.site,
			Config:        proj.cfg,
			Builder:       b,
			DryRun:        deployDryRun,
			SkipBuild:     deploySkipBuild,
			SkipPush:      deploySkipPush,
			SkipPreflight: deploySkipPreflight,
			Message:       deployMessage,
			Token:         deployToken,
		})
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx)
		printDeploySummary(result)
		return err
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployGenerator, "generator", "", "Site generator: hugo, jekyll, command, docker (default: autodetect)")
	deployCmd.Flags().StringVarP(&deployTheme, "theme", "t", "", "Theme passed to the generator")
	deployCmd.Flags().StringVarP(&deployOutput, "output", "o", "", "Output directory, the publish checkout (default: public)")
	deployCmd.Flags().StringVarP(&deployMessage, "message", "m", "", "Commit message (default: prefix + current date)")
	deployCmd.Flags().StringVar(&deployToken, "token", "", "GitHub token for push auth and deployment records (default: environment)")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Build and validate but commit and push nothing")
	deployCmd.Flags().BoolVar(&deploySkipBuild, "skip-build", false, "Publish the output directory as it stands")
	deployCmd.Flags().BoolVar(&deploySkipPush, "skip-push", false, "Commit locally without touching the remote")
	deployCmd.Flags().BoolVar(&deploySkipPreflight, "skip-preflight", false, "Bypass the environment checks")
	rootCmd.AddCommand(deployCmd)
}

// printDeploySummary writes the human result line for a finished run.
func printDeploySummary(result *deploy.Result) {
	if result == nil {
		return
	}
	switch {
	case result.Error != "":
		fmt.Printf("Deploy failed after %dms: %s\n", result.DurationMS, result.Error)
	case result.DryRun:
		fmt.Printf("Dry run complete: would commit %q\n", result.Message)
	case !result.Committed:
		fmt.Println("Nothing to deploy: output matches the last commit")
	case !result.Pushed:
		fmt.Printf("Committed %.8s (%s), push skipped\n", result.CommitHash, result.Message)
	default:
		fmt.Printf("Deployed %.8s to %s/%s (%s)\n", result.CommitHash, result.Remote, result.Branch, result.Message)
	}
}
