package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sitepush/sitepush/pkg/deploy"
)

var (
	publishOutput        string
	publishRemote        string
	publishBranch        string
	publishMessage       string
	publishToken         string
	publishAllowEmpty    bool
	publishSkipPush      bool
	publishSkipPreflight bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Commit and push the output checkout without rebuilding",
	Long: `Publish stages, commits, and pushes whatever the output directory
holds right now. Use it after an external build, or to re-push a
checkout whose last push failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		proj, err := loadProject(buildOverrides{output: publishOutput})
		if err != nil {
			return err
		}

		if publishRemote != "" {
			proj.cfg.Publish.Remote = publishRemote
		}
		if publishBranch != "" {
			proj.cfg.Publish.Branch = publishBranch
		}
		if cmd.Flags().Changed("allow-empty") {
			proj.cfg.Publish.AllowEmpty = publishAllowEmpty
		}

		runner, err := deploy.New(deploy.Options{
			Site:          proj.site,
			Config:        proj.cfg,
			SkipBuild:     true,
			SkipPush:      publishSkipPush,
			SkipPreflight: publishSkipPreflight,
			Message:       publishMessage,
			Token:         publishToken,
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
	publishCmd.Flags().StringVarP(&publishOutput, "output", "o", "", "Output directory, the publish checkout (default: public)")
	publishCmd.Flags().StringVar(&publishRemote, "remote", "", "Remote to push to (default: origin)")
	publishCmd.Flags().StringVar(&publishBranch, "branch", "", "Branch to push (default: master)")
	publishCmd.Flags().StringVarP(&publishMessage, "message", "m", "", "Commit message (default: prefix + current date)")
	publishCmd.Flags().StringVar(&publishToken, "token", "", "GitHub token for push auth (default: environment)")
	publishCmd.Flags().BoolVar(&publishAllowEmpty, "allow-empty", true, "Commit even when the output has not changed")
	publishCmd.Flags().BoolVar(&publishSkipPush, "skip-push", false, "Commit locally without touching the remote")
	publishCmd.Flags().BoolVar(&publishSkipPreflight, "skip-preflight", false, "Bypass the environment checks")
	rootCmd.AddCommand(publishCmd)
}
