package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitepush/sitepush/pkg/preflight"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the host is ready to deploy",
	Long: `Doctor runs every preflight check, including the slow ones the deploy
pipeline skips, and prints one line per check. It exits non-zero when
any check finds a blocking problem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		proj, err := loadProject(buildOverrides{})
		if err != nil {
			return err
		}

		problems := 0
		b, berr := proj.resolveBuilder()
		if berr != nil {
			printCheck(preflight.CheckResult{
				Name:    "generator",
				Level:   preflight.LevelError,
				Message: berr.Error(),
			})
			problems++
		}

		checker := preflight.NewChecker(preflight.Config{
			Quiet:              true,
			Builder:            b,
			SitePath:           proj.site.Root,
			OutputPath:         proj.site.OutputDir,
			Remote:             proj.cfg.Publish.Remote,
			CheckGitHubToken:   true,
			RequireGitHubToken: proj.cfg.GitHub.Deployments,
			CheckNetwork:       true,
			CheckDiskSpace:     true,
		})
		for _, result := range checker.RunAll(ctx) {
			printCheck(result)
			if result.Level == preflight.LevelError {
				problems++
			}
		}

		if problems == 1 {
			return fmt.Errorf("1 problem found")
		}
		if problems > 0 {
			return fmt.Errorf("%d problems found", problems)
		}
		fmt.Println("All checks passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func printCheck(result preflight.CheckResult) {
	fmt.Printf("%-6s %-13s %s\n", result.Level.String(), result.Name, result.Message)
}
