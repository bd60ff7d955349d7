package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// The docker builder registers itself when the daemon is needed.
	_ "github.com/sitepush/sitepush/pkg/builder/docker"
	"github.com/sitepush/sitepush/pkg/deploy"
	"github.com/sitepush/sitepush/pkg/log"
)

var (
	flagSite     string
	flagConfig   string
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "sitepush",
	Short: "sitepush builds a static site and pushes the output to its publish repository.",
	Long: `sitepush automates the rebuild-and-publish loop of a static site.

A site has two checkouts: the source tree the generator reads, and the
output directory the generator writes, which is its own git repository
(a GitHub Pages branch, for example). Deploying runs the generator,
then stages, commits, and pushes everything in the output checkout.

Configuration lives in sitepush.yaml at the site root; every value can
be overridden with flags. Run 'sitepush doctor' to verify a setup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		format := "console"
		if flagLogJSON {
			format = "json"
		}
		return log.Init(log.Config{Level: level, Format: format})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSite, "site", "s", "", "Path to the site root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the config file (default: sitepush.yaml in the site root)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, progress, minimal, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON")
}

func main() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(deploy.ExitCode(err))
	}
}
