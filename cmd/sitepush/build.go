package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	buildGenerator string
	buildTheme     string
	buildOutput    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the site generator without publishing",
	Long: `Build runs the configured generator and writes the site into the
output directory. Nothing is committed or pushed; use deploy for the
full pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		proj, err := loadProject(buildOverrides{
			generator: buildGenerator,
			theme:     buildTheme,
			output:    buildOutput,
		})
		if err != nil {
			return err
		}

		b, err := proj.resolveBuilder()
		if err != nil {
			return err
		}
		if err := b.Available(); err != nil {
			return fmt.Errorf("generator %s is not usable: %w", b.Name(), err)
		}

		res, err := b.Build(ctx, proj.buildRequest())
		if err != nil {
			return err
		}
		fmt.Printf("Built with %s in %s\n", res.Builder, res.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildGenerator, "generator", "", "Site generator: hugo, jekyll, command, docker (default: autodetect)")
	buildCmd.Flags().StringVarP(&buildTheme, "theme", "t", "", "Theme passed to the generator")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory (default: public)")
	rootCmd.AddCommand(buildCmd)
}
