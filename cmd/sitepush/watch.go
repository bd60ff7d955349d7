package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sitepush/sitepush/pkg/builder"
	"github.com/sitepush/sitepush/pkg/deploy"
	"github.com/sitepush/sitepush/pkg/log"
	"github.com/sitepush/sitepush/pkg/watch"
)

var (
	watchGenerator string
	watchTheme     string
	watchOutput    string
	watchDeploy    bool
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the site whenever its sources change",
	Long: `Watch monitors the site sources and reruns the generator after each
burst of changes. With --deploy every rebuild runs the full deploy
pipeline instead, pushing the result. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		proj, err := loadProject(buildOverrides{
			generator: watchGenerator,
			theme:     watchTheme,
			output:    watchOutput,
		})
		if err != nil {
			return err
		}
		b, err := proj.resolveBuilder()
		if err != nil {
			return err
		}

		deploying := watchDeploy || proj.cfg.Watch.Deploy
		var runner *deploy.Runner
		if deploying {
			runner, err = deploy.New(deploy.Options{
				Site:    proj.site,
				Config:  proj.cfg,
				Builder: b,
			})
			if err != nil {
				return err
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info("Shutting down")
			cancel()
		}()

		watchers, err := startWatchers(ctx, proj)
		if err != nil {
			return err
		}
		defer func() {
			for _, w := range watchers {
				w.Stop()
			}
		}()

		// One rebuild up front so the output matches the sources before
		// the first change arrives.
		rebuild(ctx, proj, b, runner)

		batches := mergeChanges(ctx, watchers)
		fmt.Printf("Watching %s (debounce %s)\n", proj.site.Root, debounceFor(proj))
		for {
			select {
			case <-ctx.Done():
				return nil
			case batch := <-batches:
				log.Infof("%d changed: %s", len(batch), summarizePaths(proj.site.Root, batch))
				rebuild(ctx, proj, b, runner)
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchGenerator, "generator", "", "Site generator: hugo, jekyll, command, docker (default: autodetect)")
	watchCmd.Flags().StringVarP(&watchTheme, "theme", "t", "", "Theme passed to the generator")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output directory (default: public)")
	watchCmd.Flags().BoolVar(&watchDeploy, "deploy", false, "Run the full deploy pipeline on every change")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Settle time before a rebuild (default: config, 500ms)")
	rootCmd.AddCommand(watchCmd)
}

// startWatchers starts one watcher per configured directory, or one on
// the site root. The output directory is always ignored so generator
// writes cannot retrigger the loop.
func startWatchers(ctx context.Context, proj *project) ([]*watch.Watcher, error) {
	roots := make([]string, 0, len(proj.cfg.Watch.Dirs))
	for _, dir := range proj.cfg.Watch.Dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(proj.site.Root, dir)
		}
		roots = append(roots, dir)
	}
	if len(roots) == 0 {
		roots = []string{proj.site.Root}
	}

	var watchers []*watch.Watcher
	for _, root := range roots {
		ignore := outputIgnores(root, proj.site.OutputDir)
		w, err := watch.New(watch.Options{
			Root:     root,
			Debounce: debounceFor(proj),
			Ignore:   ignore,
		})
		if err != nil {
			stopWatchers(watchers)
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			stopWatchers(watchers)
			return nil, err
		}
		watchers = append(watchers, w)
	}
	return watchers, nil
}

func stopWatchers(watchers []*watch.Watcher) {
	for _, w := range watchers {
		w.Stop()
	}
}

// mergeChanges fans the per-watcher batch channels into one.
func mergeChanges(ctx context.Context, watchers []*watch.Watcher) <-chan []string {
	batches := make(chan []string)
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case batch := <-w.Changes():
					select {
					case batches <- batch:
					case <-gctx.Done():
						return nil
					}
				}
			}
		})
	}
	go func() {
		_ = g.Wait()
		close(batches)
	}()
	return batches
}

// outputIgnores returns the ignore pattern for the output directory when
// it sits inside the watched root.
func outputIgnores(root, output string) []string {
	rel, err := filepath.Rel(root, output)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	return []string{filepath.ToSlash(rel)}
}

// rebuild runs one build or deploy. Failures are logged so the loop
// keeps running; the next change gets another chance.
func rebuild(ctx context.Context, proj *project, b builder.Builder, runner *deploy.Runner) {
	if ctx.Err() != nil {
		return
	}
	if runner != nil {
		if result, err := runner.Run(ctx); err != nil {
			log.Errorf("Deploy failed: %v", err)
		} else if result.Committed {
			log.Progressf("Deployed %.8s", result.CommitHash)
		}
		return
	}
	if res, err := b.Build(ctx, proj.buildRequest()); err != nil {
		log.Errorf("Build failed: %v", err)
	} else {
		log.Progressf("Rebuilt in %s", res.Duration.Round(time.Millisecond))
	}
}

func debounceFor(proj *project) time.Duration {
	if watchDebounce > 0 {
		return watchDebounce
	}
	return proj.cfg.Debounce()
}

// summarizePaths renders a change batch as root-relative paths, elided
// past the first three.
func summarizePaths(root string, paths []string) string {
	shown := make([]string, 0, 3)
	for _, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		shown = append(shown, p)
		if len(shown) == 3 {
			break
		}
	}
	if extra := len(paths) - len(shown); extra > 0 {
		return fmt.Sprintf("%s and %d more", strings.Join(shown, ", "), extra)
	}
	return strings.Join(shown, ", ")
}
