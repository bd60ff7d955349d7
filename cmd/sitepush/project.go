package main

import (
	"fmt"
	"path/filepath"

	"github.com/sitepush/sitepush/pkg/builder"
	"github.com/sitepush/sitepush/pkg/config"
	"github.com/sitepush/sitepush/pkg/log"
	"github.com/sitepush/sitepush/pkg/site"
)

// project is what every command works against: the config file merged over
// defaults, and the resolved site layout.
type project struct {
	cfg        *config.Config
	site       *site.Site
	configPath string
}

// buildOverrides carries the per-command flags that win over the config file.
type buildOverrides struct {
	generator string
	theme     string
	output    string
}

// loadProject resolves the site root, loads the config, and locates the site.
// Precedence is flags, then the config file, then detection.
func loadProject(ov buildOverrides) (*project, error) {
	root := flagSite
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site path: %w", err)
	}

	cfg := config.Default()
	path := flagConfig
	if path == "" {
		if found, ok := config.Find(root); ok {
			path = found
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		log.Debugf("Loaded config from %s", path)
	}

	// The config file may point at a different site root. A --site flag
	// always wins; a relative config root resolves against the file.
	if flagSite == "" && cfg.Site.Root != "" {
		declared := cfg.Site.Root
		if !filepath.IsAbs(declared) && path != "" {
			declared = filepath.Join(filepath.Dir(path), declared)
		}
		root = declared
	}

	// Logging flags were applied before the config existed. Re-init from
	// the config unless the flags already chose.
	if flagLogLevel == "" && !flagLogJSON {
		if level, perr := log.ParseLevel(cfg.Log.Level); perr == nil {
			if ierr := log.Init(log.Config{Level: level, Format: cfg.Log.Format}); ierr != nil {
				return nil, ierr
			}
		}
	}

	generator := ov.generator
	if generator == "" {
		generator = cfg.Build.Generator
	}
	theme := ov.theme
	if theme == "" {
		theme = cfg.Build.Theme
	}
	output := ov.output
	if output == "" {
		output = cfg.Site.Output
	}

	st, err := site.Locate(site.LocateOptions{
		Root:      root,
		Output:    output,
		Content:   cfg.Site.Content,
		Generator: generator,
		Theme:     theme,
	})
	if err != nil {
		return nil, err
	}

	return &project{cfg: cfg, site: st, configPath: path}, nil
}

// resolveBuilder picks the builder for the project's generator.
func (p *project) resolveBuilder() (builder.Builder, error) {
	if p.site.Generator == "" {
		return nil, fmt.Errorf("no site generator detected in %s; set build.generator in sitepush.yaml or pass --generator", p.site.Root)
	}
	return builder.Resolve(p.site.Generator)
}

// buildRequest assembles the builder request for the project.
func (p *project) buildRequest() builder.BuildRequest {
	return builder.BuildRequest{
		SiteDir:   p.site.Root,
		OutputDir: p.site.OutputDir,
		Theme:     p.site.Theme,
		ExtraArgs: p.cfg.Build.Args,
		Command:   p.cfg.Build.Command,
		Image:     p.cfg.Build.Image,
		Env:       p.cfg.Build.Env,
	}
}
