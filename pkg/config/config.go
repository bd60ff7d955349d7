// Package config loads and validates the sitepush.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sitepush/sitepush/pkg/log"
)

// fileNames are the config file names probed in the site root, in order.
var fileNames = []string{"sitepush.yaml", "sitepush.yml", ".sitepush.yaml"}

// Config is the full sitepush.yaml schema. Relative paths inside it are
// resolved against the site root, not the process working directory.
type Config struct {
	Site    SiteConfig    `yaml:"site,omitempty"`
	Build   BuildConfig   `yaml:"build,omitempty"`
	Publish PublishConfig `yaml:"publish,omitempty"`
	GitHub  GitHubConfig  `yaml:"github,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// SiteConfig locates the site source and its generated output.
type SiteConfig struct {
	Root    string `yaml:"root,omitempty"`
	Output  string `yaml:"output,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// BuildConfig selects and parameterizes the site generator.
type BuildConfig struct {
	Generator string            `yaml:"generator,omitempty"` // hugo | jekyll | command | docker (empty = autodetect)
	Theme     string            `yaml:"theme,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	Command   []string          `yaml:"command,omitempty"` // generator=command
	Image     string            `yaml:"image,omitempty"`   // generator=docker
	Env       map[string]string `yaml:"env,omitempty"`
}

// PublishConfig controls the stage/commit/push of the output checkout.
type PublishConfig struct {
	Remote        string       `yaml:"remote,omitempty"`
	Branch        string       `yaml:"branch,omitempty"`
	MessagePrefix string       `yaml:"message_prefix,omitempty"`
	AllowEmpty    bool         `yaml:"allow_empty"`
	Author        AuthorConfig `yaml:"author,omitempty"`
}

// AuthorConfig overrides the commit author resolved from git config.
type AuthorConfig struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// GitHubConfig enables deployment marking after a successful push.
type GitHubConfig struct {
	Deployments bool   `yaml:"deployments,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// WatchConfig tunes the rebuild-on-change loop.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms,omitempty"`
	Dirs       []string `yaml:"dirs,omitempty"`
	Deploy     bool     `yaml:"deploy,omitempty"` // full deploy per change batch instead of build only
}

// LogConfig mirrors the log package configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a config with every default filled in. Load unmarshals on
// top of it, so absent keys keep their defaults and explicit zero values win.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Output:  "public",
			Content: "content",
		},
		Publish: PublishConfig{
			Remote:        "origin",
			Branch:        "master",
			MessagePrefix: "Rebuild",
			AllowEmpty:    true,
		},
		GitHub: GitHubConfig{
			Environment: "production",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Log: LogConfig{
			Level:  string(log.LevelProgress),
			Format: "console",
		},
	}
}

// Find probes dir for a config file and reports whether one exists.
func Find(dir string) (string, bool) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// Load reads, normalizes, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// normalize trims fields and restores defaults that were emptied out.
func (c *Config) normalize() {
	c.Site.Root = strings.TrimSpace(c.Site.Root)
	c.Site.Output = strings.TrimSpace(c.Site.Output)
	if c.Site.Output == "" {
		c.Site.Output = "public"
	}
	c.Site.Content = strings.TrimSpace(c.Site.Content)
	if c.Site.Content == "" {
		c.Site.Content = "content"
	}

	c.Build.Generator = strings.ToLower(strings.TrimSpace(c.Build.Generator))
	c.Build.Theme = strings.TrimSpace(c.Build.Theme)
	c.Build.Image = strings.TrimSpace(c.Build.Image)

	c.Publish.Remote = strings.TrimSpace(c.Publish.Remote)
	if c.Publish.Remote == "" {
		c.Publish.Remote = "origin"
	}
	c.Publish.Branch = strings.TrimSpace(c.Publish.Branch)
	if c.Publish.Branch == "" {
		c.Publish.Branch = "master"
	}
	c.Publish.MessagePrefix = strings.TrimSpace(c.Publish.MessagePrefix)
	if c.Publish.MessagePrefix == "" {
		c.Publish.MessagePrefix = "Rebuild"
	}
	c.Publish.Author.Name = strings.TrimSpace(c.Publish.Author.Name)
	c.Publish.Author.Email = strings.TrimSpace(c.Publish.Author.Email)

	c.GitHub.Environment = strings.TrimSpace(c.GitHub.Environment)
	if c.GitHub.Environment == "" {
		c.GitHub.Environment = "production"
	}

	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = 500
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks field combinations that Load cannot express structurally.
func (c *Config) Validate() error {
	switch c.Build.Generator {
	case "", "hugo", "jekyll", "command", "docker":
	default:
		return fmt.Errorf("build.generator: unknown generator %q (expected hugo, jekyll, command, or docker)", c.Build.Generator)
	}

	if c.Build.Generator == "command" && len(c.Build.Command) == 0 {
		return fmt.Errorf("build.command is required when build.generator=command")
	}
	if len(c.Build.Command) > 0 && strings.TrimSpace(c.Build.Command[0]) == "" {
		return fmt.Errorf("build.command[0] cannot be empty")
	}
	for key := range c.Build.Env {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("build.env contains an empty variable name")
		}
	}

	if strings.ContainsAny(c.Publish.Branch, " \t") {
		return fmt.Errorf("publish.branch: invalid branch name %q", c.Publish.Branch)
	}

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms cannot be negative: %d", c.Watch.DebounceMS)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	ms := c.Watch.DebounceMS
	if ms <= 0 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}
