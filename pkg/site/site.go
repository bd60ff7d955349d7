// Package site models a static site checkout: its source root, generated
// output directory, and the content that feeds the generator.
package site

import (
	"fmt"
	"os"
	"path/filepath"
)

// Site is a resolved static site layout. All paths are absolute.
type Site struct {
	// Root is the site source checkout.
	Root string

	// OutputDir is the generated output directory. It is its own git
	// checkout, separate from Root's repository.
	OutputDir string

	// ContentDir holds the markdown content, usually Root/content.
	ContentDir string

	// Generator is the resolved generator name, empty when detection failed
	// and no override was given.
	Generator string

	// Theme is the configured theme name, empty when none is set.
	Theme string
}

// LocateOptions carries config and flag values into Locate. Relative Output
// and Content paths resolve against Root.
type LocateOptions struct {
	Root      string
	Output    string
	Content   string
	Generator string
	Theme     string
}

// Locate resolves a site layout from options. Root must exist; the output
// directory is only resolved here, preflight checks its git state.
func Locate(opts LocateOptions) (*Site, error) {
	root := opts.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site root %s: %w", opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("site root %s does not exist: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site root %s is not a directory", root)
	}

	output := opts.Output
	if output == "" {
		output = "public"
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, output)
	}

	content := opts.Content
	if content == "" {
		content = "content"
	}
	if !filepath.IsAbs(content) {
		content = filepath.Join(root, content)
	}

	generator := opts.Generator
	var detected *DetectionSource
	if generator == "" {
		if detected = DetectGenerator(root); detected != nil {
			generator = detected.Generator
		}
	}

	theme := opts.Theme
	if theme == "" {
		theme = DetectTheme(root)
	}

	return &Site{
		Root:       root,
		OutputDir:  output,
		ContentDir: content,
		Generator:  generator,
		Theme:      theme,
	}, nil
}

// HasContent reports whether the content directory exists.
func (s *Site) HasContent() bool {
	info, err := os.Stat(s.ContentDir)
	return err == nil && info.IsDir()
}
