package site

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Package-level compiled regex patterns.
var (
	reTOMLTheme = regexp.MustCompile(`^\s*theme\s*=\s*["']([^"']+)["']`)
	reYAMLTheme = regexp.MustCompile(`^\s*theme\s*:\s*["']?([^"'\s#]+)["']?`)
)

// DetectionSource records which project file identified the generator.
type DetectionSource struct {
	Generator string
	File      string
	Line      int
}

// String formats the source for logging.
func (s *DetectionSource) String() string {
	if s == nil {
		return ""
	}
	if s.Line > 0 {
		return fmt.Sprintf("%s (%s, line %d)", s.Generator, s.File, s.Line)
	}
	return fmt.Sprintf("%s (%s)", s.Generator, s.File)
}

type generatorDetector interface {
	// Detect probes project files under root and returns where the
	// generator was identified, or nil.
	Detect(root string) *DetectionSource
}

// hugoDetector recognizes Hugo sites by their config files. Modern sites
// carry hugo.{toml,yaml,json}; older ones use config.toml plus the usual
// site directories.
type hugoDetector struct{}

func (d *hugoDetector) Detect(root string) *DetectionSource {
	for _, name := range []string{"hugo.toml", "hugo.yaml", "hugo.yml", "hugo.json"} {
		if fileExists(filepath.Join(root, name)) {
			return &DetectionSource{Generator: "hugo", File: name}
		}
	}

	// config/_default/ is the split-config layout.
	defaultDir := filepath.Join(root, "config", "_default")
	if info, err := os.Stat(defaultDir); err == nil && info.IsDir() {
		return &DetectionSource{Generator: "hugo", File: "config/_default"}
	}

	// A bare config.toml also belongs to other tools, so require one of the
	// standard hugo directories next to it.
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		if !fileExists(filepath.Join(root, name)) {
			continue
		}
		for _, dir := range []string{"themes", "archetypes", "content", "layouts"} {
			if info, err := os.Stat(filepath.Join(root, dir)); err == nil && info.IsDir() {
				return &DetectionSource{Generator: "hugo", File: name}
			}
		}
	}

	return nil
}

// jekyllDetector recognizes Jekyll sites by _config.yml or a Gemfile that
// pulls the jekyll gem.
type jekyllDetector struct{}

func (d *jekyllDetector) Detect(root string) *DetectionSource {
	for _, name := range []string{"_config.yml", "_config.yaml"} {
		if fileExists(filepath.Join(root, name)) {
			return &DetectionSource{Generator: "jekyll", File: name}
		}
	}

	gemfile := filepath.Join(root, "Gemfile")
	file, err := os.Open(gemfile)
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.Contains(line, `"jekyll"`) || strings.Contains(line, `'jekyll'`) {
			return &DetectionSource{Generator: "jekyll", File: "Gemfile", Line: lineNum}
		}
	}
	return nil
}

// DetectGenerator probes root for a known site generator. Hugo is checked
// first since its config files are the most specific.
func DetectGenerator(root string) *DetectionSource {
	detectors := []generatorDetector{
		&hugoDetector{},
		&jekyllDetector{},
	}
	for _, d := range detectors {
		if src := d.Detect(root); src != nil {
			return src
		}
	}
	return nil
}

// DetectTheme reads the theme name from hugo-style config files. Returns
// empty when no theme is configured.
func DetectTheme(root string) string {
	tomlFiles := []string{"hugo.toml", "config.toml"}
	for _, name := range tomlFiles {
		if theme := scanForTheme(filepath.Join(root, name), reTOMLTheme); theme != "" {
			return theme
		}
	}

	yamlFiles := []string{"hugo.yaml", "hugo.yml", "config.yaml", "config.yml", "_config.yml"}
	for _, name := range yamlFiles {
		if theme := scanForTheme(filepath.Join(root, name), reYAMLTheme); theme != "" {
			return theme
		}
	}
	return ""
}

func scanForTheme(path string, re *regexp.Regexp) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if matches := re.FindStringSubmatch(scanner.Text()); matches != nil {
			return matches[1]
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
