package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/sitepush/sitepush/pkg/log"
)

// FrontMatter is the YAML header of a content file.
type FrontMatter struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	Draft      bool     `yaml:"draft"`
	Tags       []string `yaml:"tags"`
	Categories []string `yaml:"categories"`
}

// Post is one scanned content file.
type Post struct {
	// Path is relative to the content directory.
	Path      string
	Title     string
	Date      time.Time
	Draft     bool
	Tags      []string
	WordCount int
}

// dateLayouts are the timestamp formats hugo and jekyll front matter accept.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ErrUnterminatedFrontMatter means an opening fence had no closing fence.
var ErrUnterminatedFrontMatter = errors.New("unterminated front matter")

// ParseFrontMatter splits the YAML front matter from a markdown document.
// Documents without an opening fence return a nil FrontMatter and the input
// unchanged.
func ParseFrontMatter(data []byte) (*FrontMatter, []byte, error) {
	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != "---" {
		return nil, data, nil
	}

	fmEnd := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == "---" {
			fmEnd = i
			break
		}
	}
	if fmEnd < 0 {
		return nil, nil, ErrUnterminatedFrontMatter
	}

	var fm FrontMatter
	header := strings.Join(lines[1:fmEnd], "")
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, nil, fmt.Errorf("invalid front matter: %w", err)
	}

	body := strings.Join(lines[fmEnd+1:], "")
	return &fm, []byte(body), nil
}

// ParseDate tries the timestamp formats site generators accept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ScanContent walks the content directory and parses every markdown file.
// Files with broken front matter are skipped with a warning so one bad post
// cannot block a deploy or status report.
func ScanContent(dir string) ([]Post, error) {
	var posts []Post
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}

		post, err := parsePost(dir, path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			return nil
		}
		posts = append(posts, *post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan content in %s: %w", dir, err)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Path < posts[j].Path })
	return posts, nil
}

func parsePost(root, path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	post := &Post{Path: rel}
	if fm != nil {
		post.Title = strings.TrimSpace(fm.Title)
		post.Draft = fm.Draft
		post.Tags = fm.Tags
		if fm.Date != "" {
			when, err := ParseDate(fm.Date)
			if err != nil {
				return nil, err
			}
			post.Date = when
		}
	}

	if post.Title == "" {
		post.Title = firstHeading(body)
	}
	if post.Title == "" {
		post.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	post.WordCount = countWords(body)

	return post, nil
}

// firstHeading returns the text of the first heading in the document.
func firstHeading(source []byte) string {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := node.(*ast.Heading); ok {
			title = strings.TrimSpace(string(h.Text(source)))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// countWords counts prose words, skipping code blocks and raw HTML.
func countWords(source []byte) int {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	count := 0
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			count += len(strings.Fields(string(n.Segment.Value(source))))
		}
		return ast.WalkContinue, nil
	})
	return count
}

// Drafts returns the subset of posts marked draft.
func Drafts(posts []Post) []Post {
	var drafts []Post
	for _, p := range posts {
		if p.Draft {
			drafts = append(drafts, p)
		}
	}
	return drafts
}

// Latest returns the most recently dated post, or nil when no post carries
// a date.
func Latest(posts []Post) *Post {
	var latest *Post
	for i := range posts {
		if posts[i].Date.IsZero() {
			continue
		}
		if latest == nil || posts[i].Date.After(latest.Date) {
			latest = &posts[i]
		}
	}
	return latest
}
