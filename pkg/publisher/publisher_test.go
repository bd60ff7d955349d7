package publisher

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo initializes a real git repository with one commit on master.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	commands := [][]string{
		{"git", "init", "-b", "master"},
		{"git", "config", "user.name", "Test User"},
		{"git", "config", "user.email", "test@example.com"},
	}
	for _, cmd := range commands {
		c := exec.Command(cmd[0], cmd[1:]...)
		c.Dir = dir
		if output, err := c.CombinedOutput(); err != nil {
			t.Fatalf("git command %v failed: %v: %s", cmd, err, string(output))
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>\n"), 0644); err != nil {
		t.Fatalf("failed to write initial file: %v", err)
	}
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-m", "initial site")
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v: %s", strings.Join(args, " "), err, string(output))
	}
	return strings.TrimSpace(string(output))
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

func TestNewRequiresRepository(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir()})
	if err == nil {
		t.Fatal("New() on a plain directory should fail")
	}
	if !strings.Contains(err.Error(), "not a git repository") {
		t.Errorf("error = %v, want mention of missing repository", err)
	}
}

func TestNewDefaults(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	p, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	opts := p.Options()
	if opts.Remote != "origin" {
		t.Errorf("Remote = %q, want origin", opts.Remote)
	}
	if opts.Branch != "master" {
		t.Errorf("Branch = %q, want master", opts.Branch)
	}
	if opts.AuthorName == "" || opts.AuthorEmail == "" {
		t.Errorf("author defaults not applied: %q <%s>", opts.AuthorName, opts.AuthorEmail)
	}
}

func TestStageAndCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	p, err := New(Options{Dir: dir, AuthorName: "Deploy Bot", AuthorEmail: "deploy@example.com"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// New and modified files both have to end up staged
	if err := os.WriteFile(filepath.Join(dir, "about.html"), []byte("<p>about</p>\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>v2</html>\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if err := p.Stage(); err != nil {
		t.Fatalf("Stage() failed: %v", err)
	}

	hash, err := p.Commit("Rebuild site")
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("commit hash = %q, want 40 hex chars", hash)
	}

	clean, err := p.IsClean()
	if err != nil {
		t.Fatalf("IsClean() failed: %v", err)
	}
	if !clean {
		t.Error("checkout should be clean after commit")
	}

	head, err := p.Head()
	if err != nil {
		t.Fatalf("Head() failed: %v", err)
	}
	if head != hash {
		t.Errorf("Head() = %s, want %s", head, hash)
	}

	if msg := gitRun(t, dir, "log", "-1", "--format=%s"); msg != "Rebuild site" {
		t.Errorf("commit message = %q, want %q", msg, "Rebuild site")
	}
	if author := gitRun(t, dir, "log", "-1", "--format=%an <%ae>"); author != "Deploy Bot <deploy@example.com>" {
		t.Errorf("commit author = %q", author)
	}
}

func TestStageRemovesDeletedFiles(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	p, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "index.html")); err != nil {
		t.Fatalf("failed to delete file: %v", err)
	}

	if err := p.Stage(); err != nil {
		t.Fatalf("Stage() failed: %v", err)
	}
	if _, err := p.Commit("Remove index"); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if files := gitRun(t, dir, "ls-files"); strings.Contains(files, "index.html") {
		t.Errorf("index.html still tracked after deletion commit: %q", files)
	}
}

func TestCommitCleanCheckout(t *testing.T) {
	requireGit(t)

	t.Run("empty commits allowed", func(t *testing.T) {
		dir := t.TempDir()
		initRepo(t, dir)

		p, err := New(Options{Dir: dir, AllowEmpty: true})
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		first, err := p.Commit("Rebuild one")
		if err != nil {
			t.Fatalf("first empty Commit() failed: %v", err)
		}
		second, err := p.Commit("Rebuild two")
		if err != nil {
			t.Fatalf("second empty Commit() failed: %v", err)
		}
		if first == second {
			t.Error("repeated publishes should create distinct commits")
		}

		if count := gitRun(t, dir, "rev-list", "--count", "HEAD"); count != "3" {
			t.Errorf("commit count = %s, want 3", count)
		}
	})

	t.Run("empty commits disabled", func(t *testing.T) {
		dir := t.TempDir()
		initRepo(t, dir)

		p, err := New(Options{Dir: dir, AllowEmpty: false})
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		_, err = p.Commit("Rebuild")
		if !errors.Is(err, ErrNoChanges) {
			t.Errorf("Commit() on clean checkout = %v, want ErrNoChanges", err)
		}
	})
}

func TestCurrentBranch(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	p, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	branch, err := p.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch() failed: %v", err)
	}
	if branch != "master" {
		t.Errorf("CurrentBranch() = %q, want master", branch)
	}
}

func TestRemoteURL(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	t.Run("no remote configured", func(t *testing.T) {
		p, err := New(Options{Dir: dir})
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		if _, err := p.RemoteURL(); err == nil {
			t.Error("RemoteURL() without a remote should fail")
		}
	})

	t.Run("remote configured", func(t *testing.T) {
		gitRun(t, dir, "remote", "add", "origin", "https://github.com/user/site.git")

		p, err := New(Options{Dir: dir})
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		url, err := p.RemoteURL()
		if err != nil {
			t.Fatalf("RemoteURL() failed: %v", err)
		}
		if url != "https://github.com/user/site.git" {
			t.Errorf("RemoteURL() = %q", url)
		}
	})
}

func TestPushMissingRemote(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	p, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	err = p.Push(context.Background())
	if err == nil {
		t.Fatal("Push() without a remote should fail")
	}
	if !strings.Contains(err.Error(), "origin") {
		t.Errorf("error = %v, want mention of the missing remote", err)
	}
}

// TestIntegrationPush exercises the full publish flow against a local bare
// remote.
func TestIntegrationPush(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	requireGit(t)

	tmpDir := t.TempDir()
	remoteDir := filepath.Join(tmpDir, "remote.git")
	outputDir := filepath.Join(tmpDir, "public")

	if err := os.MkdirAll(remoteDir, 0755); err != nil {
		t.Fatalf("failed to create remote dir: %v", err)
	}
	gitRun(t, remoteDir, "init", "--bare")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	initRepo(t, outputDir)
	gitRun(t, outputDir, "remote", "add", "origin", remoteDir)

	p, err := New(Options{Dir: outputDir, AllowEmpty: true})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// First publish: stage a change, commit, push
	if err := os.WriteFile(filepath.Join(outputDir, "post.html"), []byte("<p>post</p>\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := p.Stage(); err != nil {
		t.Fatalf("Stage() failed: %v", err)
	}
	hash, err := p.Commit("Rebuild Fri Oct  2 12:00:00 UTC 2015")
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if err := p.Push(context.Background()); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	if remoteHead := gitRun(t, remoteDir, "rev-parse", "refs/heads/master"); remoteHead != hash {
		t.Errorf("remote master = %s, want %s", remoteHead, hash)
	}

	// Pushing again with nothing new succeeds
	if err := p.Push(context.Background()); err != nil {
		t.Fatalf("repeat Push() failed: %v", err)
	}

	// Second publish with no content change still advances the remote
	hash2, err := p.Commit("Rebuild Fri Oct  2 12:05:00 UTC 2015")
	if err != nil {
		t.Fatalf("empty Commit() failed: %v", err)
	}
	if err := p.Push(context.Background()); err != nil {
		t.Fatalf("Push() after empty commit failed: %v", err)
	}
	if remoteHead := gitRun(t, remoteDir, "rev-parse", "refs/heads/master"); remoteHead != hash2 {
		t.Errorf("remote master = %s, want %s", remoteHead, hash2)
	}

	if msg := gitRun(t, remoteDir, "log", "-1", "--format=%s", "refs/heads/master"); !strings.HasPrefix(msg, "Rebuild ") {
		t.Errorf("pushed commit message = %q, want Rebuild prefix", msg)
	}
}
