package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestRepo creates a git repository with one commit.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "user.email", "test@example.com")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("test readme"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// setupRemoteRepo creates a bare repository usable as a push target.
func setupRemoteRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "--bare")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v, output: %s", strings.Join(args, " "), err, string(out))
	}
}

func TestClient_IsRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("valid git repository", func(t *testing.T) {
		client := NewClient(setupTestRepo(t))
		if !client.IsRepo(ctx) {
			t.Error("expected directory to be a git repository")
		}
	})

	t.Run("non-git directory", func(t *testing.T) {
		client := NewClient(t.TempDir())
		if client.IsRepo(ctx) {
			t.Error("expected directory to not be a git repository")
		}
	})
}

func TestClient_HeadSHA(t *testing.T) {
	ctx := context.Background()
	client := NewClient(setupTestRepo(t))

	sha, err := client.HeadSHA(ctx)
	if err != nil {
		t.Fatalf("HeadSHA failed: %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("expected SHA length 40, got %d (%q)", len(sha), sha)
	}
}

func TestClient_CurrentBranch(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	client := NewClient(dir)

	branch, err := client.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if branch == "" {
		t.Error("expected a branch name on a fresh repository")
	}

	// Cross-check against porcelain output.
	cmd := exec.Command("git", "-C", dir, "branch", "--show-current")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git branch --show-current failed: %v", err)
	}
	if want := strings.TrimSpace(string(out)); branch != want {
		t.Errorf("CurrentBranch = %q, want %q", branch, want)
	}
}

func TestClient_RemoteURL(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	remote := setupRemoteRepo(t)
	runGit(t, dir, "remote", "add", "origin", remote)

	client := NewClient(dir)

	url, err := client.RemoteURL(ctx, "origin")
	if err != nil {
		t.Fatalf("RemoteURL failed: %v", err)
	}
	if url != remote {
		t.Errorf("RemoteURL = %q, want %q", url, remote)
	}

	if !client.HasRemote(ctx, "origin") {
		t.Error("HasRemote(origin) = false, want true")
	}
	if client.HasRemote(ctx, "upstream") {
		t.Error("HasRemote(upstream) = true, want false")
	}
}

func TestClient_ConfigGet(t *testing.T) {
	ctx := context.Background()
	client := NewClient(setupTestRepo(t))

	name, err := client.ConfigGet(ctx, "user.name")
	if err != nil {
		t.Fatalf("ConfigGet failed: %v", err)
	}
	if name != "Test User" {
		t.Errorf("ConfigGet(user.name) = %q, want %q", name, "Test User")
	}

	if _, err := client.ConfigGet(ctx, "sitepush.doesnotexist"); err == nil {
		t.Error("ConfigGet on unset key succeeded, want error")
	}
}

func TestClient_IsClean(t *testing.T) {
	ctx := context.Background()
	dir := setupTestRepo(t)
	client := NewClient(dir)

	clean, err := client.IsClean(ctx)
	if err != nil {
		t.Fatalf("IsClean failed: %v", err)
	}
	if !clean {
		t.Error("expected clean work tree after commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.html"), []byte("<html/>"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	clean, err = client.IsClean(ctx)
	if err != nil {
		t.Fatalf("IsClean failed: %v", err)
	}
	if clean {
		t.Error("expected dirty work tree after adding a file")
	}
}

func TestClient_CommitCount(t *testing.T) {
	ctx := context.Background()

	t.Run("repository with one commit", func(t *testing.T) {
		client := NewClient(setupTestRepo(t))
		n, err := client.CommitCount(ctx)
		if err != nil {
			t.Fatalf("CommitCount failed: %v", err)
		}
		if n != 1 {
			t.Errorf("CommitCount = %d, want 1", n)
		}
	})

	t.Run("unborn branch", func(t *testing.T) {
		dir := t.TempDir()
		runGit(t, dir, "init")

		client := NewClient(dir)
		n, err := client.CommitCount(ctx)
		if err != nil {
			t.Fatalf("CommitCount failed: %v", err)
		}
		if n != 0 {
			t.Errorf("CommitCount = %d, want 0", n)
		}
	})
}
