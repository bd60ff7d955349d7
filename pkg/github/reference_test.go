package github

import (
	"strings"
	"testing"
)

func TestParseRemote(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "https with .git",
			remote:    "https://github.com/user/site.git",
			wantOwner: "user",
			wantRepo:  "site",
		},
		{
			name:      "https without .git",
			remote:    "https://github.com/user/site",
			wantOwner: "user",
			wantRepo:  "site",
		},
		{
			name:      "scp-like",
			remote:    "git@github.com:user/site.git",
			wantOwner: "user",
			wantRepo:  "site",
		},
		{
			name:      "ssh",
			remote:    "ssh://git@github.com/user/site.git",
			wantOwner: "user",
			wantRepo:  "site",
		},
		{
			name:      "surrounding whitespace",
			remote:    "  https://github.com/user/site.git\n",
			wantOwner: "user",
			wantRepo:  "site",
		},
		{
			name:      "dots in repo name",
			remote:    "https://github.com/user/user.github.io.git",
			wantOwner: "user",
			wantRepo:  "user.github.io",
		},
		{
			name:    "non-github host",
			remote:  "https://gitlab.com/user/site.git",
			wantErr: true,
		},
		{
			name:    "local path",
			remote:  "/srv/git/site.git",
			wantErr: true,
		},
		{
			name:    "empty",
			remote:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRemote(tt.remote)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRemote(%q) expected error, got %+v", tt.remote, ref)
				}
				if !strings.Contains(err.Error(), "expected:") {
					t.Errorf("error should list supported formats, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRemote(%q) failed: %v", tt.remote, err)
			}
			if ref.Owner != tt.wantOwner {
				t.Errorf("Owner = %q, want %q", ref.Owner, tt.wantOwner)
			}
			if ref.Repo != tt.wantRepo {
				t.Errorf("Repo = %q, want %q", ref.Repo, tt.wantRepo)
			}
		})
	}
}

func TestRepoRefString(t *testing.T) {
	ref := RepoRef{Owner: "user", Repo: "site"}
	if got := ref.String(); got != "user/site" {
		t.Errorf("String() = %q, want user/site", got)
	}
}

func TestIsGitHubRemote(t *testing.T) {
	if !IsGitHubRemote("git@github.com:user/site.git") {
		t.Error("scp-like GitHub remote should be recognized")
	}
	if IsGitHubRemote("https://example.com/user/site.git") {
		t.Error("non-GitHub remote should not be recognized")
	}
}
