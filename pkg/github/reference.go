package github

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Remote URL patterns:
	// - https://github.com/owner/repo[.git]
	// - git@github.com:owner/repo[.git]
	// - ssh://git@github.com/owner/repo[.git]
	remotePatternHTTPS = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)
	remotePatternSCP   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	remotePatternSSH   = regexp.MustCompile(`^ssh://git@github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)
)

// RepoRef identifies a repository on GitHub.
type RepoRef struct {
	Owner string
	Repo  string
}

// ParseRemote parses a git remote URL into a repository reference.
// Supported formats:
//   - https://github.com/owner/repo[.git]
//   - git@github.com:owner/repo[.git]
//   - ssh://git@github.com/owner/repo[.git]
func ParseRemote(remote string) (*RepoRef, error) {
	remote = strings.TrimSpace(remote)

	// Try pattern 1: https://github.com/owner/repo
	if matches := remotePatternHTTPS.FindStringSubmatch(remote); matches != nil {
		return &RepoRef{Owner: matches[1], Repo: matches[2]}, nil
	}

	// Try pattern 2: git@github.com:owner/repo
	if matches := remotePatternSCP.FindStringSubmatch(remote); matches != nil {
		return &RepoRef{Owner: matches[1], Repo: matches[2]}, nil
	}

	// Try pattern 3: ssh://git@github.com/owner/repo
	if matches := remotePatternSSH.FindStringSubmatch(remote); matches != nil {
		return &RepoRef{Owner: matches[1], Repo: matches[2]}, nil
	}

	return nil, fmt.Errorf("remote %s is not a GitHub URL (expected: https://github.com/owner/repo, git@github.com:owner/repo, or ssh://git@github.com/owner/repo)", remote)
}

// String returns the owner/repo form of the reference.
func (r RepoRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Repo)
}

// IsGitHubRemote reports whether a remote URL points at GitHub.
func IsGitHubRemote(remote string) bool {
	_, err := ParseRemote(remote)
	return err == nil
}
