package publisher

import "errors"

const (
	// DefaultRemote is the remote pushed to when none is configured.
	DefaultRemote = "origin"

	// DefaultBranch is the branch pushed when none is configured.
	DefaultBranch = "master"
)

// ErrNoChanges reports a clean output checkout when empty commits are
// disabled.
var ErrNoChanges = errors.New("no changes to commit")

// Options configures a Publisher.
type Options struct {
	// Dir is the output checkout. It must already be a git repository.
	Dir string

	// Remote is the remote name to push to (default: origin)
	Remote string

	// Branch is the branch to push (default: master)
	Branch string

	// AuthorName is the git author name for commits
	AuthorName string

	// AuthorEmail is the git author email for commits
	AuthorEmail string

	// AllowEmpty commits even when the checkout is clean, so every publish
	// leaves a commit behind.
	AllowEmpty bool

	// Token is the optional authentication token for push operations
	Token string
}

// Result describes what a publish run did.
type Result struct {
	// CommitHash is the created commit, empty when nothing was committed.
	CommitHash string

	// Committed reports whether a commit was created.
	Committed bool

	// Pushed reports whether the branch was pushed.
	Pushed bool

	// Remote and Branch echo the push target.
	Remote string
	Branch string
}
