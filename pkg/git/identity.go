package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultAuthorName is the commit author when no other source is configured.
const DefaultAuthorName = "sitepush"

// DefaultAuthorEmail pairs with DefaultAuthorName.
const DefaultAuthorEmail = "sitepush@localhost"

// Identity is the commit author used for the output checkout.
type Identity struct {
	Name  string
	Email string
}

// IdentityOptions carry explicit overrides into ResolveIdentity.
type IdentityOptions struct {
	// ExplicitName and ExplicitEmail come from the --author flag or the
	// publish.author config section and beat every other source.
	ExplicitName  string
	ExplicitEmail string
}

// ResolveIdentity resolves the commit author with priority:
//  1. Explicit overrides (flag or config)
//  2. Output checkout git config (local beats global beats system)
//  3. Host git config read from the process working directory
//  4. GIT_AUTHOR_NAME / GIT_AUTHOR_EMAIL
//  5. Defaults
//
// Name and email resolve independently, so a checkout that only pins
// user.email still picks its name up from the host config.
func ResolveIdentity(ctx context.Context, outputDir string, opts IdentityOptions) Identity {
	id := Identity{
		Name:  DefaultAuthorName,
		Email: DefaultAuthorEmail,
	}

	if envName := os.Getenv("GIT_AUTHOR_NAME"); envName != "" {
		id.Name = envName
	}
	if envEmail := os.Getenv("GIT_AUTHOR_EMAIL"); envEmail != "" {
		id.Email = envEmail
	}

	if hostName := hostConfig("user.name"); hostName != "" {
		id.Name = hostName
	}
	if hostEmail := hostConfig("user.email"); hostEmail != "" {
		id.Email = hostEmail
	}

	if outputDir != "" {
		client := NewClient(outputDir)
		if name, err := client.ConfigGet(ctx, "user.name"); err == nil && name != "" {
			id.Name = name
		}
		if email, err := client.ConfigGet(ctx, "user.email"); err == nil && email != "" {
			id.Email = email
		}
	}

	if opts.ExplicitName != "" {
		id.Name = opts.ExplicitName
	}
	if opts.ExplicitEmail != "" {
		id.Email = opts.ExplicitEmail
	}

	return id
}

// hostConfig reads one key via a plain git config lookup from the cwd.
// Returns empty string when the key is not set anywhere.
func hostConfig(key string) string {
	out, err := exec.Command("git", "config", "--get", key).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// String renders the identity for logs.
func (id Identity) String() string {
	return FormatAuthor(id.Name, id.Email)
}

// FormatAuthor formats a git author string as "Name <email>".
func FormatAuthor(name, email string) string {
	if name == "" && email == "" {
		return ""
	}
	if name == "" {
		return email
	}
	if email == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// ParseAuthor parses a "Name <email>" author string into its parts.
func ParseAuthor(author string) (name, email string) {
	author = strings.TrimSpace(author)

	leftAngle := strings.LastIndex(author, "<")
	rightAngle := strings.LastIndex(author, ">")

	if leftAngle != -1 && rightAngle != -1 && rightAngle > leftAngle {
		name = strings.TrimSpace(author[:leftAngle])
		email = strings.TrimSpace(author[leftAngle+1 : rightAngle])
	} else {
		name = author
	}

	return name, email
}
