// Package redact scrubs credentials from strings before they reach logs.
// Remote URLs are the main hazard: CI setups often embed tokens in them.
package redact

import (
	"net/url"
	"regexp"
)

const replacement = "***REDACTED***"

// tokenPatterns match credential formats that show up in remote URLs and
// command output. GitHub token families cover the common deploy setups.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ghp_[A-Za-z0-9_]{32,40}`),
	regexp.MustCompile(`gho_[A-Za-z0-9_]{32,40}`),
	regexp.MustCompile(`ghu_[A-Za-z0-9_]{32,40}`),
	regexp.MustCompile(`ghs_[A-Za-z0-9_]{32,40}`),
	regexp.MustCompile(`ghr_[A-Za-z0-9_]{32,40}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{40,255}`),
}

// basicAuthRe catches user:password@ credentials inside URL-ish text that
// net/url cannot parse, such as error messages quoting a remote.
var basicAuthRe = regexp.MustCompile(`(://[^/@:\s]+:)[^@\s]+@`)

// URL returns a remote URL safe for logging. Userinfo is collapsed because
// tokens travel both as username and as password.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// scp-like remotes (git@host:path) land here; they carry no secret,
		// but scrub tokens in case one was spliced in.
		return Line(raw)
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}

// Line scrubs credentials from one line of log or error text.
func Line(s string) string {
	s = basicAuthRe.ReplaceAllString(s, "${1}"+replacement+"@")
	for _, re := range tokenPatterns {
		s = re.ReplaceAllString(s, replacement)
	}
	return s
}

// Error scrubs an error's message, preserving nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Line(err.Error())
}
