package builder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/sitepush/sitepush/pkg/log"
)

// runCommand executes argv in the site directory and maps failures to *Error
// with the generator's exit code. Timeouts surface as exit code 124, other
// start failures as 1.
func runCommand(ctx context.Context, builderName string, req BuildRequest, argv []string) (*BuildResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s builder: empty command", builderName)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.SiteDir
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = buildEnv(req)

	log.Debugf("Running %s", CommandLine(argv))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		// A deadline kill surfaces as an ExitError with code -1, so the
		// context check has to come first.
		code := 1
		if ctx.Err() == context.DeadlineExceeded {
			code = 124
		} else if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() >= 0 {
			code = ee.ExitCode()
		}
		return nil, &Error{Builder: builderName, ExitCode: code, Err: err}
	}

	return &BuildResult{
		Builder:  builderName,
		Command:  CommandLine(argv),
		Duration: elapsed,
	}, nil
}

// buildEnv layers the request variables over the process environment.
// Every generator sees SITEPUSH_SITE and SITEPUSH_OUTPUT so custom
// build commands can locate both directories without extra flags.
func buildEnv(req BuildRequest) []string {
	extra := map[string]string{
		"SITEPUSH_SITE":   req.SiteDir,
		"SITEPUSH_OUTPUT": req.OutputDir,
	}
	if req.Theme != "" {
		extra["SITEPUSH_THEME"] = req.Theme
	}
	for k, v := range req.Env {
		extra[k] = v
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// CommandLine renders argv for logs and results.
func CommandLine(argv []string) string {
	return strings.Join(argv, " ")
}
