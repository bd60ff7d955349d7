package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain compiles the sitepush binary once; the scripts under testdata
// then run it through PATH against throwaway work directories.
func TestMain(m *testing.M) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	binDir := filepath.Join(projectRoot, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bin dir: %v\n", err)
		os.Exit(1)
	}

	binPath := filepath.Join(binDir, "sitepush")
	if runtime.GOOS == "windows" {
		binPath += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/sitepush")
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build sitepush: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func TestScript(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	binDir := filepath.Join(projectRoot, "bin")

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Vars = append(env.Vars, fmt.Sprintf("PATH=%s%c%s", binDir, filepath.ListSeparator, os.Getenv("PATH")))
			// Keep the scripts hermetic: no tokens, no host git config.
			env.Vars = append(env.Vars,
				"GITHUB_TOKEN=",
				"GH_TOKEN=",
				"GIT_TOKEN=",
				"GIT_CONFIG_GLOBAL=/dev/null",
				"GIT_CONFIG_SYSTEM=/dev/null",
			)
			return nil
		},
	})
}
