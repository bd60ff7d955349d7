package deploy

import (
	"errors"
	"fmt"

	"github.com/sitepush/sitepush/pkg/builder"
)

// Step names one stage of the deploy pipeline.
type Step string

const (
	StepPreflight Step = "preflight"
	StepBuild     Step = "build"
	StepVerify    Step = "verify"
	StepStage     Step = "stage"
	StepCommit    Step = "commit"
	StepPush      Step = "push"
	StepMark      Step = "github"
)

// StepError reports which pipeline step failed. ExitCode carries the
// failing tool's exit code when one exists, so the process can exit
// with it.
type StepError struct {
	Step     Step
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode maps a deploy error to a process exit code. A step that
// preserved its tool's exit code propagates it, as does a bare build
// failure; any other failure is 1 and nil is 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var step *StepError
	if errors.As(err, &step) && step.ExitCode > 0 {
		return step.ExitCode
	}
	var build *builder.Error
	if errors.As(err, &build) && build.ExitCode > 0 {
		return build.ExitCode
	}
	return 1
}
