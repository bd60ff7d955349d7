package deploy

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sitepush/sitepush/pkg/builder"
)

func TestStepError(t *testing.T) {
	inner := errors.New("exit status 7")
	err := &StepError{Step: StepBuild, ExitCode: 7, Err: inner}

	if !strings.Contains(err.Error(), "build step failed") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap() lost the inner error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"step error with tool code", &StepError{Step: StepBuild, ExitCode: 7, Err: errors.New("x")}, 7},
		{"step error without tool code", &StepError{Step: StepPush, Err: errors.New("x")}, 1},
		{"wrapped step error", fmt.Errorf("deploy: %w", &StepError{Step: StepBuild, ExitCode: 124, Err: errors.New("x")}), 124},
		{"bare build error", &builder.Error{Builder: "hugo", ExitCode: 3, Err: errors.New("x")}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
