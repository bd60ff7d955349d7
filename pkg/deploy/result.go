package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stateDirName holds deploy records under the site root.
const stateDirName = ".sitepush"

// resultFileName is the record of the most recent deploy.
const resultFileName = "last-deploy.json"

// StepStatus is the outcome of one pipeline step.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// StepResult records one executed pipeline step.
type StepResult struct {
	Name       Step       `json:"name"`
	Status     StepStatus `json:"status"`
	DurationMS int64      `json:"duration_ms"`
	Detail     string     `json:"detail,omitempty"`
}

// Result is the record of a deploy run. It is written to the site's
// state directory after every run, successful or not.
type Result struct {
	ID           string       `json:"id"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	DurationMS   int64        `json:"duration_ms"`
	Builder      string       `json:"builder,omitempty"`
	BuildCommand string       `json:"build_command,omitempty"`
	Message      string       `json:"message,omitempty"`
	CommitHash   string       `json:"commit,omitempty"`
	Remote       string       `json:"remote,omitempty"`
	Branch       string       `json:"branch,omitempty"`
	Committed    bool         `json:"committed"`
	Pushed       bool         `json:"pushed"`
	DeploymentID int64        `json:"deployment_id,omitempty"`
	DryRun       bool         `json:"dry_run,omitempty"`
	Error        string       `json:"error,omitempty"`
	Steps        []StepResult `json:"steps"`
}

// ResultPath returns where the deploy record for siteRoot lives.
func ResultPath(siteRoot string) string {
	return filepath.Join(siteRoot, stateDirName, resultFileName)
}

// WriteResult persists a deploy record to path.
func WriteResult(path string, result *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state dir for deploy result: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deploy result: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deploy result: %w", err)
	}
	return nil
}

// ReadResult loads a previously written deploy record. A missing file
// returns nil without error.
func ReadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read deploy result: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse deploy result %s: %w", path, err)
	}
	return &result, nil
}
