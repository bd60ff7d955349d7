package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-github/v68/github"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// TestMarkDeploymentReplay drives the deployment flow against recorded API
// traffic, so the wire format stays pinned without a live token.
func TestMarkDeploymentReplay(t *testing.T) {
	rec, err := recorder.NewAsMode("testdata/mark_deployment", recorder.ModeReplaying, nil)
	if err != nil {
		t.Fatalf("failed to open cassette: %v", err)
	}
	defer rec.Stop()

	client := github.NewClient(&http.Client{Transport: rec})

	id, err := MarkDeployment(context.Background(), client, RepoRef{Owner: "user", Repo: "site"}, MarkOptions{
		Ref:         "abc123",
		Environment: "production",
		Retry:       fastRetry(),
	})
	if err != nil {
		t.Fatalf("MarkDeployment() failed: %v", err)
	}
	if id != 42 {
		t.Errorf("deployment id = %d, want 42", id)
	}
}
