package tail

import (
	"context"

	"github.com/pkodzis/hcpctl/internal/client"
)

// Status is a snapshot of a plan or apply.
type Status struct {
	State      string
	LogReadURL string
}

// Source provides phase status and log content for a run.
type Source interface {
	PhaseStatus(ctx context.Context, runID string, phase Phase) (Status, error)
	ReadLog(ctx context.Context, url string) (string, error)
}

// WorkspaceSource reports the current run of a workspace.
type WorkspaceSource interface {
	CurrentRunID(ctx context.Context, workspaceID string) (string, error)
}

// ClientSource implements Source and WorkspaceSource on top of the API client.
type ClientSource struct {
	client *client.Client
}

// NewClientSource creates a source backed by c
func NewClientSource(c *client.Client) *ClientSource {
	return &ClientSource{client: c}
}

// PhaseStatus fetches /runs/{id}/plan or /runs/{id}/apply
func (s *ClientSource) PhaseStatus(ctx context.Context, runID string, phase Phase) (Status, error) {
	if phase == Apply {
		apply, err := s.client.GetApply(ctx, runID)
		if err != nil {
			return Status{}, err
		}
		return Status{State: apply.Attributes.Status, LogReadURL: apply.Attributes.LogReadURL}, nil
	}

	plan, err := s.client.GetPlan(ctx, runID)
	if err != nil {
		return Status{}, err
	}
	return Status{State: plan.Attributes.Status, LogReadURL: plan.Attributes.LogReadURL}, nil
}

// ReadLog fetches the full log behind a log-read URL
func (s *ClientSource) ReadLog(ctx context.Context, url string) (string, error) {
	return s.client.ReadLog(ctx, url)
}

// CurrentRunID returns the workspace's current run ID, or "" when there is none
func (s *ClientSource) CurrentRunID(ctx context.Context, workspaceID string) (string, error) {
	ws, err := s.client.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	return ws.CurrentRunID(), nil
}
