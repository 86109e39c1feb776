package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// RunAttributes are the run fields hcpctl reads
type RunAttributes struct {
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	IsDestroy  bool      `json:"is-destroy"`
	HasChanges bool      `json:"has-changes"`
	PlanOnly   bool      `json:"plan-only"`
	CreatedAt  time.Time `json:"created-at"`
}

// Run is a run resource
type Run struct {
	Object
	Attributes RunAttributes `json:"attributes"`
}

// WorkspaceID returns the ID of the workspace the run belongs to
func (r *Run) WorkspaceID() string {
	return r.RelationshipID("workspace")
}

// OperationAttributes are the fields shared by plans and applies
type OperationAttributes struct {
	Status               string `json:"status"`
	LogReadURL           string `json:"log-read-url"`
	ResourceAdditions    int    `json:"resource-additions"`
	ResourceChanges      int    `json:"resource-changes"`
	ResourceDestructions int    `json:"resource-destructions"`
}

// Plan is the plan phase of a run
type Plan struct {
	Object
	Attributes OperationAttributes `json:"attributes"`
}

// Apply is the apply phase of a run
type Apply struct {
	Object
	Attributes OperationAttributes `json:"attributes"`
}

// GetRun retrieves a run by its run- ID
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := getResource[Run](ctx, c, "/runs/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// GetRunWithWorkspace retrieves a run together with its workspace in one
// request. The workspace is nil when the server does not include it.
func (c *Client) GetRunWithWorkspace(ctx context.Context, id string) (*Run, *Workspace, error) {
	doc, err := c.getDocument(ctx, "/runs/"+url.PathEscape(id)+"?include=workspace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	run, err := Decode[Run](doc.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	raw, ok := doc.FindIncluded("workspaces", run.WorkspaceID())
	if !ok {
		return run, nil, nil
	}
	ws, err := Decode[Workspace](raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode workspace of run %s: %w", id, err)
	}
	return run, ws, nil
}

// GetPlan retrieves the plan of a run
func (c *Client) GetPlan(ctx context.Context, runID string) (*Plan, error) {
	plan, err := getResource[Plan](ctx, c, "/runs/"+url.PathEscape(runID)+"/plan")
	if err != nil {
		return nil, fmt.Errorf("failed to get plan of run %s: %w", runID, err)
	}
	return plan, nil
}

// GetApply retrieves the apply of a run
func (c *Client) GetApply(ctx context.Context, runID string) (*Apply, error) {
	apply, err := getResource[Apply](ctx, c, "/runs/"+url.PathEscape(runID)+"/apply")
	if err != nil {
		return nil, fmt.Errorf("failed to get apply of run %s: %w", runID, err)
	}
	return apply, nil
}

// ReadLog downloads the full log behind a log-read URL. The URL carries its
// own short-lived credentials, so no Authorization header is sent.
func (c *Client) ReadLog(ctx context.Context, logURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("hcpctl/%s", c.Version))

	resp, err := c.LogHTTPClient.Do(req)
	if err != nil {
		return "", &APIError{Message: "read log", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "failed to read log body", Err: err}
	}
	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	tflog.Trace(ctx, "Read log", map[string]any{"bytes": len(body)})
	return string(body), nil
}
