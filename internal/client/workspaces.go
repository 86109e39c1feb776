package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// WorkspaceAttributes are the workspace fields hcpctl reads
type WorkspaceAttributes struct {
	Name             string    `json:"name"`
	ExecutionMode    string    `json:"execution-mode"`
	Locked           bool      `json:"locked"`
	AutoApply        bool      `json:"auto-apply"`
	TerraformVersion string    `json:"terraform-version"`
	WorkingDirectory string    `json:"working-directory"`
	ResourceCount    int       `json:"resource-count"`
	CreatedAt        time.Time `json:"created-at"`
	UpdatedAt        time.Time `json:"updated-at"`
}

// Workspace is a workspace resource
type Workspace struct {
	Object
	Attributes WorkspaceAttributes `json:"attributes"`
}

// Organization returns the owning organization name
func (w *Workspace) Organization() string {
	return w.RelationshipID("organization")
}

// CurrentRunID returns the ID of the workspace's current run, or "" if it has none
func (w *Workspace) CurrentRunID() string {
	return w.RelationshipID("current-run")
}

// ProjectID returns the ID of the project the workspace belongs to
func (w *Workspace) ProjectID() string {
	return w.RelationshipID("project")
}

// GetWorkspace retrieves a workspace by its ws- ID
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	ws, err := getResource[Workspace](ctx, c, "/workspaces/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace %s: %w", id, err)
	}
	return ws, nil
}

// GetWorkspaceByName retrieves a workspace by name within an organization
func (c *Client) GetWorkspaceByName(ctx context.Context, org, name string) (*Workspace, error) {
	path := fmt.Sprintf("/organizations/%s/workspaces/%s", url.PathEscape(org), url.PathEscape(name))
	ws, err := getResource[Workspace](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace %q in organization %q: %w", name, org, err)
	}
	return ws, nil
}
