package client

import (
	"context"
	"fmt"
	"net/url"
)

// ProjectAttributes are the project fields hcpctl reads
type ProjectAttributes struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Project is a project resource
type Project struct {
	Object
	Attributes ProjectAttributes `json:"attributes"`
}

// Organization returns the owning organization name
func (p *Project) Organization() string {
	return p.RelationshipID("organization")
}

// GetProject retrieves a project by its prj- ID
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	prj, err := getResource[Project](ctx, c, "/projects/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return prj, nil
}

// ListProjects retrieves the projects of an organization. A non-empty name
// narrows the listing with filter[names]; the server match is not exact.
func (c *Client) ListProjects(ctx context.Context, org, name string) ([]Project, error) {
	path := fmt.Sprintf("/organizations/%s/projects", url.PathEscape(org))
	if name != "" {
		path += "?filter[names]=" + url.QueryEscape(name)
	}
	projects, err := FetchAll[Project](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects in organization %q: %w", org, err)
	}
	return projects, nil
}
