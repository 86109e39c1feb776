package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// OrganizationAttributes are the organization fields hcpctl reads
type OrganizationAttributes struct {
	Name       string    `json:"name"`
	ExternalID string    `json:"external-id"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created-at"`
}

// Organization is an organization resource. Its ID is the organization name;
// the org-XXXX identifier lives in Attributes.ExternalID.
type Organization struct {
	Object
	Attributes OrganizationAttributes `json:"attributes"`
}

// getDocument fetches a single-resource document
func (c *Client) getDocument(ctx context.Context, path string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return nil, fmt.Errorf("no data in response from %s", path)
	}
	return &doc, nil
}

// getResource fetches and decodes a single resource
func getResource[T any](ctx context.Context, c *Client, path string) (*T, error) {
	doc, err := c.getDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return Decode[T](doc.Data)
}

// GetOrganization retrieves an organization by name
func (c *Client) GetOrganization(ctx context.Context, name string) (*Organization, error) {
	org, err := getResource[Organization](ctx, c, "/organizations/"+url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get organization %q: %w", name, err)
	}
	return org, nil
}

// ListOrganizations retrieves every organization visible to the token
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	orgs, err := FetchAll[Organization](ctx, c, "/organizations")
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}
