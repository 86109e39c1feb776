// Package resolve maps user-supplied identifiers onto API resources.
//
// Targets that carry an ID prefix are fetched directly and never fall back
// to a name lookup. Names are looked up within an organization, or when no
// organization is given, raced across every organization the token can see.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/pkodzis/hcpctl/internal/client"
)

// externalIDPattern matches organization external IDs such as org-AbC123.
var externalIDPattern = regexp.MustCompile(`^org-[A-Za-z0-9]+$`)

// Resolved is a resource together with the organization it belongs to.
type Resolved[T any] struct {
	Resource     T
	Organization string
	Raw          client.Raw
}

// Resolver resolves targets against one API client.
type Resolver struct {
	client *client.Client
}

// New creates a resolver
func New(c *client.Client) *Resolver {
	return &Resolver{client: c}
}

// Workspace resolves a workspace ID or name. org may be empty.
func (r *Resolver) Workspace(ctx context.Context, target Target, org string) (*Resolved[client.Workspace], error) {
	if target.IsID() {
		ws, err := r.client.GetWorkspace(ctx, target.Value)
		if err != nil {
			if client.IsNotFoundError(err) {
				return nil, &NotFoundError{Kind: "workspace", Target: target.Value}
			}
			return nil, err
		}
		return resolvedWorkspace(ws, ws.Organization()), nil
	}

	if org != "" {
		ws, err := r.client.GetWorkspaceByName(ctx, org, target.Value)
		if err != nil {
			if client.IsNotFoundError(err) {
				return nil, &NotFoundError{Kind: "workspace", Target: target.Value, Scope: orgScope([]string{org})}
			}
			return nil, err
		}
		return resolvedWorkspace(ws, org), nil
	}

	return r.workspaceAcrossOrgs(ctx, target.Value)
}

func resolvedWorkspace(ws *client.Workspace, org string) *Resolved[client.Workspace] {
	return &Resolved[client.Workspace]{Resource: *ws, Organization: org, Raw: ws.Raw()}
}

type orgLookup struct {
	org string
	ws  *client.Workspace
	err error
}

// workspaceAcrossOrgs looks the name up in every organization at once and
// returns the first hit. Remaining lookups are cancelled and their results
// discarded; the buffered channel lets them finish without a reader.
func (r *Resolver) workspaceAcrossOrgs(ctx context.Context, name string) (*Resolved[client.Workspace], error) {
	orgs, err := r.client.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(orgs))
	for i, o := range orgs {
		names[i] = o.ID
	}

	tflog.Debug(ctx, "Searching for workspace across organizations", map[string]any{
		"workspace":     name,
		"organizations": len(names),
	})

	if len(names) == 0 {
		return nil, &NotFoundError{Kind: "workspace", Target: name, Scope: orgScope(nil)}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan orgLookup, len(names))
	for _, org := range names {
		go func() {
			ws, err := r.client.GetWorkspaceByName(raceCtx, org, name)
			results <- orgLookup{org: org, ws: ws, err: err}
		}()
	}

	var failures []error
	for range names {
		res := <-results
		if res.err == nil {
			tflog.Debug(ctx, "Found workspace", map[string]any{"workspace": name, "organization": res.org})
			return resolvedWorkspace(res.ws, res.org), nil
		}
		if !client.IsNotFoundError(res.err) {
			failures = append(failures, fmt.Errorf("%s: %w", res.org, res.err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &NotFoundError{Kind: "workspace", Target: name, Scope: orgScope(names), Errs: failures}
}

// Organization resolves an organization by name, or by external ID (org-XXXX)
// when no organization has that name.
func (r *Resolver) Organization(ctx context.Context, target Target) (*Resolved[client.Organization], error) {
	org, err := r.client.GetOrganization(ctx, target.Value)
	if err == nil {
		return resolvedOrganization(org), nil
	}
	if !client.IsNotFoundError(err) {
		return nil, err
	}
	if !externalIDPattern.MatchString(target.Value) {
		return nil, &NotFoundError{Kind: "organization", Target: target.Value}
	}

	tflog.Debug(ctx, "Looking up organization by external ID", map[string]any{"external_id": target.Value})

	orgs, err := r.client.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range orgs {
		if o.Attributes.ExternalID != target.Value {
			continue
		}
		org, err := r.client.GetOrganization(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		return resolvedOrganization(org), nil
	}
	return nil, &NotFoundError{Kind: "organization", Target: target.Value}
}

func resolvedOrganization(org *client.Organization) *Resolved[client.Organization] {
	return &Resolved[client.Organization]{Resource: *org, Organization: org.ID, Raw: org.Raw()}
}

// Run resolves a run ID directly. Any other target is resolved as a
// workspace whose current run is returned.
func (r *Resolver) Run(ctx context.Context, target Target, org string) (*Resolved[client.Run], error) {
	if target.IsID() {
		run, ws, err := r.client.GetRunWithWorkspace(ctx, target.Value)
		if err != nil {
			if client.IsNotFoundError(err) {
				return nil, &NotFoundError{Kind: "run", Target: target.Value}
			}
			return nil, err
		}
		if ws == nil {
			if run.WorkspaceID() == "" {
				return nil, fmt.Errorf("run %s has no workspace", run.ID)
			}
			ws, err = r.client.GetWorkspace(ctx, run.WorkspaceID())
			if err != nil {
				return nil, err
			}
		}
		return &Resolved[client.Run]{Resource: *run, Organization: ws.Organization(), Raw: run.Raw()}, nil
	}

	resolved, err := r.Workspace(ctx, ParseTarget(target.Value, WorkspacePrefix), org)
	if err != nil {
		return nil, err
	}

	runID := resolved.Resource.CurrentRunID()
	if runID == "" {
		return nil, &NoCurrentRunError{Workspace: resolved.Resource.Attributes.Name}
	}

	run, err := r.client.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &Resolved[client.Run]{Resource: *run, Organization: resolved.Organization, Raw: run.Raw()}, nil
}

// NoCurrentRunError is returned when a workspace has never been run.
type NoCurrentRunError struct {
	Workspace string
}

func (e *NoCurrentRunError) Error() string {
	return fmt.Sprintf("workspace '%s' has no current run", e.Workspace)
}

// ErrOrganizationRequired is returned when a name lookup needs an organization.
var ErrOrganizationRequired = errors.New("organization is required")

// Project resolves a project ID, or a project name within org.
func (r *Resolver) Project(ctx context.Context, target Target, org string) (*Resolved[client.Project], error) {
	if target.IsID() {
		prj, err := r.client.GetProject(ctx, target.Value)
		if err != nil {
			if client.IsNotFoundError(err) {
				return nil, &NotFoundError{Kind: "project", Target: target.Value}
			}
			return nil, err
		}
		return &Resolved[client.Project]{Resource: *prj, Organization: prj.Organization(), Raw: prj.Raw()}, nil
	}

	if org == "" {
		return nil, fmt.Errorf("resolving project '%s' by name: %w", target.Value, ErrOrganizationRequired)
	}

	projects, err := r.client.ListProjects(ctx, org, target.Value)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Attributes.Name != target.Value {
			continue
		}
		prj, err := r.client.GetProject(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &Resolved[client.Project]{Resource: *prj, Organization: org, Raw: prj.Raw()}, nil
	}
	return nil, &NotFoundError{Kind: "project", Target: target.Value, Scope: orgScope([]string{org})}
}
