package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/pkodzis/hcpctl/internal/client"
	"github.com/pkodzis/hcpctl/internal/resolve"
)

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Resolve a resource and print it as JSON",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "org TARGET",
		Aliases: []string{"organization"},
		Short:   "Resolve an organization by name or external ID (org-xxx)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := a.resolver.Organization(cmd.Context(), resolve.ParseTarget(args[0], ""))
			if err != nil {
				return err
			}
			return a.printRaw(org.Raw)
		},
	})

	cmd.AddCommand(newGetWorkspaceCmd(a))
	cmd.AddCommand(newGetRunCmd(a))

	cmd.AddCommand(&cobra.Command{
		Use:     "prj TARGET",
		Aliases: []string{"project"},
		Short:   "Resolve a project by ID (prj-xxx) or name (requires --org)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prj, err := a.resolver.Project(cmd.Context(), resolve.ParseTarget(args[0], resolve.ProjectPrefix), a.cfg.Organization)
			if err != nil {
				return err
			}
			return a.printRaw(prj.Raw)
		},
	})

	return cmd
}

// workspaceSubresources maps --subresource values of `get ws` to relationships.
var workspaceSubresources = map[string]string{
	"run":        "current-run",
	"state":      "current-state-version",
	"config":     "current-configuration-version",
	"assessment": "current-assessment-result",
}

// runSubresources maps --subresource values of `get run` to relationships.
var runSubresources = map[string]string{
	"events": "run-events",
	"plan":   "plan",
	"apply":  "apply",
}

func newGetWorkspaceCmd(a *app) *cobra.Command {
	var subresource string

	cmd := &cobra.Command{
		Use:     "ws TARGET",
		Aliases: []string{"workspace"},
		Short:   "Resolve a workspace by ID (ws-xxx) or name",
		Example: `  hcpctl get ws network --org acme
  hcpctl get ws ws-abc123 --subresource state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := subresourceRelationship(workspaceSubresources, subresource)
			if err != nil {
				return err
			}

			ws, err := a.resolver.Workspace(cmd.Context(), resolve.ParseTarget(args[0], resolve.WorkspacePrefix), a.cfg.Organization)
			if err != nil {
				return err
			}
			if rel == "" {
				return a.printRaw(ws.Raw)
			}
			return a.printRelated(cmd.Context(), ws.Raw, rel)
		},
	}

	cmd.Flags().StringVar(&subresource, "subresource", "",
		"print a related resource instead: "+strings.Join(slices.Sorted(maps.Keys(workspaceSubresources)), ", "))
	return cmd
}

func newGetRunCmd(a *app) *cobra.Command {
	var subresource string

	cmd := &cobra.Command{
		Use:   "run TARGET",
		Short: "Resolve a run by ID (run-xxx), or a workspace's current run",
		Example: `  hcpctl get run run-abc123
  hcpctl get run run-abc123 --subresource plan`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := subresourceRelationship(runSubresources, subresource)
			if err != nil {
				return err
			}

			run, err := a.resolver.Run(cmd.Context(), resolve.ParseTarget(args[0], resolve.RunPrefix), a.cfg.Organization)
			if err != nil {
				return err
			}
			if rel == "" {
				return a.printRaw(run.Raw)
			}
			return a.printRelated(cmd.Context(), run.Raw, rel)
		},
	}

	cmd.Flags().StringVar(&subresource, "subresource", "",
		"print a related resource instead: "+strings.Join(slices.Sorted(maps.Keys(runSubresources)), ", "))
	return cmd
}

// subresourceRelationship returns the relationship behind a --subresource
// value, or "" when none was given.
func subresourceRelationship(choices map[string]string, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	rel, ok := choices[value]
	if !ok {
		return "", fmt.Errorf("unknown subresource %q, want one of: %s",
			value, strings.Join(slices.Sorted(maps.Keys(choices)), ", "))
	}
	return rel, nil
}

// printRelated follows a relationship of raw and prints what it points at
func (a *app) printRelated(ctx context.Context, raw client.Raw, relationship string) error {
	related, err := a.client.GetRelated(ctx, raw, relationship)
	if err != nil {
		return err
	}
	return a.printRaw(related)
}

// printRaw writes the resource object as indented JSON
func (a *app) printRaw(raw client.Raw) error {
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("failed to format response: invalid JSON")
	}
	_, err := a.out.Write(pretty.Pretty(raw))
	return err
}
