package datasources

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/pkodzis/hcpctl/internal/client"
	"github.com/pkodzis/hcpctl/internal/resolve"
)

// Ensure the implementation satisfies expected interfaces
var (
	_ datasource.DataSource              = &WorkspaceDataSource{}
	_ datasource.DataSourceWithConfigure = &WorkspaceDataSource{}
)

// WorkspaceDataSource defines the data source implementation
type WorkspaceDataSource struct {
	resolver *resolve.Resolver
}

// WorkspaceDataSourceModel describes the data source data model
type WorkspaceDataSourceModel struct {
	Target           types.String `tfsdk:"target"`
	Organization     types.String `tfsdk:"organization"`
	ID               types.String `tfsdk:"id"`
	Name             types.String `tfsdk:"name"`
	CurrentRunID     types.String `tfsdk:"current_run_id"`
	ProjectID        types.String `tfsdk:"project_id"`
	ExecutionMode    types.String `tfsdk:"execution_mode"`
	TerraformVersion types.String `tfsdk:"terraform_version"`
	Locked           types.Bool   `tfsdk:"locked"`
}

// NewWorkspaceDataSource creates a new data source
func NewWorkspaceDataSource() datasource.DataSource {
	return &WorkspaceDataSource{}
}

// Metadata returns the data source type name
func (d *WorkspaceDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_workspace"
}

// Schema defines the data source schema
func (d *WorkspaceDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Looks up a workspace by ID (ws-xxx) or by name. A name without an organization is searched for in every organization the token can access.",
		Attributes: map[string]schema.Attribute{
			"target": schema.StringAttribute{
				Description: "Workspace ID or name.",
				Required:    true,
			},
			"organization": schema.StringAttribute{
				Description: "Organization to search. Set from the workspace when omitted.",
				Optional:    true,
				Computed:    true,
			},
			"id": schema.StringAttribute{
				Description: "Workspace ID.",
				Computed:    true,
			},
			"name": schema.StringAttribute{
				Description: "Workspace name.",
				Computed:    true,
			},
			"current_run_id": schema.StringAttribute{
				Description: "ID of the workspace's current run, empty if it has never run.",
				Computed:    true,
			},
			"project_id": schema.StringAttribute{
				Description: "ID of the project containing the workspace.",
				Computed:    true,
			},
			"execution_mode": schema.StringAttribute{
				Description: "Execution mode: remote, local or agent.",
				Computed:    true,
			},
			"terraform_version": schema.StringAttribute{
				Description: "Terraform version used by the workspace.",
				Computed:    true,
			},
			"locked": schema.BoolAttribute{
				Description: "Whether the workspace is locked.",
				Computed:    true,
			},
		},
	}
}

// Configure adds the provider-configured client to the data source
func (d *WorkspaceDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	c, ok := req.ProviderData.(*client.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *client.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.resolver = resolve.New(c)
}

// Read resolves the workspace
func (d *WorkspaceDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data WorkspaceDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	target := data.Target.ValueString()
	ws, err := d.resolver.Workspace(ctx, resolve.ParseTarget(target, resolve.WorkspacePrefix), optionalString(data.Organization))
	if err != nil {
		addResolveError(&resp.Diagnostics, "Workspace", target, err)
		return
	}

	mapWorkspaceToModel(&ws.Resource, ws.Organization, &data)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
	tflog.Debug(ctx, "Read workspace data source", map[string]any{"id": data.ID.ValueString()})
}

// mapWorkspaceToModel maps the API resource to the Terraform data source model
func mapWorkspaceToModel(ws *client.Workspace, org string, data *WorkspaceDataSourceModel) {
	data.ID = types.StringValue(ws.ID)
	data.Organization = types.StringValue(org)
	data.Name = types.StringValue(ws.Attributes.Name)
	data.CurrentRunID = types.StringValue(ws.CurrentRunID())
	data.ProjectID = types.StringValue(ws.ProjectID())
	data.ExecutionMode = types.StringValue(ws.Attributes.ExecutionMode)
	data.TerraformVersion = types.StringValue(ws.Attributes.TerraformVersion)
	data.Locked = types.BoolValue(ws.Attributes.Locked)
}
