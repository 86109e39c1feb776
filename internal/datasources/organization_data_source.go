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
	_ datasource.DataSource              = &OrganizationDataSource{}
	_ datasource.DataSourceWithConfigure = &OrganizationDataSource{}
)

// OrganizationDataSource defines the data source implementation
type OrganizationDataSource struct {
	resolver *resolve.Resolver
}

// OrganizationDataSourceModel describes the data source data model
type OrganizationDataSourceModel struct {
	Target     types.String `tfsdk:"target"`
	ID         types.String `tfsdk:"id"`
	Name       types.String `tfsdk:"name"`
	ExternalID types.String `tfsdk:"external_id"`
	Email      types.String `tfsdk:"email"`
}

// NewOrganizationDataSource creates a new data source
func NewOrganizationDataSource() datasource.DataSource {
	return &OrganizationDataSource{}
}

// Metadata returns the data source type name
func (d *OrganizationDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_organization"
}

// Schema defines the data source schema
func (d *OrganizationDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Looks up an organization by name or by external ID (org-xxx).",
		Attributes: map[string]schema.Attribute{
			"target": schema.StringAttribute{
				Description: "Organization name or external ID.",
				Required:    true,
			},
			"id": schema.StringAttribute{
				Description: "Organization ID. The API uses the organization name as its ID.",
				Computed:    true,
			},
			"name": schema.StringAttribute{
				Description: "Organization name.",
				Computed:    true,
			},
			"external_id": schema.StringAttribute{
				Description: "External organization ID in org-xxx form.",
				Computed:    true,
			},
			"email": schema.StringAttribute{
				Description: "Notification email of the organization.",
				Computed:    true,
			},
		},
	}
}

// Configure adds the provider-configured client to the data source
func (d *OrganizationDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

// Read resolves the organization
func (d *OrganizationDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data OrganizationDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	target := data.Target.ValueString()
	org, err := d.resolver.Organization(ctx, resolve.ParseTarget(target, ""))
	if err != nil {
		addResolveError(&resp.Diagnostics, "Organization", target, err)
		return
	}

	mapOrganizationToModel(&org.Resource, &data)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
	tflog.Debug(ctx, "Read organization data source", map[string]any{"id": data.ID.ValueString()})
}

// mapOrganizationToModel maps the API resource to the Terraform data source model
func mapOrganizationToModel(org *client.Organization, data *OrganizationDataSourceModel) {
	data.ID = types.StringValue(org.ID)
	data.Name = types.StringValue(org.Attributes.Name)
	data.ExternalID = types.StringValue(org.Attributes.ExternalID)
	data.Email = types.StringValue(org.Attributes.Email)
}
