package provider

import (
	"context"
	"errors"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/pkodzis/hcpctl/internal/client"
	"github.com/pkodzis/hcpctl/internal/config"
	"github.com/pkodzis/hcpctl/internal/datasources"
)

// Ensure the implementation satisfies the provider.Provider interface
var _ provider.Provider = &HcpctlProvider{}

// HcpctlProvider exposes hcpctl's lookups as read-only data sources.
type HcpctlProvider struct {
	version string

	// homeDir overrides the user's home directory in tests.
	homeDir string
}

// HcpctlProviderModel describes the provider data model.
type HcpctlProviderModel struct {
	Hostname types.String `tfsdk:"hostname"`
	Token    types.String `tfsdk:"token"`
}

// New creates a new provider instance
func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &HcpctlProvider{
			version: version,
		}
	}
}

// Metadata returns the provider type name.
func (p *HcpctlProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "hcpctl"
	resp.Version = p.version
}

// Schema defines the provider-level schema for configuration data.
func (p *HcpctlProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Read-only lookups of HCP Terraform and Terraform Enterprise organizations, workspaces and runs.",
		Attributes: map[string]schema.Attribute{
			"hostname": schema.StringAttribute{
				Description: "HCP Terraform or Terraform Enterprise hostname. Can also be set via TFE_HOSTNAME environment variable. Defaults to app.terraform.io.",
				Optional:    true,
			},
			"token": schema.StringAttribute{
				Description: "API token. Can also be set via HCP_TOKEN, TFC_TOKEN or TFE_TOKEN, or read from the credentials written by `terraform login`.",
				Optional:    true,
				Sensitive:   true,
			},
		},
	}
}

// Configure prepares the provider client for data sources.
func (p *HcpctlProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	tflog.Info(ctx, "Configuring hcpctl provider")

	var data HcpctlProviderModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Configuration wins over the environment and config files
	v := config.NewViper()
	if !data.Hostname.IsNull() && !data.Hostname.IsUnknown() {
		v.Set(config.KeyHost, data.Hostname.ValueString())
	}
	if !data.Token.IsNull() && !data.Token.IsUnknown() {
		v.Set(config.KeyToken, data.Token.ValueString())
	}

	cfg, err := config.Load(v, config.Options{HomeDir: p.homeDir})
	if err != nil {
		var tokenErr *config.TokenNotFoundError
		if errors.As(err, &tokenErr) {
			resp.Diagnostics.AddAttributeError(
				path.Root("token"),
				"Missing API Token",
				"The provider cannot create the API client as there is a missing or empty value for the token. "+
					"Set the token value in the configuration or use the HCP_TOKEN environment variable. "+
					err.Error(),
			)
			return
		}
		resp.Diagnostics.AddError("Invalid Provider Configuration", err.Error())
		return
	}

	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "token")

	c := client.New(cfg.Host, cfg.Token, p.version)

	// Make the client available to data sources
	resp.DataSourceData = c

	tflog.Info(ctx, "Configured hcpctl provider", map[string]any{"hostname": cfg.Host, "token_source": cfg.TokenSource})
}

// Resources defines the resources implemented in the provider.
func (p *HcpctlProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{}
}

// DataSources defines the data sources implemented in the provider.
func (p *HcpctlProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		datasources.NewOrganizationDataSource,
		datasources.NewWorkspaceDataSource,
		datasources.NewRunDataSource,
	}
}
