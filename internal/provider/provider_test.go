package provider

import (
	"context"
	"os"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-go/tftypes"

	"github.com/pkodzis/hcpctl/internal/client"
)

// testAccProtoV6ProviderFactories are used to instantiate a provider during
// acceptance testing. The factory function will be invoked for every Terraform
// CLI command executed to create a provider server to which the CLI can
// reattach.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"hcpctl": providerserver.NewProtocol6WithError(New("test")()),
}

func TestProviderServer(t *testing.T) {
	server, err := testAccProtoV6ProviderFactories["hcpctl"]()
	if err != nil {
		t.Fatalf("provider server error: %v", err)
	}
	if server == nil {
		t.Fatal("provider server is nil")
	}
}

func TestProvider_Metadata(t *testing.T) {
	p := New("1.2.3")()

	resp := &provider.MetadataResponse{}
	p.Metadata(context.Background(), provider.MetadataRequest{}, resp)

	if resp.TypeName != "hcpctl" {
		t.Errorf("TypeName = %q, want hcpctl", resp.TypeName)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", resp.Version)
	}
}

func TestProvider_Schema(t *testing.T) {
	p := New("test")()

	resp := &provider.SchemaResponse{}
	p.Schema(context.Background(), provider.SchemaRequest{}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema() error: %v", resp.Diagnostics.Errors())
	}

	for _, attr := range []string{"hostname", "token"} {
		if _, ok := resp.Schema.Attributes[attr]; !ok {
			t.Errorf("Schema() missing attribute: %s", attr)
		}
	}
	if !resp.Schema.Attributes["token"].IsSensitive() {
		t.Error("token should be sensitive")
	}
}

func TestProvider_DataSources(t *testing.T) {
	p := New("test")()
	if got := len(p.DataSources(context.Background())); got != 3 {
		t.Errorf("DataSources() = %d, want 3", got)
	}
	if got := len(p.Resources(context.Background())); got != 0 {
		t.Errorf("Resources() = %d, want 0", got)
	}
}

func clearTokenEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"HCP_TOKEN", "TFC_TOKEN", "TFE_TOKEN", "TFE_HOSTNAME"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func configureProvider(t *testing.T, hostname, token *string) *provider.ConfigureResponse {
	t.Helper()
	ctx := context.Background()
	p := New("test")().(*HcpctlProvider)
	p.homeDir = t.TempDir()

	schemaResp := &provider.SchemaResponse{}
	p.Schema(ctx, provider.SchemaRequest{}, schemaResp)

	value := func(s *string) tftypes.Value {
		if s == nil {
			return tftypes.NewValue(tftypes.String, nil)
		}
		return tftypes.NewValue(tftypes.String, *s)
	}
	raw := tftypes.NewValue(
		tftypes.Object{AttributeTypes: map[string]tftypes.Type{"hostname": tftypes.String, "token": tftypes.String}},
		map[string]tftypes.Value{"hostname": value(hostname), "token": value(token)},
	)

	resp := &provider.ConfigureResponse{}
	p.Configure(ctx, provider.ConfigureRequest{Config: tfsdk.Config{Schema: schemaResp.Schema, Raw: raw}}, resp)
	return resp
}

func TestProvider_Configure(t *testing.T) {
	clearTokenEnv(t)
	host, token := "tfe.example.com", "secret"
	resp := configureProvider(t, &host, &token)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Configure() error: %v", resp.Diagnostics.Errors())
	}

	c, ok := resp.DataSourceData.(*client.Client)
	if !ok {
		t.Fatalf("DataSourceData = %T, want *client.Client", resp.DataSourceData)
	}
	if c.BaseURL != "https://tfe.example.com/api/v2" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.Token != "secret" {
		t.Errorf("Token = %q", c.Token)
	}
	if resp.ResourceData != nil {
		t.Errorf("ResourceData = %T, want nil without resources", resp.ResourceData)
	}
}

func TestProvider_ConfigureTokenFromEnv(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("TFC_TOKEN", "from-env")

	resp := configureProvider(t, nil, nil)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Configure() error: %v", resp.Diagnostics.Errors())
	}
	c := resp.DataSourceData.(*client.Client)
	if c.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", c.Token)
	}
	if c.BaseURL != "https://app.terraform.io/api/v2" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}

func TestProvider_ConfigureMissingToken(t *testing.T) {
	clearTokenEnv(t)
	resp := configureProvider(t, nil, nil)
	if !resp.Diagnostics.HasError() {
		t.Fatal("Configure() without a token should error")
	}

	found := false
	for _, d := range resp.Diagnostics.Errors() {
		if d.Summary() != "Missing API Token" {
			continue
		}
		found = true
		if withPath, ok := d.(interface{ Path() path.Path }); ok && !withPath.Path().Equal(path.Root("token")) {
			t.Errorf("error path = %s, want token", withPath.Path())
		}
	}
	if !found {
		t.Errorf("missing token diagnostic, got %v", resp.Diagnostics.Errors())
	}
	if resp.DataSourceData != nil {
		t.Error("no client should be configured")
	}
}
