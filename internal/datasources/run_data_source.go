package datasources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/pkodzis/hcpctl/internal/client"
	"github.com/pkodzis/hcpctl/internal/resolve"
	"github.com/pkodzis/hcpctl/internal/tail"
)

// Ensure the implementation satisfies expected interfaces
var (
	_ datasource.DataSource              = &RunDataSource{}
	_ datasource.DataSourceWithConfigure = &RunDataSource{}
)

// RunDataSource defines the data source implementation
type RunDataSource struct {
	client   *client.Client
	resolver *resolve.Resolver
}

// RunDataSourceModel describes the data source data model
type RunDataSourceModel struct {
	Target       types.String     `tfsdk:"target"`
	Organization types.String     `tfsdk:"organization"`
	Phase        types.String     `tfsdk:"phase"`
	ID           types.String     `tfsdk:"id"`
	Status       types.String     `tfsdk:"status"`
	Message      types.String     `tfsdk:"message"`
	WorkspaceID  types.String     `tfsdk:"workspace_id"`
	IsDestroy    types.Bool       `tfsdk:"is_destroy"`
	PhaseStatus  *OperationStatus `tfsdk:"phase_status"`
	Log          types.String     `tfsdk:"log"`
}

// NewRunDataSource creates a new data source
func NewRunDataSource() datasource.DataSource {
	return &RunDataSource{}
}

// Metadata returns the data source type name
func (d *RunDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_run"
}

// Schema defines the data source schema
func (d *RunDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Reads a run and the current log of one of its phases. A workspace target resolves to the workspace's current run.",
		Attributes: map[string]schema.Attribute{
			"target": schema.StringAttribute{
				Description: "Run ID (run-xxx), workspace ID (ws-xxx) or workspace name.",
				Required:    true,
			},
			"organization": schema.StringAttribute{
				Description: "Organization used to resolve a workspace name. Set from the run when omitted.",
				Optional:    true,
				Computed:    true,
			},
			"phase": schema.StringAttribute{
				Description: "Phase whose status and log are read. Valid values: plan, apply. Defaults to plan.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.OneOf("plan", "apply"),
				},
			},
			"id": schema.StringAttribute{
				Description: "Run ID.",
				Computed:    true,
			},
			"status": schema.StringAttribute{
				Description: "Run status.",
				Computed:    true,
			},
			"message": schema.StringAttribute{
				Description: "Run message.",
				Computed:    true,
			},
			"workspace_id": schema.StringAttribute{
				Description: "ID of the workspace the run belongs to.",
				Computed:    true,
			},
			"is_destroy": schema.BoolAttribute{
				Description: "Whether the run destroys all resources.",
				Computed:    true,
			},
			"phase_status": schema.SingleNestedAttribute{
				Description: "Status of the selected phase.",
				Computed:    true,
				Attributes: map[string]schema.Attribute{
					"status": schema.StringAttribute{
						Description: "Phase status: pending, running, finished, errored, canceled or unreachable.",
						Computed:    true,
					},
					"resource_additions": schema.Int64Attribute{
						Description: "Resources to be created.",
						Computed:    true,
					},
					"resource_changes": schema.Int64Attribute{
						Description: "Resources to be updated in place.",
						Computed:    true,
					},
					"resource_destructions": schema.Int64Attribute{
						Description: "Resources to be destroyed.",
						Computed:    true,
					},
				},
			},
			"log": schema.StringAttribute{
				Description: "Decoded log of the selected phase at read time. Empty when the phase has not started.",
				Computed:    true,
			},
		},
	}
}

// Configure adds the provider-configured client to the data source
func (d *RunDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

	d.client = c
	d.resolver = resolve.New(c)
}

// Read resolves the run, then reads the selected phase and its log
func (d *RunDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data RunDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	phase := tail.Plan
	if p := optionalString(data.Phase); p != "" {
		var err error
		phase, err = tail.ParsePhase(p)
		if err != nil {
			resp.Diagnostics.AddError("Invalid Phase", err.Error())
			return
		}
	}

	target := data.Target.ValueString()
	run, err := d.resolver.Run(ctx, resolve.ParseTarget(target, resolve.RunPrefix), optionalString(data.Organization))
	if err != nil {
		addResolveError(&resp.Diagnostics, "Run", target, err)
		return
	}

	op, err := d.operation(ctx, run.Resource.ID, phase)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Run",
			fmt.Sprintf("Could not read %s of run %s: %s", phase, run.Resource.ID, err.Error()),
		)
		return
	}

	var log strings.Builder
	tailer := tail.NewTailer(tail.NewClientSource(d.client))
	err = tailer.Snapshot(ctx, run.Resource.ID, phase, func(line string) {
		log.WriteString(line)
		log.WriteByte('\n')
	})
	if err != nil && !errors.Is(err, tail.ErrNoLog) {
		resp.Diagnostics.AddError(
			"Error Reading Run Log",
			fmt.Sprintf("Could not read %s log of run %s: %s", phase, run.Resource.ID, err.Error()),
		)
		return
	}

	mapRunToModel(&run.Resource, run.Organization, op, &data)
	data.Log = types.StringValue(log.String())

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
	tflog.Debug(ctx, "Read run data source", map[string]any{"id": data.ID.ValueString(), "phase": phase.String()})
}

func (d *RunDataSource) operation(ctx context.Context, runID string, phase tail.Phase) (*client.OperationAttributes, error) {
	if phase == tail.Apply {
		apply, err := d.client.GetApply(ctx, runID)
		if err != nil {
			return nil, err
		}
		return &apply.Attributes, nil
	}
	plan, err := d.client.GetPlan(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &plan.Attributes, nil
}

// mapRunToModel maps the API resources to the Terraform data source model
func mapRunToModel(run *client.Run, org string, op *client.OperationAttributes, data *RunDataSourceModel) {
	data.ID = types.StringValue(run.ID)
	data.Organization = types.StringValue(org)
	data.Status = types.StringValue(run.Attributes.Status)
	data.Message = types.StringValue(run.Attributes.Message)
	data.WorkspaceID = types.StringValue(run.WorkspaceID())
	data.IsDestroy = types.BoolValue(run.Attributes.IsDestroy)

	if op != nil {
		data.PhaseStatus = &OperationStatus{
			Status:               op.Status,
			ResourceAdditions:    op.ResourceAdditions,
			ResourceChanges:      op.ResourceChanges,
			ResourceDestructions: op.ResourceDestructions,
		}
	}
}
