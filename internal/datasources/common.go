package datasources

import (
	"errors"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/pkodzis/hcpctl/internal/resolve"
)

// OperationStatus represents computed attributes of a run's plan or apply.
// These fields are read-only and populated by the API.
type OperationStatus struct {
	Status               string `tfsdk:"status"`                // pending, running, finished, errored, canceled, unreachable
	ResourceAdditions    int    `tfsdk:"resource_additions"`    // Resources to be created
	ResourceChanges      int    `tfsdk:"resource_changes"`      // Resources to be updated in place
	ResourceDestructions int    `tfsdk:"resource_destructions"` // Resources to be destroyed
}

// addResolveError reports a failed lookup, with a distinct summary for targets that do not exist
func addResolveError(diags *diag.Diagnostics, kind string, target string, err error) {
	var nf *resolve.NotFoundError
	if errors.As(err, &nf) {
		diags.AddError(
			"Could Not Find "+kind,
			err.Error(),
		)
		return
	}
	diags.AddError(
		"Error Reading "+kind,
		"Could not resolve "+target+": "+err.Error(),
	)
}

// optionalString returns the value of s, or "" when it is null or unknown
func optionalString(s types.String) string {
	if s.IsNull() || s.IsUnknown() {
		return ""
	}
	return s.ValueString()
}
