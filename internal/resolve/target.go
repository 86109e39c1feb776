package resolve

import "strings"

// Identifier prefixes used by the API.
const (
	WorkspacePrefix = "ws-"
	RunPrefix       = "run-"
	ProjectPrefix   = "prj-"
)

// TargetKind says whether a target is an ID or a name.
type TargetKind int

const (
	TargetName TargetKind = iota
	TargetID
)

func (k TargetKind) String() string {
	if k == TargetID {
		return "id"
	}
	return "name"
}

// Target is an identifier supplied by a user.
type Target struct {
	Kind  TargetKind
	Value string
}

// ParseTarget classifies value as an ID when it begins with prefix, and as a name otherwise.
func ParseTarget(value, prefix string) Target {
	if prefix != "" && strings.HasPrefix(value, prefix) {
		return Target{Kind: TargetID, Value: value}
	}
	return Target{Kind: TargetName, Value: value}
}

// IsID reports whether the target was classified as an ID
func (t Target) IsID() bool {
	return t.Kind == TargetID
}

func (t Target) String() string {
	return t.Value
}
