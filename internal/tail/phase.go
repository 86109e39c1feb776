package tail

import "fmt"

// Phase selects which operation of a run is followed.
type Phase int

const (
	Plan Phase = iota
	Apply
)

// finalStates are the statuses after which plans and applies never change.
var finalStates = map[string]bool{
	"finished":    true,
	"errored":     true,
	"canceled":    true,
	"unreachable": true,
}

func (p Phase) String() string {
	if p == Apply {
		return "apply"
	}
	return "plan"
}

// IsFinal reports whether state is terminal for this phase
func (p Phase) IsFinal(state string) bool {
	return finalStates[state]
}

// ParsePhase parses "plan" or "apply"
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "plan", "":
		return Plan, nil
	case "apply":
		return Apply, nil
	default:
		return Plan, fmt.Errorf("unknown phase %q, want plan or apply", s)
	}
}
