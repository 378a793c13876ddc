package resource

// State is the operating mode of one invocation.
type State string

const (
	Merged     State = "merged"
	Replaced   State = "replaced"
	Overridden State = "overridden"
	Deleted    State = "deleted"
	Rendered   State = "rendered"
	Gathered   State = "gathered"
	Parsed     State = "parsed"
)

// States lists every state in documentation order.
var States = []State{Merged, Replaced, Overridden, Deleted, Rendered, Gathered, Parsed}

// Known reports whether s is one of States.
func (s State) Known() bool {
	for _, k := range States {
		if s == k {
			return true
		}
	}
	return false
}

// Mutating reports whether the state produces commands against a live,
// observed configuration.
func (s State) Mutating() bool {
	switch s {
	case Merged, Replaced, Overridden, Deleted:
		return true
	}
	return false
}

// NeedsConfig reports whether desired config must be non-empty.
func (s State) NeedsConfig() bool {
	switch s {
	case Merged, Replaced, Overridden, Rendered:
		return true
	}
	return false
}
