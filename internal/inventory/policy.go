package inventory

// DefaultSinkLimit is the per-type storage limit of an unexpanded material storage.
const DefaultSinkLimit = 250

// MaxSinkLimit is the largest per-type limit observed with every storage expander.
// The engine never enforces it; configuration validation does.
const MaxSinkLimit = 2750

// SinkState maps item-type id to the count currently stored in the sink.
// Only types already present have entries.
type SinkState map[int]int

// Stored returns the stored count for id and whether the type has a sink entry.
func (s SinkState) Stored(id int) (int, bool) {
	n, ok := s[id]
	return n, ok
}

// Clone returns an independent copy of s.
//
// Postcondition: mutating the result never affects s.
func (s SinkState) Clone() SinkState {
	out := make(SinkState, len(s))
	for id, n := range s {
		out[id] = n
	}
	return out
}

// SinkStateFromItems derives the sink contents from stacks whose source is the sink.
//
// Postcondition: result has one entry per distinct type id found in the sink.
func SinkStateFromItems(items []Item) SinkState {
	out := make(SinkState)
	for _, it := range items {
		if it.InSink() {
			out[it.ID] += it.Count
		}
	}
	return out
}

// CapacityPolicy bounds how much of each type the sink may hold.
type CapacityPolicy struct {
	DefaultLimit    int         `json:"default_limit"`
	PerItemOverride map[int]int `json:"per_item_override,omitempty"`
	// SplitBoundaryStacks lets the selector deposit the fitting part of the first
	// stack that no longer fits whole; the rest of that stack stays bin-bound.
	SplitBoundaryStacks bool `json:"split_boundary_stacks,omitempty"`
}

// DefaultPolicy returns a policy with DefaultSinkLimit and no overrides.
func DefaultPolicy() CapacityPolicy {
	return CapacityPolicy{DefaultLimit: DefaultSinkLimit}
}

// Limit returns the effective limit for id: the override when present,
// DefaultLimit otherwise.
func (p CapacityPolicy) Limit(id int) int {
	if n, ok := p.PerItemOverride[id]; ok {
		return n
	}
	return p.DefaultLimit
}
