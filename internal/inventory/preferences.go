package inventory

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Preferences are the per-account settings an allocation run consumes.
// They are persisted by an external store; the engine only reads them.
type Preferences struct {
	LockedIDs        []int       `json:"locked_ids,omitempty"`
	DefaultLimit     int         `json:"default_limit,omitempty"`
	ItemLimits       map[int]int `json:"item_limits,omitempty"`
	Bins             []BinSpec   `json:"bins,omitempty"`
	UseSubCategories bool        `json:"use_sub_categories,omitempty"`
}

// IsLocked reports whether the type id is in the locked set.
func (p Preferences) IsLocked(id int) bool {
	return slices.Contains(p.LockedIDs, id)
}

// Apply merges the preferences into req and returns the merged copy.
//
// Items whose type id is locked are marked Locked. Bins and the default limit
// are taken from the preferences only when the request leaves them empty;
// request overrides win over stored item limits.
//
// Postcondition: req and p are not modified.
func (p Preferences) Apply(req Request) Request {
	out := req
	out.Items = make([]Item, len(req.Items))
	for i, it := range req.Items {
		if p.IsLocked(it.ID) {
			it.Locked = true
		}
		out.Items[i] = it
	}

	if len(out.Bins) == 0 && len(p.Bins) > 0 {
		out.Bins = slices.Clone(p.Bins)
	}
	if out.Policy.DefaultLimit == 0 {
		out.Policy.DefaultLimit = p.DefaultLimit
	}
	if len(p.ItemLimits) > 0 {
		merged := make(map[int]int, len(p.ItemLimits)+len(req.Policy.PerItemOverride))
		for id, n := range p.ItemLimits {
			merged[id] = n
		}
		for id, n := range req.Policy.PerItemOverride {
			merged[id] = n
		}
		out.Policy.PerItemOverride = merged
	}
	if p.UseSubCategories {
		out.UseSubCategories = true
	}
	return out
}

// Validate checks that the preferences can be merged into a valid request.
// A zero DefaultLimit means unset.
//
// Postcondition: Returns nil, or an error wrapping ErrInvalidRequest that
// describes all violations.
func (p Preferences) Validate() error {
	var errs []string
	if p.DefaultLimit < 0 {
		errs = append(errs, fmt.Sprintf("default_limit must be >= 0, got %d", p.DefaultLimit))
	}
	for _, id := range slices.Sorted(maps.Keys(p.ItemLimits)) {
		if n := p.ItemLimits[id]; n < 1 {
			errs = append(errs, fmt.Sprintf("item_limits[%d] must be >= 1, got %d", id, n))
		}
	}
	errs = append(errs, validateBins(p.Bins)...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return nil
}
