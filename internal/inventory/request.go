package inventory

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidRequest is wrapped by every boundary validation failure.
var ErrInvalidRequest = errors.New("invalid allocation request")

// BinSpec is a character inventory offered to the packer, in tie-break order.
type BinSpec struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Request is the complete input of one allocation run.
//
// Sink may be nil, in which case the sink contents are derived from the
// items whose source is the sink.
type Request struct {
	Items            []Item         `json:"items"`
	Sink             SinkState      `json:"sink,omitempty"`
	Policy           CapacityPolicy `json:"policy"`
	Bins             []BinSpec      `json:"bins"`
	UseSubCategories bool           `json:"use_sub_categories,omitempty"`
}

// EffectiveSink returns the sink state the run should use.
//
// Postcondition: Returns a copy; the request is not modified.
func (r Request) EffectiveSink() SinkState {
	if r.Sink == nil {
		return SinkStateFromItems(r.Items)
	}
	return r.Sink.Clone()
}

// Validate checks every boundary invariant of the request.
//
// Postcondition: Returns nil if the request is well formed, or an error wrapping
// ErrInvalidRequest that describes all violations.
func (r Request) Validate() error {
	var errs []string

	errs = append(errs, validateItems(r.Items)...)
	errs = append(errs, validateBins(r.Bins)...)
	errs = append(errs, validatePolicy(r.Policy)...)
	for _, id := range slices.Sorted(maps.Keys(r.Sink)) {
		if n := r.Sink[id]; n < 0 {
			errs = append(errs, fmt.Sprintf("sink[%d] must be >= 0, got %d", id, n))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return nil
}

func validateItems(items []Item) []string {
	var errs []string
	for i, it := range items {
		if it.Count < 1 {
			errs = append(errs, fmt.Sprintf("items[%d].count must be >= 1, got %d", i, it.Count))
		}
		if !it.Source.Valid() {
			errs = append(errs, fmt.Sprintf("items[%d].source must be one of [character, bank, shared, sink], got %q", i, it.Source))
		}
		if it.Source == SourceCharacter && it.SourceLabel == "" {
			errs = append(errs, fmt.Sprintf("items[%d].source_label is required for character items", i))
		}
	}
	return errs
}

func validateBins(bins []BinSpec) []string {
	var errs []string
	seen := make(map[string]bool, len(bins))
	for i, b := range bins {
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("bins[%d].name must not be empty", i))
		} else if seen[b.Name] {
			errs = append(errs, fmt.Sprintf("bins[%d].name %q is duplicated", i, b.Name))
		}
		seen[b.Name] = true
		if b.Capacity < 0 {
			errs = append(errs, fmt.Sprintf("bins[%d].capacity must be >= 0, got %d", i, b.Capacity))
		}
	}
	return errs
}

func validatePolicy(p CapacityPolicy) []string {
	var errs []string
	if p.DefaultLimit < 1 {
		errs = append(errs, fmt.Sprintf("policy.default_limit must be >= 1, got %d", p.DefaultLimit))
	}
	for _, id := range slices.Sorted(maps.Keys(p.PerItemOverride)) {
		if n := p.PerItemOverride[id]; n < 1 {
			errs = append(errs, fmt.Sprintf("policy.per_item_override[%d] must be >= 1, got %d", id, n))
		}
	}
	return errs
}
