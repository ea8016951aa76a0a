package allocation

import (
	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

const (
	// suggestHeadroom is added to the even share of every bin but the last.
	suggestHeadroom = 10
	// suggestMaxSlots caps the recommendation for every bin but the last.
	suggestMaxSlots = 160
	// suggestMinSlots floors every recommendation.
	suggestMinSlots = 20
)

// BinSuggestion is the recommended capacity of one bin.
type BinSuggestion struct {
	Bin   int  `json:"bin"`
	Slots int  `json:"slots"`
	Last  bool `json:"last,omitempty"`
}

// CategorySummary is the bin-bound load of one category.
type CategorySummary struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Slots int    `json:"slots"`
	Units int    `json:"units"`
}

// Suggestion is an advisory slot layout computed before packing.
type Suggestion struct {
	BinCount     int               `json:"bin_count"`
	BinBound     int               `json:"bin_bound"`
	SinkBound    int               `json:"sink_bound"`
	SinkRejected int               `json:"sink_rejected"`
	Average      int               `json:"average"`
	Bins         []BinSuggestion   `json:"bins"`
	Categories   []CategorySummary `json:"categories"`
}

// SuggestSlots proposes a balanced capacity for binCount bins.
//
// The sink selector runs first; the stacks left for bins are spread evenly,
// with headroom, over every bin but the last, which takes the remainder.
//
// Precondition: the inputs satisfy inventory.Request.Validate.
// Postcondition: binCount <= 0 yields a Suggestion with no bins; every
// suggested value is >= 20.
func SuggestSlots(binCount int, items []inventory.Item, sink inventory.SinkState, policy inventory.CapacityPolicy, c *category.Classifier, useSubCategories bool) Suggestion {
	sel := SelectForSink(items, sink, policy)
	binBound := sel.BinBound()

	s := Suggestion{
		BinCount:     max(binCount, 0),
		BinBound:     len(binBound),
		SinkBound:    len(sel.SinkBound()),
		SinkRejected: len(sel.Rejected),
	}
	for _, pool := range GroupByCategory(binBound, c, useSubCategories) {
		s.Categories = append(s.Categories, CategorySummary{
			Key:   pool.Category.Key,
			Name:  pool.Category.Name,
			Slots: len(pool.Items),
			Units: inventory.TotalCount(pool.Items),
		})
	}
	if binCount <= 0 {
		return s
	}

	s.Average = (s.BinBound + binCount - 1) / binCount
	remaining := s.BinBound
	for i := range binCount {
		last := i == binCount-1
		slots := min(s.Average+suggestHeadroom, suggestMaxSlots)
		if last {
			slots = remaining
		}
		s.Bins = append(s.Bins, BinSuggestion{Bin: i + 1, Slots: max(slots, suggestMinSlots), Last: last})
		remaining -= slots
	}
	return s
}
