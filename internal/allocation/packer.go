package allocation

import (
	"slices"

	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// Placement is a bin-bound stack together with its packing category.
type Placement struct {
	Item     inventory.Item `json:"item"`
	Category string         `json:"category"`
}

// CategoryLoad is the share of one category inside a bin.
type CategoryLoad struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	// Stacks is the number of slots the category occupies.
	Stacks int              `json:"stacks"`
	Units  int              `json:"units"`
	Items  []inventory.Item `json:"items"`
}

// Bin is the final state of one character inventory after packing.
type Bin struct {
	Name       string         `json:"name"`
	Capacity   int            `json:"capacity"`
	UsedSlots  int            `json:"used_slots"`
	FreeSlots  int            `json:"free_slots"`
	Items      []Placement    `json:"items"`
	Categories []CategoryLoad `json:"categories"`
}

// assign appends stacks of one category to b.
func (b *Bin) assign(cat category.Category, stacks []inventory.Item) {
	for _, it := range stacks {
		b.Items = append(b.Items, Placement{Item: it, Category: cat.Key})
	}
	b.UsedSlots += len(stacks)
	b.FreeSlots -= len(stacks)

	idx := slices.IndexFunc(b.Categories, func(c CategoryLoad) bool { return c.Key == cat.Key })
	if idx < 0 {
		b.Categories = append(b.Categories, CategoryLoad{Key: cat.Key, Name: cat.Name})
		idx = len(b.Categories) - 1
	}
	load := &b.Categories[idx]
	load.Stacks += len(stacks)
	load.Units += inventory.TotalCount(stacks)
	load.Items = append(load.Items, stacks...)
}

// PackResult is the output of Distribute.
type PackResult struct {
	Bins       []Bin       `json:"bins"`
	Unassigned []Placement `json:"unassigned"`
}

// Assigned returns the number of stacks placed in bins.
func (r PackResult) Assigned() int {
	n := 0
	for _, b := range r.Bins {
		n += b.UsedSlots
	}
	return n
}

// CategoryPool is the bin-bound stacks of one category, in input order.
type CategoryPool struct {
	Category category.Category
	Items    []inventory.Item
}

// GroupByCategory resolves every item and groups them by packing key.
//
// Postcondition: pools follow classifier rule order; items inside a pool keep
// input order.
func GroupByCategory(items []inventory.Item, c *category.Classifier, useSubCategories bool) []CategoryPool {
	var pools []CategoryPool
	index := make(map[string]int)
	for _, it := range items {
		cat := c.Resolve(it, useSubCategories)
		i, ok := index[cat.Key]
		if !ok {
			i = len(pools)
			index[cat.Key] = i
			pools = append(pools, CategoryPool{Category: cat})
		}
		pools[i].Items = append(pools[i].Items, it)
	}
	slices.SortStableFunc(pools, func(a, b CategoryPool) int {
		return c.Rank(a.Category.Key) - c.Rank(b.Category.Key)
	})
	return pools
}

// Distribute packs items into bins, one stack per slot.
//
// Categories are processed in classifier rule order. For each category the
// whole pool goes to the bin that fits it with the least waste; when no bin can
// hold the pool, the emptiest bin takes as much as it can and the loop repeats.
// Stacks left when every bin is full are unassigned.
//
// Precondition: bin names are unique and capacities are >= 0.
// Postcondition: no bin exceeds its capacity; every item is either in exactly
// one bin or in Unassigned. items and bins are not modified.
func Distribute(items []inventory.Item, bins []inventory.BinSpec, c *category.Classifier, useSubCategories bool) PackResult {
	res := PackResult{Bins: make([]Bin, len(bins))}
	for i, spec := range bins {
		res.Bins[i] = Bin{Name: spec.Name, Capacity: spec.Capacity, FreeSlots: spec.Capacity}
	}

	for _, pool := range GroupByCategory(items, c, useSubCategories) {
		rest := pool.Items
		for len(rest) > 0 {
			need := len(rest)
			target := bestFit(res.Bins, need)
			if target < 0 {
				target = emptiest(res.Bins)
			}
			if target < 0 || res.Bins[target].FreeSlots == 0 {
				for _, it := range rest {
					res.Unassigned = append(res.Unassigned, Placement{Item: it, Category: pool.Category.Key})
				}
				break
			}
			take := min(need, res.Bins[target].FreeSlots)
			res.Bins[target].assign(pool.Category, rest[:take])
			rest = rest[take:]
		}
	}
	return res
}

// bestFit returns the index of the bin with free >= need that leaves the least
// waste, first in bin order on ties, or -1.
func bestFit(bins []Bin, need int) int {
	best := -1
	for i, b := range bins {
		if b.FreeSlots < need {
			continue
		}
		if best < 0 || b.FreeSlots-need < bins[best].FreeSlots-need {
			best = i
		}
	}
	return best
}

// emptiest returns the index of the bin with the most free slots, first in
// bin order on ties, or -1 when there are no bins.
func emptiest(bins []Bin) int {
	best := -1
	for i, b := range bins {
		if best < 0 || b.FreeSlots > bins[best].FreeSlots {
			best = i
		}
	}
	return best
}
