// Package recommend derives cleanup suggestions from an inventory snapshot.
//
// Every rule reads only the stack and its metadata. Advice that needs trading
// post prices or account unlocks is left to callers that have them.
package recommend

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// DefaultStackSize is the largest count a single inventory slot holds.
const DefaultStackSize = 250

// Kind is the action a Recommendation proposes.
type Kind string

// Kind values.
const (
	KindWarning       Kind = "warning"
	KindSellVendor    Kind = "sell_vendor"
	KindDeposit       Kind = "deposit"
	KindStack         Kind = "stack"
	KindConsume       Kind = "consume"
	KindKeepKillproof Kind = "keep_kp"
	KindKeepLegendary Kind = "keep_leg"
)

// priority orders kinds; lower values come first.
var priority = map[Kind]int{
	KindWarning:       0,
	KindSellVendor:    5,
	KindDeposit:       6,
	KindStack:         8,
	KindConsume:       9,
	KindKeepKillproof: 10,
	KindKeepLegendary: 10,
}

// freesSlot lists the kinds whose action empties the stack's slot.
var freesSlot = map[Kind]bool{
	KindSellVendor: true,
	KindConsume:    true,
}

// Recommendation is one suggested cleanup action.
type Recommendation struct {
	Kind     Kind             `json:"kind"`
	Priority int              `json:"priority"`
	ItemID   int              `json:"item_id"`
	Name     string           `json:"name,omitempty"`
	Items    []inventory.Item `json:"items"`
	// TotalCount and Stacks describe the stacks a merge would combine.
	TotalCount int      `json:"total_count"`
	Stacks     int      `json:"stacks"`
	SlotsSaved int      `json:"slots_saved"`
	Locations  []string `json:"locations,omitempty"`
	Message    string   `json:"message"`
	// Warning marks items that must not be consumed, sold or destroyed.
	Warning   bool              `json:"warning,omitempty"`
	Important bool              `json:"important,omitempty"`
	Category  LegendaryCategory `json:"category,omitempty"`
}

// Summary aggregates a recommendation list.
type Summary struct {
	Total       int          `json:"total"`
	SlotsToFree int          `json:"slots_to_free"`
	ByKind      map[Kind]int `json:"by_kind"`
}

// Result is a validated recommendation run.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         Summary          `json:"summary"`
}

// Build validates items and returns their recommendations and summary.
//
// Postcondition: a validation failure wraps inventory.ErrInvalidRequest.
func Build(items []inventory.Item, stackSize int) (Result, error) {
	if err := (inventory.Request{Items: items, Policy: inventory.DefaultPolicy()}).Validate(); err != nil {
		return Result{}, err
	}
	recs := Analyze(items, stackSize)
	return Result{Recommendations: recs, Summary: Summarize(recs)}, nil
}

// Analyze returns at most one per-stack recommendation for each item plus
// stack-merge recommendations.
//
// Locked stacks and stacks already in the sink are ignored. A stack
// recommendation is emitted for a type spread over several incomplete stacks
// when merging them frees at least one slot.
//
// Precondition: stackSize <= 0 selects DefaultStackSize.
// Postcondition: results are ordered by priority, then item id, then input order.
func Analyze(items []inventory.Item, stackSize int) []Recommendation {
	if stackSize <= 0 {
		stackSize = DefaultStackSize
	}

	var recs []Recommendation
	var order []int
	partial := make(map[int][]inventory.Item)
	for _, it := range items {
		if it.Locked || it.InSink() {
			continue
		}
		if r, ok := analyzeItem(it); ok {
			recs = append(recs, r)
		}
		if it.Count < stackSize {
			if _, ok := partial[it.ID]; !ok {
				order = append(order, it.ID)
			}
			partial[it.ID] = append(partial[it.ID], it)
		}
	}

	for _, id := range order {
		stacks := partial[id]
		if len(stacks) < 2 {
			continue
		}
		total := inventory.TotalCount(stacks)
		saved := len(stacks) - (total+stackSize-1)/stackSize
		if saved <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Kind:       KindStack,
			Priority:   priority[KindStack],
			ItemID:     id,
			Name:       stacks[0].Name,
			Items:      stacks,
			TotalCount: total,
			Stacks:     len(stacks),
			SlotsSaved: saved,
			Locations:  locations(stacks),
			Message:    fmt.Sprintf("%d incomplete stacks (%d total) - merge to save %d slots", len(stacks), total, saved),
		})
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.ItemID, b.ItemID))
	})
	return recs
}

// analyzeItem applies the per-stack rules in order; the first that matches wins.
func analyzeItem(it inventory.Item) (Recommendation, bool) {
	single := func(k Kind, msg string) Recommendation {
		r := Recommendation{
			Kind:       k,
			Priority:   priority[k],
			ItemID:     it.ID,
			Name:       it.Name,
			Items:      []inventory.Item{it},
			TotalCount: it.Count,
			Stacks:     1,
			Locations:  []string{it.Location().String()},
			Message:    msg,
		}
		if freesSlot[k] {
			r.SlotsSaved = 1
		}
		return r
	}

	if killproofIDs[it.ID] {
		r := single(KindKeepKillproof, "Killproof item, do not consume or destroy it")
		r.Warning = true
		return r, true
	}
	if cat, msg, ok := legendaryCategory(it.ID); ok {
		r := single(KindKeepLegendary, msg)
		r.Category = cat
		r.Important = true
		r.Warning = cat == LegendaryPrecursor
		return r, true
	}
	if it.Rarity == "Junk" {
		return single(KindSellVendor, "Junk, sell it to a vendor"), true
	}
	if it.Type == "Trophy" {
		return single(KindSellVendor, "Trophy, sell it to a vendor"), true
	}
	if it.Type == "Consumable" {
		if passiveConsumables[it.DetailType] {
			return Recommendation{}, false
		}
		if it.DetailType == "Unlock" && !raidCofferIDs[it.ID] {
			return single(KindConsume, "Open or use this item"), true
		}
	}
	if raidCofferIDs[it.ID] {
		r := single(KindWarning, "Raid coffer, keep it unopened for killproof")
		r.Warning = true
		r.Important = true
		return r, true
	}
	if msg, ok := unidentifiedGear[it.ID]; ok {
		r := single(KindConsume, msg)
		r.Priority--
		r.Important = it.ID == 79050
		return r, true
	}
	if it.Type == "CraftingMaterial" && it.EligibleForSink {
		return single(KindDeposit, fmt.Sprintf("Deposit %d from %s to Material Storage", it.Count, it.Location())), true
	}
	if msg, ok := converterMaterials[it.ID]; ok {
		r := single(KindWarning, msg)
		r.Priority++
		r.Warning = true
		return r, true
	}
	if msg, ok := deceptiveItems[it.ID]; ok {
		r := single(KindWarning, msg)
		r.Warning = true
		return r, true
	}
	return Recommendation{}, false
}

// Summarize counts recommendations by kind and the slots they would free.
// Merges free their SlotsSaved; vendor sales and consumption free one slot each.
func Summarize(recs []Recommendation) Summary {
	s := Summary{Total: len(recs), ByKind: make(map[Kind]int)}
	for _, r := range recs {
		s.ByKind[r.Kind]++
		s.SlotsToFree += r.SlotsSaved
	}
	return s
}

func locations(items []inventory.Item) []string {
	var out []string
	for _, it := range items {
		name := it.Location().String()
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
