// Package allocation implements the stash allocation engine: sink selection,
// bin packing, report and transfer-plan derivation, and slot suggestions.
//
// Every function in this package is pure. Inputs are never modified and no
// state survives a call.
package allocation

import (
	"slices"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// SlotKind tells whether a sink-bound stack joins an existing sink entry or
// opens a new one.
type SlotKind string

// SlotKind values.
const (
	SlotExisting SlotKind = "existing"
	SlotNew      SlotKind = "new_slot"
)

// RejectReason explains why an eligible stack stays out of the sink.
type RejectReason string

// RejectReason values.
const (
	ReasonLimitFull       RejectReason = "limit_full"
	ReasonLimitExceeded   RejectReason = "limit_exceeded_partial"
	ReasonNewSlotOverflow RejectReason = "new_slot_overflow"
)

// SinkEntry is a stack, or the accepted part of a split stack, bound for the sink.
type SinkEntry struct {
	Item  inventory.Item `json:"item"`
	Slot  SlotKind       `json:"slot"`
	Split bool           `json:"split,omitempty"`
}

// Rejection is a stack, or the remainder of a split stack, the sink cannot take.
type Rejection struct {
	Item   inventory.Item `json:"item"`
	Reason RejectReason   `json:"reason"`
	Split  bool           `json:"split,omitempty"`
}

// NewSlotGroup is every accepted stack of a type that had no sink entry yet.
// All of them share one logical new slot.
type NewSlotGroup struct {
	ID            int         `json:"id"`
	Limit         int         `json:"limit"`
	TotalAccepted int         `json:"total_accepted"`
	Entries       []SinkEntry `json:"entries"`
}

// SinkResult partitions the input of one selection.
type SinkResult struct {
	// Existing holds stacks joining a type already in the sink, grouped by type
	// in first-appearance order.
	Existing []SinkEntry
	// NewSlots is ordered by TotalAccepted descending; ties keep first appearance.
	NewSlots   []NewSlotGroup
	Rejected   []Rejection
	Locked     []inventory.Item
	Ineligible []inventory.Item
	// Resident holds stacks whose source already is the sink.
	Resident []inventory.Item
	// Sink is the sink state after every accepted stack is deposited.
	Sink inventory.SinkState
	// Policy is the policy the selection ran with.
	Policy inventory.CapacityPolicy

	inputs   int
	binBound []inventory.Item
}

// SinkBound returns every sink-bound entry: existing entries, then the new
// slot groups in presentation order.
func (r SinkResult) SinkBound() []SinkEntry {
	out := slices.Clone(r.Existing)
	for _, g := range r.NewSlots {
		out = append(out, g.Entries...)
	}
	return out
}

// BinBound returns the stacks the packer must place: ineligible stacks and
// rejected stacks or remainders, in input order.
//
// Postcondition: Returns a fresh slice.
func (r SinkResult) BinBound() []inventory.Item {
	return slices.Clone(r.binBound)
}

// Inputs is the number of stacks the selection was given.
func (r SinkResult) Inputs() int {
	return r.inputs
}

// AcceptedCount returns the total units bound for the sink.
func (r SinkResult) AcceptedCount() int {
	n := 0
	for _, e := range r.SinkBound() {
		n += e.Item.Count
	}
	return n
}

// stackRef is an eligible stack plus its input position.
type stackRef struct {
	index int
	item  inventory.Item
}

type typeGroup struct {
	id     int
	stacks []stackRef
}

// SelectForSink decides which eligible stacks enter the shared sink.
//
// Locked stacks are set aside first, wherever they live. Resident stacks pass
// through next, and ineligible stacks are flagged for the packer. Eligible stacks are grouped by
// type id and fitted greedily, largest first, against the type's remaining
// capacity.
//
// Precondition: items, sink and policy satisfy inventory.Request.Validate.
// Postcondition: for every type id, stored + accepted <= policy.Limit(id)
// whenever stored <= policy.Limit(id). items and sink are not modified.
func SelectForSink(items []inventory.Item, sink inventory.SinkState, policy inventory.CapacityPolicy) SinkResult {
	res := SinkResult{
		Sink:   sink.Clone(),
		Policy: policy,
		inputs: len(items),
	}

	// remainders maps an input position to what is left of it for the packer.
	remainders := make(map[int]inventory.Item)
	var groups []*typeGroup
	byID := make(map[int]*typeGroup)

	for i, it := range items {
		switch {
		case it.Locked:
			res.Locked = append(res.Locked, it)
		case it.InSink():
			res.Resident = append(res.Resident, it)
		case !it.EligibleForSink:
			res.Ineligible = append(res.Ineligible, it)
			remainders[i] = it
		default:
			g, ok := byID[it.ID]
			if !ok {
				g = &typeGroup{id: it.ID}
				byID[it.ID] = g
				groups = append(groups, g)
			}
			g.stacks = append(g.stacks, stackRef{index: i, item: it})
		}
	}

	for _, g := range groups {
		limit := policy.Limit(g.id)
		stored, present := sink.Stored(g.id)

		if present {
			available := max(0, limit-stored)
			if available == 0 {
				for _, s := range g.stacks {
					res.Rejected = append(res.Rejected, Rejection{Item: s.item, Reason: ReasonLimitFull})
					remainders[s.index] = s.item
				}
				continue
			}
			if sumCounts(g.stacks) <= available {
				for _, s := range g.stacks {
					res.Existing = append(res.Existing, SinkEntry{Item: s.item, Slot: SlotExisting})
				}
				res.Sink[g.id] += sumCounts(g.stacks)
				continue
			}
			accepted, rejected := fitGreedy(g.stacks, available, policy.SplitBoundaryStacks, SlotExisting, ReasonLimitExceeded)
			res.Existing = append(res.Existing, accepted...)
			res.Sink[g.id] += entryCount(accepted)
			res.record(rejected, remainders)
			continue
		}

		accepted, rejected := fitGreedy(g.stacks, limit, policy.SplitBoundaryStacks, SlotNew, ReasonNewSlotOverflow)
		res.record(rejected, remainders)
		if len(accepted) == 0 {
			continue
		}
		total := entryCount(accepted)
		res.NewSlots = append(res.NewSlots, NewSlotGroup{ID: g.id, Limit: limit, TotalAccepted: total, Entries: accepted})
		res.Sink[g.id] = total
	}

	slices.SortStableFunc(res.NewSlots, func(a, b NewSlotGroup) int {
		return b.TotalAccepted - a.TotalAccepted
	})

	for i := range items {
		if it, ok := remainders[i]; ok {
			res.binBound = append(res.binBound, it)
		}
	}
	return res
}

// rejectedRef is a rejection that remembers its input position.
type rejectedRef struct {
	index int
	Rejection
}

func (r *SinkResult) record(rejected []rejectedRef, remainders map[int]inventory.Item) {
	for _, rj := range rejected {
		r.Rejected = append(r.Rejected, rj.Rejection)
		remainders[rj.index] = rj.Item
	}
}

// fitGreedy sorts stacks by count descending (stable) and accepts them while
// they fit in available. The first stack that does not fit, and every stack
// after it, is rejected. With split set, the first misfit is cut so the
// fitting part is accepted.
func fitGreedy(stacks []stackRef, available int, split bool, slot SlotKind, reason RejectReason) ([]SinkEntry, []rejectedRef) {
	sorted := slices.Clone(stacks)
	slices.SortStableFunc(sorted, func(a, b stackRef) int {
		return b.item.Count - a.item.Count
	})

	var accepted []SinkEntry
	var rejected []rejectedRef
	remaining := available
	for i, s := range sorted {
		if s.item.Count <= remaining {
			accepted = append(accepted, SinkEntry{Item: s.item, Slot: slot})
			remaining -= s.item.Count
			continue
		}
		if split && remaining > 0 {
			head, tail := s.item, s.item
			head.Count = remaining
			tail.Count = s.item.Count - remaining
			accepted = append(accepted, SinkEntry{Item: head, Slot: slot, Split: true})
			rejected = append(rejected, rejectedRef{index: s.index, Rejection: Rejection{Item: tail, Reason: reason, Split: true}})
		} else {
			rejected = append(rejected, rejectedRef{index: s.index, Rejection: Rejection{Item: s.item, Reason: reason}})
		}
		for _, rest := range sorted[i+1:] {
			rejected = append(rejected, rejectedRef{index: rest.index, Rejection: Rejection{Item: rest.item, Reason: reason}})
		}
		break
	}
	return accepted, rejected
}

func sumCounts(stacks []stackRef) int {
	n := 0
	for _, s := range stacks {
		n += s.item.Count
	}
	return n
}

func entryCount(entries []SinkEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Item.Count
	}
	return n
}
