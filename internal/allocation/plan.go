package allocation

import (
	"fmt"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// StepKind distinguishes sink deposits from bin transfers.
type StepKind string

// StepKind values.
const (
	StepDeposit  StepKind = "deposit"
	StepTransfer StepKind = "transfer"
)

// PlanItem is a stack referenced by a transfer step.
type PlanItem struct {
	ID     int    `json:"id"`
	Name   string `json:"name,omitempty"`
	Count  int    `json:"count"`
	Rarity string `json:"rarity,omitempty"`
}

// Step moves one or more stacks from a single location to one destination.
type Step struct {
	Kind        StepKind           `json:"kind"`
	From        inventory.Location `json:"from"`
	To          string             `json:"to"`
	Items       []PlanItem         `json:"items"`
	Stacks      int                `json:"stacks"`
	Units       int                `json:"units"`
	Instruction string             `json:"instruction"`
}

// SourceGroup is every step leaving one location.
type SourceGroup struct {
	Source inventory.Location `json:"source"`
	Name   string             `json:"name"`
	Steps  []Step             `json:"steps"`
}

// TransferPlan is the ordered list of moves that realizes a report.
type TransferPlan struct {
	// Steps lists sink deposits first, then bin transfers bin by bin.
	Steps           []Step        `json:"steps"`
	GroupedBySource []SourceGroup `json:"grouped_by_source"`
	// TotalMoves is the number of stacks to move.
	TotalMoves      int `json:"total_moves"`
	SourcesInvolved int `json:"sources_involved"`
}

// SinkLabel is the destination name of sink deposits.
var SinkLabel = inventory.Location{Source: inventory.SourceSink}.String()

// BuildTransferPlan derives the moves for a set of sink-bound entries and
// packed bins.
//
// Sink deposits are grouped by current location in first-appearance order.
// Bin transfers are emitted bin by bin, grouped by current location inside a
// bin; stacks already on the character their bin names produce no step.
//
// Postcondition: TotalMoves equals the sum of Stacks over Steps.
func BuildTransferPlan(sinkBound []SinkEntry, bins []Bin) TransferPlan {
	var plan TransferPlan

	deposits := make([]inventory.Item, 0, len(sinkBound))
	for _, e := range sinkBound {
		deposits = append(deposits, e.Item)
	}
	plan.Steps = append(plan.Steps, groupSteps(StepDeposit, SinkLabel, deposits)...)

	for _, b := range bins {
		var moving []inventory.Item
		for _, p := range b.Items {
			if residentIn(p.Item, b.Name) {
				continue
			}
			moving = append(moving, p.Item)
		}
		plan.Steps = append(plan.Steps, groupSteps(StepTransfer, b.Name, moving)...)
	}

	index := make(map[inventory.Location]int)
	for _, st := range plan.Steps {
		plan.TotalMoves += st.Stacks
		i, ok := index[st.From]
		if !ok {
			i = len(plan.GroupedBySource)
			index[st.From] = i
			plan.GroupedBySource = append(plan.GroupedBySource, SourceGroup{Source: st.From, Name: st.From.String()})
		}
		plan.GroupedBySource[i].Steps = append(plan.GroupedBySource[i].Steps, st)
	}
	plan.SourcesInvolved = len(plan.GroupedBySource)
	return plan
}

// residentIn reports whether the stack already sits on the named character.
func residentIn(it inventory.Item, bin string) bool {
	return it.Source == inventory.SourceCharacter && it.SourceLabel == bin
}

// groupSteps emits one step per distinct current location of items, in
// first-appearance order.
func groupSteps(kind StepKind, to string, items []inventory.Item) []Step {
	var steps []Step
	index := make(map[inventory.Location]int)
	for _, it := range items {
		loc := it.Location()
		i, ok := index[loc]
		if !ok {
			i = len(steps)
			index[loc] = i
			steps = append(steps, Step{Kind: kind, From: loc, To: to})
		}
		st := &steps[i]
		st.Items = append(st.Items, PlanItem{ID: it.ID, Name: it.Name, Count: it.Count, Rarity: it.Rarity})
		st.Stacks++
		st.Units += it.Count
	}
	for i := range steps {
		steps[i].Instruction = instruction(steps[i])
	}
	return steps
}

func instruction(st Step) string {
	noun := "stacks"
	if st.Stacks == 1 {
		noun = "stack"
	}
	return fmt.Sprintf("Move %d %s from %s to %s", st.Stacks, noun, st.From, st.To)
}
