package allocation

import (
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// BinStats summarizes one bin.
type BinStats struct {
	Name           string `json:"name"`
	Capacity       int    `json:"capacity"`
	UsedSlots      int    `json:"used_slots"`
	FreeSlots      int    `json:"free_slots"`
	FillPercentage int    `json:"fill_percentage"`
}

// Stats are the aggregate counters of one run.
type Stats struct {
	TotalItems        int        `json:"total_items"`
	TotalCount        int        `json:"total_count"`
	SinkAccepted      int        `json:"sink_accepted"`
	SinkAcceptedCount int        `json:"sink_accepted_count"`
	SinkRejected      int        `json:"sink_rejected"`
	NewSinkSlots      int        `json:"new_sink_slots"`
	Locked            int        `json:"locked"`
	Resident          int        `json:"resident"`
	Ineligible        int        `json:"ineligible"`
	Assigned          int        `json:"assigned"`
	Unassigned        int        `json:"unassigned"`
	TotalCapacity     int        `json:"total_capacity"`
	UsedSlots         int        `json:"used_slots"`
	FreeSlots         int        `json:"free_slots"`
	Efficiency        int        `json:"efficiency"`
	SlotsFreed        int        `json:"slots_freed"`
	Bins              []BinStats `json:"bins"`
}

// Report is the complete, serializable result of one allocation run.
type Report struct {
	// ID identifies the request the report was built from. Identical requests
	// share an ID.
	ID           string           `json:"id,omitempty"`
	SinkBound    []SinkEntry      `json:"sink_bound"`
	SinkRejected []Rejection      `json:"sink_rejected"`
	Locked       []inventory.Item `json:"locked"`
	Resident     []inventory.Item `json:"resident"`
	Ineligible   []inventory.Item `json:"ineligible"`
	Bins         []Bin            `json:"bins"`
	Unassigned   []Placement      `json:"unassigned"`
	Stats        Stats            `json:"stats"`
	TransferPlan TransferPlan     `json:"transfer_plan"`
}

// BuildReport derives statistics and the transfer plan from a selection and
// a packing of its bin-bound stacks.
//
// Postcondition: never fails; empty inputs yield zero stats and an empty plan.
func BuildReport(sink SinkResult, pack PackResult) *Report {
	r := &Report{
		SinkBound:    sink.SinkBound(),
		SinkRejected: sink.Rejected,
		Locked:       sink.Locked,
		Resident:     sink.Resident,
		Ineligible:   sink.Ineligible,
		Bins:         pack.Bins,
		Unassigned:   pack.Unassigned,
	}
	r.Stats = buildStats(sink, pack, r.SinkBound)
	r.TransferPlan = BuildTransferPlan(r.SinkBound, pack.Bins)
	return r
}

func buildStats(sink SinkResult, pack PackResult, bound []SinkEntry) Stats {
	s := Stats{
		TotalItems:   sink.Inputs(),
		SinkAccepted: len(bound),
		SinkRejected: len(sink.Rejected),
		NewSinkSlots: len(sink.NewSlots),
		Locked:       len(sink.Locked),
		Resident:     len(sink.Resident),
		Ineligible:   len(sink.Ineligible),
		Assigned:     pack.Assigned(),
		Unassigned:   len(pack.Unassigned),
		Bins:         make([]BinStats, 0, len(pack.Bins)),
	}
	for _, e := range bound {
		s.SinkAcceptedCount += e.Item.Count
		if !e.Split {
			s.SlotsFreed++
		}
	}
	s.TotalCount = inventory.TotalCount(sink.Locked) + inventory.TotalCount(sink.Resident) +
		s.SinkAcceptedCount + inventory.TotalCount(sink.BinBound())

	for _, b := range pack.Bins {
		s.TotalCapacity += b.Capacity
		s.UsedSlots += b.UsedSlots
		s.FreeSlots += b.FreeSlots
		s.Bins = append(s.Bins, BinStats{
			Name:           b.Name,
			Capacity:       b.Capacity,
			UsedSlots:      b.UsedSlots,
			FreeSlots:      b.FreeSlots,
			FillPercentage: percent(b.UsedSlots, b.Capacity),
		})
	}
	s.Efficiency = percent(s.UsedSlots, s.TotalCapacity)
	return s
}

// percent returns round(100*part/whole) with halves rounded up, or 0 when
// whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
