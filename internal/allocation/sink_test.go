package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stashplan/internal/allocation"
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

func eligible(id, count int) inventory.Item {
	return inventory.Item{ID: id, Count: count, Source: inventory.SourceBank, EligibleForSink: true}
}

func policy(limit int) inventory.CapacityPolicy {
	return inventory.CapacityPolicy{DefaultLimit: limit}
}

func splitPolicy(limit int) inventory.CapacityPolicy {
	return inventory.CapacityPolicy{DefaultLimit: limit, SplitBoundaryStacks: true}
}

func TestSelectForSink_ScenarioA_Split(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 300)}, nil, splitPolicy(250))

	require.Len(t, res.NewSlots, 1)
	assert.Equal(t, 250, res.NewSlots[0].TotalAccepted)
	assert.True(t, res.NewSlots[0].Entries[0].Split)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 50, res.Rejected[0].Item.Count)
	assert.Equal(t, allocation.ReasonNewSlotOverflow, res.Rejected[0].Reason)

	binBound := res.BinBound()
	require.Len(t, binBound, 1)
	assert.Equal(t, 50, binBound[0].Count)
	assert.Equal(t, 250, res.Sink[1])
}

func TestSelectForSink_ScenarioA_WholeStack(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 300)}, nil, policy(250))

	assert.Empty(t, res.NewSlots)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 300, res.Rejected[0].Item.Count)
	assert.False(t, res.Rejected[0].Split)
	assert.Equal(t, allocation.ReasonNewSlotOverflow, res.Rejected[0].Reason)
	assert.Equal(t, []inventory.Item{eligible(1, 300)}, res.BinBound())
	_, present := res.Sink[1]
	assert.False(t, present)
}

func TestSelectForSink_ScenarioB_Split(t *testing.T) {
	sink := inventory.SinkState{1: 200}
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 100)}, sink, splitPolicy(250))

	require.Len(t, res.Existing, 1)
	assert.Equal(t, 50, res.Existing[0].Item.Count)
	assert.Equal(t, allocation.SlotExisting, res.Existing[0].Slot)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 50, res.Rejected[0].Item.Count)
	assert.Equal(t, allocation.ReasonLimitExceeded, res.Rejected[0].Reason)
	assert.Equal(t, 250, res.Sink[1])
	assert.Equal(t, 200, sink[1], "input sink state must not change")
}

func TestSelectForSink_ScenarioB_WholeStack(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 100)}, inventory.SinkState{1: 200}, policy(250))

	assert.Empty(t, res.Existing)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 100, res.Rejected[0].Item.Count)
	assert.Equal(t, allocation.ReasonLimitExceeded, res.Rejected[0].Reason)
	assert.Equal(t, 200, res.Sink[1])
}

func TestSelectForSink_LimitFull(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 5), eligible(1, 7)}, inventory.SinkState{1: 250}, policy(250))

	assert.Empty(t, res.SinkBound())
	require.Len(t, res.Rejected, 2)
	for _, rj := range res.Rejected {
		assert.Equal(t, allocation.ReasonLimitFull, rj.Reason)
	}
}

func TestSelectForSink_ZeroStoredEntryCountsAsExisting(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 10)}, inventory.SinkState{1: 0}, policy(250))

	require.Len(t, res.Existing, 1)
	assert.Empty(t, res.NewSlots)
}

func TestSelectForSink_ExistingAllFit(t *testing.T) {
	items := []inventory.Item{eligible(7, 30), eligible(7, 20)}
	res := allocation.SelectForSink(items, inventory.SinkState{7: 100}, policy(250))

	require.Len(t, res.Existing, 2)
	assert.Equal(t, 30, res.Existing[0].Item.Count, "all-fit keeps input order")
	assert.Equal(t, 150, res.Sink[7])
	assert.Empty(t, res.Rejected)
}

func TestSelectForSink_PartialFit_StopsAtFirstMisfit(t *testing.T) {
	// Sorted: 60, 50, 30, 5. Available 100: 60 fits, 50 does not, so 30 and 5
	// are rejected too even though they would fit.
	items := []inventory.Item{eligible(3, 30), eligible(3, 60), eligible(3, 5), eligible(3, 50)}
	res := allocation.SelectForSink(items, inventory.SinkState{3: 150}, policy(250))

	require.Len(t, res.Existing, 1)
	assert.Equal(t, 60, res.Existing[0].Item.Count)
	require.Len(t, res.Rejected, 3)
	assert.Equal(t, []int{50, 30, 5}, []int{res.Rejected[0].Item.Count, res.Rejected[1].Item.Count, res.Rejected[2].Item.Count})
	// Bin-bound stacks come back in input order.
	assert.Equal(t, []inventory.Item{eligible(3, 30), eligible(3, 5), eligible(3, 50)}, res.BinBound())
}

func TestSelectForSink_PartialFit_StableTies(t *testing.T) {
	a := eligible(3, 40)
	a.SourceLabel = "first"
	a.Source = inventory.SourceCharacter
	b := eligible(3, 40)
	b.SourceLabel = "second"
	b.Source = inventory.SourceCharacter
	res := allocation.SelectForSink([]inventory.Item{a, b}, inventory.SinkState{3: 200}, policy(250))

	require.Len(t, res.Existing, 1)
	assert.Equal(t, "first", res.Existing[0].Item.SourceLabel)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "second", res.Rejected[0].Item.SourceLabel)
}

func TestSelectForSink_OverrideWins(t *testing.T) {
	p := inventory.CapacityPolicy{DefaultLimit: 250, PerItemOverride: map[int]int{9: 1000}}
	res := allocation.SelectForSink([]inventory.Item{eligible(9, 900)}, nil, p)

	require.Len(t, res.NewSlots, 1)
	assert.Equal(t, 1000, res.NewSlots[0].Limit)
	assert.Equal(t, 900, res.NewSlots[0].TotalAccepted)
}

func TestSelectForSink_ExactFitNewSlot(t *testing.T) {
	res := allocation.SelectForSink([]inventory.Item{eligible(1, 250)}, nil, policy(250))

	require.Len(t, res.NewSlots, 1)
	assert.Equal(t, 250, res.NewSlots[0].TotalAccepted)
	assert.Empty(t, res.Rejected)
}

func TestSelectForSink_NewSlotsOrderedByTotalAccepted(t *testing.T) {
	items := []inventory.Item{eligible(1, 10), eligible(2, 90), eligible(3, 10), eligible(4, 50)}
	res := allocation.SelectForSink(items, nil, policy(250))

	var ids []int
	for _, g := range res.NewSlots {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int{2, 4, 1, 3}, ids)
}

func TestSelectForSink_Partition(t *testing.T) {
	locked := eligible(1, 10)
	locked.Locked = true
	resident := inventory.Item{ID: 2, Count: 40, Source: inventory.SourceSink, EligibleForSink: true}
	lockedResident := inventory.Item{ID: 5, Count: 12, Source: inventory.SourceSink, EligibleForSink: true, Locked: true}
	ineligible := inventory.Item{ID: 3, Count: 1, Source: inventory.SourceShared}
	items := []inventory.Item{locked, resident, lockedResident, ineligible, eligible(4, 5)}

	res := allocation.SelectForSink(items, inventory.SinkStateFromItems(items), policy(250))

	assert.Equal(t, []inventory.Item{locked, lockedResident}, res.Locked, "locks apply before residency")
	assert.Equal(t, []inventory.Item{resident}, res.Resident)
	assert.Equal(t, []inventory.Item{ineligible}, res.Ineligible)
	assert.Equal(t, []inventory.Item{ineligible}, res.BinBound())
	assert.Len(t, res.SinkBound(), 1)
	assert.Equal(t, 5, res.Inputs())
	assert.Equal(t, 5, res.AcceptedCount())
}

func TestSelectForSink_Empty(t *testing.T) {
	res := allocation.SelectForSink(nil, nil, policy(250))

	assert.Empty(t, res.SinkBound())
	assert.Empty(t, res.BinBound())
	assert.Empty(t, res.Rejected)
	assert.NotNil(t, res.Sink)
}
