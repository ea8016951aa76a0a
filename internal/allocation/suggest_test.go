package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stashplan/internal/allocation"
	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

func slotsOf(s allocation.Suggestion) []int {
	out := make([]int, 0, len(s.Bins))
	for _, b := range s.Bins {
		out = append(out, b.Slots)
	}
	return out
}

func TestSuggestSlots_Balanced(t *testing.T) {
	items := stacksOf("Trophy", 100)
	s := allocation.SuggestSlots(3, items, nil, policy(250), category.Default(), false)

	// ceil(100/3) = 34; 44 + 44 for the first two, 12 left floored to 20.
	assert.Equal(t, 100, s.BinBound)
	assert.Equal(t, 34, s.Average)
	assert.Equal(t, []int{44, 44, 20}, slotsOf(s))
	assert.True(t, s.Bins[2].Last)
	assert.Equal(t, 1, s.Bins[0].Bin)
}

func TestSuggestSlots_CappedAt160(t *testing.T) {
	items := stacksOf("Trophy", 600)
	s := allocation.SuggestSlots(2, items, nil, policy(250), category.Default(), false)

	assert.Equal(t, []int{160, 440}, slotsOf(s))
}

func TestSuggestSlots_SinkBoundExcluded(t *testing.T) {
	items := append(stacksOf("Trophy", 10), eligible(1, 5), eligible(2, 5))
	s := allocation.SuggestSlots(1, items, nil, policy(250), category.Default(), false)

	assert.Equal(t, 10, s.BinBound)
	assert.Equal(t, 2, s.SinkBound)
	assert.Equal(t, []int{20}, slotsOf(s))
	require.Len(t, s.Categories, 1)
	assert.Equal(t, allocation.CategorySummary{Key: "trophies", Name: "Trophies", Slots: 10, Units: 10}, s.Categories[0])
}

func TestSuggestSlots_NonPositiveBinCount(t *testing.T) {
	for _, n := range []int{0, -2} {
		s := allocation.SuggestSlots(n, stacksOf("Trophy", 10), nil, policy(250), category.Default(), false)
		assert.Empty(t, s.Bins)
		assert.Zero(t, s.BinCount)
		assert.Zero(t, s.Average)
	}
}

func TestSuggestSlots_Empty(t *testing.T) {
	s := allocation.SuggestSlots(2, []inventory.Item{}, nil, policy(250), category.Default(), false)

	assert.Equal(t, []int{20, 20}, slotsOf(s))
	assert.Empty(t, s.Categories)
}
