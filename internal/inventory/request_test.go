package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

func validRequest() inventory.Request {
	return inventory.Request{
		Items: []inventory.Item{
			{ID: 19700, Count: 120, Source: inventory.SourceBank, EligibleForSink: true},
			{ID: 24, Count: 1, Source: inventory.SourceCharacter, SourceLabel: "Zara"},
		},
		Policy: inventory.DefaultPolicy(),
		Bins: []inventory.BinSpec{
			{Name: "Zara", Capacity: 80},
			{Name: "Brak", Capacity: 0},
		},
	}
}

func TestRequest_Validate_Valid(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestRequest_Validate_CollectsAllViolations(t *testing.T) {
	req := validRequest()
	req.Items[0].Count = 0
	req.Items[1].SourceLabel = ""
	req.Bins[1].Name = "Zara"
	req.Bins[0].Capacity = -1
	req.Policy.DefaultLimit = 0
	req.Sink = inventory.SinkState{5: -3}

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrInvalidRequest))
	for _, want := range []string{
		"items[0].count",
		"items[1].source_label",
		`bins[1].name "Zara" is duplicated`,
		"bins[0].capacity",
		"policy.default_limit",
		"sink[5]",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRequest_Validate_UnknownSource(t *testing.T) {
	req := validRequest()
	req.Items[0].Source = "guild"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `got "guild"`)
}

func TestRequest_Validate_NonPositiveOverride(t *testing.T) {
	req := validRequest()
	req.Policy.PerItemOverride = map[int]int{19700: 0}
	assert.ErrorIs(t, req.Validate(), inventory.ErrInvalidRequest)
}

func TestRequest_EffectiveSink_DerivedFromItems(t *testing.T) {
	req := validRequest()
	req.Items = append(req.Items,
		inventory.Item{ID: 19700, Count: 40, Source: inventory.SourceSink},
		inventory.Item{ID: 19700, Count: 10, Source: inventory.SourceSink},
	)
	assert.Equal(t, inventory.SinkState{19700: 50}, req.EffectiveSink())
}

func TestRequest_EffectiveSink_ExplicitIsCopied(t *testing.T) {
	req := validRequest()
	req.Sink = inventory.SinkState{1: 2}
	got := req.EffectiveSink()
	got[1] = 99
	assert.Equal(t, 2, req.Sink[1])
}

func TestCapacityPolicy_Limit_OverrideWins(t *testing.T) {
	p := inventory.CapacityPolicy{DefaultLimit: 250, PerItemOverride: map[int]int{7: 1000}}
	assert.Equal(t, 1000, p.Limit(7))
	assert.Equal(t, 250, p.Limit(8))
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "Zara", inventory.CharacterLocation("Zara").String())
	assert.Equal(t, "Bank", inventory.Location{Source: inventory.SourceBank}.String())
	assert.Equal(t, "Shared Inventory", inventory.Location{Source: inventory.SourceShared}.String())
	assert.Equal(t, "Material Storage", inventory.Location{Source: inventory.SourceSink}.String())
}

func TestPreferences_Apply_MarksLockedAndFillsDefaults(t *testing.T) {
	prefs := inventory.Preferences{
		LockedIDs:    []int{24},
		DefaultLimit: 500,
		ItemLimits:   map[int]int{19700: 1000, 3: 10},
		Bins:         []inventory.BinSpec{{Name: "Vex", Capacity: 20}},
	}
	req := inventory.Request{
		Items:  validRequest().Items,
		Policy: inventory.CapacityPolicy{PerItemOverride: map[int]int{3: 20}},
	}

	got := prefs.Apply(req)

	assert.False(t, got.Items[0].Locked)
	assert.True(t, got.Items[1].Locked)
	assert.False(t, req.Items[1].Locked, "input must not be modified")
	assert.Equal(t, 500, got.Policy.DefaultLimit)
	assert.Equal(t, map[int]int{19700: 1000, 3: 20}, got.Policy.PerItemOverride)
	assert.Equal(t, prefs.Bins, got.Bins)
}

func TestPreferences_Apply_RequestBinsWin(t *testing.T) {
	prefs := inventory.Preferences{Bins: []inventory.BinSpec{{Name: "Vex", Capacity: 20}}}
	req := validRequest()
	got := prefs.Apply(req)
	assert.Equal(t, req.Bins, got.Bins)
	assert.Equal(t, inventory.DefaultSinkLimit, got.Policy.DefaultLimit)
}

// Property: any request with positive counts, labelled characters, unique bin
// names and non-negative capacities validates.
func TestProperty_Request_WellFormedAlwaysValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "items")
		req := inventory.Request{Policy: inventory.CapacityPolicy{
			DefaultLimit: rapid.IntRange(1, inventory.MaxSinkLimit).Draw(t, "limit"),
		}}
		for i := 0; i < n; i++ {
			src := rapid.SampledFrom([]inventory.Source{
				inventory.SourceCharacter, inventory.SourceBank, inventory.SourceShared, inventory.SourceSink,
			}).Draw(t, "source")
			req.Items = append(req.Items, inventory.Item{
				ID:          rapid.IntRange(1, 100).Draw(t, "id"),
				Count:       rapid.IntRange(1, 250).Draw(t, "count"),
				Source:      src,
				SourceLabel: "c",
			})
		}
		bins := rapid.IntRange(0, 5).Draw(t, "bins")
		for i := 0; i < bins; i++ {
			req.Bins = append(req.Bins, inventory.BinSpec{
				Name:     string(rune('A' + i)),
				Capacity: rapid.IntRange(0, 200).Draw(t, "capacity"),
			})
		}
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
	})
}

func TestPreferences_Validate(t *testing.T) {
	assert.NoError(t, inventory.Preferences{}.Validate())
	assert.NoError(t, inventory.Preferences{
		DefaultLimit: 250,
		ItemLimits:   map[int]int{19700: 1},
		Bins:         []inventory.BinSpec{{Name: "Zara", Capacity: 0}},
	}.Validate())

	err := inventory.Preferences{
		DefaultLimit: -1,
		ItemLimits:   map[int]int{19700: 0},
		Bins:         []inventory.BinSpec{{Name: "Zara"}, {Name: "Zara"}},
	}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "default_limit")
	assert.Contains(t, err.Error(), "item_limits[19700]")
	assert.Contains(t, err.Error(), "duplicated")
}
