package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/stashplan/internal/inventory"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
	"github.com/cory-johannsen/stashplan/internal/testutil"
)

func uniqueAccount(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func setupPreferenceRepo(t *testing.T) *postgres.PreferenceRepository {
	t.Helper()
	return postgres.NewPreferenceRepository(testutil.NewPool(t))
}

func samplePreferences() inventory.Preferences {
	return inventory.Preferences{
		LockedIDs:    []int{46731, 19721},
		DefaultLimit: 1000,
		ItemLimits:   map[int]int{19700: 2750, 19721: 500},
		Bins: []inventory.BinSpec{
			{Name: "Alice", Capacity: 80},
			{Name: "Bob", Capacity: 60},
		},
		UseSubCategories: true,
	}
}

func TestPreferenceRepository_SaveAndLoad(t *testing.T) {
	repo := setupPreferenceRepo(t)
	ctx := context.Background()
	account := uniqueAccount("acct")

	require.NoError(t, repo.Save(ctx, account, samplePreferences()))

	got, err := repo.Load(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, []int{19721, 46731}, got.LockedIDs)
	assert.Equal(t, 1000, got.DefaultLimit)
	assert.Equal(t, map[int]int{19700: 2750, 19721: 500}, got.ItemLimits)
	assert.Equal(t, []inventory.BinSpec{{Name: "Alice", Capacity: 80}, {Name: "Bob", Capacity: 60}}, got.Bins)
	assert.True(t, got.UseSubCategories)
}

func TestPreferenceRepository_SaveReplaces(t *testing.T) {
	repo := setupPreferenceRepo(t)
	ctx := context.Background()
	account := uniqueAccount("acct")

	require.NoError(t, repo.Save(ctx, account, samplePreferences()))
	require.NoError(t, repo.Save(ctx, account, inventory.Preferences{
		DefaultLimit: 250,
		Bins:         []inventory.BinSpec{{Name: "Cara", Capacity: 20}},
	}))

	got, err := repo.Load(ctx, account)
	require.NoError(t, err)
	assert.Nil(t, got.LockedIDs)
	assert.Nil(t, got.ItemLimits)
	assert.Equal(t, 250, got.DefaultLimit)
	assert.False(t, got.UseSubCategories)
	assert.Equal(t, []inventory.BinSpec{{Name: "Cara", Capacity: 20}}, got.Bins)
}

func TestPreferenceRepository_LoadUnknown(t *testing.T) {
	repo := setupPreferenceRepo(t)

	_, err := repo.Load(context.Background(), uniqueAccount("missing"))
	assert.ErrorIs(t, err, postgres.ErrPreferencesNotFound)
}

func TestPreferenceRepository_DuplicateBinNameRollsBack(t *testing.T) {
	repo := setupPreferenceRepo(t)
	ctx := context.Background()
	account := uniqueAccount("acct")

	require.NoError(t, repo.Save(ctx, account, samplePreferences()))

	err := repo.Save(ctx, account, inventory.Preferences{
		DefaultLimit: 5,
		Bins:         []inventory.BinSpec{{Name: "Dup", Capacity: 1}, {Name: "Dup", Capacity: 2}},
	})
	require.Error(t, err)

	got, err := repo.Load(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.DefaultLimit, "failed save must not be partially applied")
	assert.Len(t, got.Bins, 2)
}

func TestPreferenceRepository_Delete(t *testing.T) {
	repo := setupPreferenceRepo(t)
	ctx := context.Background()
	account := uniqueAccount("acct")

	require.NoError(t, repo.Save(ctx, account, samplePreferences()))
	require.NoError(t, repo.Delete(ctx, account))

	_, err := repo.Load(ctx, account)
	assert.ErrorIs(t, err, postgres.ErrPreferencesNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, account), postgres.ErrPreferencesNotFound)
}

func TestPreferenceRepository_EmptyAccount(t *testing.T) {
	repo := postgres.NewPreferenceRepository(nil)
	ctx := context.Background()

	_, err := repo.Load(ctx, "")
	assert.ErrorIs(t, err, postgres.ErrEmptyAccount)
	assert.ErrorIs(t, repo.Save(ctx, "", inventory.Preferences{}), postgres.ErrEmptyAccount)
}

// Property: Save then Load round-trips locked ids as a sorted set.
func TestProperty_PreferenceRepository_LockedSet(t *testing.T) {
	repo := setupPreferenceRepo(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfN(rapid.IntRange(1, 50), 1, 20).Draw(rt, "ids")
		account := uniqueAccount("prop")

		if err := repo.Save(ctx, account, inventory.Preferences{LockedIDs: ids}); err != nil {
			rt.Fatalf("Save: %v", err)
		}
		got, err := repo.Load(ctx, account)
		if err != nil {
			rt.Fatalf("Load: %v", err)
		}
		seen := make(map[int]bool)
		for _, id := range ids {
			seen[id] = true
		}
		if len(got.LockedIDs) != len(seen) {
			rt.Fatalf("got %d locked ids, want %d", len(got.LockedIDs), len(seen))
		}
		for i, id := range got.LockedIDs {
			if !seen[id] {
				rt.Fatalf("unexpected locked id %d", id)
			}
			if i > 0 && got.LockedIDs[i-1] >= id {
				rt.Fatalf("locked ids not strictly ascending: %v", got.LockedIDs)
			}
		}
	})
}
