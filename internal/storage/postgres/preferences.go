package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// ErrPreferencesNotFound is returned when an account has no stored preferences.
var ErrPreferencesNotFound = errors.New("preferences not found")

// ErrEmptyAccount is returned when an account key is empty.
var ErrEmptyAccount = errors.New("account must be non-empty")

// PreferenceRepository persists per-account planner preferences.
type PreferenceRepository struct {
	db *pgxpool.Pool
}

// NewPreferenceRepository creates a PreferenceRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Load returns the stored preferences for account.
//
// Precondition: account must be non-empty.
// Postcondition: Returns the preferences with locked ids and item limits
// ordered by item id and bins in their stored order, or ErrPreferencesNotFound.
func (r *PreferenceRepository) Load(ctx context.Context, account string) (inventory.Preferences, error) {
	if account == "" {
		return inventory.Preferences{}, ErrEmptyAccount
	}

	var p inventory.Preferences
	err := r.db.QueryRow(ctx,
		`SELECT default_limit, use_sub_categories FROM account_settings WHERE account = $1`,
		account,
	).Scan(&p.DefaultLimit, &p.UseSubCategories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Preferences{}, ErrPreferencesNotFound
		}
		return inventory.Preferences{}, fmt.Errorf("querying account settings: %w", err)
	}

	p.LockedIDs, err = r.lockedIDs(ctx, account)
	if err != nil {
		return inventory.Preferences{}, err
	}
	p.ItemLimits, err = r.itemLimits(ctx, account)
	if err != nil {
		return inventory.Preferences{}, err
	}
	p.Bins, err = r.bins(ctx, account)
	if err != nil {
		return inventory.Preferences{}, err
	}
	return p, nil
}

func (r *PreferenceRepository) lockedIDs(ctx context.Context, account string) ([]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item_id FROM locked_items WHERE account = $1 ORDER BY item_id`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("querying locked items: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scanning locked items: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

func (r *PreferenceRepository) itemLimits(ctx context.Context, account string) (map[int]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item_id, limit_count FROM item_limits WHERE account = $1 ORDER BY item_id`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("querying item limits: %w", err)
	}
	defer rows.Close()

	var limits map[int]int
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning item limit: %w", err)
		}
		if limits == nil {
			limits = make(map[int]int)
		}
		limits[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item limits: %w", err)
	}
	return limits, nil
}

func (r *PreferenceRepository) bins(ctx context.Context, account string) ([]inventory.BinSpec, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, capacity FROM character_slots WHERE account = $1 ORDER BY position`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("querying character slots: %w", err)
	}
	bins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.BinSpec, error) {
		var b inventory.BinSpec
		err := row.Scan(&b.Name, &b.Capacity)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning character slots: %w", err)
	}
	if len(bins) == 0 {
		return nil, nil
	}
	return bins, nil
}

// Save replaces the stored preferences for account in a single transaction.
//
// Precondition: account must be non-empty; limits and capacities must be >= 0.
// Postcondition: A subsequent Load returns p with duplicate locked ids removed.
func (r *PreferenceRepository) Save(ctx context.Context, account string, p inventory.Preferences) error {
	if account == "" {
		return ErrEmptyAccount
	}

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO account_settings (account, default_limit, use_sub_categories, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (account) DO UPDATE
			 SET default_limit = EXCLUDED.default_limit,
			     use_sub_categories = EXCLUDED.use_sub_categories,
			     updated_at = NOW()`,
			account, p.DefaultLimit, p.UseSubCategories,
		)
		if err != nil {
			return fmt.Errorf("upserting account settings: %w", err)
		}

		for _, table := range []string{"locked_items", "item_limits", "character_slots"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE account = $1", account); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		batch := &pgx.Batch{}
		for _, id := range slices.Compact(slices.Sorted(slices.Values(p.LockedIDs))) {
			batch.Queue(`INSERT INTO locked_items (account, item_id) VALUES ($1, $2)`, account, id)
		}
		for _, id := range slices.Sorted(maps.Keys(p.ItemLimits)) {
			batch.Queue(`INSERT INTO item_limits (account, item_id, limit_count) VALUES ($1, $2, $3)`,
				account, id, p.ItemLimits[id])
		}
		for i, b := range p.Bins {
			batch.Queue(`INSERT INTO character_slots (account, position, name, capacity) VALUES ($1, $2, $3, $4)`,
				account, i, b.Name, b.Capacity)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting preference rows: %w", err)
		}
		return nil
	})
}

// Delete removes every stored preference for account.
//
// Postcondition: Returns ErrPreferencesNotFound when nothing was stored.
func (r *PreferenceRepository) Delete(ctx context.Context, account string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM account_settings WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("deleting preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreferencesNotFound
	}
	return nil
}
