package planservice

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/cory-johannsen/stashplan/internal/inventory"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
)

// MemoryStore is a PreferenceStore held in process memory.
// It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]inventory.Preferences
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]inventory.Preferences)}
}

// Load returns a copy of the preferences stored for account.
func (m *MemoryStore) Load(_ context.Context, account string) (inventory.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[account]
	if !ok {
		return inventory.Preferences{}, postgres.ErrPreferencesNotFound
	}
	return clonePreferences(p), nil
}

// Save stores a copy of p for account.
func (m *MemoryStore) Save(_ context.Context, account string, p inventory.Preferences) error {
	if account == "" {
		return postgres.ErrEmptyAccount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[account] = clonePreferences(p)
	return nil
}

func clonePreferences(p inventory.Preferences) inventory.Preferences {
	p.LockedIDs = slices.Clone(p.LockedIDs)
	p.ItemLimits = maps.Clone(p.ItemLimits)
	p.Bins = slices.Clone(p.Bins)
	return p
}
