package planservice

import (
	"github.com/cory-johannsen/stashplan/internal/inventory"
	"github.com/cory-johannsen/stashplan/internal/recommend"
)

// PlanRequest asks for a full allocation report. When Account is set, the
// account's stored preferences are merged into Request first.
type PlanRequest struct {
	Account string            `json:"account,omitempty"`
	Request inventory.Request `json:"request"`
}

// SuggestRequest asks for a slot layout over BinCount bins.
type SuggestRequest struct {
	Account  string            `json:"account,omitempty"`
	BinCount int               `json:"bin_count"`
	Request  inventory.Request `json:"request"`
}

// RecommendRequest asks for cleanup recommendations over Items.
// StackSize <= 0 selects recommend.DefaultStackSize.
type RecommendRequest struct {
	Items     []inventory.Item `json:"items"`
	StackSize int              `json:"stack_size,omitempty"`
}

// RecommendResponse carries the recommendations and their summary.
type RecommendResponse = recommend.Result

// GetPreferencesRequest names the account to read.
type GetPreferencesRequest struct {
	Account string `json:"account"`
}

// PutPreferencesRequest replaces the stored preferences of Account.
type PutPreferencesRequest struct {
	Account     string                `json:"account"`
	Preferences inventory.Preferences `json:"preferences"`
}

// PreferencesResponse carries one account's preferences.
type PreferencesResponse struct {
	Account     string                `json:"account"`
	Preferences inventory.Preferences `json:"preferences"`
}
