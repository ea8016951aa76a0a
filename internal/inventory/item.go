// Package inventory defines the plain data exchanged with the allocation engine:
// item stacks, their locations, bins, capacity policy and sink contents.
package inventory

import "fmt"

// Source identifies where a stack currently lives.
type Source string

// Source constants for Item.Source.
const (
	SourceCharacter Source = "character"
	SourceBank      Source = "bank"
	SourceShared    Source = "shared"
	SourceSink      Source = "sink"
)

// validSources is the set of valid Item sources.
var validSources = map[Source]bool{
	SourceCharacter: true,
	SourceBank:      true,
	SourceShared:    true,
	SourceSink:      true,
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	return validSources[s]
}

// Item is one physical stack of a single item type.
//
// ID is the item-type identity, not an instance id: two stacks of the same
// material on different characters share an ID.
type Item struct {
	ID              int    `json:"id"`
	Count           int    `json:"count"`
	Source          Source `json:"source"`
	SourceLabel     string `json:"source_label,omitempty"`
	EligibleForSink bool   `json:"eligible_for_sink"`
	Locked          bool   `json:"locked,omitempty"`

	// Metadata consumed by classifier predicates only.
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	DetailType string `json:"detail_type,omitempty"`
	Rarity     string `json:"rarity,omitempty"`
}

// Location returns where the stack currently lives.
func (it Item) Location() Location {
	return Location{Source: it.Source, Label: it.SourceLabel}
}

// InSink reports whether the stack is already stored in the shared sink.
func (it Item) InSink() bool {
	return it.Source == SourceSink
}

// Location is a (source, label) pair. Label is only meaningful for characters.
type Location struct {
	Source Source `json:"source"`
	Label  string `json:"label,omitempty"`
}

// CharacterLocation returns the Location of the named character's inventory.
func CharacterLocation(name string) Location {
	return Location{Source: SourceCharacter, Label: name}
}

// String renders the location for transfer instructions.
//
// Postcondition: Returns a non-empty string.
func (l Location) String() string {
	switch l.Source {
	case SourceCharacter:
		if l.Label != "" {
			return l.Label
		}
		return "character"
	case SourceBank:
		return "Bank"
	case SourceShared:
		return "Shared Inventory"
	case SourceSink:
		return "Material Storage"
	default:
		return fmt.Sprintf("unknown(%s)", string(l.Source))
	}
}

// TotalCount sums the counts of items.
func TotalCount(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Count
	}
	return total
}
