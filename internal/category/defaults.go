package category

import (
	"slices"
	"strings"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// TypeIn matches items whose Type is one of types.
func TypeIn(types ...string) Predicate {
	return func(it inventory.Item) bool { return slices.Contains(types, it.Type) }
}

// DetailTypeIn matches items whose DetailType is one of types.
func DetailTypeIn(types ...string) Predicate {
	return func(it inventory.Item) bool { return slices.Contains(types, it.DetailType) }
}

// RarityIn matches items whose Rarity is one of rarities.
func RarityIn(rarities ...string) Predicate {
	return func(it inventory.Item) bool { return slices.Contains(rarities, it.Rarity) }
}

// NameContains matches items whose name contains any of the fragments,
// ignoring case.
func NameContains(fragments ...string) Predicate {
	return func(it inventory.Item) bool {
		name := strings.ToLower(it.Name)
		for _, f := range fragments {
			if strings.Contains(name, strings.ToLower(f)) {
				return true
			}
		}
		return false
	}
}

// IDIn matches items whose type id is one of ids.
func IDIn(ids ...int) Predicate {
	return func(it inventory.Item) bool { return slices.Contains(ids, it.ID) }
}

// All matches when every predicate matches. All() matches everything.
func All(preds ...Predicate) Predicate {
	return func(it inventory.Item) bool {
		for _, p := range preds {
			if !p(it) {
				return false
			}
		}
		return true
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(it inventory.Item) bool { return !p(it) }
}

// DefaultRules returns the built-in category rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Key: "equipment", Name: "Equipment",
			Match: TypeIn("Weapon", "Armor", "Trinket", "Back"),
			Subs: []SubRule{
				{Key: "weapons", Name: "Weapons", Match: TypeIn("Weapon")},
				{Key: "armor", Name: "Armor", Match: TypeIn("Armor")},
				{Key: "trinkets", Name: "Trinkets", Match: TypeIn("Trinket")},
				{Key: "back", Name: "Back", Match: TypeIn("Back")},
			},
		},
		{
			Key: "consumables", Name: "Consumables",
			Match: TypeIn("Consumable"),
			Subs: []SubRule{
				{Key: "food", Name: "Food", Match: DetailTypeIn("Food")},
				{Key: "utility", Name: "Utility", Match: DetailTypeIn("Utility")},
				{Key: "other", Name: "Other", Match: Not(DetailTypeIn("Food", "Utility"))},
			},
		},
		{
			Key: "crafting", Name: "Crafting Materials",
			Match: TypeIn("CraftingMaterial"),
			Subs: []SubRule{
				{Key: "common", Name: "Common", Match: RarityIn("Basic", "Fine")},
				{Key: "fine", Name: "Fine", Match: RarityIn("Masterwork")},
				{Key: "rare", Name: "Rare", Match: RarityIn("Rare", "Exotic")},
				{Key: "ascended", Name: "Ascended", Match: RarityIn("Ascended", "Legendary")},
			},
		},
		{
			Key: "upgrades", Name: "Upgrades",
			Match: TypeIn("UpgradeComponent"),
			Subs: []SubRule{
				{Key: "runes", Name: "Runes", Match: DetailTypeIn("Rune")},
				{Key: "sigils", Name: "Sigils", Match: DetailTypeIn("Sigil")},
				{Key: "other", Name: "Other", Match: Not(DetailTypeIn("Rune", "Sigil"))},
			},
		},
		{
			Key: "containers", Name: "Containers",
			Match: TypeIn("Container", "Bag"),
			Subs: []SubRule{
				{Key: "bags", Name: "Bags", Match: TypeIn("Bag")},
				{Key: "boxes", Name: "Boxes", Match: TypeIn("Container")},
			},
		},
		{
			Key: "collectibles", Name: "Collectibles",
			Match: TypeIn("MiniPet", "Gizmo"),
			Subs: []SubRule{
				{Key: "minis", Name: "Minis", Match: TypeIn("MiniPet")},
				{Key: "gizmos", Name: "Gizmos", Match: TypeIn("Gizmo")},
			},
		},
		{Key: "tools", Name: "Tools", Match: TypeIn("Gathering", "Tool")},
		{Key: "trophies", Name: "Trophies", Match: TypeIn("Trophy")},
	}
}

// Default returns a Classifier over DefaultRules.
func Default() *Classifier {
	return NewClassifier(DefaultRules())
}
