// Package category maps item stacks to category keys with an ordered list of
// declarative predicate rules.
package category

import (
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// OtherKey is the reserved fallback category for items no rule matches.
const OtherKey = "other"

// Predicate reports whether an item belongs to a category.
type Predicate func(inventory.Item) bool

// Rule is one main category. Subs are evaluated in order only for items that
// already matched Match.
type Rule struct {
	Key   string
	Name  string
	Match Predicate
	Subs  []SubRule
}

// SubRule is a sub-category inside a Rule.
type SubRule struct {
	Key   string
	Name  string
	Match Predicate
}

// Category is the resolved classification of one item.
type Category struct {
	// Key is the packing key: the main key, or "<main>_<sub>" when a sub-category
	// matched and sub-categories were requested.
	Key  string `json:"key"`
	Main string `json:"main"`
	Name string `json:"name"`
}

// Classifier evaluates rules top to bottom; the first match wins.
type Classifier struct {
	rules []Rule
	order map[string]int
}

// NewClassifier returns a Classifier over rules in the given order.
//
// Precondition: rule keys are unique and none equals OtherKey.
// Postcondition: Order lists every main key, then every sub key, in rule order.
func NewClassifier(rules []Rule) *Classifier {
	c := &Classifier{rules: rules, order: make(map[string]int)}
	for _, k := range c.keys() {
		c.order[k] = len(c.order)
	}
	return c
}

// keys enumerates the packing keys in rule order: each main key is followed
// by its sub keys, and OtherKey comes last.
func (c *Classifier) keys() []string {
	var out []string
	for _, r := range c.rules {
		out = append(out, r.Key)
		for _, s := range r.Subs {
			out = append(out, subKey(r.Key, s.Key))
		}
	}
	return append(out, OtherKey)
}

// Keys returns the category keys in iteration order.
func (c *Classifier) Keys() []string {
	return c.keys()
}

// Rank returns the iteration position of a packing key. Unknown keys sort
// after every known key.
func (c *Classifier) Rank(key string) int {
	if n, ok := c.order[key]; ok {
		return n
	}
	return len(c.order)
}

// Classify returns the main category key of item, or OtherKey.
//
// Postcondition: Returns a non-empty key; never fails.
func (c *Classifier) Classify(item inventory.Item) string {
	if r := c.match(item); r != nil {
		return r.Key
	}
	return OtherKey
}

// Resolve classifies item and, when withSubs is set, descends into the first
// matching sub-category.
//
// Postcondition: Key is Main when withSubs is false or no sub rule matched.
func (c *Classifier) Resolve(item inventory.Item, withSubs bool) Category {
	r := c.match(item)
	if r == nil {
		return Category{Key: OtherKey, Main: OtherKey, Name: "Other"}
	}
	cat := Category{Key: r.Key, Main: r.Key, Name: r.Name}
	if !withSubs {
		return cat
	}
	for _, s := range r.Subs {
		if s.Match == nil || s.Match(item) {
			cat.Key = subKey(r.Key, s.Key)
			cat.Name = r.Name + " - " + s.Name
			break
		}
	}
	return cat
}

func (c *Classifier) match(item inventory.Item) *Rule {
	for i := range c.rules {
		if c.rules[i].Match == nil || c.rules[i].Match(item) {
			return &c.rules[i]
		}
	}
	return nil
}

func subKey(main, sub string) string {
	return main + "_" + sub
}
