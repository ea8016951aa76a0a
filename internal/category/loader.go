package category

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/stashplan/internal/inventory"
	"github.com/cory-johannsen/stashplan/internal/scripting"
)

// yamlRulesFile is the top-level YAML structure for category rule files.
type yamlRulesFile struct {
	// IncludeDefaults appends DefaultRules after the file's own rules.
	IncludeDefaults bool       `yaml:"include_defaults"`
	ScriptLimit     int        `yaml:"script_instruction_limit"`
	Categories      []yamlRule `yaml:"categories"`
}

type yamlRule struct {
	Key           string        `yaml:"key"`
	Name          string        `yaml:"name"`
	Match         yamlMatch     `yaml:"match"`
	Script        string        `yaml:"script"`
	Subcategories []yamlSubRule `yaml:"subcategories"`
}

type yamlSubRule struct {
	Key    string    `yaml:"key"`
	Name   string    `yaml:"name"`
	Match  yamlMatch `yaml:"match"`
	Script string    `yaml:"script"`
}

// yamlMatch fields are ANDed; values inside one field are ORed.
type yamlMatch struct {
	Types        []string `yaml:"types"`
	DetailTypes  []string `yaml:"detail_types"`
	Rarities     []string `yaml:"rarities"`
	NameContains []string `yaml:"name_contains"`
	IDs          []int    `yaml:"ids"`
}

// RuleSet is a loaded rule list plus the script resources backing it.
type RuleSet struct {
	Rules   []Rule
	scripts []*scripting.Predicate

	mu       sync.Mutex
	errCount int
	firstErr error
}

// ScriptErrors returns how many script evaluations have failed and the first
// failure. A failed evaluation classifies as a non-match.
func (rs *RuleSet) ScriptErrors() (int, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.errCount, rs.firstErr
}

func (rs *RuleSet) recordScriptError(err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.errCount++
	if rs.firstErr == nil {
		rs.firstErr = err
	}
}

// Classifier returns a Classifier over the loaded rules.
func (rs *RuleSet) Classifier() *Classifier {
	return NewClassifier(rs.Rules)
}

// Close releases every compiled script.
func (rs *RuleSet) Close() {
	for _, p := range rs.scripts {
		p.Close()
	}
	rs.scripts = nil
}

// LoadRules loads the rule file at path, or the default rules when path is empty.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return &RuleSet{Rules: DefaultRules()}, nil
	}
	return LoadRulesFromFile(path)
}

// LoadRulesFromFile reads and validates a YAML rule file.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a validated RuleSet or a non-nil error.
func LoadRulesFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	rs, err := LoadRulesFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading rules file %s: %w", path, err)
	}
	return rs, nil
}

// LoadRulesFromBytes parses and validates rules from YAML bytes.
//
// Unknown fields, empty or duplicate keys, the reserved "other" key and
// scripts that fail to compile are rejected.
//
// Postcondition: Returns a validated RuleSet or a non-nil error.
func LoadRulesFromBytes(data []byte) (*RuleSet, error) {
	var file yamlRulesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing rules YAML: %w", err)
	}

	rs := &RuleSet{}
	seen := make(map[string]bool)
	for i, yr := range file.Categories {
		if yr.Key == "" {
			rs.Close()
			return nil, fmt.Errorf("categories[%d].key must not be empty", i)
		}
		if yr.Key == OtherKey {
			rs.Close()
			return nil, fmt.Errorf("categories[%d].key %q is reserved", i, OtherKey)
		}
		if seen[yr.Key] {
			rs.Close()
			return nil, fmt.Errorf("categories[%d].key %q is duplicated", i, yr.Key)
		}
		seen[yr.Key] = true

		match, err := rs.predicate(yr.Key, yr.Match, yr.Script, file.ScriptLimit)
		if err != nil {
			rs.Close()
			return nil, fmt.Errorf("categories[%d] (%s): %w", i, yr.Key, err)
		}
		rule := Rule{Key: yr.Key, Name: nameOr(yr.Name, yr.Key), Match: match}

		subSeen := make(map[string]bool)
		for j, ys := range yr.Subcategories {
			if ys.Key == "" || subSeen[ys.Key] {
				rs.Close()
				return nil, fmt.Errorf("categories[%d].subcategories[%d].key must be unique and non-empty, got %q", i, j, ys.Key)
			}
			subSeen[ys.Key] = true
			sm, err := rs.predicate(yr.Key+"."+ys.Key, ys.Match, ys.Script, file.ScriptLimit)
			if err != nil {
				rs.Close()
				return nil, fmt.Errorf("categories[%d].subcategories[%d] (%s): %w", i, j, ys.Key, err)
			}
			rule.Subs = append(rule.Subs, SubRule{Key: ys.Key, Name: nameOr(ys.Name, ys.Key), Match: sm})
		}
		rs.Rules = append(rs.Rules, rule)
	}

	if file.IncludeDefaults {
		for _, r := range DefaultRules() {
			if seen[r.Key] {
				continue
			}
			rs.Rules = append(rs.Rules, r)
		}
	}
	return rs, nil
}

// predicate builds the combined predicate of a match block and an optional
// script. A script failure at evaluation time is recorded under key and
// counts as a non-match.
func (rs *RuleSet) predicate(key string, m yamlMatch, script string, limit int) (Predicate, error) {
	var preds []Predicate
	if len(m.Types) > 0 {
		preds = append(preds, TypeIn(m.Types...))
	}
	if len(m.DetailTypes) > 0 {
		preds = append(preds, DetailTypeIn(m.DetailTypes...))
	}
	if len(m.Rarities) > 0 {
		preds = append(preds, RarityIn(m.Rarities...))
	}
	if len(m.NameContains) > 0 {
		preds = append(preds, NameContains(m.NameContains...))
	}
	if len(m.IDs) > 0 {
		preds = append(preds, IDIn(m.IDs...))
	}
	if script != "" {
		p, err := scripting.CompilePredicate(script, limit)
		if err != nil {
			return nil, err
		}
		rs.scripts = append(rs.scripts, p)
		preds = append(preds, func(it inventory.Item) bool {
			ok, err := p.Eval(itemFields(it))
			if err != nil {
				rs.recordScriptError(fmt.Errorf("rule %s on item %d: %w", key, it.ID, err))
				return false
			}
			return ok
		})
	}
	return All(preds...), nil
}

func itemFields(it inventory.Item) scripting.Fields {
	return scripting.Fields{
		"id":                it.ID,
		"count":             it.Count,
		"source":            string(it.Source),
		"source_label":      it.SourceLabel,
		"eligible_for_sink": it.EligibleForSink,
		"locked":            it.Locked,
		"name":              it.Name,
		"type":              it.Type,
		"detail_type":       it.DetailType,
		"rarity":            it.Rarity,
	}
}

func nameOr(name, key string) string {
	if name == "" {
		return key
	}
	return name
}
