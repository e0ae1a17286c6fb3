package category

import (
	"fmt"
	"strings"
)

// Condition is a single tag requirement. A Value of "*" matches any
// value for the key.
type Condition struct {
	Key   string
	Value string
}

// Wildcard matches any tag value for a key
const Wildcard = "*"

// Predicate is a conjunction of conditions: every condition must hold
// against an element's tag set for the predicate to match.
type Predicate []Condition

// ParsePredicate parses the "key=value" or "key1=value1&key2=value2"
// match syntax used in mapping files.
func ParsePredicate(s string) (Predicate, error) {
	var pred Predicate
	for _, segment := range strings.Split(s, "&") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		if !found {
			return nil, fmt.Errorf("match segment %q must be in key=value form", segment)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, fmt.Errorf("match segment %q has an empty key", segment)
		}
		pred = append(pred, Condition{Key: key, Value: value})
	}
	if len(pred) == 0 {
		return nil, fmt.Errorf("match %q contains no key=value pairs", s)
	}
	return pred, nil
}

// Matches tests the predicate against a tag set. On success it returns
// the concrete value of the first condition's key, which callers use
// as the POI subclass.
func (p Predicate) Matches(tags map[string]string) (string, bool) {
	for _, cond := range p {
		v, ok := tags[cond.Key]
		if !ok {
			return "", false
		}
		if cond.Value != Wildcard && cond.Value != v {
			return "", false
		}
	}
	return tags[p[0].Key], true
}

func (p Predicate) String() string {
	parts := make([]string, len(p))
	for i, cond := range p {
		parts[i] = cond.Key + "=" + cond.Value
	}
	return strings.Join(parts, "&")
}

// Category is one entry of the mapping file: a stable class name,
// display metadata, and the ordered match predicates that route
// elements into it.
type Category struct {
	Class      string   `json:"class" yaml:"class"`
	Label      string   `json:"label" yaml:"label"`
	Icon       string   `json:"icon" yaml:"icon"`
	Matches    []string `json:"matches,omitempty" yaml:"matches,omitempty"`
	IsFallback bool     `json:"is_fallback,omitempty" yaml:"is_fallback,omitempty"`

	predicates []Predicate
}

// Result is a successful classification
type Result struct {
	Class    string
	Subclass string
}

// RuleSet is a validated, ordered category table. Order is the order
// of the mapping file and decides precedence between overlapping
// categories; tag-map iteration order never influences the outcome.
type RuleSet struct {
	categories []Category
	fallback   Category
	keys       map[string]struct{}
}

// NewRuleSet parses and validates a category table. It fails on an
// empty table, duplicate class names, malformed match predicates, and
// anything other than exactly one fallback category.
func NewRuleSet(categories []Category) (*RuleSet, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("category mapping must contain at least one entry")
	}

	rs := &RuleSet{
		categories: make([]Category, 0, len(categories)),
		keys:       make(map[string]struct{}),
	}

	seen := make(map[string]struct{}, len(categories))
	fallbacks := 0

	for i, cat := range categories {
		if strings.TrimSpace(cat.Class) == "" {
			return nil, fmt.Errorf("category at index %d has an empty class", i)
		}
		if strings.TrimSpace(cat.Label) == "" {
			return nil, fmt.Errorf("category %q has an empty label", cat.Class)
		}
		if strings.TrimSpace(cat.Icon) == "" {
			return nil, fmt.Errorf("category %q has an empty icon", cat.Class)
		}
		if _, dup := seen[cat.Class]; dup {
			return nil, fmt.Errorf("duplicate category class %q", cat.Class)
		}
		seen[cat.Class] = struct{}{}

		cat.predicates = make([]Predicate, 0, len(cat.Matches))
		for _, m := range cat.Matches {
			pred, err := ParsePredicate(m)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", cat.Class, err)
			}
			cat.predicates = append(cat.predicates, pred)
			for _, cond := range pred {
				rs.keys[cond.Key] = struct{}{}
			}
		}

		if cat.IsFallback {
			fallbacks++
			rs.fallback = cat
		}
		rs.categories = append(rs.categories, cat)
	}

	if fallbacks != 1 {
		return nil, fmt.Errorf("category mapping must define exactly one fallback category, found %d", fallbacks)
	}

	return rs, nil
}

// Classify evaluates categories in rule-set order and returns the
// first one with a fully satisfied predicate. Returns false when no
// category matches; the caller drops the element. The fallback
// category plays no role here, it exists only for display labeling.
func (rs *RuleSet) Classify(tags map[string]string) (Result, bool) {
	for _, cat := range rs.categories {
		for _, pred := range cat.predicates {
			if subclass, ok := pred.Matches(tags); ok {
				return Result{Class: cat.Class, Subclass: subclass}, true
			}
		}
	}
	return Result{}, false
}

// HasKey reports whether any predicate in the rule set references the
// given tag key. The producer uses this as a cheap pre-filter before
// running the full classifier.
func (rs *RuleSet) HasKey(key string) bool {
	_, ok := rs.keys[key]
	return ok
}

// Fallback returns the single fallback category
func (rs *RuleSet) Fallback() Category {
	return rs.fallback
}

// Categories returns the ordered category table
func (rs *RuleSet) Categories() []Category {
	return rs.categories
}

// Len returns the number of categories
func (rs *RuleSet) Len() int {
	return len(rs.categories)
}
