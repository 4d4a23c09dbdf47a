package rulepack

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateRule is returned when a rule ID is registered twice.
var ErrDuplicateRule = errors.New("duplicate rule id")

// Catalog is an explicit, ordered collection of rules.
//
// There is no global catalog: programs build one and pass it around.
type Catalog struct {
	rules     []Rule
	byID      map[string]Rule
	utilities []UtilityRule
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]Rule)}
}

// Add registers r. Rules with an empty or already taken ID are rejected.
func (c *Catalog) Add(r Rule) error {
	d := r.Descriptor()
	if d == nil || d.ID == "" {
		return errors.New("rule without id")
	}
	if _, ok := c.byID[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, d.ID)
	}
	for _, k := range r.NodeKinds() {
		if !k.Valid() {
			return fmt.Errorf("%s: unknown node kind %q", d.ID, k)
		}
	}
	c.byID[d.ID] = r
	c.rules = append(c.rules, r)
	return nil
}

// MustAdd is like Add, but panics on error.
func (c *Catalog) MustAdd(r Rule) {
	if err := c.Add(r); err != nil {
		panic(err)
	}
}

// AddUtility registers a utility rule.
func (c *Catalog) AddUtility(u UtilityRule) error {
	for _, other := range c.utilities {
		if other.Name() == u.Name() {
			return fmt.Errorf("duplicate utility %q", u.Name())
		}
	}
	c.utilities = append(c.utilities, u)
	return nil
}

// Rules returns the registered rules in registration order.
func (c *Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Utilities returns the registered utility rules.
func (c *Catalog) Utilities() []UtilityRule {
	return append([]UtilityRule(nil), c.utilities...)
}

// Lookup finds a rule by its ID.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// IDs returns the sorted IDs of all regular rules.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		ids = append(ids, r.Descriptor().ID)
	}
	sort.Strings(ids)
	return ids
}
