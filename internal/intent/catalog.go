package intent

import (
	"fmt"
	"regexp"
	"sync"

	"sshmate/internal/models"
)

// compiledRule pairs a registered rule with its compiled patterns.
type compiledRule struct {
	rule     models.IntentRule
	patterns []*regexp.Regexp
}

// Catalog is the table of recognized intents. Rules accumulate under their
// intent name and are never mutated after registration; iteration order is
// first-registration order, which keeps classification tie-breaks stable.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	groups map[string][]compiledRule
}

// NewCatalog creates an empty intent catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		groups: make(map[string][]compiledRule),
	}
}

// Register adds a rule to the catalog. Patterns are matched case-insensitively.
// Duplicate intent names are allowed; the new rule accumulates under the name.
func (c *Catalog) Register(rule models.IntentRule) error {
	if rule.Intent == "" {
		return fmt.Errorf("intent name is required")
	}
	if len(rule.Patterns) == 0 {
		return fmt.Errorf("intent %q: at least one pattern is required", rule.Intent)
	}

	compiled := make([]*regexp.Regexp, 0, len(rule.Patterns))
	for _, p := range rule.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("intent %q: invalid pattern %q: %w", rule.Intent, p, err)
		}
		compiled = append(compiled, re)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.groups[rule.Intent]; !exists {
		c.order = append(c.order, rule.Intent)
	}
	c.groups[rule.Intent] = append(c.groups[rule.Intent], compiledRule{
		rule:     rule,
		patterns: compiled,
	})
	return nil
}

// RegisterAll registers rules in order, stopping at the first invalid one.
func (c *Catalog) RegisterAll(rules []models.IntentRule) error {
	for _, rule := range rules {
		if err := c.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// Intents returns one description per intent name. The first-registered rule's
// description wins; later rules under the same name never override it.
func (c *Catalog) Intents() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	intents := make(map[string]string, len(c.order))
	for _, name := range c.order {
		group := c.groups[name]
		if len(group) > 0 {
			intents[name] = group[0].rule.Description
		}
	}
	return intents
}

// Descriptions returns every rule's description in catalog order.
func (c *Catalog) Descriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, name := range c.order {
		for _, cr := range c.groups[name] {
			out = append(out, cr.rule.Description)
		}
	}
	return out
}

// visit calls fn for every rule in stable catalog order.
func (c *Catalog) visit(fn func(cr compiledRule)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, name := range c.order {
		for _, cr := range c.groups[name] {
			fn(cr)
		}
	}
}

// Len returns the number of registered rules.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, group := range c.groups {
		n += len(group)
	}
	return n
}
