// Package classify maps telemetry paths onto forwarding categories using
// ordered, data-driven pattern rules loaded from configuration.
package classify

import (
	"fmt"
	"strings"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
)

// Rule matches a dotted path against a pattern. A `*` in the pattern matches
// any run of characters; everything else matches literally.
type Rule struct {
	pattern  string
	segments []string
}

// CompileRule validates and compiles a single pattern.
func CompileRule(pattern string) (Rule, error) {
	if pattern == "" {
		return Rule{}, fmt.Errorf("empty classification pattern")
	}
	return Rule{pattern: pattern, segments: strings.Split(pattern, "*")}, nil
}

// Pattern returns the source pattern the rule was compiled from.
func (r Rule) Pattern() string { return r.pattern }

// Match reports whether path matches the rule's pattern.
func (r Rule) Match(path string) bool {
	segs := r.segments
	if len(segs) == 1 {
		return path == segs[0]
	}

	if !strings.HasPrefix(path, segs[0]) {
		return false
	}
	path = path[len(segs[0]):]

	last := segs[len(segs)-1]
	if !strings.HasSuffix(path, last) {
		return false
	}
	path = path[:len(path)-len(last)]

	for _, seg := range segs[1 : len(segs)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(path, seg)
		if idx < 0 {
			return false
		}
		path = path[idx+len(seg):]
	}
	return true
}

// CategoryRules is one category's ordered rule list.
type CategoryRules struct {
	Category domain.Category
	Patterns []string
}

// Classifier evaluates the dump list first, then categories in the fixed
// order they were configured. It is stateless after construction.
type Classifier struct {
	dump  []Rule
	order []domain.Category
	rules map[domain.Category][]Rule
}

func New(dumpPatterns []string, categories []CategoryRules) (*Classifier, error) {
	c := &Classifier{rules: make(map[domain.Category][]Rule, len(categories))}

	for _, p := range dumpPatterns {
		r, err := CompileRule(p)
		if err != nil {
			return nil, fmt.Errorf("dump rule %q: %w", p, err)
		}
		c.dump = append(c.dump, r)
	}

	for _, cr := range categories {
		if cr.Category == domain.CategoryDump {
			return nil, fmt.Errorf("%q is reserved and cannot carry rules", domain.CategoryDump)
		}
		if _, dup := c.rules[cr.Category]; dup {
			return nil, fmt.Errorf("duplicate rule list for category %q", cr.Category)
		}
		var rules []Rule
		for _, p := range cr.Patterns {
			r, err := CompileRule(p)
			if err != nil {
				return nil, fmt.Errorf("category %q rule %q: %w", cr.Category, p, err)
			}
			rules = append(rules, r)
		}
		c.order = append(c.order, cr.Category)
		c.rules[cr.Category] = rules
	}

	return c, nil
}

// Classify returns the category for path. Dump rules short-circuit every
// other list; a path matching no rule at all is returned as dump too.
func (c *Classifier) Classify(path string) domain.Category {
	for _, r := range c.dump {
		if r.Match(path) {
			return domain.CategoryDump
		}
	}
	for _, cat := range c.order {
		for _, r := range c.rules[cat] {
			if r.Match(path) {
				return cat
			}
		}
	}
	return domain.CategoryDump
}

// Categories returns the evaluation order of the configured categories.
func (c *Classifier) Categories() []domain.Category {
	out := make([]domain.Category, len(c.order))
	copy(out, c.order)
	return out
}
