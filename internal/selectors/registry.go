// Package selectors holds the per-domain extraction rules used by the page
// parser, keyed by normalized domain with a mandatory default entry.
package selectors

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/law-makers/laptops/internal/dom"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// DefaultKey is the reserved rule-set key used for unknown domains
const DefaultKey = "default"

// ErrNoDefault is returned when a rule table lacks the default entry
var ErrNoDefault = errors.New("selector table has no default rule set")

// RuleSet is the extraction rules for one website
type RuleSet struct {
	Item  string `yaml:"item"`
	Name  Paths  `yaml:"name"`
	Specs Paths  `yaml:"specs"`
	Model Paths  `yaml:"model"`
	Price Paths  `yaml:"price"`

	// Delay overrides the request delay for this website; 0 keeps the global one
	Delay time.Duration `yaml:"delay"`
}

func (rs RuleSet) clone() RuleSet {
	return RuleSet{
		Item:  rs.Item,
		Name:  append(Paths(nil), rs.Name...),
		Specs: append(Paths(nil), rs.Specs...),
		Model: append(Paths(nil), rs.Model...),
		Price: append(Paths(nil), rs.Price...),
		Delay: rs.Delay,
	}
}

func (rs RuleSet) validate(domain string) error {
	if rs.Delay < 0 {
		return &SelectorError{Domain: domain, Field: "delay", Selector: rs.Delay.String(), Err: errors.New("delay must be >= 0")}
	}
	if err := dom.ValidateSelector(rs.Item); err != nil {
		return &SelectorError{Domain: domain, Field: "item", Selector: rs.Item, Err: err}
	}
	fields := []struct {
		name  string
		paths Paths
	}{
		{"name", rs.Name},
		{"specs", rs.Specs},
		{"model", rs.Model},
		{"price", rs.Price},
	}
	for _, f := range fields {
		for _, p := range f.paths {
			if err := dom.ValidatePath(p); err != nil {
				return &SelectorError{Domain: domain, Field: f.name, Selector: p, Err: err}
			}
		}
	}
	return nil
}

// SelectorError reports a selector that does not compile
type SelectorError struct {
	Domain   string
	Field    string
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid %s selector for %s: %v", e.Field, e.Domain, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}

// Registry is an immutable domain to RuleSet lookup table
type Registry struct {
	sets map[string]RuleSet
}

// New validates sets and builds a Registry. Keys may be URLs or hosts; they
// are normalized the same way page URLs are.
func New(sets map[string]RuleSet) (*Registry, error) {
	r := &Registry{sets: make(map[string]RuleSet, len(sets))}
	for key, rs := range sets {
		domain := urlutil.NormalizeDomain(key)
		if domain == "" {
			return nil, fmt.Errorf("empty domain key %q", key)
		}
		if _, dup := r.sets[domain]; dup {
			return nil, fmt.Errorf("duplicate rule set for %s", domain)
		}
		if err := rs.validate(domain); err != nil {
			return nil, err
		}
		r.sets[domain] = rs.clone()
	}
	if _, ok := r.sets[DefaultKey]; !ok {
		return nil, ErrNoDefault
	}
	return r, nil
}

// MustNew is New for tables known to be valid
func MustNew(sets map[string]RuleSet) *Registry {
	r, err := New(sets)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the rule set for domain, or the default rule set
func (r *Registry) Lookup(domain string) RuleSet {
	if rs, ok := r.sets[urlutil.NormalizeDomain(domain)]; ok {
		return rs.clone()
	}
	return r.Default()
}

// Default returns the fallback rule set
func (r *Registry) Default() RuleSet {
	return r.sets[DefaultKey].clone()
}

// Has reports whether domain has its own rule set
func (r *Registry) Has(domain string) bool {
	d := urlutil.NormalizeDomain(domain)
	_, ok := r.sets[d]
	return ok && d != DefaultKey
}

// Domains lists the keys with their own rule set, sorted, default excluded
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.sets))
	for d := range r.sets {
		if d != DefaultKey {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// Merge overlays override on base; entries in override replace whole rule sets
func Merge(base, override map[string]RuleSet) map[string]RuleSet {
	out := make(map[string]RuleSet, len(base)+len(override))
	for d, rs := range base {
		out[urlutil.NormalizeDomain(d)] = rs
	}
	for d, rs := range override {
		out[urlutil.NormalizeDomain(d)] = rs
	}
	return out
}
