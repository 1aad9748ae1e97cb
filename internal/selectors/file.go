package selectors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Paths is an ordered list of candidate paths. In rule files it may be
// written as a list or as one comma-and-space separated string.
type Paths []string

// UnmarshalYAML accepts both a sequence and a scalar
func (p *Paths) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*p = cleanPaths(list)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("paths must be a string or a list of strings: %w", err)
	}
	*p = cleanPaths(strings.Split(s, ", "))
	return nil
}

func cleanPaths(in []string) Paths {
	out := make(Paths, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type ruleFile struct {
	Sites map[string]RuleSet `yaml:"sites"`
}

// Load decodes a YAML rule file:
//
//	sites:
//	  myshop.pk:
//	    item: .product-card
//	    name: [".title::text", "h2::text"]
//	    price: .amount::text
func Load(r io.Reader) (map[string]RuleSet, error) {
	var f ruleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return map[string]RuleSet{}, nil
		}
		return nil, fmt.Errorf("failed to decode selector file: %w", err)
	}
	if f.Sites == nil {
		return map[string]RuleSet{}, nil
	}
	return f.Sites, nil
}

// LoadFile reads a rule file from disk
func LoadFile(path string) (map[string]RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open selector file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// FromFile builds a registry from the built-in rules overlaid with path.
// An empty path yields the built-in registry.
func FromFile(path string) (*Registry, error) {
	if path == "" {
		return Builtin(), nil
	}
	sets, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(Merge(BuiltinTable(), sets))
}
