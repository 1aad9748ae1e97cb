// Package dom defines the read-only query capability the extraction engine
// needs from a parsed page, and a goquery-backed implementation of it.
//
// Paths are declarative:
//
//	.price bdi            first non-blank text of the matches
//	.price bdi::text      same as above
//	a.next::attr(href)    attribute value of the first match carrying it
//	xpath:.//h2/a/text()  XPath expression evaluated with htmlquery
//
// The text of a match is its first non-blank direct text node, or failing
// that its first non-blank descendant text node.
package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// Kind is the query language of a Path
type Kind int

const (
	KindCSS Kind = iota
	KindXPath
)

const (
	xpathPrefix = "xpath:"
	textSuffix  = "::text"
	attrPrefix  = "::attr("
	attrSuffix  = ")"
)

// Path is a parsed query path
type Path struct {
	Kind Kind
	Expr string
	// Attr is the attribute to read; empty means text
	Attr string
}

// ParsePath splits a raw path into its query expression and value accessor
func ParsePath(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Path{}, fmt.Errorf("empty path")
	}

	if strings.HasPrefix(raw, xpathPrefix) {
		expr := strings.TrimSpace(strings.TrimPrefix(raw, xpathPrefix))
		if expr == "" {
			return Path{}, fmt.Errorf("empty xpath expression in %q", raw)
		}
		return Path{Kind: KindXPath, Expr: expr}, nil
	}

	p := Path{Kind: KindCSS, Expr: raw}
	switch {
	case strings.HasSuffix(raw, textSuffix):
		p.Expr = strings.TrimSpace(strings.TrimSuffix(raw, textSuffix))
	case strings.HasSuffix(raw, attrSuffix) && strings.Contains(raw, attrPrefix):
		i := strings.LastIndex(raw, attrPrefix)
		p.Attr = strings.TrimSpace(raw[i+len(attrPrefix) : len(raw)-len(attrSuffix)])
		p.Expr = strings.TrimSpace(raw[:i])
		if p.Attr == "" {
			return Path{}, fmt.Errorf("empty attribute name in %q", raw)
		}
	}
	if p.Expr == "" {
		return Path{}, fmt.Errorf("empty selector in %q", raw)
	}
	return p, nil
}

// ValidatePath reports whether raw parses and its expression compiles
func ValidatePath(raw string) error {
	p, err := ParsePath(raw)
	if err != nil {
		return err
	}
	return p.compile()
}

// ValidateSelector reports whether raw is a usable listing selector.
// Listing selectors select elements, so accessors are not allowed.
func ValidateSelector(raw string) error {
	p, err := ParsePath(raw)
	if err != nil {
		return err
	}
	if p.Attr != "" || (p.Kind == KindCSS && strings.HasSuffix(strings.TrimSpace(raw), textSuffix)) {
		return fmt.Errorf("selector %q must select elements, not values", raw)
	}
	return p.compile()
}

func (p Path) compile() error {
	switch p.Kind {
	case KindXPath:
		if _, err := xpath.Compile(p.Expr); err != nil {
			return fmt.Errorf("invalid xpath %q: %w", p.Expr, err)
		}
	default:
		if _, err := cascadia.ParseGroup(p.Expr); err != nil {
			return fmt.Errorf("invalid css selector %q: %w", p.Expr, err)
		}
	}
	return nil
}
