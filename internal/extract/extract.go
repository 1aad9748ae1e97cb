// Package extract pulls listing fields out of DOM elements and cleans up
// raw price strings.
package extract

import (
	"strings"

	"github.com/law-makers/laptops/internal/dom"
)

// MaxFallbackLength caps fields produced by the text fallback, in characters
const MaxFallbackLength = 150

// Field is an optional, trimmed text value
type Field struct {
	Value   string
	Present bool
}

// Value returns a present field
func Value(s string) Field {
	return Field{Value: s, Present: true}
}

// Extract returns the first non-blank match of paths, in order. When nothing
// matches it falls back to the element's visible text joined with single
// spaces and capped at MaxFallbackLength.
func Extract(el dom.Element, paths []string) Field {
	if f := Match(el, paths); f.Present {
		return f
	}
	return fallback(el)
}

// Match returns the first non-blank match of paths, or an absent field
func Match(el dom.Element, paths []string) Field {
	for _, p := range paths {
		if v, ok := el.Query(p); ok {
			if v = strings.TrimSpace(v); v != "" {
				return Value(v)
			}
		}
	}
	return Field{}
}

func fallback(el dom.Element) Field {
	parts := make([]string, 0, 8)
	for _, t := range el.Texts() {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return Field{}
	}
	return Value(truncate(strings.Join(parts, " "), MaxFallbackLength))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
