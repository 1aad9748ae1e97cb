package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// Element is a read-only handle to one subtree of a parsed page
type Element interface {
	// Query returns the trimmed value of the first match of path
	Query(path string) (string, bool)

	// Texts returns every visible, non-blank text node under the element, trimmed
	Texts() []string
}

// Page is a parsed document
type Page interface {
	Element

	// Find returns the elements matching selector in document order
	Find(selector string) []Element

	// URL is the address the page was fetched from
	URL() string

	// BaseURL is the address relative references resolve against
	BaseURL() string
}

// Document implements Page on top of goquery
type Document struct {
	doc *goquery.Document
	url string
}

// NewDocument parses HTML from r
func NewDocument(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromGoquery(doc, pageURL), nil
}

// FromGoquery wraps an already parsed goquery document
func FromGoquery(doc *goquery.Document, pageURL string) *Document {
	return &Document{doc: doc, url: pageURL}
}

// URL returns the page address
func (d *Document) URL() string {
	return d.url
}

// BaseURL honours <base href> and falls back to the page address
func (d *Document) BaseURL() string {
	href, ok := d.doc.Find("base[href]").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return d.url
	}
	return urlutil.ResolveURL(d.url, href)
}

// Query runs path against the whole document
func (d *Document) Query(path string) (string, bool) {
	return Selection{sel: d.doc.Selection}.Query(path)
}

// Texts returns the visible text of the whole document
func (d *Document) Texts() []string {
	return Selection{sel: d.doc.Selection}.Texts()
}

// Find returns one Element per matched node
func (d *Document) Find(selector string) []Element {
	p, err := ParsePath(selector)
	if err != nil {
		return nil
	}

	if p.Kind == KindXPath {
		nodes, err := htmlquery.QueryAll(d.doc.Nodes[0], p.Expr)
		if err != nil {
			return nil
		}
		var elements []Element
		for _, n := range nodes {
			if n.Type == html.ElementNode {
				elements = append(elements, Selection{sel: goquery.NewDocumentFromNode(n).Selection})
			}
		}
		return elements
	}

	matched := d.doc.Find(p.Expr)
	elements := make([]Element, 0, matched.Length())
	matched.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, Selection{sel: s})
	})
	return elements
}

// Selection implements Element for a goquery selection
type Selection struct {
	sel *goquery.Selection
}

// Query returns the first non-blank value path yields
func (s Selection) Query(path string) (string, bool) {
	p, err := ParsePath(path)
	if err != nil || s.sel == nil {
		return "", false
	}

	if p.Kind == KindXPath {
		for _, n := range s.sel.Nodes {
			found, err := htmlquery.QueryAll(n, p.Expr)
			if err != nil {
				return "", false
			}
			for _, f := range found {
				if v := strings.TrimSpace(htmlquery.InnerText(f)); v != "" {
					return v, true
				}
			}
		}
		return "", false
	}

	matches := s.sel.Find(p.Expr)
	if p.Attr != "" {
		for _, n := range matches.Nodes {
			for _, a := range n.Attr {
				if a.Key == p.Attr {
					if v := strings.TrimSpace(a.Val); v != "" {
						return v, true
					}
				}
			}
		}
		return "", false
	}

	for _, n := range matches.Nodes {
		if v := directText(n); v != "" {
			return v, true
		}
	}
	for _, n := range matches.Nodes {
		if texts := visibleTexts(n, nil); len(texts) > 0 {
			return texts[0], true
		}
	}
	return "", false
}

// Texts returns every visible text node of the selection
func (s Selection) Texts() []string {
	if s.sel == nil {
		return nil
	}
	var out []string
	for _, n := range s.sel.Nodes {
		out = visibleTexts(n, out)
	}
	return out
}

func directText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if v := strings.TrimSpace(c.Data); v != "" {
				return v
			}
		}
	}
	return ""
}

var invisible = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

func visibleTexts(n *html.Node, out []string) []string {
	switch n.Type {
	case html.TextNode:
		if v := strings.TrimSpace(n.Data); v != "" {
			out = append(out, v)
		}
		return out
	case html.ElementNode:
		if invisible[n.Data] {
			return out
		}
	case html.CommentNode:
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = visibleTexts(c, out)
	}
	return out
}
