// internal/parser/parser.go
package parser

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/laptops/internal/dom"
	"github.com/law-makers/laptops/internal/extract"
	"github.com/law-makers/laptops/internal/selectors"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
	"github.com/law-makers/laptops/pkg/models"
)

// DefaultNextPatterns are the link paths probed for the next listing page, in order
var DefaultNextPatterns = []string{
	"a.next::attr(href)",
	"li.next a::attr(href)",
	`a[rel="next"]::attr(href)`,
	`link[rel="next"]::attr(href)`,
}

// Result is the outcome of parsing one listing page
type Result struct {
	// Records holds the accepted listings in page order
	Records []models.ListingRecord
	// Next is the absolute URL of the following page, or empty
	Next string
	// Listings is the number of listing elements found
	Listings int
	// Discarded counts listings dropped for missing name or price
	Discarded int
	// Err is set when the page failed to parse; Records and Next are then empty
	Err error
}

// ParseError is a failure while processing a single page
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser turns listing pages into records. It holds no mutable state and is
// safe for concurrent use.
type Parser struct {
	registry     *selectors.Registry
	nextPatterns []string
}

// Option configures a Parser
type Option func(*Parser)

// WithNextPatterns replaces the next-page link paths
func WithNextPatterns(patterns ...string) Option {
	return func(p *Parser) {
		p.nextPatterns = append([]string(nil), patterns...)
	}
}

// New creates a Parser over registry
func New(registry *selectors.Registry, opts ...Option) *Parser {
	p := &Parser{
		registry:     registry,
		nextPatterns: DefaultNextPatterns,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the accepted listings of page and its next-page link.
// A failure while processing the page is logged and yields an empty Result
// carrying the error.
func (p *Parser) Parse(page dom.Page, sourceURL string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := &ParseError{URL: sourceURL, Err: fmt.Errorf("panic: %v", r)}
			log.Error().
				Str("component", "parser").
				Str("url", sourceURL).
				Err(err).
				Str("stack", string(debug.Stack())).
				Msg("Error parsing page")
			res = Result{Err: err}
		}
	}()

	if page == nil {
		err := &ParseError{URL: sourceURL, Err: fmt.Errorf("no document")}
		log.Error().Str("component", "parser").Str("url", sourceURL).Err(err).Msg("Error parsing page")
		return Result{Err: err}
	}

	domain := urlutil.NormalizeDomain(sourceURL)
	rules := p.registry.Lookup(domain)
	logger := log.With().Str("component", "parser").Str("url", sourceURL).Str("domain", domain).Logger()

	listings := page.Find(rules.Item)
	if len(listings) == 0 {
		if fallback := p.registry.Default().Item; fallback != rules.Item {
			logger.Warn().Str("selector", rules.Item).Msg("No laptops found with site selector, trying default")
			listings = page.Find(fallback)
		}
	}
	if len(listings) == 0 {
		return Result{}
	}

	logger.Info().Int("count", len(listings)).Msg("Found laptops")

	res.Listings = len(listings)
	res.Records = make([]models.ListingRecord, 0, len(listings))
	for _, el := range listings {
		rec := models.ListingRecord{
			Name:      extract.Extract(el, rules.Name).Value,
			Website:   domain,
			Specs:     extract.Extract(el, rules.Specs).Value,
			Model:     extract.Extract(el, rules.Model).Value,
			// no text fallback: digits in the name must not become a price
			Price:     extract.NormalizePrice(extract.Match(el, rules.Price)),
			SourceURL: sourceURL,
		}
		if !rec.Valid() {
			res.Discarded++
			logger.Debug().
				Str("name", rec.Name).
				Str("price", rec.Price.String()).
				Str("price_kind", rec.Price.Kind.String()).
				Str("reason", rec.Price.Reason).
				Msg("Incomplete data")
			continue
		}
		logger.Debug().Str("name", rec.Name).Str("price", rec.Price.String()).Msg("Saved")
		res.Records = append(res.Records, rec)
	}

	res.Next = p.nextPage(page, sourceURL)
	return res
}

// nextPage returns the first recognised next link resolved to an absolute URL
func (p *Parser) nextPage(page dom.Page, sourceURL string) string {
	base := page.BaseURL()
	if base == "" {
		base = sourceURL
	}
	for _, pattern := range p.nextPatterns {
		href, ok := page.Query(pattern)
		if !ok || !urlutil.IsFollowable(href) {
			continue
		}
		next := urlutil.ResolveURL(base, href)
		if urlutil.ValidateURL(next) != nil {
			continue
		}
		return next
	}
	return ""
}
