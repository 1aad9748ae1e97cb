// internal/crawler/crawler.go
package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/laptops/internal/dom"
	"github.com/law-makers/laptops/internal/output"
	"github.com/law-makers/laptops/internal/parser"
	"github.com/law-makers/laptops/internal/reqctx"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// Fetcher retrieves and parses one page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (dom.Page, error)
}

// PageParser extracts records and the next-page link from a page
type PageParser interface {
	Parse(page dom.Page, sourceURL string) parser.Result
}

// Options tunes a crawl
type Options struct {
	// Workers is the number of pages processed in parallel across all sites
	Workers int
	// MaxPagesPerSite caps how many pages are followed from each seed; 0 means no cap
	MaxPagesPerSite int
	// OnPage is called after every page, from a single goroutine
	OnPage func(PageReport)
}

// PageReport describes one processed page
type PageReport struct {
	URL       string
	Site      string
	Depth     int
	Records   int
	Discarded int
	Next      string
	Err       error
	Elapsed   time.Duration
}

// Stats summarises a crawl
type Stats struct {
	Pages       int
	Records     int
	Discarded   int
	FetchErrors int
	ParseErrors int
	WriteErrors int
	Duration    time.Duration
}

// Crawler walks the listing pages of every seed, following next-page links
type Crawler struct {
	fetcher Fetcher
	parser  PageParser
	sink    output.Sink
	opts    Options
}

// New creates a Crawler writing accepted records to sink
func New(fetcher Fetcher, p PageParser, sink output.Sink, opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = 16
	}
	if opts.Workers > 64 {
		opts.Workers = 64
	}
	return &Crawler{fetcher: fetcher, parser: p, sink: sink, opts: opts}
}

type job struct {
	url   string
	site  string
	depth int
}

type outcome struct {
	job       job
	records   int
	discarded int
	next      string
	fetchErr  error
	parseErr  error
	writeErr  error
	elapsed   time.Duration
}

// Run crawls until the frontier is exhausted or ctx is cancelled. On
// cancellation no new page is started; pages already in flight finish and
// their records are written before Run returns ctx.Err().
func (c *Crawler) Run(ctx context.Context, seeds []string) (Stats, error) {
	start := time.Now()
	var stats Stats

	seen := make(map[string]bool)
	var frontier []job
	enqueue := func(j job) {
		if seen[j.url] {
			return
		}
		seen[j.url] = true
		frontier = append(frontier, j)
	}
	for _, s := range seeds {
		if err := urlutil.ValidateURL(s); err != nil {
			log.Warn().Str("component", "crawler").Str("url", s).Err(err).Msg("Skipping invalid seed")
			continue
		}
		enqueue(job{url: s, site: urlutil.NormalizeDomain(s)})
	}

	jobs := make(chan job)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 1; w <= c.opts.Workers; w++ {
		wg.Add(1)
		go c.worker(ctx, w, jobs, results, &wg)
	}

	log.Info().
		Str("component", "crawler").
		Int("seeds", len(frontier)).
		Int("workers", c.opts.Workers).
		Msg("Crawl started")

	done := ctx.Done()
	pending := 0
	stop := func() {
		log.Warn().
			Str("component", "crawler").
			Int("dropped", len(frontier)).
			Int("in_flight", pending).
			Msg("Crawl cancelled, draining in-flight pages")
		frontier = nil
		done = nil
	}

	for len(frontier) > 0 || pending > 0 {
		if done != nil && ctx.Err() != nil {
			stop()
			continue
		}

		var send chan<- job
		var next job
		if len(frontier) > 0 {
			send = jobs
			next = frontier[0]
		}

		select {
		case send <- next:
			frontier = frontier[1:]
			pending++

		case out := <-results:
			pending--
			c.record(&stats, out)
			if out.next != "" && ctx.Err() == nil && c.follow(out.job) {
				enqueue(job{url: out.next, site: out.job.site, depth: out.job.depth + 1})
			}

		case <-done:
			stop()
		}
	}

	close(jobs)
	wg.Wait()

	stats.Duration = time.Since(start)
	log.Info().
		Str("component", "crawler").
		Int("pages", stats.Pages).
		Int("records", stats.Records).
		Int("discarded", stats.Discarded).
		Int("fetch_errors", stats.FetchErrors).
		Int("parse_errors", stats.ParseErrors).
		Int("write_errors", stats.WriteErrors).
		Dur("duration", stats.Duration).
		Msg("Crawl finished")

	return stats, ctx.Err()
}

func (c *Crawler) follow(j job) bool {
	return c.opts.MaxPagesPerSite <= 0 || j.depth+1 < c.opts.MaxPagesPerSite
}

func (c *Crawler) record(stats *Stats, out outcome) {
	var err error
	switch {
	case out.fetchErr != nil:
		stats.FetchErrors++
		err = out.fetchErr
	default:
		stats.Pages++
		stats.Records += out.records
		stats.Discarded += out.discarded
		if out.parseErr != nil {
			stats.ParseErrors++
			err = out.parseErr
		}
		if out.writeErr != nil {
			stats.WriteErrors++
			err = errors.Join(err, out.writeErr)
		}
	}

	if c.opts.OnPage != nil {
		c.opts.OnPage(PageReport{
			URL:       out.job.url,
			Site:      out.job.site,
			Depth:     out.job.depth,
			Records:   out.records,
			Discarded: out.discarded,
			Next:      out.next,
			Err:       err,
			Elapsed:   out.elapsed,
		})
	}
}

// worker processes page jobs until the jobs channel is closed
func (c *Crawler) worker(ctx context.Context, id int, jobs <-chan job, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Debug().Str("component", "crawler").Int("worker_id", id).Msg("Worker started")

	for j := range jobs {
		results <- c.process(ctx, j)
	}

	log.Debug().Str("component", "crawler").Int("worker_id", id).Msg("Worker finished")
}

func (c *Crawler) process(ctx context.Context, j job) outcome {
	pctx := reqctx.WithRequestContext(ctx, j.url, j.depth)
	rc := reqctx.GetRequestContext(pctx)
	logger := rc.Fields(log.With().Str("component", "crawler").Str("site", j.site)).Logger()
	out := outcome{job: j}

	page, err := c.fetcher.Fetch(pctx, j.url)
	if err != nil {
		logger.Warn().Err(err).Msg("Fetch failed")
		out.fetchErr = err
		out.elapsed = rc.Elapsed()
		return out
	}

	sourceURL := page.URL()
	if sourceURL == "" {
		sourceURL = j.url
	}
	res := c.parser.Parse(page, sourceURL)
	out.records = len(res.Records)
	out.discarded = res.Discarded
	out.next = res.Next
	out.parseErr = res.Err

	if len(res.Records) > 0 {
		// records of an extracted page are written even after cancellation
		if err := c.sink.Write(context.WithoutCancel(pctx), res.Records); err != nil {
			logger.Error().Err(err).Int("records", len(res.Records)).Msg("Failed to write records")
			out.writeErr = err
			var partial *output.PartialWriteError
			if !errors.As(err, &partial) {
				out.records = 0
			}
		}
	}

	out.elapsed = rc.Elapsed()
	logger.Info().
		Int("records", out.records).
		Int("discarded", out.discarded).
		Str("next", out.next).
		Dur("elapsed", out.elapsed).
		Msg("Page processed")
	return out
}
