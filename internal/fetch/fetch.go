// internal/fetch/fetch.go
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/law-makers/laptops/internal/dom"
	"github.com/law-makers/laptops/internal/ratelimit"
	"github.com/law-makers/laptops/internal/reqctx"
	"github.com/law-makers/laptops/internal/retry"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// DefaultUserAgent is the browser-like agent sent with every request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// DefaultMaxBodyBytes bounds how much of a response is read
const DefaultMaxBodyBytes = 16 << 20

// Options configures a Fetcher
type Options struct {
	UserAgent    string
	Headers      map[string]string
	Retry        retry.Config
	MaxBodyBytes int64
}

// DefaultOptions returns the request settings used for shop listing pages
func DefaultOptions() Options {
	return Options{
		UserAgent:    DefaultUserAgent,
		Retry:        retry.DefaultConfig(),
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewClient creates an HTTP client with keep-alive pooling and no cookie jar
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Fetcher downloads listing pages politely and parses them into documents
type Fetcher struct {
	client  *http.Client
	limiter ratelimit.RateLimiter
	opts    Options
}

// New creates a Fetcher. A nil client gets NewClient defaults; a nil limiter
// disables politeness delays.
func New(client *http.Client, limiter ratelimit.RateLimiter, opts Options) *Fetcher {
	if client == nil {
		client = NewClient(0)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Fetcher{client: client, limiter: limiter, opts: opts}
}

// Fetch retrieves urlStr and returns the parsed page. Statuses in the retry
// set are retried; other error statuses are returned as pages so the parser
// can still look at them.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (dom.Page, error) {
	if err := urlutil.ValidateURL(urlStr); err != nil {
		return nil, &FetchError{URL: urlStr, Err: err}
	}

	rc := reqctx.GetRequestContext(ctx)
	lc := rc.Fields(log.With().Str("component", "fetch"))
	if rc.URL != urlStr {
		lc = lc.Str("url", urlStr)
	}
	logger := lc.Logger()

	var (
		page     *dom.Document
		attempts int
	)
	err := retry.Do(ctx, f.opts.Retry, func(attempt int) error {
		attempts = attempt
		p, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			logger.Debug().Int("attempt", attempt).Err(err).Msg("Fetch attempt failed")
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		fe := &FetchError{URL: urlStr, Attempts: attempts, Err: err}
		var sc retry.StatusCoder
		if errors.As(err, &sc) {
			fe.StatusCode = sc.GetStatusCode()
		}
		return nil, fe
	}

	logger.Debug().
		Int("attempts", attempts).
		Dur("elapsed", rc.Elapsed()).
		Msg("Fetched page")
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*dom.Document, error) {
	if f.limiter != nil {
		release, err := f.limiter.Acquire(ctx, urlStr)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		defer release()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if f.retryable(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, retry.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), "")
	}
	if resp.StatusCode >= 400 {
		log.Warn().
			Str("component", "fetch").
			Str("url", urlStr).
			Int("status", resp.StatusCode).
			Msg("Error status, parsing response anyway")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	reader, err := toUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, retry.Permanent(err)
	}

	pageURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL.String()
	}

	doc, err := dom.NewDocument(reader, pageURL)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	return doc, nil
}

func (f *Fetcher) retryable(status int) bool {
	for _, code := range f.opts.Retry.RetryableStatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

// toUTF8 decodes body using the charset from the Content-Type header or
// the document's meta tags
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || enc == nil {
		return bytes.NewReader(body), nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return bytes.NewReader(decoded), nil
}
