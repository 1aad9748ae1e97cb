// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/law-makers/laptops/internal/config"
	"github.com/law-makers/laptops/internal/crawler"
	"github.com/law-makers/laptops/internal/fetch"
	"github.com/law-makers/laptops/internal/output"
	"github.com/law-makers/laptops/internal/parser"
	"github.com/law-makers/laptops/internal/ratelimit"
	"github.com/law-makers/laptops/internal/retry"
	"github.com/law-makers/laptops/internal/selectors"
	"github.com/law-makers/laptops/internal/storage/redisstream"
	"github.com/law-makers/laptops/internal/storage/sqlstore"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command run by the CLI.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Registry    *selectors.Registry
	RateLimiter *ratelimit.DomainLimiter
	HTTPClient  *http.Client
	Fetcher     *fetch.Fetcher
	Parser      *parser.Parser
	logFile     io.Closer
	startTime   time.Time
	closed      bool
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Loads the selector registry (built-in table plus optional rule file)
//   - Creates the per-domain rate limiter
//   - Initializes the HTTP client and fetcher with the retry policy
//   - Creates the page parser
//
// If any step fails, an error is returned and no resources are kept open.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger, logFile := configureLogger(cfg)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Str("log_file", cfg.LogFile).
		Msg("Logger initialized")

	registry, err := selectors.FromFile(cfg.SelectorsFile)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to load selectors: %w", err)
	}
	logger.Debug().
		Int("sites", len(registry.Domains())).
		Str("file", cfg.SelectorsFile).
		Msg("Selector registry loaded")

	limiter := ratelimit.NewDomainLimiter(cfg.RequestDelay, cfg.DomainConcurrency)
	for _, domain := range registry.Domains() {
		if rs := registry.Lookup(domain); rs.Delay > 0 {
			limiter.SetDelay(domain, rs.Delay)
			logger.Debug().Str("domain", domain).Dur("delay", rs.Delay).Msg("Site delay override")
		}
	}
	logger.Debug().
		Dur("delay", cfg.RequestDelay).
		Int("concurrency", cfg.DomainConcurrency).
		Msg("Rate limiter initialized")

	client := fetch.NewClient(cfg.HTTPTimeout)
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.RetryAttempts
	if len(cfg.RetryCodes) > 0 {
		retryCfg.RetryableStatusCodes = cfg.RetryCodes
	}
	opts := fetch.DefaultOptions()
	opts.UserAgent = cfg.UserAgent
	opts.Headers = cfg.Headers
	opts.Retry = retryCfg
	fetcher := fetch.New(client, limiter, opts)
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Int("attempts", retryCfg.MaxAttempts).
		Ints("retry_codes", retryCfg.RetryableStatusCodes).
		Msg("HTTP client initialized")

	a := &Application{
		Config:      cfg,
		Logger:      &logger,
		Registry:    registry,
		RateLimiter: limiter,
		HTTPClient:  client,
		Fetcher:     fetcher,
		Parser:      parser.New(registry),
		logFile:     logFile,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return a, nil
}

// configureLogger sets the global zerolog level and output and returns the logger
func configureLogger(cfg *config.Config) (zerolog.Logger, io.Closer) {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.JSONLog {
		w = os.Stderr
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	var closer io.Closer
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:  cfg.LogFile,
			MaxSize:   50,
			LocalTime: true,
			Compress:  true,
		}
		w = zerolog.MultiLevelWriter(w, rotated)
		closer = rotated
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger, closer
}

// OpenSink opens the configured output file plus the optional SQL and Redis
// sinks. Any failure closes what was already opened.
func (a *Application) OpenSink(ctx context.Context) (output.Sink, error) {
	var sinks output.Multi
	fail := func(err error) (output.Sink, error) {
		if cerr := sinks.Close(); cerr != nil {
			a.Logger.Warn().Err(cerr).Msg("Error closing partially opened sinks")
		}
		return nil, err
	}

	file, err := output.Open(a.Config.Output)
	if err != nil {
		return fail(fmt.Errorf("failed to open output %q: %w", a.Config.Output, err))
	}
	sinks = append(sinks, file)
	a.Logger.Debug().Str("path", a.Config.Output).Msg("Output file opened")

	if a.Config.SQLDSN != "" {
		store, err := sqlstore.Open(ctx, a.Config.SQLDSN)
		if err != nil {
			return fail(fmt.Errorf("failed to open sql store: %w", err))
		}
		sinks = append(sinks, store)
		a.Logger.Debug().Msg("SQL store opened")
	}

	if a.Config.RedisAddr != "" {
		stream := redisstream.New(a.Config.RedisAddr, a.Config.RedisDB, a.Config.RedisStream, a.Config.RedisMaxLen)
		pingCtx, cancel := context.WithTimeout(ctx, a.Config.HTTPTimeout)
		err := stream.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = stream.Close()
			return fail(fmt.Errorf("failed to reach redis at %s: %w", a.Config.RedisAddr, err))
		}
		sinks = append(sinks, stream)
		a.Logger.Debug().Str("addr", a.Config.RedisAddr).Str("stream", a.Config.RedisStream).Msg("Redis stream opened")
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// NewCrawler creates a crawler writing to sink with the configured limits
func (a *Application) NewCrawler(sink output.Sink, onPage func(crawler.PageReport)) *crawler.Crawler {
	return crawler.New(a.Fetcher, a.Parser, sink, crawler.Options{
		Workers:         a.Config.Workers,
		MaxPagesPerSite: a.Config.MaxPagesPerSite,
		OnPage:          onPage,
	})
}

// Seeds returns the start URLs for a crawl: args when given, otherwise the
// built-in list, filtered by the configured sites.
func (a *Application) Seeds(args []string) []string {
	seeds := args
	if len(seeds) == 0 {
		seeds = selectors.StartURLs()
	}
	return FilterSites(seeds, a.Config.Sites)
}

// FilterSites keeps the seeds whose domain is one of sites. An empty list keeps all.
func FilterSites(seeds, sites []string) []string {
	if len(sites) == 0 {
		return seeds
	}
	allowed := make(map[string]bool, len(sites))
	for _, s := range sites {
		if d := urlutil.NormalizeDomain(s); d != "" {
			allowed[d] = true
		}
	}
	var out []string
	for _, seed := range seeds {
		if allowed[urlutil.NormalizeDomain(seed)] {
			out = append(out, seed)
		}
	}
	return out
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Shutting down application")

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	var errs []error
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
