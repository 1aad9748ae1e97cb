package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/laptops/internal/utils/headers"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to a rotated file")
	cmd.PersistentFlags().String("timeout", DefaultHTTPTimeout.String(), "Timeout for each HTTP request")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (e.g. -H \"Accept-Language: ur-PK\")")
	cmd.PersistentFlags().String("selectors", "", "YAML file with extra or replacement site selectors")
}

// RegisterCrawlFlags registers the flags of the crawl command
func RegisterCrawlFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().StringP("output", "o", DefaultOutput, "Output file (.csv, .jsonl, .md) or - for stdout")
	cmd.Flags().StringSlice("sites", nil, "Only crawl seeds of these domains (e.g. paklap.pk,galaxy.pk)")
	cmd.Flags().IntP("workers", "w", DefaultWorkers, "Pages processed in parallel across all sites")
	cmd.Flags().String("delay", DefaultRequestDelay.String(), "Delay between requests to the same domain")
	cmd.Flags().Int("concurrency", DefaultDomainConcurrency, "Concurrent requests per domain")
	cmd.Flags().Int("retry-times", DefaultRetryAttempts, "Attempts per page on transient errors")
	cmd.Flags().Int("max-pages", DefaultMaxPagesPerSite, "Pages followed per seed (0 = no limit)")
	cmd.Flags().String("sql", "", "Also store records in SQL (sqlite://, mysql://, postgres://)")
	cmd.Flags().String("redis-addr", "", "Also publish records to a Redis stream at this address")
	cmd.Flags().String("redis-stream", DefaultRedisStream, "Redis stream key")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

// changed returns the flag when the user set it on the command line
func changed(cmd *cobra.Command, name string) *pflag.Flag {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	return f
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	if f := changed(cmd, "verbose"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}
	if f := changed(cmd, "quiet"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "error"
	}
	if f := changed(cmd, "json"); f != nil {
		cfg.JSONLog = f.Value.String() == "true"
	}
	if f := changed(cmd, "no-progress"); f != nil && f.Value.String() == "true" {
		cfg.ShowProgress = false
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"log-file", &cfg.LogFile},
		{"user-agent", &cfg.UserAgent},
		{"selectors", &cfg.SelectorsFile},
		{"output", &cfg.Output},
		{"sql", &cfg.SQLDSN},
		{"redis-addr", &cfg.RedisAddr},
		{"redis-stream", &cfg.RedisStream},
	}
	for _, s := range strs {
		if f := changed(cmd, s.name); f != nil {
			*s.dst = f.Value.String()
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"timeout", &cfg.HTTPTimeout},
		{"delay", &cfg.RequestDelay},
	}
	for _, d := range durations {
		if f := changed(cmd, d.name); f != nil {
			parsed, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return fmt.Errorf("--%s: %w", d.name, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"workers", &cfg.Workers},
		{"concurrency", &cfg.DomainConcurrency},
		{"retry-times", &cfg.RetryAttempts},
		{"max-pages", &cfg.MaxPagesPerSite},
	}
	for _, i := range ints {
		if f := changed(cmd, i.name); f != nil {
			n, err := strconv.Atoi(f.Value.String())
			if err != nil {
				return fmt.Errorf("--%s: %w", i.name, err)
			}
			*i.dst = n
		}
	}

	if changed(cmd, "header") != nil {
		raw, err := cmd.Flags().GetStringArray("header")
		if err != nil {
			return fmt.Errorf("--header: %w", err)
		}
		h, err := headers.ParseHeaders(raw)
		if err != nil {
			return fmt.Errorf("--header: %w", err)
		}
		cfg.Headers = h
	}
	if changed(cmd, "sites") != nil {
		sites, err := cmd.Flags().GetStringSlice("sites")
		if err != nil {
			return fmt.Errorf("--sites: %w", err)
		}
		cfg.Sites = sites
	}
	return nil
}
