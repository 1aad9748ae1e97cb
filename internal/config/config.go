package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/laptops/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	LogFile  string

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	Headers     map[string]string

	// Politeness, applied per domain
	RequestDelay      time.Duration
	DomainConcurrency int

	// Retry
	RetryAttempts int
	RetryCodes    []int

	// Crawl
	Workers         int
	MaxPagesPerSite int
	Sites           []string
	ShowProgress    bool

	// Output
	Output        string
	SelectorsFile string
	SQLDSN        string
	RedisAddr     string
	RedisDB       int
	RedisStream   string
	RedisMaxLen   int64
}

// Defaults returns a Config holding only default values
func Defaults() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		RequestDelay:      DefaultRequestDelay,
		DomainConcurrency: DefaultDomainConcurrency,
		RetryAttempts:     DefaultRetryAttempts,
		RetryCodes:        append([]int(nil), DefaultRetryCodes...),
		Workers:           DefaultWorkers,
		MaxPagesPerSite:   DefaultMaxPagesPerSite,
		ShowProgress:      DefaultShowProgress,
		Output:            DefaultOutput,
		RedisStream:       DefaultRedisStream,
		RedisMaxLen:       DefaultRedisMaxLen,
	}
}

// Load builds a Config by combining defaults, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func env(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func applyEnv(cfg *Config) error {
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := env("JSON_LOG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sJSON_LOG: %w", EnvPrefix, err)
		}
		cfg.JSONLog = b
	}
	if v, ok := env("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := env("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := env("OUTPUT"); ok {
		cfg.Output = v
	}
	if v, ok := env("SELECTORS"); ok {
		cfg.SelectorsFile = v
	}
	if v, ok := env("SQL_DSN"); ok {
		cfg.SQLDSN = v
	}
	if v, ok := env("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	if v, ok := env("REDIS_STREAM"); ok {
		cfg.RedisStream = v
	}
	if v, ok := env("HEADERS"); ok {
		h, err := headers.ParseHeaders(strings.Split(v, ";"))
		if err != nil {
			return fmt.Errorf("%sHEADERS: %w", EnvPrefix, err)
		}
		cfg.Headers = h
	}
	if v, ok := env("SITES"); ok {
		cfg.Sites = splitList(v)
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &cfg.HTTPTimeout},
		{"DELAY", &cfg.RequestDelay},
	}
	for _, d := range durations {
		if v, ok := env(d.name); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CONCURRENCY", &cfg.DomainConcurrency},
		{"RETRY_TIMES", &cfg.RetryAttempts},
		{"WORKERS", &cfg.Workers},
		{"MAX_PAGES", &cfg.MaxPagesPerSite},
		{"REDIS_DB", &cfg.RedisDB},
	}
	for _, i := range ints {
		if v, ok := env(i.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, i.name, err)
			}
			*i.dst = n
		}
	}

	if v, ok := env("REDIS_MAXLEN"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sREDIS_MAXLEN: %w", EnvPrefix, err)
		}
		cfg.RedisMaxLen = n
	}
	if v, ok := env("RETRY_CODES"); ok {
		codes, err := ParseCodes(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_CODES: %w", EnvPrefix, err)
		}
		cfg.RetryCodes = codes
	}
	return nil
}

// ParseCodes parses a comma separated list of HTTP status codes
func ParseCodes(s string) ([]int, error) {
	var codes []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid status code %q", part)
		}
		codes = append(codes, n)
	}
	return codes, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
