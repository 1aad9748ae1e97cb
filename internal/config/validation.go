package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func validate(c *Config) error {
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay must be >= 0")
	}
	if c.DomainConcurrency <= 0 {
		return fmt.Errorf("per-domain concurrency must be > 0")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be > 0")
	}
	for _, code := range c.RetryCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("retry code %d is not an HTTP status", code)
		}
	}
	if c.Workers <= 0 || c.Workers > DefaultMaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxWorkers)
	}
	if c.MaxPagesPerSite < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output path is required")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis db must be >= 0")
	}
	return nil
}
