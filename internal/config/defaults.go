package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultRequestDelay      = 2 * time.Second
	DefaultDomainConcurrency = 2
	DefaultRetryAttempts     = 5
	DefaultWorkers           = 16
	DefaultMaxWorkers        = 64
	DefaultMaxPagesPerSite   = 0
	DefaultOutput            = "laptops.csv"
	DefaultRedisStream       = "laptops"
	DefaultRedisMaxLen       = 10000
	DefaultShowProgress      = true
)

// DefaultRetryCodes are the HTTP statuses retried by default
var DefaultRetryCodes = []int{500, 502, 503, 504, 522, 524, 408}

// EnvPrefix prefixes every environment variable the application reads
const EnvPrefix = "LAPTOPS_"
