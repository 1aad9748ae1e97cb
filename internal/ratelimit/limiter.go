// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// RateLimiter defines the politeness policy applied before every request.
//
// Implementations work per domain so that one slow shop never holds back
// requests to the others.
type RateLimiter interface {
	// Acquire blocks until a request for urlStr may start. The returned
	// release func must be called once the request is finished.
	Acquire(ctx context.Context, urlStr string) (release func(), err error)
}

// DomainLimiter spaces requests to the same domain by a fixed delay and caps
// how many of them may be in flight at once.
type DomainLimiter struct {
	domains     map[string]*domainLimit
	mu          sync.Mutex
	delay       time.Duration
	concurrency int64
}

type domainLimit struct {
	pace  *rate.Limiter
	slots *semaphore.Weighted
}

// NewDomainLimiter creates a limiter allowing one request start per delay and
// at most concurrency requests in flight per domain
func NewDomainLimiter(delay time.Duration, concurrency int) *DomainLimiter {
	if concurrency <= 0 {
		concurrency = 2
	}
	if delay < 0 {
		delay = 0
	}

	return &DomainLimiter{
		domains:     make(map[string]*domainLimit),
		delay:       delay,
		concurrency: int64(concurrency),
	}
}

// Acquire waits for a concurrency slot, then for the domain's pacing delay
func (dl *DomainLimiter) Acquire(ctx context.Context, urlStr string) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	domain := urlutil.NormalizeDomain(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return func() {}, nil
	}

	l := dl.get(domain)
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := l.pace.Wait(ctx); err != nil {
		l.slots.Release(1)
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { l.slots.Release(1) }) }, nil
}

// SetDelay changes the pacing delay of one domain
func (dl *DomainLimiter) SetDelay(domain string, delay time.Duration) {
	dl.get(urlutil.NormalizeDomain(domain)).pace.SetLimit(limitFor(delay))
}

// Delay returns the pacing delay applied to domain
func (dl *DomainLimiter) Delay(domain string) time.Duration {
	limit := dl.get(urlutil.NormalizeDomain(domain)).pace.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(time.Second) / float64(limit)))
}

func (dl *DomainLimiter) get(domain string) *domainLimit {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if l, ok := dl.domains[domain]; ok {
		return l
	}

	l := &domainLimit{
		pace:  rate.NewLimiter(limitFor(dl.delay), 1),
		slots: semaphore.NewWeighted(dl.concurrency),
	}
	dl.domains[domain] = l
	return l
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}
