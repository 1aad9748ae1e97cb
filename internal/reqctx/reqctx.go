// Package reqctx carries per-page request metadata through a crawl so that
// fetch, parse and sink log lines for one page can be correlated.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
)

type key int

const requestKey key = 0

// RequestContext describes one page request
type RequestContext struct {
	RequestID string
	URL       string
	Depth     int
	StartTime time.Time
}

// WithRequestContext attaches a fresh RequestContext for pageURL to ctx
func WithRequestContext(ctx context.Context, pageURL string, depth int) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: generateID(),
		URL:       pageURL,
		Depth:     depth,
		StartTime: time.Now(),
	})
}

// GetRequestContext returns the RequestContext of ctx, or a placeholder
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx != nil {
		if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// Fields adds the request's identifiers to a zerolog context
func (rc *RequestContext) Fields(c zerolog.Context) zerolog.Context {
	c = c.Str("request_id", rc.RequestID)
	if rc.URL != "" {
		c = c.Str("url", rc.URL).Int("depth", rc.Depth)
	}
	return c
}

// Elapsed is the time since the request started
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
