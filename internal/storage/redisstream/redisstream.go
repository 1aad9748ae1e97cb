// Package redisstream publishes listing records to a Redis stream
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/law-makers/laptops/internal/output"
	"github.com/law-makers/laptops/pkg/models"
)

// DefaultStream is the stream key used when none is configured
const DefaultStream = "laptops"

// Sink appends one stream entry per record. Entries carry the website as a
// plain field and the full record as JSON.
type Sink struct {
	client *redis.Client
	stream string
	maxLen int64

	mu     sync.Mutex
	closed bool
}

var _ output.Sink = (*Sink)(nil)

// New creates a stream sink. maxLen > 0 trims the stream approximately to
// that many entries on every write.
func New(addr string, db int, stream string, maxLen int64) *Sink {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return newSink(client, stream, maxLen)
}

func newSink(client *redis.Client, stream string, maxLen int64) *Sink {
	if stream == "" {
		stream = DefaultStream
	}
	return &Sink{client: client, stream: stream, maxLen: maxLen}
}

// Ping checks that the server is reachable
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Write adds records to the stream in one pipeline
func (s *Sink) Write(ctx context.Context, records []models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return output.ErrClosed
	}

	pipe := s.client.TxPipeline()
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		args := &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"website": r.Website,
				"record":  payload,
			},
		}
		if s.maxLen > 0 {
			args.MaxLen = s.maxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
