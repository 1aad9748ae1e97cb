package output

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/law-makers/laptops/pkg/models"
)

// JSONLSink writes one JSON object per record and line
type JSONLSink struct {
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

// NewJSONL returns a JSON Lines sink over w
func NewJSONL(w io.WriteCloser) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) Write(_ context.Context, records []models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := s.w.Write(buf.Bytes())
	return err
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}
