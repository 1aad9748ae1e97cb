package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/law-makers/laptops/pkg/models"
)

// CSVSink writes records as rows under the fixed listing header
type CSVSink struct {
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

// NewCSV writes the header to w and returns a sink appending to it
func NewCSV(w io.WriteCloser) (*CSVSink, error) {
	s := &CSVSink{w: w}
	if err := s.writeRows([][]string{models.Columns}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return s, nil
}

// Write encodes all records first and appends them with a single write
func (s *CSVSink) Write(_ context.Context, records []models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.writeRows(rows)
}

func (s *CSVSink) writeRows(rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	_, err := s.w.Write(buf.Bytes())
	return err
}

// Close closes the underlying writer; later writes fail with ErrClosed
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}
