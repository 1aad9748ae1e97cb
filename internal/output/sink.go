// Package output persists accepted listing records.
//
// Every sink accepts one page's records per Write and serializes concurrent
// writers, so records of different pages are never interleaved.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/laptops/pkg/models"
)

var (
	// ErrClosed is returned by Write after Close
	ErrClosed = errors.New("sink is closed")
	// ErrUnsupportedFormat is returned by Open for unknown file extensions
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Sink is an append-only destination for listing records
type Sink interface {
	// Write appends records as one unit
	Write(ctx context.Context, records []models.ListingRecord) error
	// Close flushes and releases the sink
	Close() error
}

// Open creates the file at path and returns a sink for its extension:
// .csv, .jsonl / .ndjson or .md / .markdown. The path "-" writes CSV to stdout.
func Open(path string) (Sink, error) {
	if path == "-" {
		return NewCSV(NopCloser(os.Stdout))
	}

	var build func(io.WriteCloser) (Sink, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		build = func(w io.WriteCloser) (Sink, error) { return NewCSV(w) }
	case ".jsonl", ".ndjson":
		build = func(w io.WriteCloser) (Sink, error) { return NewJSONL(w), nil }
	case ".md", ".markdown":
		build = func(w io.WriteCloser) (Sink, error) { return NewMarkdown(w), nil }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	sink, err := build(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return sink, nil
}

// NopCloser returns a WriteCloser whose Close leaves w open
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// PartialWriteError is a Multi write that reached some sinks but not all
type PartialWriteError struct {
	Written int
	Failed  int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%d of %d sinks failed: %v", e.Failed, e.Written+e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Multi fans every write out to several sinks
type Multi []Sink

// Write writes to every sink and joins their errors. When at least one sink
// stored the records the error is a *PartialWriteError.
func (m Multi) Write(ctx context.Context, records []models.ListingRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	switch {
	case len(errs) == 0:
		return nil
	case len(errs) < len(m):
		return &PartialWriteError{Written: len(m) - len(errs), Failed: len(errs), Err: errors.Join(errs...)}
	default:
		return errors.Join(errs...)
	}
}

// Close closes every sink, even when some fail
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
