package output

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/law-makers/laptops/pkg/models"
)

// MarkdownSink collects records and renders them as a GitHub-flavored table on Close
type MarkdownSink struct {
	mu      sync.Mutex
	w       io.WriteCloser
	records []models.ListingRecord
	closed  bool
}

// NewMarkdown returns a Markdown table sink over w
func NewMarkdown(w io.WriteCloser) *MarkdownSink {
	return &MarkdownSink{w: w}
}

func (s *MarkdownSink) Write(_ context.Context, records []models.ListingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records = append(s.records, records...)
	return nil
}

// Close renders the table, writes it and closes the writer
func (s *MarkdownSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	out, err := RenderMarkdown(s.records)
	if err != nil {
		s.w.Close()
		return err
	}
	if _, err := io.WriteString(s.w, out); err != nil {
		s.w.Close()
		return err
	}
	return s.w.Close()
}

// RenderMarkdown converts records into a Markdown table
func RenderMarkdown(records []models.ListingRecord) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	mdStr, err := converter.ConvertString(recordsTable(records))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return mdStr + "\n", nil
}

func recordsTable(records []models.ListingRecord) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, c := range models.Columns {
		b.WriteString("<th>" + html.EscapeString(c) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, r := range records {
		b.WriteString("<tr>")
		row := r.Row()
		for i, cell := range row {
			if i == len(row)-1 && cell != "" {
				esc := html.EscapeString(cell)
				b.WriteString(`<td><a href="` + esc + `">` + esc + "</a></td>")
				continue
			}
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
