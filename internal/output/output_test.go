package output

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/laptops/pkg/models"
)

func sampleRecords() []models.ListingRecord {
	return []models.ListingRecord{
		{Name: "X1 Carbon", Website: "paklap.pk", Specs: "Core i7, 16GB", Model: "20XW", Price: models.NumericPrice(150000), SourceURL: "https://www.paklap.pk/laptops-prices.html"},
		{Name: "IdeaPad \"Slim\"", Website: "galaxy.pk", Price: models.TextPrice("1.2.3", "multiple decimal points"), SourceURL: "https://www.galaxy.pk/laptops"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")
	sink, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), sampleRecords()))
	require.NoError(t, sink.Write(context.Background(), nil))
	require.NoError(t, sink.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Laptop Name", "Website", "Main Specifications", "Model Type", "Price (PKR)", "URL"}, rows[0])
	assert.Equal(t, []string{"X1 Carbon", "paklap.pk", "Core i7, 16GB", "20XW", "150000", "https://www.paklap.pk/laptops-prices.html"}, rows[1])
	assert.Equal(t, "IdeaPad \"Slim\"", rows[2][0])
	assert.Equal(t, "1.2.3", rows[2][4])
}

func TestCSVSink_HeaderOnlyWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "empty.csv")
	sink, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Columns, rows[0])
}

func TestCSVSink_ConcurrentPagesNotInterleaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")
	sink, err := Open(path)
	require.NoError(t, err)

	const pages, perPage = 20, 15
	var wg sync.WaitGroup
	for p := 0; p < pages; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			recs := make([]models.ListingRecord, perPage)
			for i := range recs {
				recs[i] = models.ListingRecord{
					Name:      fmt.Sprintf("page%02d-item%02d", p, i),
					Website:   "shop.pk",
					Price:     models.NumericPrice(float64(i + 1)),
					SourceURL: fmt.Sprintf("https://shop.pk/?page=%d", p),
				}
			}
			assert.NoError(t, sink.Write(context.Background(), recs))
		}(p)
	}
	wg.Wait()
	require.NoError(t, sink.Close())

	rows := readCSV(t, path)[1:]
	require.Len(t, rows, pages*perPage)
	for start := 0; start < len(rows); start += perPage {
		page := rows[start][5]
		for i := 0; i < perPage; i++ {
			assert.Equal(t, page, rows[start+i][5], "rows of one page must be contiguous")
			assert.True(t, strings.HasSuffix(rows[start+i][0], fmt.Sprintf("item%02d", i)), "page order must be kept")
		}
	}
}

func TestSink_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "a.jsonl", "a.md"} {
		sink, err := Open(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, sink.Close())
		assert.ErrorIs(t, sink.Write(context.Background(), sampleRecords()), ErrClosed, name)
		assert.NoError(t, sink.Close(), "second close is a no-op")
	}
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "laptops.xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpen_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Open(filepath.Join(blocker, "laptops.csv"))
	assert.Error(t, err)
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.jsonl")
	sink, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), sampleRecords()))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "X1 Carbon", lines[0]["name"])
	assert.Equal(t, float64(150000), lines[0]["price"])
	assert.Equal(t, "1.2.3", lines[1]["price"])
}

func TestMarkdownSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.md")
	sink, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), sampleRecords()[:1]))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Laptop Name")
	assert.Contains(t, out, "Price (PKR)")
	assert.Contains(t, out, "X1 Carbon")
	assert.Contains(t, out, "150000")
	assert.Contains(t, out, "|")
}

type failingSink struct {
	err    error
	writes int
	closed bool
}

func (f *failingSink) Write(context.Context, []models.ListingRecord) error {
	f.writes++
	return f.err
}

func (f *failingSink) Close() error {
	f.closed = true
	return f.err
}

func TestMulti_AllFailedIsNotPartial(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{&failingSink{err: boom}, &failingSink{err: boom}}

	err := m.Write(context.Background(), sampleRecords())
	assert.ErrorIs(t, err, boom)
	var partial *PartialWriteError
	assert.False(t, errors.As(err, &partial))
}

func TestNopCloser(t *testing.T) {
	var buf strings.Builder
	s, err := NewCSV(NopCloser(&buf))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, "Laptop Name,Website,Main Specifications,Model Type,Price (PKR),URL\n", buf.String())
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	good, bad := &failingSink{}, &failingSink{err: boom}
	m := Multi{bad, good}

	err := m.Write(context.Background(), sampleRecords())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, good.writes, "a failing sink must not stop the others")

	var partial *PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Written)
	assert.Equal(t, 1, partial.Failed)

	assert.ErrorIs(t, m.Close(), boom)
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}
