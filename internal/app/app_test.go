package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/laptops/internal/config"
	"github.com/law-makers/laptops/internal/output"
	"github.com/law-makers/laptops/internal/selectors"
	"github.com/law-makers/laptops/pkg/models"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Defaults()
	cfg.LogLevel = "error"
	cfg.Output = filepath.Join(t.TempDir(), "laptops.csv")
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew(t *testing.T) {
	a := newTestApp(t, nil)
	assert.NotNil(t, a.Fetcher)
	assert.NotNil(t, a.Parser)
	assert.True(t, a.Registry.Has("paklap.pk"))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestNew_InvalidSelectorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites:\n  shop.pk:\n    item: \"div[\"\n"), 0o644))

	cfg := config.Defaults()
	cfg.LogLevel = "error"
	cfg.SelectorsFile = path
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_SiteDelayFromSelectorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites:\n  paklap.pk:\n    item: .product-item\n    name: .product-name::text\n    price: .price::text\n    delay: 7s\n"), 0o644))

	a := newTestApp(t, func(c *config.Config) {
		c.SelectorsFile = path
		c.RequestDelay = time.Second
	})
	assert.Equal(t, 7*time.Second, a.RateLimiter.Delay("paklap.pk"))
	assert.Equal(t, time.Second, a.RateLimiter.Delay("technox.pk"), "other sites keep the global delay")
}

func TestOpenSink_FileAndSQL(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, func(c *config.Config) {
		c.Output = filepath.Join(dir, "out.jsonl")
		c.SQLDSN = "sqlite://" + filepath.Join(dir, "laptops.db")
	})

	sink, err := a.OpenSink(context.Background())
	require.NoError(t, err)
	multi, ok := sink.(output.Multi)
	require.True(t, ok, "file and sql sinks should be combined")
	assert.Len(t, multi, 2)

	rec := models.ListingRecord{Name: "A", Website: "paklap.pk", Price: models.NumericPrice(1), SourceURL: "https://paklap.pk/"}
	require.NoError(t, sink.Write(context.Background(), []models.ListingRecord{rec}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"A"`)
}

func TestOpenSink_FailureAborts(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.SQLDSN = "oracle://nowhere"
	})
	_, err := a.OpenSink(context.Background())
	assert.Error(t, err)
}

func TestSeeds(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, selectors.StartURLs(), a.Seeds(nil))

	explicit := []string{"https://www.paklap.pk/laptops-prices.html"}
	assert.Equal(t, explicit, a.Seeds(explicit))

	a.Config.Sites = []string{"www.PakLap.pk"}
	for _, s := range a.Seeds(nil) {
		assert.Contains(t, s, "paklap.pk")
	}
	assert.NotEmpty(t, a.Seeds(nil))
}

func TestFilterSites(t *testing.T) {
	seeds := []string{"https://galaxy.pk/laptops/", "https://www.paklap.pk/laptops-prices.html"}
	assert.Equal(t, seeds, FilterSites(seeds, nil))
	assert.Equal(t, []string{"https://galaxy.pk/laptops/"}, FilterSites(seeds, []string{"galaxy.pk"}))
	assert.Empty(t, FilterSites(seeds, []string{"unknown.pk"}))
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "laptops.log")
	a := newTestApp(t, func(c *config.Config) {
		c.LogLevel = "debug"
		c.LogFile = path
	})
	a.Logger.Error().Msg("written to file")
	require.NoError(t, a.Close(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
