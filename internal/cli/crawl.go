// internal/cli/crawl.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/laptops/internal/config"
	"github.com/law-makers/laptops/internal/crawler"
	"github.com/law-makers/laptops/internal/ui"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [url...]",
	Short: "Crawl shop listing pages and save laptop records",
	Long: `Fetches every seed URL (the built-in shop list unless URLs are given),
extracts laptop listings with the selectors registered for the page's domain,
and follows next-page links until a site runs out of pages.

Records missing a name or a price are discarded. Records are written to
laptops.csv by default.`,
	Example: `  # Crawl every known shop into laptops.csv
  laptops crawl

  # Crawl two shops into JSON Lines
  laptops crawl --sites paklap.pk,galaxy.pk -o laptops.jsonl

  # Crawl one listing URL, at most 3 pages, and also store in sqlite
  laptops crawl https://www.paklap.pk/laptops-prices.html --max-pages 3 --sql sqlite://laptops.db`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	config.RegisterCrawlFlags(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	for _, u := range args {
		if err := urlutil.ValidateURL(u); err != nil {
			return fmt.Errorf("%s: %w", u, err)
		}
	}
	seeds := a.Seeds(args)
	if len(seeds) == 0 {
		return fmt.Errorf("no seed URLs match --sites %v", a.Config.Sites)
	}

	ctx := cmd.Context()
	sink, err := a.OpenSink(ctx)
	if err != nil {
		return err
	}

	bar := newPageBar(cmd.ErrOrStderr(), a.Config)
	onPage := func(r crawler.PageReport) {
		if bar == nil {
			return
		}
		bar.Describe(fmt.Sprintf("%-14s %3d laptops", r.Site, r.Records))
		_ = bar.Add(1)
	}

	log.Info().Int("seeds", len(seeds)).Str("output", a.Config.Output).Msg("Starting crawl")
	stats, runErr := a.NewCrawler(sink, onPage).Run(ctx, seeds)

	if bar != nil {
		_ = bar.Finish()
	}
	if err := sink.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing output")
	}

	printSummary(cmd.OutOrStdout(), a.Config.Output, stats)

	if errors.Is(runErr, context.Canceled) {
		log.Warn().Msg("Crawl interrupted, partial results saved")
		return nil
	}
	return runErr
}

// newPageBar returns a spinner counting pages, or nil when it would clash with the logs
func newPageBar(w io.Writer, cfg *config.Config) *progressbar.ProgressBar {
	if !cfg.ShowProgress || cfg.JSONLog || cfg.LogLevel == "debug" || cfg.Output == "-" {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("crawling"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(w io.Writer, outputPath string, s crawler.Stats) {
	if outputPath == "-" {
		return
	}
	fmt.Fprintf(w, "\n%s\n", ui.Bold("Crawl Summary:"))
	fmt.Fprintf(w, "  %-14s %s\n", "Pages:", ui.ColorWhite+fmt.Sprint(s.Pages)+ui.ColorReset)
	fmt.Fprintf(w, "  %-14s %s\n", "Laptops:", ui.Success(fmt.Sprint(s.Records)))
	fmt.Fprintf(w, "  %-14s %s\n", "Discarded:", ui.Info(fmt.Sprint(s.Discarded)))
	if failed := s.FetchErrors + s.ParseErrors + s.WriteErrors; failed > 0 {
		fmt.Fprintf(w, "  %-14s %s\n", "Failed pages:", ui.Error(fmt.Sprint(failed)))
	}
	fmt.Fprintf(w, "  %-14s %s\n", "Duration:", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  %-14s %s\n", "Output:", outputPath)
}
