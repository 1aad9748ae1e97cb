package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/laptops/internal/dom"
	"github.com/law-makers/laptops/internal/output"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

var parseURL string

// parseCmd runs the page parser on a saved listing page
var parseCmd = &cobra.Command{
	Use:   "parse <file.html>",
	Short: "Extract laptop records from a saved listing page",
	Long: `Parses a saved HTML page as if it had been fetched from --url and prints
the accepted records as CSV. Useful when checking selectors against a shop.`,
	Example: `  laptops parse page.html --url https://www.paklap.pk/laptops-prices.html`,
	Args:    cobra.ExactArgs(1),
	RunE:    runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseURL, "url", "u", "", "URL the page was fetched from (selects the rule set)")
	_ = parseCmd.MarkFlagRequired("url")
}

func runParse(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	if err := urlutil.ValidateURL(parseURL); err != nil {
		return fmt.Errorf("--url: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	page, err := dom.NewDocument(f, parseURL)
	if err != nil {
		return err
	}

	res := a.Parser.Parse(page, parseURL)
	if res.Err != nil {
		return res.Err
	}

	sink, err := output.NewCSV(output.NopCloser(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	if err := sink.Write(cmd.Context(), res.Records); err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	log.Info().
		Int("listings", res.Listings).
		Int("records", len(res.Records)).
		Int("discarded", res.Discarded).
		Str("next", res.Next).
		Msg("Page parsed")
	return nil
}
