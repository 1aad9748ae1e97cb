package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/law-makers/laptops/internal/selectors"
	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List seed URLs and the selector rules each one uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOMAIN\tRULES\tDELAY\tURL")
		for _, seed := range a.Seeds(nil) {
			domain := urlutil.NormalizeDomain(seed)
			rules := domain
			if !a.Registry.Has(domain) {
				rules = selectors.DefaultKey
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", domain, rules, a.RateLimiter.Delay(domain), seed)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
