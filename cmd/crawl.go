package cmd

import (
	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run the multi-stage ward crawl pipeline.",
		Long: `crawl walks the ward directory, each ward's profile page, discovered
alderman sites, and their typed subpages, honoring robots directives and
per-host politeness. Results land in the report directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			_, err = appInstance.RunCrawl(cmd.Context())
			return err
		},
	}
}
