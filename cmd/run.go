package cmd

import (
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the crawl and then the feed sync.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := appInstance.RunCrawl(cmd.Context()); err != nil {
				return err
			}
			_, err = appInstance.RunSync(cmd.Context())
			return err
		},
	}
}
