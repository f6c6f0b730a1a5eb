package cmd

import (
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the canonical dataset from the city data portal feed.",
		Long: `sync fetches the authoritative ward feed, normalizes it into the
canonical schema, diffs it against the previous snapshot, persists a new
dataset version, and writes the field-level change report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			_, err = appInstance.RunSync(cmd.Context())
			return err
		},
	}
}
