package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Resolve the manifest and write the lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			_, changes, err := c.app.Lock(cmd.Context(), paths(cmd))
			if err != nil {
				return err
			}
			return reportChanges(cmd.OutOrStdout(), changes, asJSON)
		},
	}
}
