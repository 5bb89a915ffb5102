package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Compare two lockfiles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			changes, err := c.app.Diff(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return reportChanges(cmd.OutOrStdout(), changes, asJSON)
		},
	}
}
