package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade [targets...]",
		Short: "Discard locked packages and resolve them anew",
		Long: `Discard the locked state of the targeted packages and relock. A target
names a resolution group, or an install id that is the only member of its
group. With no arguments everything is upgraded.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			_, changes, err := c.app.Upgrade(cmd.Context(), paths(cmd), args)
			if err != nil {
				return err
			}
			return reportChanges(cmd.OutOrStdout(), changes, asJSON)
		},
	}
}
