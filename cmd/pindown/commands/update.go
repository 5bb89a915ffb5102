package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [inputs...]",
		Short: "Re-pin registry inputs and relock",
		Long: `Re-pin the named registry inputs to their latest indexed revision and
relock the manifest. With no arguments every input is refreshed.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			_, changes, err := c.app.Update(cmd.Context(), paths(cmd), args)
			if err != nil {
				return err
			}
			return reportChanges(cmd.OutOrStdout(), changes, asJSON)
		},
	}
}
