// Package commands implements the CLI commands for the pindown tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pindown/pindown/internal/app"
	"github.com/pindown/pindown/internal/build"
	"github.com/pindown/pindown/internal/core/domain"
	"github.com/spf13/cobra"
)

// CLI represents the command line interface for pindown.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Lock(ctx context.Context, paths app.Paths) (*domain.Lockfile, []domain.Change, error)
	Update(ctx context.Context, paths app.Paths, names []string) (*domain.Lockfile, []domain.Change, error)
	Upgrade(ctx context.Context, paths app.Paths, targets []string) (*domain.Lockfile, []domain.Change, error)
	Diff(ctx context.Context, beforePath, afterPath string) ([]domain.Change, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pindown",
		Short:         "Resolve declarative package manifests into deterministic lockfiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("manifest", "m", "manifest.toml", "Path to the package manifest")
	rootCmd.PersistentFlags().StringP("lockfile", "l", "manifest.lock", "Path to the lockfile")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newUpgradeCmd())
	rootCmd.AddCommand(c.newDiffCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// paths reads the shared manifest and lockfile flags.
func paths(cmd *cobra.Command) app.Paths {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	lockfilePath, _ := cmd.Flags().GetString("lockfile")
	return app.Paths{Manifest: manifestPath, Lockfile: lockfilePath}
}
