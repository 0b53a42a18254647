package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the organization admin CLI. Subcommands (bootstrap, org, auth) are attached here.
var rootCmd = &cobra.Command{
	Use:           "orgadmin",
	Short:         "Palmyra organization admin CLI",
	Long:          "Administrative utilities for the organization directory (schema bootstrap, organization management, tenant data seeding, admin tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
