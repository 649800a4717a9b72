// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the facetctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "facetctl",
		Short:         "Launch clusters of servers on Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Launch())
	cmd.AddCommand(Version())

	return cmd
}
