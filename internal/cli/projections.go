package cli

import (
	"github.com/spf13/cobra"

	"github.com/geodetic-io/cartograph/pkg/projection"
)

// newProjectionsCmd creates the "projections" command.
func newProjectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projections",
		Short: "List the available map projections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := projection.Names()
			printInfo("%d projections available", len(names))
			for _, name := range names {
				printDetail("%s", name)
			}
			return nil
		},
	}
}
