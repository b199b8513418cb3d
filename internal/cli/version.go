package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/pkg/rackgrid"
)

const modulePath = "github.com/mesh-intelligence/rackgrid"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rackgrid version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(out(cmd), "rackgrid v%s\nmodule: %s\n", rackgrid.Version, modulePath)
			return nil
		},
	}
}
