package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the wms release, overridden at build time with -ldflags.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/wmslite"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wms version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wms v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
