package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/pkg/datafields"
)

func newVersionCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fieldctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": datafields.Version,
					"module":  datafields.ModulePath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fieldctl v%s\nmodule: %s\n", datafields.Version, datafields.ModulePath)
			return nil
		},
	}
}
