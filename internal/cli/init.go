package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize fieldctl storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				if f.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]string{
						"data_dir":    s.config.DataDir,
						"blob_format": s.config.GetBlobFormat(),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized storage in %s\n", s.config.DataDir)
				return nil
			})
		},
	}
}
