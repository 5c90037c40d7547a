package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/internal/idmap"
	"github.com/mesh-intelligence/datafields/pkg/sqlite"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

func newRemapCmd(f *rootFlags) *cobra.Command {
	var (
		mappingFile string
		record      string
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Rewrite the element ids stored links reference",
		Long: `Remap translates the internal reference of every stored link through an
id mapping file and stores the changed values in one batch. References
without a mapping entry are left alone.

Example:
  fieldctl remap --mapping ids.yaml
  fieldctl remap --mapping ids.yaml --record r1 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mapper, err := idmap.LoadFile(mappingFile)
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				links, err := s.records.FetchLinks(record)
				if err != nil {
					return err
				}

				var changed []sqlite.StoredLink
				rows := [][]string{}
				for _, sl := range links {
					if sl.Link == nil || sl.Link.LinkType != types.LinkTypeInternal {
						continue
					}
					before := types.ElementKey(sl.Link.InternalType, sl.Link.Internal)
					s.codec.RemapIDs(sl.Link, mapper.Mapping())
					after := types.ElementKey(sl.Link.InternalType, sl.Link.Internal)
					if before == after {
						continue
					}
					changed = append(changed, sl)
					rows = append(rows, []string{sl.Owner.RecordID, sl.Owner.FieldName, sl.Owner.Language, before, after})
				}

				if !dryRun && len(changed) > 0 {
					if err := s.records.SaveLinks(changed); err != nil {
						return fmt.Errorf("save links: %w", err)
					}
				}
				if f.jsonMode {
					out := make([]map[string]any, 0, len(rows))
					for _, r := range rows {
						m := ownerJSON(types.Owner{RecordID: r[0], FieldName: r[1], Language: r[2]})
						m["from"], m["to"] = r[3], r[4]
						out = append(out, m)
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				if err := printTable(cmd.OutOrStdout(), []string{"RECORD", "FIELD", "LANGUAGE", "FROM", "TO"}, rows); err != nil {
					return err
				}
				verb := "Remapped"
				if dryRun {
					verb = "Would remap"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d values\n", verb, len(changed))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "id mapping file (YAML)")
	cmd.Flags().StringVar(&record, "record", "", "only values of this record")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the changes without storing them")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}
