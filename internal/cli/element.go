package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

func newElementCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "element",
		Short: "Manage the elements links can reference",
	}
	cmd.AddCommand(newElementAddCmd(f))
	cmd.AddCommand(newElementGetCmd(f))
	cmd.AddCommand(newElementListCmd(f))
	cmd.AddCommand(newElementDeleteCmd(f))
	return cmd
}

func newElementAddCmd(f *rootFlags) *cobra.Command {
	var refs []string
	cmd := &cobra.Command{
		Use:   "add <type> <id> <path>",
		Short: "Add or replace an element",
		Long: `Add stores an element with its display path and the elements it
references. An existing element with the same type and id is replaced.

Example:
  fieldctl element add asset 7 /img/logo.png
  fieldctl element add document 42 /en/home --ref asset:7`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, id, err := parseElementKey(args[0], args[1])
			if err != nil {
				return err
			}
			rec := &types.ElementRecord{Type: t, ID: id, Path: args[2]}
			for _, r := range refs {
				rt, rid, err := parseElementRef(r)
				if err != nil {
					return err
				}
				rec.Refs = append(rec.Refs, types.Dependency{Type: rt, ID: rid})
			}

			return withSession(f, func(s *session) error {
				if err := s.elements.Set(rec); err != nil {
					return err
				}
				s.resolver.Invalidate(t, id)
				if f.jsonMode {
					return printJSON(cmd.OutOrStdout(), rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", types.ElementKey(t, id))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&refs, "ref", nil, "referenced element as type:id (repeatable)")
	return cmd
}

func newElementGetCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, id, err := parseElementKey(args[0], args[1])
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				rec, err := s.elements.Get(t, id)
				if err != nil {
					return fmt.Errorf("get %s: %w", types.ElementKey(t, id), err)
				}
				if f.jsonMode {
					return printJSON(cmd.OutOrStdout(), rec)
				}
				return printElements(cmd, []*types.ElementRecord{rec})
			})
		},
	}
}

func newElementListCmd(f *rootFlags) *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List elements",
		Long: `List shows every stored element ordered by type and id.

Example:
  fieldctl element list
  fieldctl element list --type asset --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := types.ElementTypeNone
			if typeName != "" {
				var err error
				if t, err = types.ParseElementType(typeName); err != nil {
					return err
				}
			}
			return withSession(f, func(s *session) error {
				recs, err := s.elements.Fetch(t)
				if err != nil {
					return err
				}
				if f.jsonMode {
					if recs == nil {
						recs = []*types.ElementRecord{}
					}
					return printJSON(cmd.OutOrStdout(), recs)
				}
				return printElements(cmd, recs)
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "filter by element type (document, asset, object)")
	return cmd
}

func newElementDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete an element",
		Long: `Delete removes an element. Links that referenced it lose the reference
the next time they are read or stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, id, err := parseElementKey(args[0], args[1])
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				if err := s.elements.Delete(t, id); err != nil {
					return fmt.Errorf("delete %s: %w", types.ElementKey(t, id), err)
				}
				s.resolver.Invalidate(t, id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", types.ElementKey(t, id))
				return nil
			})
		},
	}
}

func printElements(cmd *cobra.Command, recs []*types.ElementRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		refs := make([]string, len(r.Refs))
		for i, d := range r.Refs {
			refs[i] = types.ElementKey(d.Type, d.ID)
		}
		rows = append(rows, []string{string(r.Type), strconv.FormatInt(r.ID, 10), r.Path, strings.Join(refs, ",")})
	}
	return printTable(cmd.OutOrStdout(), []string{"TYPE", "ID", "PATH", "REFS"}, rows)
}
