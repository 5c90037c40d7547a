package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// attrFlagNames are the link attributes settable by a flag of the same
// name.
var attrFlagNames = []string{
	"text", "title", "class", "target", "accesskey", "rel", "tabindex", "parameters", "anchor",
}

// ownerFlags name the record field a command works on.
type ownerFlags struct {
	record   string
	field    string
	language string
}

func (o *ownerFlags) bind(cmd *cobra.Command, recordRequired bool) {
	cmd.Flags().StringVar(&o.record, "record", "", "record id")
	cmd.Flags().StringVar(&o.field, "field", "", "field name")
	cmd.Flags().StringVar(&o.language, "language", "", "field language")
	_ = cmd.MarkFlagRequired("field")
	if recordRequired {
		_ = cmd.MarkFlagRequired("record")
	}
}

func (o *ownerFlags) owner() types.Owner {
	return types.Owner{RecordID: o.record, FieldName: o.field, Language: o.language}
}

// linkFlags describe a link value on the command line.
type linkFlags struct {
	form     string
	direct   string
	internal string
}

func (l *linkFlags) bind(cmd *cobra.Command) {
	for _, name := range attrFlagNames {
		cmd.Flags().String(name, "", "link "+name)
	}
	cmd.Flags().StringVar(&l.direct, "direct", "", "direct URL")
	cmd.Flags().StringVar(&l.internal, "internal", "", "referenced element as type:id")
	cmd.Flags().StringVar(&l.form, "form", "", "editor form as a JSON object; flags override its keys")
	cmd.MarkFlagsMutuallyExclusive("direct", "internal")
}

// editorForm builds the editor form described by the flags. Only flags
// given on the command line contribute.
func (l *linkFlags) editorForm(cmd *cobra.Command) (map[string]any, error) {
	form := map[string]any{}
	if l.form != "" {
		if err := json.Unmarshal([]byte(l.form), &form); err != nil {
			return nil, fmt.Errorf("%w: --form: %v", types.ErrInvalidData, err)
		}
	}
	for _, name := range attrFlagNames {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			form[name] = v
		}
	}
	if cmd.Flags().Changed("direct") {
		form["linktype"] = string(types.LinkTypeDirect)
		form["direct"] = l.direct
	}
	if cmd.Flags().Changed("internal") {
		t, id, err := parseElementRef(l.internal)
		if err != nil {
			return nil, err
		}
		form["linktype"] = string(types.LinkTypeInternal)
		form["internalType"] = string(t)
		form["internal"] = id
	}
	return form, nil
}

func newLinkCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Store and inspect link field values",
	}
	cmd.AddCommand(newLinkSetCmd(f))
	cmd.AddCommand(newLinkGetCmd(f))
	cmd.AddCommand(newLinkDeleteCmd(f))
	cmd.AddCommand(newLinkListCmd(f))
	cmd.AddCommand(newLinkDepsCmd(f))
	cmd.AddCommand(newLinkSearchCmd(f))
	cmd.AddCommand(newLinkDiffCmd(f))
	return cmd
}

func newLinkSetCmd(f *rootFlags) *cobra.Command {
	var (
		of ownerFlags
		lf linkFlags
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a link value",
		Long: `Set replaces the value of a record field. The reference given by
--internal must exist. A record id is generated when --record is omitted.
A value with no text, path, URL or reference clears the field.

Example:
  fieldctl link set --record r1 --field cta --text Home --internal document:42
  fieldctl link set --field cta --text Docs --direct https://example.test --target _blank`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := lf.editorForm(cmd)
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				l, err := s.codec.FromEditorForm(form)
				if err != nil {
					return err
				}
				if err := s.codec.Validate(l, false); err != nil {
					return err
				}
				// A value holding only the derived path stores nothing.
				data, err := s.codec.EncodeForStorage(l)
				if err != nil {
					return err
				}
				owner, err := s.records.SaveLink(of.owner(), l)
				if err != nil {
					return fmt.Errorf("save link: %w", err)
				}
				if f.jsonMode {
					return printJSON(cmd.OutOrStdout(), ownerJSON(owner))
				}
				if data == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s/%s\n", owner.RecordID, owner.FieldName)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s/%s\n", owner.RecordID, owner.FieldName)
				return nil
			})
		},
	}
	of.bind(cmd, false)
	lf.bind(cmd)
	return cmd
}

func newLinkGetCmd(f *rootFlags) *cobra.Command {
	var of ownerFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a stored link value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				l, err := s.records.LoadLink(of.owner())
				if err != nil {
					return fmt.Errorf("load link: %w", err)
				}
				form := s.codec.ToEditorForm(l)
				preview := s.codec.VersionPreview(l)
				if f.jsonMode {
					out := ownerJSON(of.owner())
					out["value"] = form
					out["html"] = preview
					return printJSON(cmd.OutOrStdout(), out)
				}
				rows := make([][]string, 0, len(form)+1)
				for _, k := range slices.Sorted(maps.Keys(form)) {
					rows = append(rows, []string{k, fmt.Sprint(form[k])})
				}
				rows = append(rows, []string{"html", preview})
				return printTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, rows)
			})
		},
	}
	of.bind(cmd, true)
	return cmd
}

func newLinkDeleteCmd(f *rootFlags) *cobra.Command {
	var of ownerFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Clear a stored link value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				if err := s.records.DeleteLink(of.owner()); err != nil {
					return fmt.Errorf("delete link: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", of.record, of.field)
				return nil
			})
		},
	}
	of.bind(cmd, true)
	return cmd
}

func newLinkListCmd(f *rootFlags) *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored link values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				links, err := s.records.FetchLinks(record)
				if err != nil {
					return err
				}
				if f.jsonMode {
					out := make([]map[string]any, 0, len(links))
					for _, sl := range links {
						m := ownerJSON(sl.Owner)
						m["value"] = s.codec.ToEditorForm(sl.Link)
						out = append(out, m)
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				rows := make([][]string, 0, len(links))
				for _, sl := range links {
					label, _ := s.codec.DiffPreview(sl.Link)
					rows = append(rows, []string{
						sl.Owner.RecordID, sl.Owner.FieldName, sl.Owner.Language,
						label, s.codec.DisplayPath(sl.Link),
					})
				}
				return printTable(cmd.OutOrStdout(), []string{"RECORD", "FIELD", "LANGUAGE", "LABEL", "PATH"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "only values of this record")
	return cmd
}

func newLinkDepsCmd(f *rootFlags) *cobra.Command {
	var of ownerFlags
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the elements and cache tags a link value depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				l, err := s.records.LoadLink(of.owner())
				if err != nil {
					return fmt.Errorf("load link: %w", err)
				}
				deps := s.codec.Dependencies(l)
				tags := slices.Sorted(maps.Keys(s.codec.CacheTags(l, nil)))
				keys := slices.Sorted(maps.Keys(deps))

				if f.jsonMode {
					list := make([]types.Dependency, 0, len(keys))
					for _, k := range keys {
						list = append(list, deps[k])
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"dependencies": list,
						"cache_tags":   tags,
					})
				}
				rows := make([][]string, 0, len(keys)+len(tags))
				for _, k := range keys {
					rows = append(rows, []string{"dependency", k})
				}
				for _, tag := range tags {
					rows = append(rows, []string{"cache tag", tag})
				}
				return printTable(cmd.OutOrStdout(), []string{"KIND", "KEY"}, rows)
			})
		},
	}
	of.bind(cmd, true)
	return cmd
}

func newLinkSearchCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find link values whose query column contains term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				owners, err := s.records.SearchQuery(args[0])
				if err != nil {
					return err
				}
				if f.jsonMode {
					out := make([]map[string]any, 0, len(owners))
					for _, o := range owners {
						out = append(out, ownerJSON(o))
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				rows := make([][]string, 0, len(owners))
				for _, o := range owners {
					rows = append(rows, []string{o.RecordID, o.FieldName, o.Language})
				}
				return printTable(cmd.OutOrStdout(), []string{"RECORD", "FIELD", "LANGUAGE"}, rows)
			})
		},
	}
}

func newLinkDiffCmd(f *rootFlags) *cobra.Command {
	var (
		of ownerFlags
		lf linkFlags
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare a stored value with the value the flags describe",
		Long: `Diff renders the stored value and the value that "link set" would
store with the same flags, and prints the difference of the two renderings.
Deleted text is shown as [-text-] and inserted text as {+text+}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := lf.editorForm(cmd)
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				if !s.codec.IsDiffChangeAllowed() {
					return fmt.Errorf("%w: field cannot be compared", types.ErrInvalidField)
				}
				current, err := s.records.LoadLink(of.owner())
				if err != nil && !errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("load link: %w", err)
				}
				next, err := s.codec.FromEditorForm(form)
				if err != nil {
					return err
				}

				dmp := diffmatchpatch.New()
				diffs := dmp.DiffMain(s.codec.VersionPreview(current), s.codec.VersionPreview(next), false)
				diffs = dmp.DiffCleanupSemantic(diffs)

				if f.jsonMode {
					before, _ := s.codec.DiffPreview(current)
					after, _ := s.codec.DiffPreview(next)
					changes := make([]map[string]string, 0, len(diffs))
					for _, d := range diffs {
						changes = append(changes, map[string]string{"op": d.Type.String(), "text": d.Text})
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"before":  before,
						"after":   after,
						"changes": changes,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderDiff(diffs))
				return nil
			})
		},
	}
	of.bind(cmd, true)
	lf.bind(cmd)
	return cmd
}

// renderDiff marks deletions as [-text-] and insertions as {+text+}.
func renderDiff(diffs []diffmatchpatch.Diff) string {
	var out []byte
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			out = append(out, "[-"+d.Text+"-]"...)
		case diffmatchpatch.DiffInsert:
			out = append(out, "{+"+d.Text+"+}"...)
		default:
			out = append(out, d.Text...)
		}
	}
	return string(out)
}

func ownerJSON(o types.Owner) map[string]any {
	return map[string]any{
		"record_id":  o.RecordID,
		"field_name": o.FieldName,
		"language":   o.Language,
	}
}
