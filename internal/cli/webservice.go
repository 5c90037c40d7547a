package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/datafields/internal/idmap"
	"github.com/mesh-intelligence/datafields/pkg/sqlite"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// maxImportLine bounds one JSONL line of a web-service import.
const maxImportLine = 4 * 1024 * 1024

// webserviceRow is one line of a web-service export.
type webserviceRow struct {
	RecordID  string         `json:"record_id"`
	FieldName string         `json:"field_name"`
	Language  string         `json:"language"`
	Value     map[string]any `json:"value"`
}

func newWebserviceCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ws",
		Aliases: []string{"webservice"},
		Short:   "Move link values in and out in the web-service format",
	}
	cmd.AddCommand(newWebserviceExportCmd(f))
	cmd.AddCommand(newWebserviceImportCmd(f))
	return cmd
}

func newWebserviceExportCmd(f *rootFlags) *cobra.Command {
	var (
		record string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored values as JSON lines",
		Long: `Export writes one JSON object per field with record_id, field_name,
language and the web-service value of the link.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(f, func(s *session) error {
				links, err := s.records.FetchLinks(record)
				if err != nil {
					return err
				}
				w, closeOut, err := outputFile(cmd, out)
				if err != nil {
					return err
				}
				defer closeOut()

				enc := json.NewEncoder(w)
				for _, sl := range links {
					row := webserviceRow{
						RecordID:  sl.Owner.RecordID,
						FieldName: sl.Owner.FieldName,
						Language:  sl.Owner.Language,
						Value:     s.codec.ToWebservice(sl.Link),
					}
					if err := enc.Encode(row); err != nil {
						return sysError(fmt.Errorf("write %s/%s: %w", row.RecordID, row.FieldName, err))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "only values of this record")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newWebserviceImportCmd(f *rootFlags) *cobra.Command {
	var (
		mappingFile string
		ignore      bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import values from a web-service export",
		Long: `Import stores every line of a web-service export in one batch.

Referenced element ids are translated through --mapping when given. A
reference that does not resolve fails the import unless mapping failures
are ignored, in which case the field is cleared and the failure reported.
--ignore-mapping-failures overrides the mapping file and the
ignore_mapping_failures config entry.

Example:
  fieldctl ws import export.jsonl --mapping ids.yaml --ignore-mapping-failures`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readJSONLines(args[0])
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				mapper := idmap.New(nil, s.config.IgnoreMappingFailures)
				if mappingFile != "" {
					if mapper, err = idmap.LoadFile(mappingFile); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("ignore-mapping-failures") {
					mapper = mapper.Override(ignore)
				}

				links := make([]sqlite.StoredLink, 0, len(lines))
				for _, ln := range lines {
					owner := types.Owner{
						RecordID:  gjson.GetBytes(ln.data, "record_id").String(),
						FieldName: gjson.GetBytes(ln.data, "field_name").String(),
						Language:  gjson.GetBytes(ln.data, "language").String(),
					}
					var input any
					if v := gjson.GetBytes(ln.data, "value"); v.Exists() && v.Type != gjson.Null {
						input = []byte(v.Raw)
					}
					l, err := s.codec.FromWebservice(input, owner.RecordID, mapper)
					if err != nil {
						return fmt.Errorf("line %d: %w", ln.number, err)
					}
					links = append(links, sqlite.StoredLink{Owner: owner, Link: l})
				}
				if err := s.records.SaveLinks(links); err != nil {
					return fmt.Errorf("save links: %w", err)
				}
				return reportImport(cmd, f, len(links), mapper.Failures())
			})
		},
	}
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "id mapping file (YAML)")
	cmd.Flags().BoolVar(&ignore, "ignore-mapping-failures", false, "clear fields whose reference does not resolve instead of failing")
	return cmd
}

func reportImport(cmd *cobra.Command, f *rootFlags, imported int, failures []idmap.Failure) error {
	if f.jsonMode {
		if failures == nil {
			failures = []idmap.Failure{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"imported": imported,
			"failures": failures,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d values\n", imported)
	if len(failures) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(failures))
	for _, fl := range failures {
		rows = append(rows, []string{fl.Scope, fl.RelatedID, types.ElementKey(fl.Type, fl.ID)})
	}
	return printTable(cmd.OutOrStdout(), []string{"SCOPE", "RECORD", "UNRESOLVED"}, rows)
}

type jsonLine struct {
	number int
	data   []byte
}

// readJSONLines returns the non-blank lines of path.
// Returns types.ErrInvalidData for a line that is not a JSON object.
func readJSONLines(path string) ([]jsonLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var lines []jsonLine
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	for n := 1; scanner.Scan(); n++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
			return nil, fmt.Errorf("%w: %s line %d is not a JSON object", types.ErrInvalidData, path, n)
		}
		lines = append(lines, jsonLine{number: n, data: append([]byte(nil), data...)})
	}
	if err := scanner.Err(); err != nil {
		return nil, sysError(fmt.Errorf("read %s: %w", path, err))
	}
	return lines, nil
}
