package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/pkg/sqlite"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// csvHeader is the first row of exported files. Imports skip a first row
// equal to it.
var csvHeader = []string{"record_id", "field_name", "language", "value"}

func newCSVCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Move link values in and out as CSV",
	}
	cmd.AddCommand(newCSVExportCmd(f))
	cmd.AddCommand(newCSVImportCmd(f))
	return cmd
}

func newCSVExportCmd(f *rootFlags) *cobra.Command {
	var (
		record string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored values, one row per field",
		Long: `Export writes record_id, field_name, language and value columns. The
value is the base64 blob of the link, exported without validation.`,
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

				cw := csv.NewWriter(w)
				if err := cw.Write(csvHeader); err != nil {
					return sysError(err)
				}
				for _, sl := range links {
					cell, err := s.codec.ToCSV(sl.Link)
					if err != nil {
						return fmt.Errorf("export %s/%s: %w", sl.Owner.RecordID, sl.Owner.FieldName, err)
					}
					if err := cw.Write([]string{sl.Owner.RecordID, sl.Owner.FieldName, sl.Owner.Language, cell}); err != nil {
						return sysError(err)
					}
				}
				cw.Flush()
				return sysError(cw.Error())
			})
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "only values of this record")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newCSVImportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import values from a CSV export",
		Long: `Import stores every row of a CSV export in one batch. Cells that do not
hold a link blob clear their field; malformed cells fail the import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readCSV(args[0])
			if err != nil {
				return err
			}
			return withSession(f, func(s *session) error {
				links := make([]sqlite.StoredLink, 0, len(rows))
				for i, row := range rows {
					l, err := s.codec.FromCSV(row[3])
					if err != nil {
						return fmt.Errorf("row %d: %w", i+1, err)
					}
					links = append(links, sqlite.StoredLink{
						Owner: types.Owner{RecordID: row[0], FieldName: row[1], Language: row[2]},
						Link:  l,
					})
				}
				if err := s.records.SaveLinks(links); err != nil {
					return fmt.Errorf("save links: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d values\n", len(links))
				return nil
			})
		},
	}
}

// readCSV returns the data rows of path, without the header.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidData, path, err)
	}
	if len(rows) > 0 && slices.Equal(rows[0], csvHeader) {
		rows = rows[1:]
	}
	return rows, nil
}

// outputFile returns the command's stdout when path is empty and the
// created file otherwise.
func outputFile(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, sysError(fmt.Errorf("create %s: %w", path, err))
	}
	return file, func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "close %s: %v\n", path, err)
		}
	}, nil
}
