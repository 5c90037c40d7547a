package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable writes rows under header. An empty result prints a notice
// instead of an empty table.
func printTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No entries found.")
		return err
	}

	table := tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)

	data := make([][]any, len(rows))
	for i, row := range rows {
		data[i] = make([]any, len(row))
		for j, v := range row {
			data[i][j] = v
		}
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("format table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

// parseElementRef parses a "type:id" reference.
func parseElementRef(s string) (types.ElementType, int64, error) {
	name, idStr, ok := strings.Cut(s, ":")
	if !ok {
		return types.ElementTypeNone, 0, fmt.Errorf("%w: reference %q is not of the form type:id", types.ErrInvalidData, s)
	}
	return parseElementKey(name, idStr)
}

// parseElementKey parses an element type and id given as separate words.
func parseElementKey(name, idStr string) (types.ElementType, int64, error) {
	t, err := types.ParseElementType(name)
	if err != nil {
		return types.ElementTypeNone, 0, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return types.ElementTypeNone, 0, fmt.Errorf("%w: %q", types.ErrInvalidID, idStr)
	}
	return t, id, nil
}
