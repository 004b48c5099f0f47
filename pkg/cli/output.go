package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"duck-adapter/internal/engine"
	"duck-adapter/internal/types"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutputFormat(output string) error {
	switch output {
	case "", outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'yaml'", output)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// printTable writes an aligned table with upper-cased headers.
func printTable(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// writeOutput writes v in the requested format; table output falls back to the
// supplied columns and rows.
func writeOutput(w io.Writer, format string, v any, columns []string, rows [][]string) error {
	switch format {
	case outputJSON:
		return printJSON(w, v)
	case outputYAML:
		return printYAML(w, v)
	default:
		return printTable(w, columns, rows)
	}
}

// resultSet is the serialized form of a query result.
type resultSet struct {
	Columns  []string `json:"columns" yaml:"columns"`
	Rows     [][]any  `json:"rows" yaml:"rows"`
	RowCount int      `json:"row_count" yaml:"row_count"`
}

func collectResult(cur *engine.Cursor) resultSet {
	res := resultSet{Columns: []string{}, Rows: [][]any{}}
	for row := range cur.All() {
		if res.RowCount == 0 {
			res.Columns = row.Names()
		}
		vals := make([]any, row.Len())
		for i := range vals {
			f, _ := row.Get(i)
			vals[i] = displayValue(f.Value())
		}
		res.Rows = append(res.Rows, vals)
		res.RowCount++
	}
	return res
}

// displayValue converts a native value to a JSON and YAML friendly scalar.
// Temporal values, blobs and non-finite floats are rendered as text.
func displayValue(v types.Value) any {
	switch v.Kind() {
	case types.KindNull:
		return nil
	case types.KindBool:
		b, _ := v.AsBool()
		return b
	case types.KindInt8, types.KindInt16, types.KindInt32, types.KindInt64:
		i, _ := v.AsInt()
		return i
	case types.KindFloat32, types.KindFloat64:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	case types.KindText:
		s, _ := v.AsText()
		return s
	default:
		return v.String()
	}
}

func (r resultSet) tableRows() [][]string {
	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				rows[i][j] = "NULL"
			} else {
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return rows
}
