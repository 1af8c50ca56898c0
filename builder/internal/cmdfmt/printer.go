package cmdfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

const (
	FormatAuto       = "auto"
	FormatTable      = "table"
	FormatJSON       = "json"
	FormatJSONPretty = "json-pretty"
)

const FormatHelp = "How to print results ('auto', 'table', 'json', 'json-pretty'). With 'auto' a table is printed when stdout is a terminal and JSON otherwise."

// Printer collects rows and renders them either as a table or as a JSON list of objects keyed by
// column name.
type Printer struct {
	w       io.Writer
	format  string
	columns []string
	rows    []table.Row
}

func NewPrinter(w io.Writer, format string, columns ...string) (*Printer, error) {
	switch format {
	case FormatAuto:
		format = FormatJSON
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = FormatTable
		}
	case FormatTable, FormatJSON, FormatJSONPretty:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &Printer{
		w:       w,
		format:  format,
		columns: columns,
		rows:    []table.Row{},
	}, nil
}

func (p *Printer) AppendRow(row ...any) {
	if len(p.columns) != len(row) {
		panic(fmt.Sprintf("unable to print row, the number of columns %d does not match the number of values %d (this is likely a bug)", len(p.columns), len(row)))
	}
	p.rows = append(p.rows, table.Row(row))
}

func (p *Printer) Render() error {
	if p.format == FormatTable {
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		header := make(table.Row, 0, len(p.columns))
		for _, c := range p.columns {
			header = append(header, c)
		}
		t.AppendHeader(header)
		for _, row := range p.rows {
			t.AppendRow(tableRow(row))
		}
		_, err := fmt.Fprintln(p.w, t.Render())
		return err
	}

	items := make([]map[string]any, 0, len(p.rows))
	for _, row := range p.rows {
		item := make(map[string]any, len(p.columns))
		for i, col := range p.columns {
			item[col] = row[i]
		}
		items = append(items, item)
	}
	var out []byte
	var err error
	if p.format == FormatJSONPretty {
		out, err = json.MarshalIndent(items, "", " ")
	} else {
		out, err = json.Marshal(items)
	}
	if err != nil {
		return fmt.Errorf("unable to marshal json: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(out))
	return err
}

// tableRow prints embedded JSON as text instead of a byte slice.
func tableRow(row table.Row) table.Row {
	out := make(table.Row, len(row))
	for i, v := range row {
		if raw, ok := v.(json.RawMessage); ok {
			v = string(raw)
		}
		out[i] = v
	}
	return out
}
