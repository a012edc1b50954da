package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"registrar/internal/core"
)

// renderer writes reports and command results in the configured format.
type renderer struct {
	w      io.Writer
	format string
}

func newRenderer(w io.Writer, format string) *renderer {
	if format == "" {
		format = "table"
	}
	return &renderer{w: w, format: format}
}

// Report renders one catalogue report. JSON carries the typed data.
func (r *renderer) Report(rep core.Report) error {
	switch r.format {
	case "json":
		return r.JSON(rep.Data)
	case "csv":
		return r.CSV(rep.Columns, rep.Rows)
	default:
		return r.Table(rep.Columns, rep.Rows)
	}
}

// Result renders the outcome of a write: v in JSON mode, text otherwise.
func (r *renderer) Result(v any, text string) error {
	if r.format == "json" {
		return r.JSON(v)
	}
	_, err := fmt.Fprintln(r.w, text)
	return err
}

func (r *renderer) Table(cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.Render()
	_, _ = fmt.Fprintf(r.w, "(%d rows)\n", len(rows))
	return nil
}

func (r *renderer) CSV(cols []string, rows [][]string) error {
	cw := csv.NewWriter(r.w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	return cw.WriteAll(rows)
}

func (r *renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Line prints free text regardless of format.
func (r *renderer) Line(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}
