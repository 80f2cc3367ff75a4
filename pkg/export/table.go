package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Format selects how WriteTable renders records.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	HTML     Format = "html"
	Text     Format = "table"
)

var formats = []Format{CSV, Markdown, HTML, Text}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "markdown" {
		return Markdown, nil
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown table format %q (available: csv, md, html, table)", s)
}

// Ext is the file extension used for the format.
func (f Format) Ext() string {
	if f == Text {
		return "txt"
	}
	return string(f)
}

// TablePath derives the table file name from the grouped JSON file name.
func TablePath(jsonPath string, f Format) string {
	if strings.HasSuffix(jsonPath, ".json") {
		return strings.TrimSuffix(jsonPath, ".json") + "." + f.Ext()
	}
	return jsonPath + "." + f.Ext()
}

// NewTable returns a writer preloaded with the export columns and records.
func NewTable(records []ads.FlatRecord) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(ads.Columns))
	for i, c := range ads.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range records {
		vals := r.Values()
		row := make(table.Row, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		t.AppendRow(row)
	}
	return t
}

// WriteTable renders records in format f, one row per record.
func WriteTable(w io.Writer, records []ads.FlatRecord, f Format) error {
	if f == CSV {
		return writeCSV(w, records)
	}
	t := NewTable(records)

	var out string
	switch f {
	case Markdown:
		out = t.RenderMarkdown()
	case HTML:
		out = t.RenderHTML()
	case Text:
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "title", WidthMax: 40},
			{Name: "body", WidthMax: 60},
			{Name: "caption", WidthMax: 30},
		})
		out = t.Render()
	default:
		return fmt.Errorf("unknown table format %q", f)
	}

	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// writeCSV writes RFC 4180 CSV with the fixed column header.
func writeCSV(w io.Writer, records []ads.FlatRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ads.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTable replaces the file at path with the rendered records.
func SaveTable(path string, records []ads.FlatRecord, f Format) (Result, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, records, f); err != nil {
		return Result{}, err
	}
	if err := replaceFile(path, buf.Bytes()); err != nil {
		return Result{}, err
	}
	return Result{SavedTo: path, Count: len(records), FileSizeBytes: int64(buf.Len())}, nil
}
