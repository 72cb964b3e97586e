// Package exporter streams table records to tabular file formats for
// download. It sits beside the dispatch path; the transport layer
// feeds it records fetched through the normal store boundary.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pionia-project/pionia/internal/database"
)

// Format identifies an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format string, defaulting to CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Export writes the records to w in the given format. Column order is
// taken from the table allowlist when set, otherwise derived from the
// records sorted by name with the primary key first.
func Export(w io.Writer, table database.Table, records []database.Record, format Format) error {
	columns := exportColumns(table, records)
	switch format {
	case FormatXLSX:
		return exportXLSX(w, table, columns, records)
	default:
		return exportCSV(w, columns, records)
	}
}

func exportColumns(table database.Table, records []database.Record) []string {
	table = table.WithDefaults()
	if len(table.Columns) > 0 {
		columns := table.Columns
		for _, c := range columns {
			if c == table.PrimaryKey {
				return columns
			}
		}
		return append([]string{table.PrimaryKey}, columns...)
	}

	seen := make(map[string]struct{})
	for _, rec := range records {
		for c := range rec {
			seen[c] = struct{}{}
		}
	}
	delete(seen, table.PrimaryKey)
	columns := make([]string, 0, len(seen)+1)
	for c := range seen {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return append([]string{table.PrimaryKey}, columns...)
}

func exportCSV(w io.Writer, columns []string, records []database.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			row[i] = cellString(rec[c])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func exportXLSX(w io.Writer, table database.Table, columns []string, records []database.Record) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := table.WithDefaults().Entity
	if sheet == "" {
		sheet = "Sheet1"
	}
	index, err := file.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	file.SetActiveSheet(index)

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return file.Write(w)
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
