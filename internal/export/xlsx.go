// Package export writes table views to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of files written by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

// WriteXLSX writes a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := SheetName(sheet)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	if len(headers) > 0 {
		if err := sw.SetColWidth(1, len(headers), 20); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := sw.SetRow("A1", cells(headers), excelize.RowOpts{StyleID: bold}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// SheetName makes s a valid worksheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		return "Sheet1"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

// Table flattens a sorted set of rows into a header row and string cells,
// dropping the action column. cell renders one value.
func Table[R any](cols []datatable.Column[R], rows []R, cell func(row R, key string) string) ([]string, [][]string) {
	var keep []datatable.Column[R]
	for _, c := range cols {
		if c.Key != datatable.ActionKey {
			keep = append(keep, c)
		}
	}

	headers := make([]string, len(keep))
	for i, c := range keep {
		headers[i] = c.Label
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, len(keep))
		for j, c := range keep {
			line[j] = cell(r, c.Key)
		}
		out[i] = line
	}
	return headers, out
}

// FileName builds a download name such as "leave-requests-2024-05-01.xlsx".
func FileName(base, date string) string {
	base = strings.Trim(strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '-'
		}
		return r
	}, strings.ToLower(base)), "-")
	if base == "" {
		base = "export"
	}
	if date != "" {
		base += "-" + date
	}
	return base + ".xlsx"
}
