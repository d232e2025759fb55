// Package importer bulk-creates records of one resource from a CSV file.
//
// The file may carry preamble lines (report titles, export timestamps)
// before the header; the header is the first row within MaxHeaderSearchRows
// that names every required field, by field name or form label. Rows that
// fail validation or are rejected by the API are collected with their line
// number so they can be written back out, fixed and imported again.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/core"
)

// MaxFileSize is the largest CSV accepted (10MB).
var MaxFileSize int64 = 10 << 20

// MaxHeaderSearchRows is the maximum number of rows scanned for the header.
var MaxHeaderSearchRows = 20

// ContextCheckInterval is how often, in rows, cancellation is checked while
// validating.
var ContextCheckInterval = 100

// SaveFunc creates one record from form values.
type SaveFunc func(ctx context.Context, values map[string]string) (core.Record, error)

// Options tune a run.
type Options struct {
	// DryRun validates every row without calling SaveFunc.
	DryRun bool
	// Workers bounds concurrent saves (default 4).
	Workers int
}

// FailedRow is a data row that was not imported.
type FailedRow struct {
	Line   int // 1-indexed line in the source file
	Reason string
	Data   []string
}

// Result summarises an import.
type Result struct {
	Resource  string
	Header    []string
	TotalRows int // Non-empty data rows
	Accepted  int // Created, or valid in a dry run
	Failed    []FailedRow
	Duration  time.Duration
}

type pendingRow struct {
	line   int
	data   []string
	values map[string]string
}

// Run reads a CSV from r and creates one record per data row.
//
// An unauthorized response aborts the run and is returned as the error;
// every other per-row failure is recorded in Result.Failed.
func Run(ctx context.Context, def core.Resource, r io.Reader, save SaveFunc, opts Options) (*Result, error) {
	start := time.Now()
	if def.Info.ReadOnly {
		return nil, core.ErrReadOnly
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	records, lines, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}

	fields := def.FormFields(true)
	headerIdx := findHeader(records, fields)
	if headerIdx < 0 {
		return nil, fmt.Errorf("header not found in the first %d rows (required columns: %s)",
			MaxHeaderSearchRows, strings.Join(requiredNames(fields), ", "))
	}
	header := records[headerIdx]
	columns := MakeHeaderIndex(header, fields)

	res := &Result{Resource: def.Info.Key, Header: header}
	var pending []pendingRow

	for i, row := range records[headerIdx+1:] {
		line := lines[headerIdx+1+i]

		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("import cancelled at line %d: %w", line, err)
			}
		}
		if isEmptyRow(row) {
			continue
		}
		res.TotalRows++

		values := rowValues(row, columns)
		if _, err := core.ValidateForm(fields, values, true); err != nil {
			res.Failed = append(res.Failed, FailedRow{Line: line, Reason: reason(err), Data: row})
			continue
		}
		pending = append(pending, pendingRow{line: line, data: row, values: values})
	}

	if opts.DryRun {
		res.Accepted = len(pending)
		res.Duration = time.Since(start)
		return res, nil
	}

	failures, err := saveAll(ctx, pending, save, opts.Workers)
	if err != nil {
		return nil, err
	}
	res.Accepted = len(pending) - len(failures)
	res.Failed = mergeByLine(res.Failed, failures)
	res.Duration = time.Since(start)
	return res, nil
}

// saveAll saves rows with bounded concurrency. Failures come back in row
// order.
func saveAll(ctx context.Context, rows []pendingRow, save SaveFunc, workers int) ([]FailedRow, error) {
	errs := make([]error, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		g.Go(func() error {
			if _, err := save(gctx, row.values); err != nil {
				if errors.Is(err, apiclient.ErrUnauthorized) {
					return fmt.Errorf("line %d: %w", row.line, err)
				}
				errs[i] = err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failed []FailedRow
	for i, err := range errs {
		if err != nil {
			failed = append(failed, FailedRow{Line: rows[i].line, Reason: reason(err), Data: rows[i].data})
		}
	}
	return failed, nil
}

func mergeByLine(a, b []FailedRow) []FailedRow {
	out := make([]FailedRow, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Line <= b[j].Line {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// reason is the text recorded for a failed row.
func reason(err error) string {
	if ve, ok := core.AsValidationErrors(err); ok {
		return strings.TrimPrefix(ve.Error(), "invalid form: ")
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return core.FormatUserError(err)
}

/* ----------------------------------------
	CSV helpers
---------------------------------------- */

// HeaderIndex maps field names to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex matches header cells to fields by name or label. The first
// matching column wins.
func MakeHeaderIndex(header []string, fields []core.FieldSpec) HeaderIndex {
	idx := make(HeaderIndex, len(fields))
	for pos, cell := range header {
		key := CleanHeader(cell)
		for _, f := range fields {
			if _, seen := idx[f.Name]; seen {
				continue
			}
			if key == CleanHeader(f.Name) || key == CleanHeader(f.DisplayLabel()) {
				idx[f.Name] = pos
			}
		}
	}
	return idx
}

// CleanHeader normalises a header cell: BOM and Excel text prefixes are
// stripped, case is folded, and spaces and dashes become underscores.
func CleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(core.CleanInput(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func findHeader(records [][]string, fields []core.FieldSpec) int {
	required := requiredNames(fields)
	limit := min(len(records), MaxHeaderSearchRows)
	for i := 0; i < limit; i++ {
		idx := MakeHeaderIndex(records[i], fields)
		if len(idx) == 0 {
			continue
		}
		ok := true
		for _, name := range required {
			if _, found := idx[name]; !found {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

func requiredNames(fields []core.FieldSpec) []string {
	var out []string
	for _, f := range fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func rowValues(row []string, columns HeaderIndex) map[string]string {
	values := make(map[string]string, len(columns))
	for name, pos := range columns {
		if pos < len(row) {
			values[name] = row[pos]
		}
	}
	return values
}

// readCSV parses the whole file. lines holds the 1-indexed source line on
// which each record starts, which differs from its index once a quoted field
// spans lines.
func readCSV(r io.Reader) (records [][]string, lines []int, err error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, nil, fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}

	cr := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, row)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteFailed writes failed rows as CSV: line, reason, then the original
// columns under the original header.
func WriteFailed(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Line", "Status"}, res.Header...)); err != nil {
		return err
	}
	for _, f := range res.Failed {
		if err := cw.Write(append([]string{fmt.Sprint(f.Line), f.Reason}, f.Data...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
