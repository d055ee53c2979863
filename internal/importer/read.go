// Package importer loads case records in bulk from CSV, XLSX, or JSON files.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are not .csv, .xlsx, or .json.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// Row is one data row with its 1-based position in the source (the header is row 1).
type Row struct {
	Line  int
	Input domain.RecordInput
}

type column int

const (
	colLocation column = iota
	colRegion
	colCases
	colDeaths
	colDate
	colCount
)

var columnNames = [colCount]string{"loc", "Region", "cases", "deaths", "date"}

// headerAliases maps lower-cased header text to a column.
var headerAliases = map[string]column{
	"loc":         colLocation,
	"location":    colLocation,
	"region":      colRegion,
	"cases":       colCases,
	"deaths":      colDeaths,
	"date":        colDate,
	"report_date": colDate,
	"reportdate":  colDate,
}

// ReadFile reads rows from path, choosing the parser by extension.
func ReadFile(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return fromTable(records)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(path string) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open file: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, errors.New("xlsx: workbook has no sheets")
	}

	var table [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		table = append(table, cells)
	}
	return fromTable(table)
}

// ReadJSON reads an array of record documents using the same field names
// as the CSV header. Counts may be numbers or strings.
func ReadJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []map[string]any
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	rows := make([]Row, 0, len(docs))
	for i, doc := range docs {
		var fields [colCount]string
		for k, v := range doc {
			col, ok := headerAliases[strings.ToLower(strings.TrimSpace(k))]
			if !ok || v == nil {
				continue
			}
			fields[col] = fmt.Sprint(v)
		}
		rows = append(rows, Row{Line: i + 1, Input: toInput(fields)})
	}
	return rows, nil
}

// fromTable maps a header row plus data rows onto record inputs. Blank rows are skipped.
func fromTable(table [][]string) ([]Row, error) {
	if len(table) == 0 {
		return nil, errors.New("missing header row")
	}

	index := [colCount]int{-1, -1, -1, -1, -1}
	for i, h := range table[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headerAliases[h]; ok && index[col] < 0 {
			index[col] = i
		}
	}
	var missing []string
	for c, i := range index {
		if i < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(table)-1)
	for n, cells := range table[1:] {
		if blank(cells) {
			continue
		}
		var fields [colCount]string
		for c, i := range index {
			if i < len(cells) {
				fields[c] = cells[i]
			}
		}
		rows = append(rows, Row{Line: n + 2, Input: toInput(fields)})
	}
	return rows, nil
}

func toInput(f [colCount]string) domain.RecordInput {
	return domain.RecordInput{
		Location:   f[colLocation],
		Region:     f[colRegion],
		Cases:      f[colCases],
		Deaths:     f[colDeaths],
		ReportDate: f[colDate],
	}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
