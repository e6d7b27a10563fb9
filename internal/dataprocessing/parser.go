package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order when coercing a cell to a date.
var dateLayouts = []string{DateLayout, DateTimeLayout, time.RFC3339, "01/02/2006"}

// nullTokens are cell values read as null.
var nullTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"-NaN": true, "null": true, "NULL": true, "#N/A": true, "<NA>": true,
}

// ParseOptions controls how raw cells are typed. Columns not listed stay strings.
type ParseOptions struct {
	FloatColumns []string
	IntColumns   []string
}

// DefaultParseOptions types the order log the way the pipeline expects it.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		FloatColumns: []string{domain.ColPrice},
		IntColumns:   []string{domain.ColReturn},
	}
}

func (o ParseOptions) kindOf(name string) Kind {
	for _, c := range o.FloatColumns {
		if c == name {
			return KindFloat
		}
	}
	for _, c := range o.IntColumns {
		if c == name {
			return KindInt
		}
	}
	return KindString
}

// ParseDate coerces s into a UTC date. ok is false when no layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if nullTokens[s] {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseFile reads an order table from a .csv or .xlsx file.
func ParseFile(path string, opts ParseOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ParseXLSX(path, opts)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
		}
		defer f.Close()
		t, err := ReadCSV(f, opts)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
		}
		return t, nil
	}
}

// ReadCSV reads a headed CSV stream into a table.
func ReadCSV(r io.Reader, opts ParseOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return buildTable(records, opts)
}

// ParseXLSX reads the first sheet of a workbook into a table. The first row is the header.
func ParseXLSX(path string, opts ParseOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	slog.Debug("Read workbook sheet",
		slog.String("file", path),
		slog.String("sheet", sheets[0]),
		slog.Int("rows", len(rows)))

	t, err := buildTable(rows, opts)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return t, nil
}

func buildTable(records [][]string, opts ParseOptions) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	body := records[1:]
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("empty column name in header")
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
	}

	t := NewTable(len(body))
	for j, h := range header {
		name := strings.TrimSpace(h)
		col := NewColumn(name, opts.kindOf(name), len(body))
		for i, row := range body {
			if j >= len(row) {
				continue
			}
			col.Values[i] = typedCell(row[j], col.Kind)
		}
		if err := t.Set(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// typedCell converts a raw cell. Values that do not fit the kind become null.
func typedCell(raw string, kind Kind) any {
	s := strings.TrimSpace(raw)
	if nullTokens[s] {
		return nil
	}
	switch kind {
	case KindFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return v
	case KindInt:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v != float64(int64(v)) {
			return nil
		}
		return int64(v)
	default:
		return raw
	}
}
