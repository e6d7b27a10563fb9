package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the value type held by a Column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named, typed vector of values. A nil entry is a null.
// Non-null entries are string, float64, int64 or time.Time according to Kind.
// Source records the stage that last wrote the column; raw columns have none.
type Column struct {
	Name   string
	Kind   Kind
	Source string
	Values []any
}

// NewColumn allocates a column of n nulls.
func NewColumn(name string, kind Kind, n int) *Column {
	return &Column{Name: name, Kind: kind, Values: make([]any, n)}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Values) }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return c.Values[i] == nil }

// Str returns row i as a string.
func (c *Column) Str(i int) (string, bool) {
	s, ok := c.Values[i].(string)
	return s, ok
}

// Float returns row i as a float64, widening integers.
func (c *Column) Float(i int) (float64, bool) {
	switch v := c.Values[i].(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns row i as an int64. Floats are accepted only when integral.
func (c *Column) Int(i int) (int64, bool) {
	switch v := c.Values[i].(type) {
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	}
	return 0, false
}

// Time returns row i as a date.
func (c *Column) Time(i int) (time.Time, bool) {
	t, ok := c.Values[i].(time.Time)
	return t, ok
}

// Format renders row i the way it is written to CSV. Nulls render empty.
func (c *Column) Format(i int) string {
	switch v := c.Values[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format(DateLayout)
		}
		return v.Format(DateTimeLayout)
	default:
		return fmt.Sprint(v)
	}
}

func (c *Column) clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Source: c.Source, Values: values}
}

// Table is an ordered set of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable creates an empty table with the given row count.
func NewTable(rows int) *Table {
	return &Table{index: make(map[string]int), rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the column called name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Set replaces the column with the same name in place, or appends it.
func (t *Table) Set(col *Column) error {
	if col.Len() != t.rows {
		return fmt.Errorf("column %s has %d rows, table has %d", col.Name, col.Len(), t.rows)
	}
	if i, ok := t.index[col.Name]; ok {
		t.columns[i] = col
		return nil
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Drop removes the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.columns[:0:0]
	for _, c := range t.columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	t.reindex()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
}

// Clone returns a deep copy; mutating the copy never affects t.
func (t *Table) Clone() *Table {
	out := &Table{rows: t.rows, columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		out.columns[i] = c.clone()
	}
	out.reindex()
	return out
}

// Select returns a new table holding the given rows in the given order.
func (t *Table) Select(rows []int) *Table {
	out := &Table{rows: len(rows), columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, Source: c.Source, Values: make([]any, len(rows))}
		for j, r := range rows {
			nc.Values[j] = c.Values[r]
		}
		out.columns[i] = nc
	}
	out.reindex()
	return out
}

// Slice returns rows [start, end) as a new table.
func (t *Table) Slice(start, end int) *Table {
	rows := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, i)
	}
	return t.Select(rows)
}

// Row returns row i keyed by column name.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Concat stacks tables with identical schemas vertically.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return NewTable(0), nil
	}
	first := tables[0]
	total := 0
	for ti, tb := range tables {
		if len(tb.columns) != len(first.columns) {
			return nil, fmt.Errorf("table %d has %d columns, want %d", ti, len(tb.columns), len(first.columns))
		}
		for i, c := range tb.columns {
			if c.Name != first.columns[i].Name || c.Kind != first.columns[i].Kind {
				return nil, fmt.Errorf("table %d column %d is %s/%s, want %s/%s",
					ti, i, c.Name, c.Kind, first.columns[i].Name, first.columns[i].Kind)
			}
		}
		total += tb.rows
	}

	out := &Table{rows: total, columns: make([]*Column, len(first.columns))}
	for i, c := range first.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, Source: c.Source, Values: make([]any, 0, total)}
		for _, tb := range tables {
			nc.Values = append(nc.Values, tb.columns[i].Values...)
		}
		out.columns[i] = nc
	}
	out.reindex()
	return out, nil
}
