package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orderreturns/internal/dataprocessing"
)

func buildTable(t *testing.T, cols ...*dataprocessing.Column) *dataprocessing.Table {
	t.Helper()
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	tbl := dataprocessing.NewTable(n)
	for _, c := range cols {
		require.NoError(t, tbl.Set(c))
	}
	return tbl
}

func strCol(name string, vals ...any) *dataprocessing.Column {
	c := dataprocessing.NewColumn(name, dataprocessing.KindString, len(vals))
	copy(c.Values, vals)
	return c
}

func floatCol(name string, vals ...any) *dataprocessing.Column {
	c := dataprocessing.NewColumn(name, dataprocessing.KindFloat, len(vals))
	copy(c.Values, vals)
	return c
}
