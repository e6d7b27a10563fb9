package dataprocessing

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"orderreturns/pkg/contracts/domain"
)

const orderHeader = "id,orderDate,deliveryDate,itemID,size,color,price,customerID,salutation,dateOfBirth,state,creationDate,manufacturerID,return"

// trainingOrders has two customers, three items and two manufacturers.
var trainingOrders = strings.Join([]string{
	orderHeader,
	"1,2020-01-15,2020-01-17,3,4232,blue,50,7,Mrs,1990-01-01,Berlin,2019-01-01,9,1",
	"2,2020-02-01,1990-12-31,3,M,,20,7,Mrs,1990-01-01,Berlin,2019-01-01,9,0",
	"3,2020-03-10,2020-03-12,4,xxl+,red,100,8,Mr,1985-06-30,Hamburg,2018-05-05,9,1",
	"4,2020-03-11,2020-03-14,5,38,red,30,8,Mr,1985-06-30,Hamburg,2018-05-05,11,1",
}, "\n")

// unseenOrder matches no history entry.
var unseenOrder = strings.Join([]string{
	orderHeader,
	"100,2020-01-15,1990-12-31,3,4232,,50,7,Mrs,1990-01-01,Berlin,2019-01-01,9,",
}, "\n")

func mustReadCSV(t *testing.T, data string) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(data), DefaultParseOptions())
	require.NoError(t, err)
	return tbl
}

func emptyLookups() Lookups {
	return Lookups{
		Customer:     domain.HistoryIndex{},
		Item:         domain.HistoryIndex{},
		Manufacturer: domain.HistoryIndex{},
		SalesClass:   domain.SalesClassIndex{},
	}
}

func mustColumn(t *testing.T, tbl *Table, name string) *Column {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "missing column %s", name)
	return col
}

func nullFloat(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func nullInt(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
