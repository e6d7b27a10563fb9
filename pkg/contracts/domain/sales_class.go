package domain

import "math"

// SalesClass is a customer's position in the cumulative revenue ranking.
type SalesClass string

const (
	SalesClassA SalesClass = "a"
	SalesClassB SalesClass = "b"
	SalesClassC SalesClass = "c"
	SalesClassD SalesClass = "d"
)

// SalesBreakpoint assigns Class to every cumulative share at or below Upper.
type SalesBreakpoint struct {
	Upper float64
	Class SalesClass
}

// SalesClassBreakpoints is ordered from the lowest bound up; the first match wins.
var SalesClassBreakpoints = []SalesBreakpoint{
	{Upper: 50, Class: SalesClassA},
	{Upper: 75, Class: SalesClassB},
	{Upper: 95, Class: SalesClassC},
	{Upper: math.Inf(1), Class: SalesClassD},
}

// ClassifyCumulativeShare maps a cumulative revenue percentage onto a class.
func ClassifyCumulativeShare(perc float64) SalesClass {
	for _, bp := range SalesClassBreakpoints {
		if perc <= bp.Upper {
			return bp.Class
		}
	}
	return SalesClassD
}

// SalesClassRecord is one row of the customer sales-class lookup.
type SalesClassRecord struct {
	CustomerID string     `json:"customer_id" db:"customer_id" validate:"required"`
	TotalSales float64    `json:"total_sales" db:"total_sales"`
	Class      SalesClass `json:"customer_class" db:"customer_class" validate:"oneof=a b c d"`
}

// SalesClassIndex maps a customer identifier to its class.
type SalesClassIndex map[string]SalesClass

// NewSalesClassIndex indexes records by customer id. The first record for an id wins.
func NewSalesClassIndex(records []SalesClassRecord) SalesClassIndex {
	idx := make(SalesClassIndex, len(records))
	for _, r := range records {
		if _, dup := idx[r.CustomerID]; !dup {
			idx[r.CustomerID] = r.Class
		}
	}
	return idx
}
