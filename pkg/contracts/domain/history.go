package domain

import (
	"database/sql"
	"math"
)

// ReturnCategory buckets an entity's historical return rate.
type ReturnCategory string

const (
	CategoryLow          ReturnCategory = "low"
	CategoryModerateLow  ReturnCategory = "moderately low"
	CategoryModerateHigh ReturnCategory = "moderately high"
	CategoryHigh         ReturnCategory = "high"
)

// RateBreakpoint assigns Category to every rate at or above Lower.
type RateBreakpoint struct {
	Lower    float64
	Category ReturnCategory
}

// ReturnCategoryBreakpoints is ordered from the highest bound down; the first match wins.
var ReturnCategoryBreakpoints = []RateBreakpoint{
	{Lower: 0.75, Category: CategoryHigh},
	{Lower: 0.50, Category: CategoryModerateHigh},
	{Lower: 0.25, Category: CategoryModerateLow},
	{Lower: math.Inf(-1), Category: CategoryLow},
}

// CategorizeReturnRate maps a return rate onto its category. NaN has no category.
func CategorizeReturnRate(rate float64) ReturnCategory {
	for _, bp := range ReturnCategoryBreakpoints {
		if rate >= bp.Lower {
			return bp.Category
		}
	}
	return ""
}

// HistoryRecord is one row of an entity's return history lookup.
type HistoryRecord struct {
	EntityID     string         `json:"entity_id" db:"entity_id" validate:"required"`
	TotalReturns int64          `json:"total_returns" db:"total_returns" validate:"gte=0,ltefield=TotalOrders"`
	TotalOrders  int64          `json:"total_orders" db:"total_orders" validate:"gt=0"`
	ReturnRate   float64        `json:"return_rate" db:"return_rate" validate:"gte=0,lte=1"`
	Category     ReturnCategory `json:"return_category" db:"return_category"`
}

// JoinStats are the values a history join contributes to one order row.
// Either field may be invalid when the stored value could not be coerced.
type JoinStats struct {
	ReturnRate sql.NullFloat64
	OrderCount sql.NullInt64
}

// HistoryIndex maps an entity identifier to its join values.
type HistoryIndex map[string]JoinStats

// NewHistoryIndex indexes records by entity id. The first record for an id wins.
func NewHistoryIndex(records []HistoryRecord) HistoryIndex {
	idx := make(HistoryIndex, len(records))
	for _, r := range records {
		if _, dup := idx[r.EntityID]; dup {
			continue
		}
		idx[r.EntityID] = JoinStats{
			ReturnRate: sql.NullFloat64{Float64: r.ReturnRate, Valid: true},
			OrderCount: sql.NullInt64{Int64: r.TotalOrders, Valid: true},
		}
	}
	return idx
}
