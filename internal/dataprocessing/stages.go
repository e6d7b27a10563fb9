package dataprocessing

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"orderreturns/pkg/contracts/domain"
)

// Stage names in canonical order.
const (
	StageRepairSentinelDates  = "repair_sentinel_dates"
	StageParseDates           = "parse_dates"
	StageNormalizeIdentifiers = "normalize_identifiers"
	StageFillMissingColor     = "fill_missing_color"
	StageCustomerAge          = "customer_age"
	StageAccountAge           = "account_age"
	StageOrderMonth           = "order_month"
	StageDaysToDeliver        = "days_to_deliver"
	StageIsDelivered          = "is_delivered"
	StageTrimSize             = "trim_size"
	StageMapSize              = "map_size"
	StageJoinSalesClass       = "join_sales_class"
	StagePruneColumns         = "prune_columns"
)

// JoinStageName returns the name of the history join stage for entity.
func JoinStageName(entity domain.Entity) string {
	return "join_" + string(entity) + "_history"
}

func parsedDate(column string) Requirement {
	return Requirement{Column: column, Kinds: []Kind{KindDate}, WrittenBy: StageParseDates}
}

func normalizedID(column string) Requirement {
	return Requirement{Column: column, Kinds: []Kind{KindString}, WrittenBy: StageNormalizeIdentifiers}
}

// RepairSentinelDates nulls every delivery date equal to the sentinel.
func RepairSentinelDates(sentinel string) Stage {
	sentinelDate, hasDate := ParseDate(sentinel)
	return Stage{
		Name:     StageRepairSentinelDates,
		Requires: []Requirement{{Column: domain.ColDeliveryDate, Kinds: []Kind{KindString}}},
		Apply: func(t *Table) (*Table, error) {
			col, _ := t.Column(domain.ColDeliveryDate)
			for i := range col.Values {
				s, ok := col.Str(i)
				if !ok {
					continue
				}
				if strings.TrimSpace(s) == sentinel {
					col.Values[i] = nil
					continue
				}
				if d, ok := ParseDate(s); ok && hasDate && d.Equal(sentinelDate) {
					col.Values[i] = nil
				}
			}
			col.Source = StageRepairSentinelDates
			return t, nil
		},
	}
}

// ParseDates coerces the four date columns. Unparseable values become null.
func ParseDates() Stage {
	reqs := []Requirement{
		{Column: domain.ColOrderDate, Kinds: []Kind{KindString}},
		{Column: domain.ColDeliveryDate, Kinds: []Kind{KindString}, WrittenBy: StageRepairSentinelDates},
		{Column: domain.ColDateOfBirth, Kinds: []Kind{KindString}},
		{Column: domain.ColCreationDate, Kinds: []Kind{KindString}},
	}
	return Stage{
		Name:     StageParseDates,
		Requires: reqs,
		Apply: func(t *Table) (*Table, error) {
			for _, name := range domain.DateColumns {
				src, _ := t.Column(name)
				col := NewColumn(name, KindDate, t.Len())
				for i := range src.Values {
					if s, ok := src.Str(i); ok {
						if d, ok := ParseDate(s); ok {
							col.Values[i] = d
						}
					}
				}
				col.Source = StageParseDates
				if err := t.Set(col); err != nil {
					return nil, err
				}
			}
			return t, nil
		},
	}
}

// NormalizeIdentifiers renders the three identifier columns as strings so
// they join against lookup keys. Integral numbers lose any fractional part.
func NormalizeIdentifiers() Stage {
	reqs := make([]Requirement, len(domain.IdentifierColumns))
	for i, name := range domain.IdentifierColumns {
		reqs[i] = Requirement{Column: name}
	}
	return Stage{
		Name:     StageNormalizeIdentifiers,
		Requires: reqs,
		Apply: func(t *Table) (*Table, error) {
			for _, name := range domain.IdentifierColumns {
				src, _ := t.Column(name)
				col := NewColumn(name, KindString, t.Len())
				for i, v := range src.Values {
					if id, ok := NormalizeIdentifier(v); ok {
						col.Values[i] = id
					}
				}
				col.Source = StageNormalizeIdentifiers
				if err := t.Set(col); err != nil {
					return nil, err
				}
			}
			return t, nil
		},
	}
}

// NormalizeIdentifier converts a raw identifier cell to its join key.
func NormalizeIdentifier(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if nullTokens[s] {
			return "", false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return s, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

// FillMissingColor replaces null colors with a placeholder.
func FillMissingColor(placeholder string) Stage {
	return Stage{
		Name:     StageFillMissingColor,
		Requires: []Requirement{{Column: domain.ColColor, Kinds: []Kind{KindString}}},
		Apply: func(t *Table) (*Table, error) {
			col, _ := t.Column(domain.ColColor)
			for i := range col.Values {
				if col.IsNull(i) {
					col.Values[i] = placeholder
				}
			}
			col.Source = StageFillMissingColor
			return t, nil
		},
	}
}

// daysBetween returns the exact days from 'from' to 'to', including any fraction.
func daysBetween(to, from time.Time) float64 {
	return to.Sub(from).Seconds() / 86400
}

// deriveFromDates builds a stage that computes an integer column from two date columns.
// The result is null whenever either date is null.
func deriveFromDates(name, output, later, earlier string, fn func(days float64) int64) Stage {
	return Stage{
		Name:     name,
		Requires: []Requirement{parsedDate(later), parsedDate(earlier)},
		Produces: []string{output},
		Apply: func(t *Table) (*Table, error) {
			a, _ := t.Column(later)
			b, _ := t.Column(earlier)
			col := NewColumn(output, KindInt, t.Len())
			for i := range col.Values {
				ta, okA := a.Time(i)
				tb, okB := b.Time(i)
				if okA && okB {
					col.Values[i] = fn(daysBetween(ta, tb))
				}
			}
			col.Source = name
			return t, t.Set(col)
		},
	}
}

// CustomerAge derives the customer's age in whole years on the order date.
func CustomerAge() Stage {
	return deriveFromDates(StageCustomerAge, domain.ColCustomerAge,
		domain.ColOrderDate, domain.ColDateOfBirth,
		func(days float64) int64 { return int64(math.Floor(days / domain.DaysPerYear)) })
}

// AccountAge derives the account age in whole months on the order date.
func AccountAge() Stage {
	return deriveFromDates(StageAccountAge, domain.ColAccountAgeMonths,
		domain.ColOrderDate, domain.ColCreationDate,
		func(days float64) int64 { return int64(math.Floor(days / domain.DaysPerMonth)) })
}

// DaysToDeliver derives the whole days between order and delivery.
func DaysToDeliver() Stage {
	return deriveFromDates(StageDaysToDeliver, domain.ColDaysToDeliver,
		domain.ColDeliveryDate, domain.ColOrderDate,
		func(days float64) int64 { return int64(math.Floor(days)) })
}

// OrderMonth extracts the calendar month of the order date.
func OrderMonth() Stage {
	return Stage{
		Name:     StageOrderMonth,
		Requires: []Requirement{parsedDate(domain.ColOrderDate)},
		Produces: []string{domain.ColOrderMonth},
		Apply: func(t *Table) (*Table, error) {
			src, _ := t.Column(domain.ColOrderDate)
			col := NewColumn(domain.ColOrderMonth, KindInt, t.Len())
			for i := range col.Values {
				if d, ok := src.Time(i); ok {
					col.Values[i] = int64(d.Month())
				}
			}
			col.Source = StageOrderMonth
			return t, t.Set(col)
		},
	}
}

// IsDelivered flags rows whose delivery date survived sentinel repair and parsing.
func IsDelivered() Stage {
	return Stage{
		Name:     StageIsDelivered,
		Requires: []Requirement{parsedDate(domain.ColDeliveryDate)},
		Produces: []string{domain.ColIsDelivered},
		Apply: func(t *Table) (*Table, error) {
			src, _ := t.Column(domain.ColDeliveryDate)
			col := NewColumn(domain.ColIsDelivered, KindInt, t.Len())
			for i := range col.Values {
				if src.IsNull(i) {
					col.Values[i] = int64(0)
				} else {
					col.Values[i] = int64(1)
				}
			}
			col.Source = StageIsDelivered
			return t, t.Set(col)
		},
	}
}

// TrimSize normalizes raw size labels. Null sizes stay null.
func TrimSize() Stage {
	return Stage{
		Name:     StageTrimSize,
		Requires: []Requirement{{Column: domain.ColSize, Kinds: []Kind{KindString}}},
		Apply: func(t *Table) (*Table, error) {
			col, _ := t.Column(domain.ColSize)
			if col.Source == StageTrimSize {
				return t, nil
			}
			for i := range col.Values {
				if s, ok := col.Str(i); ok {
					col.Values[i] = domain.TrimSize(strings.TrimSpace(s))
				}
			}
			col.Source = StageTrimSize
			return t, nil
		},
	}
}

// MapSize converts trimmed size labels to numbers. Null sizes take the default value.
func MapSize() Stage {
	return Stage{
		Name:     StageMapSize,
		Requires: []Requirement{{Column: domain.ColSize, Kinds: []Kind{KindString}, WrittenBy: StageTrimSize}},
		Apply: func(t *Table) (*Table, error) {
			src, _ := t.Column(domain.ColSize)
			col := NewColumn(domain.ColSize, KindInt, t.Len())
			for i := range col.Values {
				s, ok := src.Str(i)
				if !ok {
					col.Values[i] = domain.DefaultSizeValue
					continue
				}
				col.Values[i] = domain.MapSize(s)
			}
			col.Source = StageMapSize
			return t, t.Set(col)
		},
	}
}

// joinMisses counts order rows whose key had no lookup entry.
var joinMisses, _ = otel.Meter(instrumentationName).Int64Counter(
	"join_misses_total",
	metric.WithDescription("Order rows whose identifier had no lookup entry"),
)

func recordMisses(join string, misses int) {
	if joinMisses == nil || misses == 0 {
		return
	}
	joinMisses.Add(context.Background(), int64(misses), metric.WithAttributes(attribute.String("join", join)))
}

// JoinHistory left-joins an entity's return history onto the order table.
// Every order row is kept; rows without a lookup entry get null features.
func JoinHistory(entity domain.Entity, index domain.HistoryIndex) Stage {
	name := JoinStageName(entity)
	produces := []string{entity.ReturnRateColumn()}
	if entity.JoinsOrderCount() {
		produces = append(produces, entity.OrderCountColumn())
	}
	return Stage{
		Name:     name,
		Requires: []Requirement{normalizedID(entity.KeyColumn())},
		Produces: produces,
		Apply: func(t *Table) (*Table, error) {
			keys, _ := t.Column(entity.KeyColumn())
			rate := NewColumn(entity.ReturnRateColumn(), KindFloat, t.Len())
			rate.Source = name
			var count *Column
			if entity.JoinsOrderCount() {
				count = NewColumn(entity.OrderCountColumn(), KindInt, t.Len())
				count.Source = name
			}

			misses := 0
			for i := range keys.Values {
				key, ok := keys.Str(i)
				if !ok {
					misses++
					continue
				}
				stats, found := index[key]
				if !found {
					misses++
					continue
				}
				if stats.ReturnRate.Valid {
					rate.Values[i] = domain.Round(stats.ReturnRate.Float64, 4)
				}
				if count != nil && stats.OrderCount.Valid {
					count.Values[i] = stats.OrderCount.Int64
				}
			}
			recordMisses(name, misses)

			if err := t.Set(rate); err != nil {
				return nil, err
			}
			if count != nil {
				if err := t.Set(count); err != nil {
					return nil, err
				}
			}
			return t, nil
		},
	}
}

// JoinSalesClass left-joins each customer's sales class onto the order table.
func JoinSalesClass(index domain.SalesClassIndex) Stage {
	return Stage{
		Name:     StageJoinSalesClass,
		Requires: []Requirement{normalizedID(domain.ColCustomerID)},
		Produces: []string{domain.ColCustomerClass},
		Apply: func(t *Table) (*Table, error) {
			keys, _ := t.Column(domain.ColCustomerID)
			col := NewColumn(domain.ColCustomerClass, KindString, t.Len())
			misses := 0
			for i := range keys.Values {
				key, ok := keys.Str(i)
				if !ok {
					misses++
					continue
				}
				if class, found := index[key]; found {
					col.Values[i] = string(class)
				} else {
					misses++
				}
			}
			recordMisses(StageJoinSalesClass, misses)
			col.Source = StageJoinSalesClass
			return t, t.Set(col)
		},
	}
}

// PruneColumns drops the raw date and identifier columns once features are derived.
func PruneColumns() Stage {
	reqs := make([]Requirement, len(domain.PrunedColumns))
	for i, name := range domain.PrunedColumns {
		reqs[i] = Requirement{Column: name}
	}
	return Stage{
		Name:     StagePruneColumns,
		Requires: reqs,
		Apply: func(t *Table) (*Table, error) {
			t.Drop(domain.PrunedColumns...)
			return t, nil
		},
	}
}
