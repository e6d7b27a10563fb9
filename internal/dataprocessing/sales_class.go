package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// SalesClassAggregator ranks customers by cumulative revenue share.
type SalesClassAggregator struct {
	logger *slog.Logger
}

// NewSalesClassAggregator creates a sales-class aggregator.
func NewSalesClassAggregator(logger *slog.Logger) *SalesClassAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesClassAggregator{logger: logger}
}

// Build sums price per customer, ranks customers by descending total and
// assigns each a class from its cumulative share of all sales. Ties keep
// identifier order. Null prices contribute nothing.
func (a *SalesClassAggregator) Build(ctx context.Context, orders *Table) ([]domain.SalesClassRecord, error) {
	keys, ok := orders.Column(domain.ColCustomerID)
	if !ok {
		return nil, errors.NewAppValidationError("order table has no customerID column")
	}
	prices, ok := orders.Column(domain.ColPrice)
	if !ok {
		return nil, errors.NewAppValidationError("order table has no price column")
	}

	sums := make(map[string]decimal.Decimal)
	for i := 0; i < orders.Len(); i++ {
		key, ok := NormalizeIdentifier(keys.Values[i])
		if !ok {
			continue
		}
		sum := sums[key]
		if p, ok := prices.Float(i); ok {
			sum = sum.Add(decimal.NewFromFloat(p))
		}
		sums[key] = sum
	}
	if len(sums) == 0 {
		return []domain.SalesClassRecord{}, nil
	}

	ids := make([]string, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	SortIdentifiers(ids)

	totals := make([]decimal.Decimal, len(ids))
	for i, id := range ids {
		totals[i] = sums[id].RoundBank(2)
	}
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]].GreaterThan(totals[order[j]])
	})

	grand := decimal.Zero
	for _, t := range totals {
		grand = grand.Add(t)
	}
	if grand.IsZero() {
		return nil, errors.NewArithmeticError(fmt.Sprintf("total sales across %d customers is zero", len(ids)))
	}

	hundred := decimal.NewFromInt(100)
	records := make([]domain.SalesClassRecord, 0, len(ids))
	cumulative := decimal.Zero
	for _, idx := range order {
		cumulative = cumulative.Add(totals[idx]).RoundBank(2)
		perc := cumulative.Mul(hundred).DivRound(grand, 16).RoundBank(2)
		records = append(records, domain.SalesClassRecord{
			CustomerID: ids[idx],
			TotalSales: totals[idx].InexactFloat64(),
			Class:      domain.ClassifyCumulativeShare(perc.InexactFloat64()),
		})
	}

	a.logger.InfoContext(ctx, "Sales classes built",
		slog.Int("customers", len(records)),
		slog.String("total_sales", grand.StringFixed(2)))
	return records, nil
}
