package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// HistoryAggregator computes per-entity return statistics from labelled orders.
type HistoryAggregator struct {
	logger      *slog.Logger
	labelColumn string
}

// NewHistoryAggregator creates an aggregator reading labels from labelColumn.
func NewHistoryAggregator(logger *slog.Logger, labelColumn string) *HistoryAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if labelColumn == "" {
		labelColumn = domain.ColReturn
	}
	return &HistoryAggregator{logger: logger, labelColumn: labelColumn}
}

type returnTally struct {
	returns int64
	orders  int64
}

// Build groups orders by the entity's key and returns one record per
// distinct identifier, ordered by identifier. Rows with a null key are
// skipped; rows with a null label do not count as orders.
func (a *HistoryAggregator) Build(ctx context.Context, orders *Table, entity domain.Entity) ([]domain.HistoryRecord, error) {
	if err := entity.Validate(); err != nil {
		return nil, errors.NewAppValidationError(err.Error())
	}
	keys, ok := orders.Column(entity.KeyColumn())
	if !ok {
		return nil, errors.NewAppValidationError(fmt.Sprintf("order table has no %s column", entity.KeyColumn()))
	}
	labels, ok := orders.Column(a.labelColumn)
	if !ok {
		return nil, errors.NewAppValidationError(fmt.Sprintf("order table has no %s column", a.labelColumn))
	}

	tallies := make(map[string]*returnTally)
	skipped := 0
	for i := 0; i < orders.Len(); i++ {
		key, ok := NormalizeIdentifier(keys.Values[i])
		if !ok {
			skipped++
			continue
		}
		tally := tallies[key]
		if tally == nil {
			tally = &returnTally{}
			tallies[key] = tally
		}
		if labels.IsNull(i) {
			continue
		}
		label, ok := labels.Int(i)
		if !ok || (label != 0 && label != 1) {
			return nil, errors.NewAppValidationError(
				fmt.Sprintf("row %d: label %v is not 0 or 1", i, labels.Values[i]))
		}
		tally.orders++
		tally.returns += label
	}

	ids := make([]string, 0, len(tallies))
	for id := range tallies {
		ids = append(ids, id)
	}
	SortIdentifiers(ids)

	records := make([]domain.HistoryRecord, 0, len(ids))
	for _, id := range ids {
		tally := tallies[id]
		rate, ok := domain.Ratio(float64(tally.returns), float64(tally.orders), 4)
		if !ok {
			return nil, errors.NewArithmeticError(
				fmt.Sprintf("%s %s has no labelled orders", entity, id)).
				WithContext("entity", string(entity))
		}
		records = append(records, domain.HistoryRecord{
			EntityID:     id,
			TotalReturns: tally.returns,
			TotalOrders:  tally.orders,
			ReturnRate:   rate,
			Category:     domain.CategorizeReturnRate(rate),
		})
	}

	a.logger.InfoContext(ctx, "Return history built",
		slog.String("entity", string(entity)),
		slog.Int("entities", len(records)),
		slog.Int("skipped_rows", skipped))
	return records, nil
}

// BuildAll computes the history of every entity concurrently.
func (a *HistoryAggregator) BuildAll(ctx context.Context, orders *Table) (map[domain.Entity][]domain.HistoryRecord, error) {
	var mu sync.Mutex
	out := make(map[domain.Entity][]domain.HistoryRecord, 3)

	g, gctx := errgroup.WithContext(ctx)
	for _, entity := range domain.Entities() {
		entity := entity
		g.Go(func() error {
			records, err := a.Build(gctx, orders, entity)
			if err != nil {
				return err
			}
			mu.Lock()
			out[entity] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortIdentifiers orders ids numerically when both sides are integers and
// lexically otherwise, so "2" sorts before "10".
func SortIdentifiers(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return lessIdentifier(ids[i], ids[j])
	})
}

func lessIdentifier(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
