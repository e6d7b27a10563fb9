package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/pkg/contracts/domain"
)

func lookupsFrom(t *testing.T, orders *Table) Lookups {
	t.Helper()
	histories, err := NewHistoryAggregator(nil, "").BuildAll(context.Background(), orders)
	require.NoError(t, err)
	classes, err := NewSalesClassAggregator(nil).Build(context.Background(), orders)
	require.NoError(t, err)
	return Lookups{
		Customer:     domain.NewHistoryIndex(histories[domain.EntityCustomer]),
		Item:         domain.NewHistoryIndex(histories[domain.EntityItem]),
		Manufacturer: domain.NewHistoryIndex(histories[domain.EntityManufacturer]),
		SalesClass:   domain.NewSalesClassIndex(classes),
	}
}

func TestRecordTransformer_UnseenOrder(t *testing.T) {
	rt, err := NewRecordTransformer(emptyLookups(), DefaultTransformerOptions(), nil)
	require.NoError(t, err)

	out, err := rt.Transform(context.Background(), mustReadCSV(t, unseenOrder))
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	row := out.Row(0)
	assert.Equal(t, int64(1), row[domain.ColOrderMonth])
	assert.Equal(t, int64(0), row[domain.ColIsDelivered])
	assert.Equal(t, int64(42), row[domain.ColSize])
	assert.Equal(t, "No Color", row[domain.ColColor])
	assert.Equal(t, int64(30), row[domain.ColCustomerAge])
	assert.Equal(t, int64(12), row[domain.ColAccountAgeMonths])
	assert.Nil(t, row["customer_return_rate"])
	assert.Nil(t, row["customer_order_count"])
	assert.Nil(t, row["item_return_rate"])
	assert.Nil(t, row["manufacturer_return_rate"])

	for _, name := range domain.PrunedColumns {
		assert.False(t, out.Has(name), name)
	}
	assert.Equal(t, []string{
		"id", "size", "color", "price", "salutation", "state", "return",
		"customer_age_at_order", "account_age_months", "order_month", "is_delivered",
		"customer_return_rate", "customer_order_count", "item_return_rate", "manufacturer_return_rate",
	}, out.Columns())
}

func TestRecordTransformer_JoinsHistory(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	rt, err := NewRecordTransformer(lookupsFrom(t, orders), DefaultTransformerOptions(), nil)
	require.NoError(t, err)

	out, err := rt.Transform(context.Background(), orders)
	require.NoError(t, err)

	assert.Equal(t, []any{0.5, 0.5, 1.0, 1.0}, mustColumn(t, out, "customer_return_rate").Values)
	assert.Equal(t, []any{int64(2), int64(2), int64(2), int64(2)}, mustColumn(t, out, "customer_order_count").Values)
	assert.Equal(t, []any{0.5, 0.5, 1.0, 1.0}, mustColumn(t, out, "item_return_rate").Values)
	assert.Equal(t, []any{0.6667, 0.6667, 0.6667, 1.0}, mustColumn(t, out, "manufacturer_return_rate").Values)
	assert.Equal(t, []any{int64(42), int64(31), int64(84), int64(38)}, mustColumn(t, out, domain.ColSize).Values)
	assert.Equal(t, []any{int64(1), int64(0), int64(1), int64(1)}, mustColumn(t, out, domain.ColIsDelivered).Values)
}

func TestRecordTransformer_OptionalStages(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	opts := DefaultTransformerOptions()
	opts.IncludeDaysToDeliver = true
	opts.IncludeSalesClass = true

	rt, err := NewRecordTransformer(lookupsFrom(t, orders), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		StageRepairSentinelDates, StageParseDates, StageNormalizeIdentifiers, StageFillMissingColor,
		StageCustomerAge, StageAccountAge, StageOrderMonth, StageDaysToDeliver, StageIsDelivered,
		StageTrimSize, StageMapSize,
		"join_customer_history", "join_item_history", "join_manufacturer_history",
		StageJoinSalesClass, StagePruneColumns,
	}, rt.Stages())

	out, err := rt.Transform(context.Background(), orders)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), nil, int64(2), int64(3)}, mustColumn(t, out, domain.ColDaysToDeliver).Values)
	assert.Equal(t, []any{"d", "d", "b", "b"}, mustColumn(t, out, domain.ColCustomerClass).Values)
}

func TestRecordTransformer_DefaultStages(t *testing.T) {
	rt, err := NewRecordTransformer(emptyLookups(), DefaultTransformerOptions(), nil)
	require.NoError(t, err)
	stages := rt.Stages()
	assert.Len(t, stages, 14)
	assert.NotContains(t, stages, StageDaysToDeliver)
	assert.NotContains(t, stages, StageJoinSalesClass)
}

func TestNewRecordTransformer_Validation(t *testing.T) {
	lookups := emptyLookups()
	lookups.Item = nil
	_, err := NewRecordTransformer(lookups, DefaultTransformerOptions(), nil)
	assert.Error(t, err)

	lookups = emptyLookups()
	lookups.SalesClass = nil
	opts := DefaultTransformerOptions()
	opts.IncludeSalesClass = true
	_, err = NewRecordTransformer(lookups, opts, nil)
	assert.Error(t, err)
}

func TestRecordTransformer_Deterministic(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	rt, err := NewRecordTransformer(lookupsFrom(t, orders), DefaultTransformerOptions(), nil)
	require.NoError(t, err)

	first, err := rt.Transform(context.Background(), orders)
	require.NoError(t, err)
	second, err := rt.Transform(context.Background(), orders)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecordTransformer_BatchesMatchSinglePass(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	lookups := lookupsFrom(t, orders)

	single, err := NewRecordTransformer(lookups, DefaultTransformerOptions(), nil)
	require.NoError(t, err)
	want, err := single.Transform(context.Background(), orders)
	require.NoError(t, err)

	opts := DefaultTransformerOptions()
	opts.BatchSize = 1
	opts.Workers = 2
	batched, err := NewRecordTransformer(lookups, opts, nil)
	require.NoError(t, err)
	got, err := batched.TransformBatches(context.Background(), orders)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestRecordTransformer_Cancelled(t *testing.T) {
	rt, err := NewRecordTransformer(emptyLookups(), DefaultTransformerOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rt.Transform(ctx, mustReadCSV(t, trainingOrders))
	assert.ErrorIs(t, err, context.Canceled)
}
