package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

func TestHistoryAggregator_Build(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	agg := NewHistoryAggregator(nil, domain.ColReturn)

	tests := []struct {
		name   string
		entity domain.Entity
		want   []domain.HistoryRecord
	}{
		{
			name:   "customers",
			entity: domain.EntityCustomer,
			want: []domain.HistoryRecord{
				{EntityID: "7", TotalReturns: 1, TotalOrders: 2, ReturnRate: 0.5, Category: domain.CategoryModerateHigh},
				{EntityID: "8", TotalReturns: 2, TotalOrders: 2, ReturnRate: 1, Category: domain.CategoryHigh},
			},
		},
		{
			name:   "items",
			entity: domain.EntityItem,
			want: []domain.HistoryRecord{
				{EntityID: "3", TotalReturns: 1, TotalOrders: 2, ReturnRate: 0.5, Category: domain.CategoryModerateHigh},
				{EntityID: "4", TotalReturns: 1, TotalOrders: 1, ReturnRate: 1, Category: domain.CategoryHigh},
				{EntityID: "5", TotalReturns: 1, TotalOrders: 1, ReturnRate: 1, Category: domain.CategoryHigh},
			},
		},
		{
			name:   "manufacturers sort numerically",
			entity: domain.EntityManufacturer,
			want: []domain.HistoryRecord{
				{EntityID: "9", TotalReturns: 2, TotalOrders: 3, ReturnRate: 0.6667, Category: domain.CategoryModerateHigh},
				{EntityID: "11", TotalReturns: 1, TotalOrders: 1, ReturnRate: 1, Category: domain.CategoryHigh},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.Build(context.Background(), orders, tt.entity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistoryAggregator_CategoryBoundaries(t *testing.T) {
	// customer 1: 1 of 4 returned, customer 2: 3 of 4 returned
	orders := mustReadCSV(t, "customerID,return\n1,1\n1,0\n1,0\n1,0\n2,1\n2,1\n2,1\n2,0")
	got, err := NewHistoryAggregator(nil, "").Build(context.Background(), orders, domain.EntityCustomer)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0.25, got[0].ReturnRate)
	assert.Equal(t, domain.CategoryModerateLow, got[0].Category)
	assert.Equal(t, 0.75, got[1].ReturnRate)
	assert.Equal(t, domain.CategoryHigh, got[1].Category)
}

func TestHistoryAggregator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		entity   domain.Entity
		wantType errors.ErrorType
	}{
		{name: "missing key column", data: "itemID,return\n1,1", entity: domain.EntityCustomer, wantType: errors.ErrTypeValidation},
		{name: "missing label column", data: "customerID\n1", entity: domain.EntityCustomer, wantType: errors.ErrTypeValidation},
		{name: "non binary label", data: "customerID,return\n1,2", entity: domain.EntityCustomer, wantType: errors.ErrTypeValidation},
		{name: "unknown entity", data: "customerID,return\n1,1", entity: domain.Entity("warehouse"), wantType: errors.ErrTypeValidation},
		{name: "no labelled orders", data: "customerID,return\n1,\n2,1", entity: domain.EntityCustomer, wantType: errors.ErrTypeArithmetic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHistoryAggregator(nil, "").Build(context.Background(), mustReadCSV(t, tt.data), tt.entity)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
		})
	}
}

func TestHistoryAggregator_SkipsNullKeys(t *testing.T) {
	orders := mustReadCSV(t, "customerID,return\n,1\n5,0")
	got, err := NewHistoryAggregator(nil, "").Build(context.Background(), orders, domain.EntityCustomer)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].EntityID)
}

func TestHistoryAggregator_BuildAll(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	all, err := NewHistoryAggregator(nil, "").BuildAll(context.Background(), orders)
	require.NoError(t, err)

	assert.Len(t, all, 3)
	assert.Len(t, all[domain.EntityCustomer], 2)
	assert.Len(t, all[domain.EntityItem], 3)
	assert.Len(t, all[domain.EntityManufacturer], 2)
}

func TestSortIdentifiers(t *testing.T) {
	ids := []string{"b", "10", "2", "a", "1"}
	SortIdentifiers(ids)
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}
