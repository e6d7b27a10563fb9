package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

func TestSalesClassAggregator_Build(t *testing.T) {
	orders := mustReadCSV(t, trainingOrders)
	got, err := NewSalesClassAggregator(nil).Build(context.Background(), orders)
	require.NoError(t, err)

	assert.Equal(t, []domain.SalesClassRecord{
		{CustomerID: "8", TotalSales: 130, Class: domain.SalesClassB},
		{CustomerID: "7", TotalSales: 70, Class: domain.SalesClassD},
	}, got)
}

func TestSalesClassAggregator_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []domain.SalesClass
	}{
		{
			name: "exact boundaries",
			data: "customerID,price\n1,50\n2,25\n3,20\n4,5",
			want: []domain.SalesClass{domain.SalesClassA, domain.SalesClassB, domain.SalesClassC, domain.SalesClassD},
		},
		{
			name: "just past ninety five",
			data: "customerID,price\n1,5000\n2,2500\n3,2001\n4,499",
			want: []domain.SalesClass{domain.SalesClassA, domain.SalesClassB, domain.SalesClassD, domain.SalesClassD},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSalesClassAggregator(nil).Build(context.Background(), mustReadCSV(t, tt.data))
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, rec := range got {
				assert.Equal(t, tt.want[i], rec.Class, rec.CustomerID)
			}
		})
	}
}

func TestSalesClassAggregator_TiesKeepIdentifierOrder(t *testing.T) {
	orders := mustReadCSV(t, "customerID,price\n10,5\n2,5\n3,1.004\n3,1.001")
	got, err := NewSalesClassAggregator(nil).Build(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].CustomerID)
	assert.Equal(t, "10", got[1].CustomerID)
	assert.Equal(t, "3", got[2].CustomerID)
	assert.Equal(t, 2.0, got[2].TotalSales)
}

func TestSalesClassAggregator_Errors(t *testing.T) {
	_, err := NewSalesClassAggregator(nil).Build(context.Background(), mustReadCSV(t, "customerID,price\n1,0\n2,0"))
	assert.True(t, errors.IsType(err, errors.ErrTypeArithmetic))

	_, err = NewSalesClassAggregator(nil).Build(context.Background(), mustReadCSV(t, "price\n1"))
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	got, err := NewSalesClassAggregator(nil).Build(context.Background(), mustReadCSV(t, "customerID,price"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
