package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeReturnRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want ReturnCategory
	}{
		{name: "zero", rate: 0, want: CategoryLow},
		{name: "just below quarter", rate: 0.2499, want: CategoryLow},
		{name: "quarter boundary", rate: 0.25, want: CategoryModerateLow},
		{name: "half boundary", rate: 0.5, want: CategoryModerateHigh},
		{name: "just below three quarters", rate: 0.7499, want: CategoryModerateHigh},
		{name: "three quarters boundary", rate: 0.75, want: CategoryHigh},
		{name: "one", rate: 1, want: CategoryHigh},
		{name: "nan", rate: math.NaN(), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeReturnRate(tt.rate))
		})
	}
}

func TestClassifyCumulativeShare(t *testing.T) {
	tests := []struct {
		name string
		perc float64
		want SalesClass
	}{
		{name: "small share", perc: 12.5, want: SalesClassA},
		{name: "fifty inclusive", perc: 50, want: SalesClassA},
		{name: "just above fifty", perc: 50.01, want: SalesClassB},
		{name: "seventy five inclusive", perc: 75, want: SalesClassB},
		{name: "ninety five inclusive", perc: 95, want: SalesClassC},
		{name: "just above ninety five", perc: 95.01, want: SalesClassD},
		{name: "hundred", perc: 100, want: SalesClassD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCumulativeShare(tt.perc))
		})
	}
}

func TestTrimSize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "34", want: "34"},
		{raw: "3432", want: "34"},
		{raw: "XXL+", want: "XXL"},
		{raw: "XXXL", want: "XXXL"},
		{raw: "34+", want: "34"},
		{raw: "xl", want: "XL"},
		{raw: "l+", want: "L"},
		{raw: "", want: ""},
		{raw: "unsized", want: "UNSIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimSize(tt.raw))
		})
	}
}

func TestMapSize(t *testing.T) {
	tests := []struct {
		token string
		want  int64
	}{
		{token: "34", want: 34},
		{token: "XXXL", want: 115},
		{token: "XXL", want: 84},
		{token: "XL", want: 48},
		{token: "L", want: 39},
		{token: "M", want: 31},
		{token: "S", want: 22},
		{token: "XS", want: 10},
		{token: "xs", want: 10},
		{token: "XX", want: DefaultSizeValue},
		{token: "UNSIZED", want: DefaultSizeValue},
		{token: "", want: DefaultSizeValue},
		{token: "99999999999999999999999", want: DefaultSizeValue},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, MapSize(tt.token))
		})
	}
}

func TestSizeStagesCompose(t *testing.T) {
	assert.Equal(t, int64(34), MapSize(TrimSize("3432")))
	assert.Equal(t, int64(84), MapSize(TrimSize("XXL+")))
	assert.Equal(t, int64(115), MapSize(TrimSize("xxxl")))
	assert.Equal(t, int64(84), MapSize(TrimSize("xxl")))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.6667, Round(2.0/3.0, 4))
	assert.Equal(t, 0.125, Round(0.125, 3))
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 0.14, Round(0.135, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestRatio(t *testing.T) {
	v, ok := Ratio(1, 3, 4)
	require.True(t, ok)
	assert.Equal(t, 0.3333, v)

	v, ok = Ratio(3, 4, 4)
	require.True(t, ok)
	assert.Equal(t, 0.75, v)

	_, ok = Ratio(1, 0, 4)
	assert.False(t, ok)
}

func TestEntityColumns(t *testing.T) {
	assert.Equal(t, "customerID", EntityCustomer.KeyColumn())
	assert.Equal(t, "item_return_rate", EntityItem.ReturnRateColumn())
	assert.Equal(t, "manufacturer_return_category", EntityManufacturer.CategoryColumn())
	assert.Equal(t, "customer_order_count", EntityCustomer.OrderCountColumn())
	assert.True(t, EntityCustomer.JoinsOrderCount())
	assert.False(t, EntityItem.JoinsOrderCount())
}

func TestParseEntity(t *testing.T) {
	e, err := ParseEntity(" Manufacturer ")
	require.NoError(t, err)
	assert.Equal(t, EntityManufacturer, e)

	_, err = ParseEntity("warehouse")
	assert.Error(t, err)
}

func TestNewHistoryIndexFirstWins(t *testing.T) {
	idx := NewHistoryIndex([]HistoryRecord{
		{EntityID: "7", TotalReturns: 1, TotalOrders: 2, ReturnRate: 0.5},
		{EntityID: "7", TotalReturns: 0, TotalOrders: 9, ReturnRate: 0},
	})
	require.Len(t, idx, 1)
	assert.Equal(t, 0.5, idx["7"].ReturnRate.Float64)
	assert.Equal(t, int64(2), idx["7"].OrderCount.Int64)
}

func TestNewSalesClassIndex(t *testing.T) {
	idx := NewSalesClassIndex([]SalesClassRecord{
		{CustomerID: "1", Class: SalesClassA},
		{CustomerID: "1", Class: SalesClassD},
		{CustomerID: "2", Class: SalesClassC},
	})
	assert.Equal(t, SalesClassIndex{"1": SalesClassA, "2": SalesClassC}, idx)
}
