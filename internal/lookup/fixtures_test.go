package lookup

import (
	"orderreturns/pkg/contracts/domain"
)

func sampleHistories() map[domain.Entity][]domain.HistoryRecord {
	return map[domain.Entity][]domain.HistoryRecord{
		domain.EntityCustomer: {
			{EntityID: "7", TotalReturns: 1, TotalOrders: 2, ReturnRate: 0.5, Category: domain.CategoryModerateHigh},
			{EntityID: "8", TotalReturns: 2, TotalOrders: 2, ReturnRate: 1, Category: domain.CategoryHigh},
		},
		domain.EntityItem: {
			{EntityID: "3", TotalReturns: 1, TotalOrders: 3, ReturnRate: 0.3333, Category: domain.CategoryModerateLow},
		},
		domain.EntityManufacturer: {
			{EntityID: "9", TotalReturns: 0, TotalOrders: 5, ReturnRate: 0, Category: domain.CategoryLow},
		},
	}
}

func sampleClasses() []domain.SalesClassRecord {
	return []domain.SalesClassRecord{
		{CustomerID: "8", TotalSales: 130, Class: domain.SalesClassA},
		{CustomerID: "7", TotalSales: 70, Class: domain.SalesClassD},
	}
}
