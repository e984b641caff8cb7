package domain

import "time"

// DailySales aggregates completed orders for one calendar day.
type DailySales struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// CommoditySales aggregates quantity sold per commodity.
type CommoditySales struct {
	CommodityID int64   `json:"commodityId"`
	Name        string  `json:"name"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// SalesReport summarises completed orders over a time range.
type SalesReport struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	Orders         int64            `json:"orders"`
	Revenue        float64          `json:"revenue"`
	Daily          []DailySales     `json:"daily"`
	TopCommodities []CommoditySales `json:"topCommodities"`
}
