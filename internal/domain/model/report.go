package model

import "github.com/shopspring/decimal"

// SalesSummary aggregates sales over a reporting period.
type SalesSummary struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	AverageSale       decimal.Decimal `json:"average_sale"`
}

// PaymentMethodSales is the sales breakdown for one payment method.
type PaymentMethodSales struct {
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// CategorySales is the sales breakdown for one product category.
type CategorySales struct {
	Category     string          `json:"category"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	QuantitySold int64           `json:"quantity_sold"`
}

// ProductSales ranks one product's sales over a period.
type ProductSales struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	QuantitySold int64           `json:"quantity_sold"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}
