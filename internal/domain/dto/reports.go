package dto

import (
	"time"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

// ReportPeriod describes the resolved reporting window.
type ReportPeriod struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// SalesSummaryResponse is the sales report for one period.
type SalesSummaryResponse struct {
	ReportPeriod
	Summary        *model.SalesSummary         `json:"summary"`
	PaymentMethods []*model.PaymentMethodSales `json:"payment_methods"`
}

// CategorySalesResponse is the per-category sales breakdown for one period.
type CategorySalesResponse struct {
	ReportPeriod
	Categories []*model.CategorySales `json:"categories"`
}

// TopProductsResponse ranks products by quantity sold over one period.
type TopProductsResponse struct {
	ReportPeriod
	Products []*model.ProductSales `json:"products"`
}
