package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

// ProductRequest creates or updates a product.
type ProductRequest struct {
	Barcode       string          `json:"barcode" validate:"required,max=20"`
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	Category      string          `json:"category" validate:"required,max=50"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

// StockMovementRequest records a manual stock change. Quantity is always
// positive for "in" and "out"; for "adjustment" it is the signed delta.
type StockMovementRequest struct {
	ProductID    int64  `json:"product_id" validate:"required,gt=0"`
	Quantity     int    `json:"quantity" validate:"required"`
	MovementType string `json:"movement_type" validate:"required,oneof=in out adjustment"`
	Reference    string `json:"reference,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// InventoryStatusResponse groups products that need restocking.
type InventoryStatusResponse struct {
	Threshold  int              `json:"threshold"`
	LowStock   []*model.Product `json:"low_stock"`
	OutOfStock []*model.Product `json:"out_of_stock"`
}
