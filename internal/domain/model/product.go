package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item on sale at the shop.
type Product struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Barcode       string          `gorm:"size:20;uniqueIndex;not null" json:"barcode"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	Category      string          `gorm:"size:50;not null;index" json:"category"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Product) TableName() string {
	return "products"
}
