package model

import "time"

// Stock movement types.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

// StockMovement records one change to a product's stock level: a delivery,
// a sale, or a manual adjustment. Sales write negative quantities.
type StockMovement struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID    int64     `gorm:"not null;index" json:"product_id"`
	MovementDate time.Time `gorm:"index;default:now()" json:"movement_date"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	MovementType string    `gorm:"size:20;not null" json:"movement_type"`
	Reference    string    `gorm:"size:50" json:"reference,omitempty"`
	Notes        string    `json:"notes,omitempty"`

	// Relations
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName specifies the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}
