package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one completed sale.
type Transaction struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferenceNumber  string          `gorm:"size:20;uniqueIndex;not null" json:"reference_number"`
	TransactionDate  time.Time       `gorm:"index;default:now()" json:"transaction_date"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod    string          `gorm:"size:20;not null" json:"payment_method"`
	PaymentReference string          `gorm:"size:50" json:"payment_reference"`
	CashierName      string          `gorm:"size:100;not null;default:'System'" json:"cashier_name"`

	// Relations
	Items []TransactionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionItem is one cart line within a sale.
type TransactionItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64           `gorm:"not null;index" json:"transaction_id"`
	ProductID     int64           `gorm:"not null;index" json:"product_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`

	// Relations
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName specifies the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}
