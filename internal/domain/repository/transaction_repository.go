package repository

import (
	"context"
	"time"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

type TransactionRepository interface {
	// CreateSale persists a sale with its items, records the matching stock
	// movements and decrements product stock, all in one database transaction.
	CreateSale(ctx context.Context, sale *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*model.Transaction, error)
	Recent(ctx context.Context, limit int) ([]*model.Transaction, error)

	// Reporting aggregations over [start, end).
	SalesSummary(ctx context.Context, start, end time.Time) (*model.SalesSummary, error)
	SalesByPaymentMethod(ctx context.Context, start, end time.Time) ([]*model.PaymentMethodSales, error)
	SalesByCategory(ctx context.Context, start, end time.Time) ([]*model.CategorySales, error)
	TopProducts(ctx context.Context, start, end time.Time, limit int) ([]*model.ProductSales, error)
}
