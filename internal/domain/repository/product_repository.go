package repository

import (
	"context"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Search(ctx context.Context, query, category string, limit int) ([]*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	LowStock(ctx context.Context, threshold int) ([]*model.Product, error)
}
