package repository

import (
	"context"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

type StockMovementRepository interface {
	// Record writes a movement and applies its quantity to the product's
	// stock level in one database transaction.
	Record(ctx context.Context, movement *model.StockMovement) error
	List(ctx context.Context, productID int64, movementType string, limit int) ([]*model.StockMovement, error)
}
