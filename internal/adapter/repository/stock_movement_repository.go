package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/jkimani/duka-pos/internal/domain/errors"
	"github.com/jkimani/duka-pos/internal/domain/model"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// stockMovementRepository implements the StockMovementRepository interface
type stockMovementRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStockMovementRepository creates a new stock movement repository instance
func NewStockMovementRepository(db *gorm.DB, logger *zap.Logger) domainRepo.StockMovementRepository {
	return &stockMovementRepository{
		db:     db,
		logger: logger,
	}
}

// Record writes the movement and applies its signed quantity to the product's
// stock level atomically. The product row is locked for the duration.
func (r *stockMovementRepository) Record(ctx context.Context, movement *model.StockMovement) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, movement.ProductID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		newQuantity := product.StockQuantity + movement.Quantity
		if newQuantity < 0 {
			return &domainErrors.InsufficientStockError{
				ProductName: product.Name,
				Requested:   -movement.Quantity,
				Available:   product.StockQuantity,
			}
		}

		if err := tx.Create(movement).Error; err != nil {
			return fmt.Errorf("failed to create stock movement: %w", err)
		}

		if err := tx.Model(&model.Product{}).
			Where("id = ?", product.ID).
			Update("stock_quantity", newQuantity).Error; err != nil {
			return fmt.Errorf("failed to update stock quantity: %w", err)
		}

		return nil
	})

	if err != nil {
		r.logger.Error("Failed to record stock movement",
			zap.Int64("product_id", movement.ProductID),
			zap.Int("quantity", movement.Quantity),
			zap.String("movement_type", movement.MovementType),
			zap.Error(err))
		return err
	}

	r.logger.Info("Stock movement recorded",
		zap.Int64("product_id", movement.ProductID),
		zap.Int("quantity", movement.Quantity),
		zap.String("movement_type", movement.MovementType))

	return nil
}

func (r *stockMovementRepository) List(ctx context.Context, productID int64, movementType string, limit int) ([]*model.StockMovement, error) {
	var movements []*model.StockMovement

	query := r.db.WithContext(ctx).
		Preload("Product").
		Order("movement_date DESC")

	if productID > 0 {
		query = query.Where("product_id = ?", productID)
	}
	if movementType != "" {
		query = query.Where("movement_type = ?", movementType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}

	return movements, nil
}
