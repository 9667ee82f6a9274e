package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/domain/dto"
	"github.com/jkimani/duka-pos/internal/domain/model"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// InventoryService manages the product catalogue and stock movements.
type InventoryService struct {
	productRepo  domainRepo.ProductRepository
	movementRepo domainRepo.StockMovementRepository
	logger       *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	productRepo domainRepo.ProductRepository,
	movementRepo domainRepo.StockMovementRepository,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// CreateProduct adds a product to the catalogue. An opening stock quantity
// is recorded as an incoming movement so the audit trail starts at zero.
func (s *InventoryService) CreateProduct(ctx context.Context, req *dto.ProductRequest) (*model.Product, error) {
	product := &model.Product{
		Barcode:     req.Barcode,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Category:    req.Category,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	if req.StockQuantity > 0 {
		movement := &model.StockMovement{
			ProductID:    product.ID,
			Quantity:     req.StockQuantity,
			MovementType: model.MovementIn,
			Notes:        "Initial stock",
		}
		if err := s.movementRepo.Record(ctx, movement); err != nil {
			return nil, fmt.Errorf("failed to record initial stock: %w", err)
		}
		product.StockQuantity = req.StockQuantity
	}

	s.logger.Info("product created",
		zap.Int64("product_id", product.ID),
		zap.String("barcode", product.Barcode),
		zap.String("name", product.Name))

	return product, nil
}

// UpdateProduct changes catalogue fields. Stock is never updated here; stock
// changes go through movements so the audit trail stays complete.
func (s *InventoryService) UpdateProduct(ctx context.Context, id int64, req *dto.ProductRequest) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Barcode = req.Barcode
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.CostPrice = req.CostPrice
	product.Category = req.Category

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalogue.
func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	return s.productRepo.Delete(ctx, id)
}

// GetProduct returns one product by id.
func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// GetProductByBarcode returns one product by its barcode, the scanner's
// lookup path.
func (s *InventoryService) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	return s.productRepo.GetByBarcode(ctx, barcode)
}

// SearchProducts filters the catalogue by free-text query and category.
func (s *InventoryService) SearchProducts(ctx context.Context, query, category string) ([]*model.Product, error) {
	return s.productRepo.Search(ctx, query, category, 0)
}

// Categories lists the distinct product categories.
func (s *InventoryService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// RecordMovement applies a manual stock change. "in" adds the quantity,
// "out" subtracts it, "adjustment" applies the signed quantity as given.
func (s *InventoryService) RecordMovement(ctx context.Context, req *dto.StockMovementRequest) (*model.StockMovement, error) {
	quantity := req.Quantity
	if req.MovementType == model.MovementOut && quantity > 0 {
		quantity = -quantity
	}

	movement := &model.StockMovement{
		ProductID:    req.ProductID,
		Quantity:     quantity,
		MovementType: req.MovementType,
		Reference:    req.Reference,
		Notes:        req.Notes,
	}
	if err := s.movementRepo.Record(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// ListMovements returns the stock movement history, optionally filtered by
// product and movement type.
func (s *InventoryService) ListMovements(ctx context.Context, productID int64, movementType string, limit int) ([]*model.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.movementRepo.List(ctx, productID, movementType, limit)
}
