package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/jkimani/duka-pos/internal/domain/errors"
	"github.com/jkimani/duka-pos/internal/domain/model"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB, logger *zap.Logger) domainRepo.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("barcode = ?", product.Barcode).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check barcode: %w", err)
	}
	if count > 0 {
		return domainErrors.ErrDuplicateBarcode
	}

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		r.logger.Error("Failed to create product",
			zap.String("barcode", product.Barcode),
			zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product

	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) GetByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product

	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}

	return &product, nil
}

// Search matches the query against barcode, name and category. An empty query
// with a category filter lists that category.
func (r *productRepository) Search(ctx context.Context, query, category string, limit int) ([]*model.Product, error) {
	var products []*model.Product

	q := r.db.WithContext(ctx).Model(&model.Product{})

	if query != "" {
		pattern := "%" + strings.TrimSpace(query) + "%"
		q = q.Where("barcode ILIKE ? OR name ILIKE ? OR category ILIKE ?", pattern, pattern, pattern)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		r.logger.Error("Failed to search products",
			zap.String("query", query),
			zap.String("category", category),
			zap.Error(err))
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(product)

	if result.Error != nil {
		r.logger.Error("Failed to update product",
			zap.Int64("product_id", product.ID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string

	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

func (r *productRepository) LowStock(ctx context.Context, threshold int) ([]*model.Product, error) {
	var products []*model.Product

	err := r.db.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	return products, nil
}
