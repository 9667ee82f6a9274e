package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/jkimani/duka-pos/internal/domain/errors"
	"github.com/jkimani/duka-pos/internal/domain/model"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateSale persists the sale, its items and one outgoing stock movement per
// item, then decrements product stock. Every product row involved is locked
// before the stock check, so concurrent sales cannot oversell. Duplicate cart
// lines for the same product are checked as one combined quantity.
func (r *transactionRepository) CreateSale(ctx context.Context, sale *model.Transaction) (*model.Transaction, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productIDs, required := requiredStock(sale.Items)
		for _, productID := range productIDs {
			var product model.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, productID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainErrors.ErrProductNotFound
				}
				return fmt.Errorf("failed to lock product: %w", err)
			}

			if product.StockQuantity < required[productID] {
				return &domainErrors.InsufficientStockError{
					ProductName: product.Name,
					Requested:   required[productID],
					Available:   product.StockQuantity,
				}
			}
		}

		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		for i := range sale.Items {
			item := &sale.Items[i]

			movement := &model.StockMovement{
				ProductID:    item.ProductID,
				Quantity:     -item.Quantity,
				MovementType: model.MovementOut,
				Reference:    sale.ReferenceNumber,
				Notes:        "Sale",
			}
			if err := tx.Create(movement).Error; err != nil {
				return fmt.Errorf("failed to create stock movement: %w", err)
			}

			err := tx.Model(&model.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error
			if err != nil {
				return fmt.Errorf("failed to update stock quantity: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		r.logger.Error("Failed to create sale",
			zap.String("reference", sale.ReferenceNumber),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("Sale recorded",
		zap.String("reference", sale.ReferenceNumber),
		zap.String("total", sale.TotalAmount.String()),
		zap.String("payment_method", sale.PaymentMethod),
		zap.Int("items", len(sale.Items)))

	return sale, nil
}

// requiredStock sums the requested quantity per product so duplicate cart
// lines are checked against stock as one total. Product ids come back sorted
// to keep lock acquisition order stable across concurrent sales.
func requiredStock(items []model.TransactionItem) ([]int64, map[int64]int) {
	required := make(map[int64]int, len(items))
	for i := range items {
		required[items[i].ProductID] += items[i].Quantity
	}

	productIDs := make([]int64, 0, len(required))
	for id := range required {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	return productIDs, required
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var transaction model.Transaction

	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&transaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &transaction, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	var transaction model.Transaction

	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("reference_number = ?", reference).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return &transaction, nil
}

func (r *transactionRepository) Recent(ctx context.Context, limit int) ([]*model.Transaction, error) {
	var transactions []*model.Transaction

	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("transaction_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}

	return transactions, nil
}

func (r *transactionRepository) SalesSummary(ctx context.Context, start, end time.Time) (*model.SalesSummary, error) {
	var row struct {
		TotalTransactions int64
		TotalSales        decimal.Decimal
	}

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("COUNT(*) AS total_transactions, COALESCE(SUM(total_amount), 0) AS total_sales").
		Where("transaction_date >= ? AND transaction_date < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales summary: %w", err)
	}

	summary := &model.SalesSummary{
		TotalTransactions: row.TotalTransactions,
		TotalSales:        row.TotalSales,
		AverageSale:       decimal.Zero,
	}
	if row.TotalTransactions > 0 {
		summary.AverageSale = row.TotalSales.
			Div(decimal.NewFromInt(row.TotalTransactions)).
			Round(2)
	}

	return summary, nil
}

func (r *transactionRepository) SalesByPaymentMethod(ctx context.Context, start, end time.Time) ([]*model.PaymentMethodSales, error) {
	var rows []*model.PaymentMethodSales

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Where("transaction_date >= ? AND transaction_date < ?", start, end).
		Group("payment_method").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute payment method breakdown: %w", err)
	}

	return rows, nil
}

func (r *transactionRepository) SalesByCategory(ctx context.Context, start, end time.Time) ([]*model.CategorySales, error) {
	var rows []*model.CategorySales

	err := r.db.WithContext(ctx).
		Model(&model.TransactionItem{}).
		Select("products.category AS category, COALESCE(SUM(transaction_items.total_price), 0) AS total_sales, COALESCE(SUM(transaction_items.quantity), 0) AS quantity_sold").
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.transaction_date >= ? AND transactions.transaction_date < ?", start, end).
		Group("products.category").
		Order("total_sales DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}

	return rows, nil
}

func (r *transactionRepository) TopProducts(ctx context.Context, start, end time.Time, limit int) ([]*model.ProductSales, error) {
	var rows []*model.ProductSales

	query := r.db.WithContext(ctx).
		Model(&model.TransactionItem{}).
		Select("products.id AS product_id, products.name AS name, products.category AS category, COALESCE(SUM(transaction_items.quantity), 0) AS quantity_sold, COALESCE(SUM(transaction_items.total_price), 0) AS total_sales").
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.transaction_date >= ? AND transactions.transaction_date < ?", start, end).
		Group("products.id, products.name, products.category").
		Order("quantity_sold DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute top products: %w", err)
	}

	return rows, nil
}
