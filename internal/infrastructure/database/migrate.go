package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.Product{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.StockMovement{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Speeds up the low-stock report
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_products_low_stock ON products (stock_quantity) WHERE stock_quantity <= 10`).Error; err != nil {
		return err
	}

	// Speeds up per-day report windows
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_date_method ON transactions (transaction_date, payment_method)`).Error; err != nil {
		return err
	}

	return nil
}
