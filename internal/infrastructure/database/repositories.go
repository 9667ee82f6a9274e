package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jkimani/duka-pos/internal/adapter/repository"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Product       domainRepo.ProductRepository
	Transaction   domainRepo.TransactionRepository
	StockMovement domainRepo.StockMovementRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Product:       repository.NewProductRepository(db, logger),
		Transaction:   repository.NewTransactionRepository(db, logger),
		StockMovement: repository.NewStockMovementRepository(db, logger),
	}
}
