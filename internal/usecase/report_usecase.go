package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/domain/dto"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
)

// DefaultLowStockThreshold flags products that need reordering when no
// explicit threshold is supplied.
const DefaultLowStockThreshold = 10

// ReportService aggregates sales and inventory figures for the back office.
type ReportService struct {
	transactionRepo domainRepo.TransactionRepository
	productRepo     domainRepo.ProductRepository
	logger          *zap.Logger

	now func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	transactionRepo domainRepo.TransactionRepository,
	productRepo domainRepo.ProductRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		transactionRepo: transactionRepo,
		productRepo:     productRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// resolvePeriod turns a named period into a half-open [start, end) window.
// "today" covers the current calendar day, "week" the last 7 days, "month"
// the last 30 days. "custom" requires start and end dates (end inclusive).
func (s *ReportService) resolvePeriod(period, startStr, endStr string) (dto.ReportPeriod, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case "", "today":
		return dto.ReportPeriod{Period: "today", Start: midnight, End: midnight.AddDate(0, 0, 1)}, nil
	case "week":
		return dto.ReportPeriod{Period: "week", Start: midnight.AddDate(0, 0, -7), End: midnight.AddDate(0, 0, 1)}, nil
	case "month":
		return dto.ReportPeriod{Period: "month", Start: midnight.AddDate(0, 0, -30), End: midnight.AddDate(0, 0, 1)}, nil
	case "custom":
		start, err := time.ParseInLocation("2006-01-02", startStr, now.Location())
		if err != nil {
			return dto.ReportPeriod{}, fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, now.Location())
		if err != nil {
			return dto.ReportPeriod{}, fmt.Errorf("invalid end date: %w", err)
		}
		return dto.ReportPeriod{Period: "custom", Start: start, End: end.AddDate(0, 0, 1)}, nil
	default:
		return dto.ReportPeriod{}, fmt.Errorf("unknown report period: %s", period)
	}
}

// SalesSummary reports totals, the average sale and the payment method
// breakdown for one period.
func (s *ReportService) SalesSummary(ctx context.Context, period, start, end string) (*dto.SalesSummaryResponse, error) {
	window, err := s.resolvePeriod(period, start, end)
	if err != nil {
		return nil, err
	}

	summary, err := s.transactionRepo.SalesSummary(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	methods, err := s.transactionRepo.SalesByPaymentMethod(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	return &dto.SalesSummaryResponse{
		ReportPeriod:   window,
		Summary:        summary,
		PaymentMethods: methods,
	}, nil
}

// SalesByCategory reports per-category revenue and quantities for one period.
func (s *ReportService) SalesByCategory(ctx context.Context, period, start, end string) (*dto.CategorySalesResponse, error) {
	window, err := s.resolvePeriod(period, start, end)
	if err != nil {
		return nil, err
	}

	categories, err := s.transactionRepo.SalesByCategory(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	return &dto.CategorySalesResponse{
		ReportPeriod: window,
		Categories:   categories,
	}, nil
}

// TopProducts ranks products by quantity sold over one period.
func (s *ReportService) TopProducts(ctx context.Context, period, start, end string, limit int) (*dto.TopProductsResponse, error) {
	window, err := s.resolvePeriod(period, start, end)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	products, err := s.transactionRepo.TopProducts(ctx, window.Start, window.End, limit)
	if err != nil {
		return nil, err
	}

	return &dto.TopProductsResponse{
		ReportPeriod: window,
		Products:     products,
	}, nil
}

// InventoryStatus groups products at or below the threshold into low-stock
// and out-of-stock buckets.
func (s *ReportService) InventoryStatus(ctx context.Context, threshold int) (*dto.InventoryStatusResponse, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	products, err := s.productRepo.LowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}

	resp := &dto.InventoryStatusResponse{Threshold: threshold}
	for _, p := range products {
		if p.StockQuantity == 0 {
			resp.OutOfStock = append(resp.OutOfStock, p)
		} else {
			resp.LowStock = append(resp.LowStock, p)
		}
	}
	return resp, nil
}
