package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/domain/dto"
	domainErrors "github.com/jkimani/duka-pos/internal/domain/errors"
	"github.com/jkimani/duka-pos/internal/domain/model"
	domainRepo "github.com/jkimani/duka-pos/internal/domain/repository"
	"github.com/jkimani/duka-pos/internal/payment"
)

// ErrNoActivePayment is returned when a status, code or cancel call arrives
// with no payment in flight.
var ErrNoActivePayment = errors.New("no active payment")

// recordTimeout bounds the background database write that persists a sale
// after an asynchronous confirmation.
const recordTimeout = 30 * time.Second

// syncOutcomeTimeout bounds the wait on the completion channel for cash and
// card payments, which resolve before Submit returns.
const syncOutcomeTimeout = 5 * time.Second

// CheckoutService drives the sale flow: it prices the cart, runs the payment
// through the orchestrator, and records the sale once the payment confirms.
// Cash and card record synchronously; mobile money records from a background
// goroutine when the session's completion channel resolves.
type CheckoutService struct {
	transactionRepo domainRepo.TransactionRepository
	productRepo     domainRepo.ProductRepository
	orchestrator    *payment.Orchestrator
	logger          *zap.Logger

	mu      sync.Mutex
	session *payment.Session
	sale    *model.Transaction
	change  *decimal.Decimal
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	transactionRepo domainRepo.TransactionRepository,
	productRepo domainRepo.ProductRepository,
	orchestrator *payment.Orchestrator,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		transactionRepo: transactionRepo,
		productRepo:     productRepo,
		orchestrator:    orchestrator,
		logger:          logger,
	}
}

// Pay starts a payment for the submitted cart. For cash and card the sale is
// recorded before returning; for mobile money the response describes the
// pending session and the sale is recorded when the customer confirms.
func (s *CheckoutService) Pay(ctx context.Context, req *dto.PayRequest) (*dto.PaymentStatusResponse, error) {
	if len(req.Items) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	sale, err := s.buildSale(ctx, req)
	if err != nil {
		return nil, err
	}

	payReq := payment.Request{
		Amount:      sale.TotalAmount,
		Method:      payment.Method(req.PaymentMethod),
		Description: "Payment for goods",
	}
	switch payReq.Method {
	case payment.MethodCash:
		payReq.Cash = &payment.CashDetails{Tendered: req.CashTendered}
	case payment.MethodCard:
		payReq.Card = &payment.CardDetails{
			Number: req.CardNumber,
			Expiry: req.CardExpiry,
			CVV:    req.CardCVV,
			Type:   req.CardType,
		}
	case payment.MethodMobileMoney:
		payReq.MobileMoney = &payment.MobileMoneyDetails{Phone: req.PhoneNumber}
	}

	session, err := s.orchestrator.Submit(ctx, payReq)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = session
	s.sale = sale
	s.change = nil
	s.mu.Unlock()

	switch payReq.Method {
	case payment.MethodCash, payment.MethodCard:
		// Synchronous methods resolve the completion channel inside Submit.
		var outcome payment.Outcome
		select {
		case outcome = <-session.Done():
		case <-time.After(syncOutcomeTimeout):
			return nil, errors.New("synchronous payment did not resolve")
		}
		recorded, err := s.recordSale(ctx, sale, outcome.Receipt)
		if err != nil {
			return nil, err
		}
		if payReq.Method == payment.MethodCash {
			change := payment.Change(req.CashTendered, sale.TotalAmount)
			s.mu.Lock()
			s.change = &change
			s.mu.Unlock()
		}
		s.mu.Lock()
		s.sale = recorded
		s.mu.Unlock()
	default:
		go s.awaitConfirmation(session, sale)
	}

	return s.Status(ctx)
}

// Status reports the live payment attempt, including the recorded sale once
// the payment has confirmed and the sale has been persisted.
func (s *CheckoutService) Status(ctx context.Context) (*dto.PaymentStatusResponse, error) {
	s.mu.Lock()
	session := s.session
	sale := s.sale
	change := s.change
	s.mu.Unlock()

	if session == nil {
		return nil, ErrNoActivePayment
	}

	resp := &dto.PaymentStatusResponse{
		SessionID:         session.ID().String(),
		State:             session.State().String(),
		Method:            string(session.Method()),
		Amount:            session.Amount(),
		Reference:         session.Reference(),
		CheckoutRequestID: session.CheckoutID(),
		Attempts:          session.Attempts(),
		Change:            change,
	}
	if session.State() == payment.StateConfirmed && sale != nil && sale.ID != 0 {
		resp.Transaction = sale
	}
	return resp, nil
}

// SubmitManualCode confirms the active session with a code read off the
// customer's device.
func (s *CheckoutService) SubmitManualCode(ctx context.Context, code string) (*dto.PaymentStatusResponse, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return nil, ErrNoActivePayment
	}
	if err := session.SubmitManualCode(code); err != nil {
		return nil, err
	}
	return s.Status(ctx)
}

// Cancel aborts the active payment attempt. No sale is recorded.
func (s *CheckoutService) Cancel(ctx context.Context) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return ErrNoActivePayment
	}
	session.Cancel()
	return nil
}

// GetTransaction returns one recorded sale with its items.
func (s *CheckoutService) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, id)
}

// RecentTransactions lists the latest recorded sales.
func (s *CheckoutService) RecentTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.transactionRepo.Recent(ctx, limit)
}

// SearchProducts finds products for the cashier's cart lookup.
func (s *CheckoutService) SearchProducts(ctx context.Context, query, category string) ([]*model.Product, error) {
	return s.productRepo.Search(ctx, query, category, 50)
}

// buildSale prices the cart against current product data. Stock is only
// verified here for an early error; the authoritative check happens inside
// the sale-creation transaction.
func (s *CheckoutService) buildSale(ctx context.Context, req *dto.PayRequest) (*model.Transaction, error) {
	sale := &model.Transaction{
		ReferenceNumber: newSaleReference(),
		TransactionDate: time.Now(),
		PaymentMethod:   req.PaymentMethod,
		CashierName:     req.CashierName,
	}
	if sale.CashierName == "" {
		sale.CashierName = "System"
	}

	total := decimal.Zero
	requested := make(map[int64]int, len(req.Items))
	for _, item := range req.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		// Duplicate lines for one product count against stock as a total.
		requested[item.ProductID] += item.Quantity
		if product.StockQuantity < requested[item.ProductID] {
			return nil, &domainErrors.InsufficientStockError{
				ProductName: product.Name,
				Requested:   requested[item.ProductID],
				Available:   product.StockQuantity,
			}
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sale.Items = append(sale.Items, model.TransactionItem{
			ProductID:  product.ID,
			Quantity:   item.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	sale.TotalAmount = total

	return sale, nil
}

// awaitConfirmation waits for an asynchronous session to resolve and records
// the sale on confirmation. A cancelled session records nothing.
func (s *CheckoutService) awaitConfirmation(session *payment.Session, sale *model.Transaction) {
	outcome := <-session.Done()
	if outcome.Receipt == nil {
		s.logger.Info("payment cancelled, sale discarded",
			zap.String("session_id", session.ID().String()),
			zap.String("reference", sale.ReferenceNumber))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	recorded, err := s.recordSale(ctx, sale, outcome.Receipt)
	if err != nil {
		s.logger.Error("failed to record confirmed sale",
			zap.String("session_id", session.ID().String()),
			zap.String("reference", sale.ReferenceNumber),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.session == session {
		s.sale = recorded
	}
	s.mu.Unlock()
}

func (s *CheckoutService) recordSale(ctx context.Context, sale *model.Transaction, receipt *payment.Receipt) (*model.Transaction, error) {
	sale.PaymentReference = receipt.Reference

	recorded, err := s.transactionRepo.CreateSale(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return recorded, nil
}

// newSaleReference generates the sale's receipt number.
func newSaleReference() string {
	return fmt.Sprintf("TRX-%06d", rand.Intn(1000000))
}
