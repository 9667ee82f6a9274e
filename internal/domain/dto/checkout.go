package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jkimani/duka-pos/internal/domain/model"
)

// CartItemRequest is one line of the cart submitted for checkout.
type CartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// PayRequest starts a payment for the submitted cart.
type PayRequest struct {
	Items         []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card mobile-money"`

	// Cash
	CashTendered decimal.Decimal `json:"cash_tendered,omitempty"`

	// Card
	CardNumber string `json:"card_number,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"`
	CardCVV    string `json:"card_cvv,omitempty"`
	CardType   string `json:"card_type,omitempty"`

	// Mobile money
	PhoneNumber string `json:"phone_number,omitempty"`

	CashierName string `json:"cashier_name,omitempty"`
}

// ManualCodeRequest submits a confirmation code read off the customer's phone.
type ManualCodeRequest struct {
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// PaymentStatusResponse describes the live (or just finished) payment attempt.
type PaymentStatusResponse struct {
	SessionID         string             `json:"session_id"`
	State             string             `json:"state"`
	Method            string             `json:"method"`
	Amount            decimal.Decimal    `json:"amount"`
	Reference         string             `json:"reference,omitempty"`
	CheckoutRequestID string             `json:"checkout_request_id,omitempty"`
	Attempts          int                `json:"attempts"`
	Change            *decimal.Decimal   `json:"change,omitempty"`
	Transaction       *model.Transaction `json:"transaction,omitempty"`
}
