package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// InitiationResult is the gateway's answer to a push-payment request.
type InitiationResult struct {
	// CheckoutID is the gateway-assigned correlation id used to poll for the
	// outcome of this attempt.
	CheckoutID string
	// Simulated is true when the gateway ran in simulation mode.
	Simulated bool
}

// StatusResult is the gateway's answer to a status poll.
type StatusResult struct {
	Confirmed bool
	Simulated bool
}

// Gateway is the boundary to the external payment gateway. Implementations
// carry no business logic: one call, one network round trip.
type Gateway interface {
	// Initiate submits a push-payment request to the customer's phone. It is
	// never retried automatically.
	Initiate(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (*InitiationResult, error)

	// CheckStatus asks whether the attempt identified by checkoutID has been
	// confirmed. Callers treat errors as "still pending" rather than fatal: a
	// network blip must not abort an otherwise succeeding confirmation.
	CheckStatus(ctx context.Context, checkoutID string) (*StatusResult, error)
}
