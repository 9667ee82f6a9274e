package payment

import (
	"errors"
	"fmt"
)

// ErrPaymentInProgress is returned by Submit while another session is still
// live. The terminal processes one sale at a time.
var ErrPaymentInProgress = errors.New("another payment is already in progress")

// ErrNotAwaitingCode is returned when a manual confirmation code arrives
// while the session is not in the manual-entry state.
var ErrNotAwaitingCode = errors.New("session is not awaiting a manual confirmation code")

// ValidationError reports bad method-specific input. It is raised before any
// network call and never advances the session state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// GatewayError reports an initiation explicitly refused by the payment
// gateway. The session ends in the failed state; the cashier may start a new
// session, but the initiation call is never retried automatically.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway: %s: %v", e.Message, e.Err)
	}
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
