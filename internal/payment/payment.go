// Package payment implements the checkout payment orchestration: a
// synchronous path for cash and card tenders, and the asynchronous
// push-payment flow for mobile money, where the customer confirms on their
// own device and the session polls the gateway until it learns the outcome.
package payment

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Method identifies how a sale is paid for.
type Method string

const (
	MethodCash        Method = "cash"
	MethodCard        Method = "card"
	MethodMobileMoney Method = "mobile-money"
)

// CashDetails carries the amount the customer handed over.
type CashDetails struct {
	Tendered decimal.Decimal
}

// CardDetails carries the raw card input as typed at the terminal.
type CardDetails struct {
	Number string
	Expiry string
	CVV    string
	Type   string
}

// MobileMoneyDetails carries the customer phone number the push request is
// sent to.
type MobileMoneyDetails struct {
	Phone string
}

// Request is the immutable input to one payment attempt.
type Request struct {
	Amount      decimal.Decimal
	Method      Method
	Cash        *CashDetails
	Card        *CardDetails
	MobileMoney *MobileMoneyDetails
	Description string
}

// Receipt is the terminal outcome of a confirmed payment.
type Receipt struct {
	Method    Method          `json:"method"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// Outcome is delivered exactly once per session: either a receipt or a
// cancellation, never both.
type Outcome struct {
	Receipt   *Receipt
	Cancelled bool
}

// Config tunes the mobile-money confirmation loop.
type Config struct {
	// PollInterval is the delay between polling ticks.
	PollInterval time.Duration
	// GraceTicks is how many ticks elapse before the first status check.
	// Polling the gateway before the customer could plausibly have entered
	// their PIN just wastes calls.
	GraceTicks int
	// MaxAttempts caps the number of ticks before the session falls back to
	// manual code entry.
	MaxAttempts int
	// ManualCodeMinLen is the minimum accepted length for a manually entered
	// confirmation code.
	ManualCodeMinLen int
	// ReferencePrefix prefixes the client-generated payment reference.
	ReferencePrefix string
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		PollInterval:     3 * time.Second,
		GraceTicks:       2,
		MaxAttempts:      10,
		ManualCodeMinLen: 8,
		ReferencePrefix:  "TRX-",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.GraceTicks <= 0 {
		c.GraceTicks = d.GraceTicks
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.ManualCodeMinLen <= 0 {
		c.ManualCodeMinLen = d.ManualCodeMinLen
	}
	if c.ReferencePrefix == "" {
		c.ReferencePrefix = d.ReferencePrefix
	}
	return c
}

// NewReference generates a client-side payment reference: the configured
// prefix followed by six zero-padded random digits.
func (c Config) NewReference() string {
	return fmt.Sprintf("%s%06d", c.ReferencePrefix, rand.Intn(1000000))
}

// Change computes the cash change due: max(0, tendered - due). It never goes
// negative so an exact tender shows zero change.
func Change(tendered, due decimal.Decimal) decimal.Decimal {
	change := tendered.Sub(due)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

const countryCode = "254"

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone converts a customer phone number to the single
// international format the gateway accepts (254XXXXXXXXX). A leading trunk
// prefix ("0") is replaced by the country code; numbers already carrying the
// country code pass through unchanged.
func NormalizePhone(phone string) (string, error) {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) < 10 {
		return "", &ValidationError{Field: "phone", Message: "phone number must have at least 10 digits"}
	}
	switch {
	case strings.HasPrefix(digits, countryCode):
		return digits, nil
	case strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:], nil
	default:
		return "", &ValidationError{Field: "phone", Message: "phone number must start with 0 or " + countryCode}
	}
}

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// validate checks the method-specific input before anything touches the
// network. It returns a *ValidationError describing the first problem found.
func (r Request) validate() error {
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}

	switch r.Method {
	case MethodCash:
		if r.Cash == nil {
			return &ValidationError{Field: "cash", Message: "cash details are required"}
		}
		if r.Cash.Tendered.LessThan(r.Amount) {
			return &ValidationError{Field: "tendered", Message: "cash amount is less than total amount"}
		}
	case MethodCard:
		if r.Card == nil {
			return &ValidationError{Field: "card", Message: "card details are required"}
		}
		number := strings.ReplaceAll(r.Card.Number, " ", "")
		if len(number) < 16 || nonDigits.MatchString(number) {
			return &ValidationError{Field: "card_number", Message: "card number must have at least 16 digits"}
		}
		if !expiryPattern.MatchString(r.Card.Expiry) {
			return &ValidationError{Field: "card_expiry", Message: "expiry must be in MM/YY format"}
		}
		if len(r.Card.CVV) < 3 || nonDigits.MatchString(r.Card.CVV) {
			return &ValidationError{Field: "card_cvv", Message: "CVV must have at least 3 digits"}
		}
	case MethodMobileMoney:
		if r.MobileMoney == nil {
			return &ValidationError{Field: "mobile_money", Message: "mobile money details are required"}
		}
		if _, err := NormalizePhone(r.MobileMoney.Phone); err != nil {
			return err
		}
	default:
		return &ValidationError{Field: "method", Message: fmt.Sprintf("unsupported payment method: %s", r.Method)}
	}
	return nil
}

// reference builds the payment reference recorded against the sale for the
// synchronous methods: "Cash: <tendered>" for cash, "<TYPE>-<last4>" for
// card.
func (r Request) reference() string {
	switch r.Method {
	case MethodCash:
		return "Cash: " + r.Cash.Tendered.StringFixed(2)
	case MethodCard:
		number := strings.ReplaceAll(r.Card.Number, " ", "")
		cardType := strings.ToUpper(r.Card.Type)
		if cardType == "" {
			cardType = "CARD"
		}
		return cardType + "-" + number[len(number)-4:]
	default:
		return ""
	}
}
