// Package mpesa implements the payment.Gateway boundary against the M-PESA
// facade API: one endpoint to initiate an STK push and one to poll its
// status.
package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/payment"
)

const defaultTimeout = 30 * time.Second

// Client talks to the gateway facade over HTTP+JSON. It carries no business
// logic: one call, one round trip.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a gateway client for the facade at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

type initiateRequest struct {
	PhoneNumber string  `json:"phone_number"`
	Amount      float64 `json:"amount"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		CheckoutRequestID string `json:"checkout_request_id"`
		Simulation        bool   `json:"simulation"`
	} `json:"data"`
}

// Initiate submits an STK push request. A refused initiation comes back as a
// *payment.GatewayError; it is never retried here.
func (c *Client) Initiate(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (*payment.InitiationResult, error) {
	body, err := json.Marshal(initiateRequest{
		PhoneNumber: phone,
		Amount:      amount.InexactFloat64(),
		Reference:   reference,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode initiate request: %w", err)
	}

	url := c.baseURL + "/mpesa/initiate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create initiate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &payment.GatewayError{Message: "initiate request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &payment.GatewayError{Message: "failed to read initiate response", Err: err}
	}

	var result envelope
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &payment.GatewayError{
			Message: fmt.Sprintf("unexpected initiate response (status %d)", resp.StatusCode),
			Err:     err,
		}
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = fmt.Sprintf("initiation refused (status %d)", resp.StatusCode)
		}
		c.logger.Warn("push payment initiation refused",
			zap.String("reference", reference),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", message))
		return nil, &payment.GatewayError{Message: message}
	}

	return &payment.InitiationResult{
		CheckoutID: result.Data.CheckoutRequestID,
		Simulated:  result.Data.Simulation,
	}, nil
}

// CheckStatus polls the facade for the outcome of one attempt. A payment
// counts as confirmed when the facade reports success or a simulated run;
// any other well-formed answer means "still pending". Transport and decode
// failures are returned as errors for the caller to swallow.
func (c *Client) CheckStatus(ctx context.Context, checkoutID string) (*payment.StatusResult, error) {
	url := c.baseURL + "/mpesa/verify/" + checkoutID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify response: %w", err)
	}

	// The facade answers pending and failed polls with success=false bodies,
	// sometimes under a non-2xx status. Any body that decodes is an answer.
	var result envelope
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unexpected verify response (status %d): %w", resp.StatusCode, err)
	}

	return &payment.StatusResult{
		Confirmed: result.Success || result.Data.Simulation,
		Simulated: result.Data.Simulation,
	}, nil
}
