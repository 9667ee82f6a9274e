// Package daraja integrates with the Safaricom M-PESA Daraja API: OAuth
// token acquisition, STK push initiation and transaction status queries.
//
// When API credentials are not configured the provider runs in simulation
// mode: requests are acknowledged locally with synthetic checkout ids and
// every status query reports success. This keeps development and demo
// environments working without merchant credentials.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config carries the Daraja merchant credentials and endpoints.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	AuthURL        string
	STKPushURL     string
	QueryURL       string
	CallbackURL    string
}

// Simulated reports whether the provider runs without real credentials.
func (c Config) Simulated() bool {
	return c.ConsumerKey == "" || c.ConsumerSecret == "" || c.ShortCode == "" || c.PassKey == ""
}

// Error is a failure reported by the Daraja API.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("daraja: %s (%s)", e.Message, e.Code)
}

// STKPushResult is the acknowledgement of an STK push request. A non-error
// result only means the push reached the customer's phone; confirmation
// arrives later.
type STKPushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	Simulation          bool   `json:"-"`
}

// QueryResult is the status of a previously initiated STK push.
type QueryResult struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
	Simulation          bool   `json:"-"`
}

// Confirmed reports whether the customer completed the payment.
func (q *QueryResult) Confirmed() bool {
	return q.Simulation || q.ResultCode == "0"
}

// Provider is the Daraja API client.
type Provider struct {
	cfg    Config
	client *http.Client
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

// NewProvider creates a Daraja provider. tokens caches OAuth access tokens
// between calls; pass NewMemoryTokenStore() when no shared cache is
// available.
func NewProvider(cfg Config, tokens TokenStore, logger *zap.Logger) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

const timestampLayout = "20060102150405"

// password derives the API password for a request timestamp:
// base64(shortcode + passkey + timestamp).
func (p *Provider) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(p.cfg.ShortCode + p.cfg.PassKey + timestamp))
}

// InitiateSTKPush asks Daraja to push a payment prompt to the customer's
// phone. phone must already be in international format (254XXXXXXXXX).
func (p *Provider) InitiateSTKPush(ctx context.Context, phone string, amount float64, reference, description string) (*STKPushResult, error) {
	if p.cfg.Simulated() {
		p.logger.Warn("M-PESA credentials not set, running in simulation mode")
		return &STKPushResult{
			CheckoutRequestID:   fmt.Sprintf("ws_CO_%d", p.now().Unix()),
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
			Simulation:          true,
		}, nil
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := p.now().Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": p.cfg.ShortCode,
		"Password":          p.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(amount),
		"PartyA":            phone,
		"PartyB":            p.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       p.cfg.CallbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   description,
	}

	var result STKPushResult
	if err := p.post(ctx, p.cfg.STKPushURL, token, payload, &result); err != nil {
		return nil, err
	}
	if result.ResponseCode != "0" {
		return nil, &Error{Code: result.ResponseCode, Message: result.ResponseDescription}
	}

	p.logger.Info("STK push accepted",
		zap.String("checkout_request_id", result.CheckoutRequestID),
		zap.String("reference", reference))
	return &result, nil
}

// QueryStatus asks Daraja for the outcome of a previously initiated push.
func (p *Provider) QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResult, error) {
	if p.cfg.Simulated() {
		return &QueryResult{
			ResponseCode:        "0",
			ResponseDescription: "The service request has been accepted successfully",
			ResultCode:          "0",
			ResultDesc:          "The service request is processed successfully.",
			Simulation:          true,
		}, nil
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := p.now().Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": p.cfg.ShortCode,
		"Password":          p.password(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var result QueryResult
	if err := p.post(ctx, p.cfg.QueryURL, token, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *Provider) post(ctx context.Context, url, token string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Code: "NETWORK_ERROR", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: "RESPONSE_ERROR", Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		json.Unmarshal(respBody, &apiErr)
		p.logger.Error("Daraja API request failed",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))
		if apiErr.ErrorCode != "" {
			return &Error{Code: apiErr.ErrorCode, Message: apiErr.ErrorMessage}
		}
		return &Error{Code: fmt.Sprint(resp.StatusCode), Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Code: "PARSE_ERROR", Message: err.Error()}
	}
	return nil
}
