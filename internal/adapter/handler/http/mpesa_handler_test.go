package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/infrastructure/provider/daraja"
)

type fakeSTKProvider struct {
	lastPhone  string
	lastAmount float64
	pushResult *daraja.STKPushResult
	pushErr    error
	queryMap   map[string]*daraja.QueryResult
}

func (f *fakeSTKProvider) InitiateSTKPush(_ context.Context, phone string, amount float64, _, _ string) (*daraja.STKPushResult, error) {
	f.lastPhone = phone
	f.lastAmount = amount
	return f.pushResult, f.pushErr
}

func (f *fakeSTKProvider) QueryStatus(_ context.Context, checkoutRequestID string) (*daraja.QueryResult, error) {
	return f.queryMap[checkoutRequestID], nil
}

func newMpesaContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestMpesaHandler_InitiateNormalizesPhone(t *testing.T) {
	provider := &fakeSTKProvider{
		pushResult: &daraja.STKPushResult{
			CheckoutRequestID: "ws_CO_191220191020363925",
			ResponseCode:      "0",
		},
	}
	handler := NewMpesaHandler(provider, zap.NewNop())

	c, rec := newMpesaContext(t, http.MethodPost, "/mpesa/initiate",
		`{"phone_number": "0712 345 678", "amount": 250, "reference": "TRX-000042"}`)

	require.NoError(t, handler.Initiate(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "254712345678", provider.lastPhone)
	assert.Equal(t, float64(250), provider.lastAmount)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			CheckoutRequestID string `json:"checkout_request_id"`
			Simulation        bool   `json:"simulation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ws_CO_191220191020363925", resp.Data.CheckoutRequestID)
	assert.False(t, resp.Data.Simulation)
}

func TestMpesaHandler_InitiateRejectsBadPhone(t *testing.T) {
	handler := NewMpesaHandler(&fakeSTKProvider{}, zap.NewNop())

	c, rec := newMpesaContext(t, http.MethodPost, "/mpesa/initiate",
		`{"phone_number": "12345", "amount": 250, "reference": "TRX-000042"}`)

	require.NoError(t, handler.Initiate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMpesaHandler_Verify(t *testing.T) {
	provider := &fakeSTKProvider{
		queryMap: map[string]*daraja.QueryResult{
			"ws_CO_1": {ResultCode: "0", ResultDesc: "The service request is processed successfully."},
			"ws_CO_2": {ResultCode: "1032", ResultDesc: "Request cancelled by user"},
		},
	}
	handler := NewMpesaHandler(provider, zap.NewNop())

	tests := []struct {
		name              string
		checkoutRequestID string
		wantSuccess       bool
	}{
		{"confirmed payment", "ws_CO_1", true},
		{"pending payment", "ws_CO_2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newMpesaContext(t, http.MethodGet, "/mpesa/verify/"+tt.checkoutRequestID, "")
			c.SetParamNames("checkout_request_id")
			c.SetParamValues(tt.checkoutRequestID)

			require.NoError(t, handler.Verify(c))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Success bool `json:"success"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantSuccess, resp.Success)
		})
	}
}

func TestMpesaHandler_CallbackAcknowledges(t *testing.T) {
	handler := NewMpesaHandler(&fakeSTKProvider{}, zap.NewNop())

	c, rec := newMpesaContext(t, http.MethodPost, "/mpesa/callback",
		`{"Body": {"stkCallback": {"CheckoutRequestID": "ws_CO_1", "ResultCode": 0, "ResultDesc": "Success"}}}`)

	require.NoError(t, handler.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ResultCode int `json:"ResultCode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.ResultCode)
}
