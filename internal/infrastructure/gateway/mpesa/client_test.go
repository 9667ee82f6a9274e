package mpesa_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/infrastructure/gateway/mpesa"
	"github.com/jkimani/duka-pos/internal/payment"
)

func TestClient_Initiate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/mpesa/initiate", r.URL.Path)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "254712345678", body["phone_number"])
			assert.Equal(t, 250.5, body["amount"])
			assert.Equal(t, "TRX-004217", body["reference"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"message": "Payment initiated successfully. Please complete on your phone.",
				"data": map[string]interface{}{
					"checkout_request_id": "ws_CO_1700000000",
					"simulation":          true,
				},
			})
		}))
		defer server.Close()

		client := mpesa.NewClient(server.URL, zap.NewNop())
		result, err := client.Initiate(context.Background(), "254712345678",
			decimal.RequireFromString("250.50"), "TRX-004217", "Payment for goods")
		require.NoError(t, err)

		assert.Equal(t, "ws_CO_1700000000", result.CheckoutID)
		assert.True(t, result.Simulated)
	})

	t.Run("refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Phone number should be in the format 254XXXXXXXXX",
			})
		}))
		defer server.Close()

		client := mpesa.NewClient(server.URL, zap.NewNop())
		result, err := client.Initiate(context.Background(), "0712345678",
			decimal.NewFromInt(100), "TRX-000001", "Payment for goods")
		assert.Nil(t, result)

		var gatewayErr *payment.GatewayError
		require.ErrorAs(t, err, &gatewayErr)
		assert.Contains(t, gatewayErr.Message, "254XXXXXXXXX")
	})

	t.Run("unreachable gateway", func(t *testing.T) {
		client := mpesa.NewClient("http://127.0.0.1:1", zap.NewNop())
		_, err := client.Initiate(context.Background(), "254712345678",
			decimal.NewFromInt(100), "TRX-000001", "Payment for goods")

		var gatewayErr *payment.GatewayError
		require.ErrorAs(t, err, &gatewayErr)
	})
}

func TestClient_CheckStatus(t *testing.T) {
	cases := []struct {
		name          string
		status        int
		body          map[string]interface{}
		wantConfirmed bool
	}{
		{
			name:          "confirmed via success",
			status:        http.StatusOK,
			body:          map[string]interface{}{"success": true, "message": "Payment completed successfully"},
			wantConfirmed: true,
		},
		{
			name:   "confirmed via simulation flag",
			status: http.StatusOK,
			body: map[string]interface{}{
				"success": false,
				"data":    map[string]interface{}{"simulation": true},
			},
			wantConfirmed: true,
		},
		{
			name:          "still pending",
			status:        http.StatusOK,
			body:          map[string]interface{}{"success": false, "message": "The transaction is being processed"},
			wantConfirmed: false,
		},
		{
			name:          "pending reported with error status",
			status:        http.StatusBadRequest,
			body:          map[string]interface{}{"success": false, "message": "Failed to verify payment"},
			wantConfirmed: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/mpesa/verify/ws_CO_42", r.URL.Path)
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			client := mpesa.NewClient(server.URL, zap.NewNop())
			result, err := client.CheckStatus(context.Background(), "ws_CO_42")
			require.NoError(t, err)
			assert.Equal(t, tc.wantConfirmed, result.Confirmed)
		})
	}

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client := mpesa.NewClient(server.URL, zap.NewNop())
		_, err := client.CheckStatus(context.Background(), "ws_CO_42")
		assert.Error(t, err)
	})
}
