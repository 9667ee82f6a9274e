package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/infrastructure/provider/daraja"
	"github.com/jkimani/duka-pos/internal/payment"
)

// STKProvider is the slice of the Daraja provider the facade needs.
type STKProvider interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64, reference, description string) (*daraja.STKPushResult, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*daraja.QueryResult, error)
}

// MpesaHandler is the HTTP facade in front of the Daraja API. Terminals
// talk to these endpoints instead of Daraja directly, so credentials stay
// server-side and simulation mode is transparent to them.
type MpesaHandler struct {
	provider STKProvider
	logger   *zap.Logger
}

func NewMpesaHandler(provider STKProvider, logger *zap.Logger) *MpesaHandler {
	return &MpesaHandler{
		provider: provider,
		logger:   logger,
	}
}

type mpesaInitiateRequest struct {
	PhoneNumber string  `json:"phone_number" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Reference   string  `json:"reference" validate:"required"`
	Description string  `json:"description,omitempty"`
}

// Initiate handles POST /mpesa/initiate
func (h *MpesaHandler) Initiate(c echo.Context) error {
	var req mpesaInitiateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	phone, err := payment.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	description := req.Description
	if description == "" {
		description = "Payment for goods"
	}

	result, err := h.provider.InitiateSTKPush(c.Request().Context(), phone, req.Amount, req.Reference, description)
	if err != nil {
		h.logger.Error("STK push initiation failed",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	message := "STK push sent. Ask the customer to enter their M-PESA PIN."
	if result.Simulation {
		message = "Simulation mode: payment will auto-confirm."
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": message,
		"data": echo.Map{
			"checkout_request_id": result.CheckoutRequestID,
			"merchant_request_id": result.MerchantRequestID,
			"customer_message":    result.CustomerMessage,
			"simulation":          result.Simulation,
		},
	})
}

// Verify handles GET /mpesa/verify/:checkout_request_id
func (h *MpesaHandler) Verify(c echo.Context) error {
	checkoutRequestID := c.Param("checkout_request_id")
	if checkoutRequestID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "checkout_request_id is required",
		})
	}

	result, err := h.provider.QueryStatus(c.Request().Context(), checkoutRequestID)
	if err != nil {
		h.logger.Error("STK status query failed",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	message := "Payment not yet confirmed."
	if result.Confirmed() {
		message = "Payment confirmed."
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": result.Confirmed(),
		"message": message,
		"data": echo.Map{
			"checkout_request_id": checkoutRequestID,
			"result_code":         result.ResultCode,
			"result_desc":         result.ResultDesc,
			"simulation":          result.Simulation,
		},
	})
}

// Callback handles POST /mpesa/callback, the asynchronous confirmation
// Daraja delivers. The poll loop is the source of truth for confirmation;
// the callback is logged for reconciliation.
func (h *MpesaHandler) Callback(c echo.Context) error {
	var body struct {
		Body struct {
			StkCallback struct {
				MerchantRequestID string `json:"MerchantRequestID"`
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"ResultCode": 1,
			"ResultDesc": "Invalid callback body",
		})
	}

	h.logger.Info("M-PESA callback received",
		zap.String("checkout_request_id", body.Body.StkCallback.CheckoutRequestID),
		zap.Int("result_code", body.Body.StkCallback.ResultCode),
		zap.String("result_desc", body.Body.StkCallback.ResultDesc))

	return c.JSON(http.StatusOK, echo.Map{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
