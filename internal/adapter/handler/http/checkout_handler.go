package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/domain/dto"
	"github.com/jkimani/duka-pos/internal/usecase"
)

// CheckoutHandler exposes the sale flow: product lookup for the cart,
// starting a payment, tracking it, and reading back recorded transactions.
type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// SearchProducts handles GET /checkout/products?q=&category=
func (h *CheckoutHandler) SearchProducts(c echo.Context) error {
	products, err := h.checkout.SearchProducts(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// Pay handles POST /checkout/pay
func (h *CheckoutHandler) Pay(c echo.Context) error {
	var req dto.PayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	h.logger.Info("Starting payment",
		zap.String("method", req.PaymentMethod),
		zap.Int("items", len(req.Items)))

	status, err := h.checkout.Pay(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, status)
}

// PaymentStatus handles GET /checkout/pay/status
func (h *CheckoutHandler) PaymentStatus(c echo.Context) error {
	status, err := h.checkout.Status(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// SubmitManualCode handles POST /checkout/pay/manual-code
func (h *CheckoutHandler) SubmitManualCode(c echo.Context) error {
	var req dto.ManualCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, err := h.checkout.SubmitManualCode(c.Request().Context(), req.ConfirmationCode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// CancelPayment handles POST /checkout/pay/cancel
func (h *CheckoutHandler) CancelPayment(c echo.Context) error {
	if err := h.checkout.Cancel(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
}

// GetTransaction handles GET /checkout/transactions/:id
func (h *CheckoutHandler) GetTransaction(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid transaction id"})
	}

	transaction, err := h.checkout.GetTransaction(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transaction)
}

// RecentTransactions handles GET /checkout/transactions?limit=
func (h *CheckoutHandler) RecentTransactions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	transactions, err := h.checkout.RecentTransactions(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": transactions})
}
