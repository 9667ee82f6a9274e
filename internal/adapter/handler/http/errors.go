package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domainErrors "github.com/jkimani/duka-pos/internal/domain/errors"
	"github.com/jkimani/duka-pos/internal/payment"
	"github.com/jkimani/duka-pos/internal/usecase"
)

// writeError maps domain errors onto HTTP responses. Unrecognized errors
// become opaque 500s so internals never leak to the terminal.
func writeError(c echo.Context, err error) error {
	var validationErr *payment.ValidationError
	var stockErr *domainErrors.InsufficientStockError
	var gatewayErr *payment.GatewayError

	switch {
	case errors.Is(err, domainErrors.ErrProductNotFound),
		errors.Is(err, domainErrors.ErrTransactionNotFound),
		errors.Is(err, usecase.ErrNoActivePayment):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})

	case errors.Is(err, payment.ErrPaymentInProgress),
		errors.Is(err, payment.ErrNotAwaitingCode):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})

	case errors.Is(err, domainErrors.ErrDuplicateBarcode),
		errors.Is(err, domainErrors.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})

	case errors.As(err, &stockErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": stockErr.Error()})

	case errors.As(err, &gatewayErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": gatewayErr.Message})

	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
