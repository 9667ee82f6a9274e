package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/usecase"
)

// ReportsHandler exposes the back-office sales and inventory reports.
type ReportsHandler struct {
	reports *usecase.ReportService
	logger  *zap.Logger
}

func NewReportsHandler(reports *usecase.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		logger:  logger,
	}
}

// SalesSummary handles GET /reports/sales?period=&start=&end=
func (h *ReportsHandler) SalesSummary(c echo.Context) error {
	summary, err := h.reports.SalesSummary(c.Request().Context(),
		c.QueryParam("period"), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, summary)
}

// SalesByCategory handles GET /reports/sales/categories?period=&start=&end=
func (h *ReportsHandler) SalesByCategory(c echo.Context) error {
	report, err := h.reports.SalesByCategory(c.Request().Context(),
		c.QueryParam("period"), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// TopProducts handles GET /reports/sales/top-products?period=&start=&end=&limit=
func (h *ReportsHandler) TopProducts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	report, err := h.reports.TopProducts(c.Request().Context(),
		c.QueryParam("period"), c.QueryParam("start"), c.QueryParam("end"), limit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// InventoryStatus handles GET /reports/inventory?threshold=
func (h *ReportsHandler) InventoryStatus(c echo.Context) error {
	threshold, _ := strconv.Atoi(c.QueryParam("threshold"))

	report, err := h.reports.InventoryStatus(c.Request().Context(), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
