package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/domain/dto"
	"github.com/jkimani/duka-pos/internal/usecase"
)

// InventoryHandler exposes the product catalogue and stock movement APIs.
type InventoryHandler struct {
	inventory *usecase.InventoryService
	logger    *zap.Logger
}

func NewInventoryHandler(inventory *usecase.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// ListProducts handles GET /inventory/products?q=&category=
func (h *InventoryHandler) ListProducts(c echo.Context) error {
	products, err := h.inventory.SearchProducts(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// GetProduct handles GET /inventory/products/:id
func (h *InventoryHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	product, err := h.inventory.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// GetProductByBarcode handles GET /inventory/products/barcode/:barcode
func (h *InventoryHandler) GetProductByBarcode(c echo.Context) error {
	product, err := h.inventory.GetProductByBarcode(c.Request().Context(), c.Param("barcode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /inventory/products
func (h *InventoryHandler) CreateProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	product, err := h.inventory.CreateProduct(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /inventory/products/:id
func (h *InventoryHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	product, err := h.inventory.UpdateProduct(c.Request().Context(), id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /inventory/products/:id
func (h *InventoryHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	if err := h.inventory.DeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCategories handles GET /inventory/categories
func (h *InventoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.inventory.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

// ListMovements handles GET /inventory/movements?product_id=&type=&limit=
func (h *InventoryHandler) ListMovements(c echo.Context) error {
	productID, _ := strconv.ParseInt(c.QueryParam("product_id"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	movements, err := h.inventory.ListMovements(c.Request().Context(), productID, c.QueryParam("type"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movements": movements})
}

// RecordMovement handles POST /inventory/movements
func (h *InventoryHandler) RecordMovement(c echo.Context) error {
	var req dto.StockMovementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	movement, err := h.inventory.RecordMovement(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, movement)
}
