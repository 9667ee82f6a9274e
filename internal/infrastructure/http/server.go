package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/jkimani/duka-pos/internal/adapter/handler/http"
	"github.com/jkimani/duka-pos/internal/config"
	"github.com/jkimani/duka-pos/internal/infrastructure/database"
	"github.com/jkimani/duka-pos/internal/infrastructure/gateway/mpesa"
	"github.com/jkimani/duka-pos/internal/infrastructure/provider/daraja"
	"github.com/jkimani/duka-pos/internal/middleware/auth"
	"github.com/jkimani/duka-pos/internal/payment"
	"github.com/jkimani/duka-pos/internal/usecase"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	repos    *database.Repositories
	provider *daraja.Provider
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, provider *daraja.Provider) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		repos:    repos,
		provider: provider,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "pos",
		})
	})

	// The payment core reaches M-PESA through this service's own /mpesa
	// facade, so terminals and the core see identical gateway behavior.
	gatewayURL := s.config.Mpesa.GatewayURL
	if gatewayURL == "" {
		gatewayURL = fmt.Sprintf("http://127.0.0.1:%d", s.config.Server.HTTP.Port)
	}
	gateway := mpesa.NewClient(gatewayURL, s.logger)

	orchestrator := payment.NewOrchestrator(payment.Config{
		PollInterval:     s.config.Payment.PollInterval,
		GraceTicks:       s.config.Payment.GraceTicks,
		MaxAttempts:      s.config.Payment.MaxAttempts,
		ManualCodeMinLen: s.config.Payment.ManualCodeMinLen,
		ReferencePrefix:  s.config.Payment.ReferencePrefix,
	}, gateway, payment.NewTickerScheduler(), s.logger)

	// Initialize usecases
	checkoutService := usecase.NewCheckoutService(s.repos.Transaction, s.repos.Product, orchestrator, s.logger)
	inventoryService := usecase.NewInventoryService(s.repos.Product, s.repos.StockMovement, s.logger)
	reportService := usecase.NewReportService(s.repos.Transaction, s.repos.Product, s.logger)

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, s.logger)
	mpesaHandler := handlers.NewMpesaHandler(s.provider, s.logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, s.logger)
	reportsHandler := handlers.NewReportsHandler(reportService, s.logger)

	// Checkout routes (the terminal's sale flow)
	checkout := s.echo.Group("/checkout")
	checkout.GET("/products", checkoutHandler.SearchProducts)
	checkout.POST("/pay", checkoutHandler.Pay)
	checkout.GET("/pay/status", checkoutHandler.PaymentStatus)
	checkout.POST("/pay/manual-code", checkoutHandler.SubmitManualCode)
	checkout.POST("/pay/cancel", checkoutHandler.CancelPayment)
	checkout.GET("/transactions", checkoutHandler.RecentTransactions)
	checkout.GET("/transactions/:id", checkoutHandler.GetTransaction)

	// M-PESA facade routes (consumed by the gateway client and by Daraja)
	mpesaGroup := s.echo.Group("/mpesa")
	mpesaGroup.POST("/initiate", mpesaHandler.Initiate)
	mpesaGroup.GET("/verify/:checkout_request_id", mpesaHandler.Verify)
	mpesaGroup.POST("/callback", mpesaHandler.Callback)

	// Inventory routes; catalogue reads are open, mutations need a
	// manager token.
	inventory := s.echo.Group("/inventory")
	inventory.GET("/products", inventoryHandler.ListProducts)
	inventory.GET("/products/:id", inventoryHandler.GetProduct)
	inventory.GET("/products/barcode/:barcode", inventoryHandler.GetProductByBarcode)
	inventory.GET("/categories", inventoryHandler.ListCategories)
	inventory.GET("/movements", inventoryHandler.ListMovements)

	protected := inventory.Group("", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}))
	protected.POST("/products", inventoryHandler.CreateProduct)
	protected.PUT("/products/:id", inventoryHandler.UpdateProduct)
	protected.DELETE("/products/:id", inventoryHandler.DeleteProduct)
	protected.POST("/movements", inventoryHandler.RecordMovement)

	// Reports routes
	reports := s.echo.Group("/reports")
	reports.GET("/sales", reportsHandler.SalesSummary)
	reports.GET("/sales/categories", reportsHandler.SalesByCategory)
	reports.GET("/sales/top-products", reportsHandler.TopProducts)
	reports.GET("/inventory", reportsHandler.InventoryStatus)
}
