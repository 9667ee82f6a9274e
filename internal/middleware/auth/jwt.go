package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthTerminal represents an authenticated POS terminal session from JWT
type AuthTerminal struct {
	TerminalID string `json:"terminal_id"`
	Cashier    string `json:"cashier"`
	Role       string `json:"role"`
}

// contextKey is used for storing the terminal in context
type contextKey string

const terminalContextKey contextKey = "authenticated_terminal"

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware creates a middleware that validates terminal JWT tokens.
// Every authenticated request also carries an X-Terminal-Id header naming
// the till the request comes from.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authorization header required",
					"code":  "MISSING_AUTH_HEADER",
				})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid authorization header format. Expected: Bearer <token>",
					"code":  "INVALID_AUTH_FORMAT",
				})
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
					"code":  "INVALID_TOKEN",
				})
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				config.Logger.Warn("Invalid JWT claims",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid token claims",
					"code":  "INVALID_CLAIMS",
				})
			}

			terminalID := c.Request().Header.Get("X-Terminal-Id")
			if terminalID == "" {
				config.Logger.Warn("Missing X-Terminal-Id header",
					zap.String("path", path))
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "X-Terminal-Id header required",
					"code":  "MISSING_TERMINAL_ID",
				})
			}
			if _, err := uuid.Parse(terminalID); err != nil {
				config.Logger.Warn("Invalid terminal_id format",
					zap.String("terminal_id", terminalID),
					zap.String("path", path),
					zap.Error(err))
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "X-Terminal-Id must be a valid UUID format",
					"code":  "INVALID_TERMINAL_ID_FORMAT",
				})
			}

			cashier, _ := claims["cashier"].(string)
			role, _ := claims["role"].(string)

			terminal := &AuthTerminal{
				TerminalID: terminalID,
				Cashier:    cashier,
				Role:       role,
			}

			ctx := context.WithValue(c.Request().Context(), terminalContextKey, terminal)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("terminal_id", terminalID)

			config.Logger.Debug("Terminal authenticated successfully",
				zap.String("terminal_id", terminalID),
				zap.String("cashier", cashier),
				zap.String("path", path))

			return next(c)
		}
	}
}

// GetTerminalFromContext extracts the authenticated terminal from the request context
func GetTerminalFromContext(c echo.Context) (*AuthTerminal, error) {
	terminal, ok := c.Request().Context().Value(terminalContextKey).(*AuthTerminal)
	if !ok || terminal == nil {
		return nil, fmt.Errorf("no authenticated terminal found in context")
	}
	return terminal, nil
}

// GetTerminalID is a helper function to get the terminal id from context
func GetTerminalID(c echo.Context) (string, error) {
	terminal, err := GetTerminalFromContext(c)
	if err != nil {
		return "", err
	}
	return terminal.TerminalID, nil
}
