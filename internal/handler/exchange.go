package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/lmsauth/internal/domain"
	"github.com/sumire/lmsauth/internal/service"
)

// Exchanger performs a third-party access token exchange.
type Exchanger interface {
	Exchange(ctx context.Context, req service.ExchangeRequest) (*service.ExchangeResponse, error)
}

// ExchangeHandler serves the access token exchange endpoint.
type ExchangeHandler struct {
	exchanger Exchanger
}

// NewExchangeHandler creates a new ExchangeHandler.
func NewExchangeHandler(exchanger Exchanger) *ExchangeHandler {
	return &ExchangeHandler{exchanger: exchanger}
}

// Exchange accepts a form-encoded provider access token and responds with a
// first-party bearer token. Every method is routed here so that non-POST
// requests get an OAuth error body instead of a bare 405.
func (h *ExchangeHandler) Exchange(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	if c.Request().Method != http.MethodPost {
		return writeOAuthError(c, domain.NewOAuthError(domain.OAuthInvalidRequest, "Only POST requests allowed."))
	}

	var req service.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return writeOAuthError(c, domain.NewOAuthError(domain.OAuthInvalidRequest, "request body is not valid"))
	}

	resp, err := h.exchanger.Exchange(c.Request().Context(), req)
	if err != nil {
		var oauthErr *domain.OAuthError
		if errors.As(err, &oauthErr) {
			return writeOAuthError(c, oauthErr)
		}
		slog.Error("token exchange failed", "provider", req.Provider, "client_id", req.ClientID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":             "server_error",
			"error_description": "The server encountered an unexpected condition",
		})
	}

	return c.JSON(http.StatusOK, resp)
}

func writeOAuthError(c echo.Context, err *domain.OAuthError) error {
	return c.JSON(http.StatusBadRequest, err)
}
