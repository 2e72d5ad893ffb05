package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sumire/lmsauth/internal/domain"
)

// Services groups the collaborators served over HTTP.
type Services struct {
	Exchanger Exchanger
	Auth      Authenticator
	Accounts  AccountManager
	Gatherer  prometheus.Gatherer

	// Visibility of other users' accounts. The zero value falls back to
	// domain.DefaultVisibilityConfig.
	Visibility domain.VisibilityConfig
}

// NewServer builds the echo instance with all routes and middleware.
func NewServer(svc Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewAppValidator()

	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}

	exchange := NewExchangeHandler(svc.Exchanger)
	e.Any("/oauth2/exchange_access_token", exchange.Exchange)

	visibility := svc.Visibility
	if visibility.DefaultVisibility == "" {
		visibility = domain.DefaultVisibilityConfig()
	}
	accounts := NewAccountHandler(svc.Accounts, visibility)
	api := e.Group("/api/user/v1", BearerAuth(svc.Auth))
	api.GET("/accounts/:username", accounts.Get)
	api.PATCH("/accounts/:username", accounts.Patch)
	api.PUT("/preferences/:username/account_privacy", accounts.SetPrivacy)

	return e
}
