package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/lmsauth/internal/domain"
)

// AccountManager reads and updates account settings.
type AccountManager interface {
	GetAccountSettings(ctx context.Context, requester *domain.User, username, view string, cfg *domain.VisibilityConfig) (map[string]any, error)
	UpdateAccountSettings(ctx context.Context, requester *domain.User, update map[string]any, username string) (*domain.User, error)
	SetAccountPrivacy(ctx context.Context, requester *domain.User, username, value string) error
}

// AccountHandler serves the account settings API.
type AccountHandler struct {
	accounts   AccountManager
	visibility domain.VisibilityConfig
}

// NewAccountHandler creates a new AccountHandler that shows other users'
// accounts according to visibility.
func NewAccountHandler(accounts AccountManager, visibility domain.VisibilityConfig) *AccountHandler {
	return &AccountHandler{accounts: accounts, visibility: visibility}
}

// Get returns the settings of the account named in the path.
func (h *AccountHandler) Get(c echo.Context) error {
	user, ok := GetUser(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	settings, err := h.accounts.GetAccountSettings(c.Request().Context(), user, c.Param("username"), c.QueryParam("view"), &h.visibility)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, settings)
}

// Patch applies a JSON merge patch to the account named in the path.
func (h *AccountHandler) Patch(c echo.Context) error {
	user, ok := GetUser(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var update map[string]any
	if err := dec.Decode(&update); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	ctx := c.Request().Context()
	username := c.Param("username")
	if _, err := h.accounts.UpdateAccountSettings(ctx, user, update, username); err != nil {
		return err
	}

	settings, err := h.accounts.GetAccountSettings(ctx, user, username, "", &h.visibility)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, settings)
}

type privacyRequest struct {
	Value string `json:"value" validate:"required,oneof=private all_users"`
}

// SetPrivacy sets the account_privacy preference of the account named in the path.
func (h *AccountHandler) SetPrivacy(c echo.Context) error {
	user, ok := GetUser(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var body privacyRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	if err := h.accounts.SetAccountPrivacy(c.Request().Context(), user, c.Param("username"), body.Value); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
