package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sumire/lmsauth/internal/domain"
	"github.com/sumire/lmsauth/internal/metrics"
	"github.com/sumire/lmsauth/internal/provider"
)

// ClientStore defines the client registry consumed by TokenExchanger.
type ClientStore interface {
	FindByClientID(ctx context.Context, clientID string) (*domain.Client, error)
}

// IdentityStore defines the linked identity lookup consumed by TokenExchanger.
type IdentityStore interface {
	FindByProviderUID(ctx context.Context, provider, uid string) (*domain.LinkedIdentity, error)
}

// TokenStore defines the access token persistence consumed by TokenExchanger.
type TokenStore interface {
	Create(ctx context.Context, token domain.IssuedToken) (*domain.IssuedToken, error)
	FindUnexpired(ctx context.Context, userID int64, clientID, scope string, now time.Time) (*domain.IssuedToken, error)
	FindByToken(ctx context.Context, token string) (*domain.IssuedToken, error)
}

// ExchangeConfig holds the token issuance policy.
type ExchangeConfig struct {
	// SingleAccessToken reuses an unexpired token for the same user, client
	// and scope instead of minting a new one on every call.
	SingleAccessToken   bool
	PublicTokenLifetime time.Duration
	KnownScopes         []string
}

// ExchangeRequest is a third-party access token presented for exchange.
type ExchangeRequest struct {
	Provider    string `form:"provider" validate:"required"`
	AccessToken string `form:"access_token" validate:"required"`
	ClientID    string `form:"client_id" validate:"required"`
	Scope       string `form:"scope"`
}

// ExchangeResponse is the first-party token granted by an exchange.
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

var errInvalidAccessToken = domain.NewOAuthError(domain.OAuthInvalidGrant, "access_token is not valid")

// TokenExchanger turns a provider access token into a first-party token for
// the linked local user.
type TokenExchanger struct {
	clients    ClientStore
	identities IdentityStore
	users      UserStore
	tokens     TokenStore
	providers  *provider.Registry
	fetcher    provider.Fetcher
	issuer     *TokenIssuer
	metrics    *metrics.Collector
	cfg        ExchangeConfig
	knownScope map[string]struct{}
	validate   *validator.Validate
	now        func() time.Time
}

// ExchangerDeps groups the collaborators of a TokenExchanger.
type ExchangerDeps struct {
	Clients    ClientStore
	Identities IdentityStore
	Users      UserStore
	Tokens     TokenStore
	Providers  *provider.Registry
	Fetcher    provider.Fetcher
	Issuer     *TokenIssuer
	Metrics    *metrics.Collector
}

// NewTokenExchanger creates a new TokenExchanger.
func NewTokenExchanger(deps ExchangerDeps, cfg ExchangeConfig) *TokenExchanger {
	known := make(map[string]struct{}, len(cfg.KnownScopes))
	for _, s := range cfg.KnownScopes {
		known[s] = struct{}{}
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})

	return &TokenExchanger{
		clients:    deps.Clients,
		identities: deps.Identities,
		users:      deps.Users,
		tokens:     deps.Tokens,
		providers:  deps.Providers,
		fetcher:    deps.Fetcher,
		issuer:     deps.Issuer,
		metrics:    deps.Metrics,
		cfg:        cfg,
		knownScope: known,
		validate:   v,
		now:        time.Now,
	}
}

// Exchange validates req and returns a bearer token for the linked user.
// Caller-visible failures are returned as *domain.OAuthError; any other
// error is a persistence failure.
func (s *TokenExchanger) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResponse, error) {
	resp, result, err := s.exchange(ctx, req)
	s.metrics.Exchange(s.providerLabel(req.Provider), result)
	return resp, err
}

// providerLabel bounds the provider metric label to registered names.
func (s *TokenExchanger) providerLabel(name string) string {
	if name == "" {
		return ""
	}
	if _, ok := s.providers.Get(name); ok {
		return name
	}
	return metrics.ProviderUnknown
}

func (s *TokenExchanger) exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResponse, string, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, string(err.Code), err
	}

	p, ok := s.providers.Get(req.Provider)
	if !ok {
		err := domain.NewOAuthError(domain.OAuthInvalidRequest, req.Provider+" is not a supported provider")
		return nil, string(err.Code), err
	}

	client, err := s.clients.FindByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err := domain.NewOAuthError(domain.OAuthInvalidClient, req.ClientID+" is not a valid client_id")
			return nil, string(err.Code), err
		}
		return nil, metrics.ResultError, err
	}
	if !client.IsPublic() {
		err := domain.NewOAuthError(domain.OAuthUnauthorizedClient, req.ClientID+" is not a public client")
		return nil, string(err.Code), err
	}

	user, err := s.resolveUser(ctx, p, req.AccessToken)
	if err != nil {
		var oauthErr *domain.OAuthError
		if errors.As(err, &oauthErr) {
			return nil, string(oauthErr.Code), err
		}
		return nil, metrics.ResultError, err
	}

	scope, oerr := s.parseScope(req.Scope)
	if oerr != nil {
		return nil, string(oerr.Code), oerr
	}

	token, reused, err := s.grant(ctx, user, client, strings.Join(scope, " "))
	if err != nil {
		return nil, metrics.ResultError, err
	}

	result := metrics.ResultIssued
	if reused {
		result = metrics.ResultReused
	}
	slog.Info("access token exchanged",
		"provider", p.Name,
		"client_id", client.ClientID,
		"user_id", user.ID,
		"reused", reused,
	)

	return &ExchangeResponse{
		AccessToken: token.Token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   min(token.ExpiresIn(s.now()), int64(s.cfg.PublicTokenLifetime/time.Second)),
		Scope:       token.Scope,
	}, result, nil
}

func (s *TokenExchanger) validateRequest(req ExchangeRequest) *domain.OAuthError {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.NewOAuthError(domain.OAuthInvalidRequest, verrs[0].Field()+" is required")
	}
	return domain.NewOAuthError(domain.OAuthInvalidRequest, err.Error())
}

// parseScope splits a space-separated scope string, dropping duplicates.
func (s *TokenExchanger) parseScope(raw string) ([]string, *domain.OAuthError) {
	names := strings.Fields(raw)
	seen := make(map[string]struct{}, len(names))
	scope := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := s.knownScope[n]; !ok {
			return nil, domain.NewOAuthError(domain.OAuthInvalidRequest, n+" is not a valid scope")
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		scope = append(scope, n)
	}
	return scope, nil
}

// resolveUser identifies the local user behind a provider access token.
// A rejected token and a valid token without a linked account produce the
// same error.
func (s *TokenExchanger) resolveUser(ctx context.Context, p provider.Config, accessToken string) (*domain.User, error) {
	start := time.Now()
	uid, err := s.fetcher.FetchUID(ctx, p, accessToken)
	s.metrics.Userinfo(p.Name, time.Since(start), err != nil)
	if err != nil {
		slog.Warn("provider userinfo failed", "provider", p.Name, "error", err)
		return nil, errInvalidAccessToken
	}

	identity, err := s.identities.FindByProviderUID(ctx, p.Name, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidAccessToken
		}
		return nil, fmt.Errorf("find linked identity: %w", err)
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidAccessToken
		}
		return nil, fmt.Errorf("find linked user: %w", err)
	}
	if !user.IsActive {
		return nil, errInvalidAccessToken
	}
	return user, nil
}

func (s *TokenExchanger) grant(ctx context.Context, user *domain.User, client *domain.Client, scope string) (*domain.IssuedToken, bool, error) {
	now := s.now()

	if s.cfg.SingleAccessToken {
		existing, err := s.tokens.FindUnexpired(ctx, user.ID, client.ClientID, scope, now)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	expiresAt := now.Add(s.cfg.PublicTokenLifetime)
	signed, err := s.issuer.Mint(user.ID, client.ClientID, scope, now, expiresAt)
	if err != nil {
		return nil, false, err
	}

	token, err := s.tokens.Create(ctx, domain.IssuedToken{
		Token:     signed,
		UserID:    user.ID,
		ClientID:  client.ClientID,
		Scope:     scope,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, false, err
	}
	return token, false, nil
}

// Authenticate resolves the user owning a bearer token issued by Exchange.
func (s *TokenExchanger) Authenticate(ctx context.Context, bearer string) (*domain.User, *domain.IssuedToken, error) {
	if _, err := s.issuer.Parse(bearer); err != nil {
		return nil, nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.FindByToken(ctx, bearer)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, err
	}
	if token.Expired(s.now()) {
		return nil, nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, domain.ErrUnauthorized
	}
	return user, token, nil
}
