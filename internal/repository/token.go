package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/lmsauth/internal/domain"
)

const tokenColumns = `id, token, user_id, client_id, scope, expires_at, created_at`

// TokenRepository handles issued access tokens.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create persists a newly minted token and returns the stored row.
func (r *TokenRepository) Create(ctx context.Context, token domain.IssuedToken) (*domain.IssuedToken, error) {
	var result domain.IssuedToken
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO access_tokens (token, user_id, client_id, scope, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+tokenColumns,
		token.Token, token.UserID, token.ClientID, token.Scope, token.ExpiresAt,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	return &result, nil
}

// FindUnexpired returns the most recent token for (user, client, scope) that
// is still valid at now.
func (r *TokenRepository) FindUnexpired(ctx context.Context, userID int64, clientID, scope string, now time.Time) (*domain.IssuedToken, error) {
	var token domain.IssuedToken
	err := r.db.GetContext(ctx, &token,
		`SELECT `+tokenColumns+`
		 FROM access_tokens
		 WHERE user_id = $1 AND client_id = $2 AND scope = $3 AND expires_at > $4
		 ORDER BY expires_at DESC
		 LIMIT 1`, userID, clientID, scope, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find unexpired token for user %d: %w", userID, err)
	}
	return &token, nil
}

// FindByToken retrieves a token by its string value.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*domain.IssuedToken, error) {
	var result domain.IssuedToken
	err := r.db.GetContext(ctx, &result,
		`SELECT `+tokenColumns+` FROM access_tokens WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &result, nil
}
