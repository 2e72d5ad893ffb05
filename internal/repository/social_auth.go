package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/lmsauth/internal/domain"
)

// SocialAuthRepository handles linked third-party identities.
type SocialAuthRepository struct {
	db *sqlx.DB
}

// NewSocialAuthRepository creates a new SocialAuthRepository.
func NewSocialAuthRepository(db *sqlx.DB) *SocialAuthRepository {
	return &SocialAuthRepository{db: db}
}

// FindByProviderUID retrieves the identity linked to a provider-side UID.
func (r *SocialAuthRepository) FindByProviderUID(ctx context.Context, provider, uid string) (*domain.LinkedIdentity, error) {
	var identity domain.LinkedIdentity
	err := r.db.GetContext(ctx, &identity,
		`SELECT id, provider, uid, user_id, created_at
		 FROM social_auth WHERE provider = $1 AND uid = $2`, provider, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find social auth %s/%s: %w", provider, uid, err)
	}
	return &identity, nil
}
