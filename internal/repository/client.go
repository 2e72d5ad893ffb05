package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/lmsauth/internal/domain"
)

// ClientRepository handles OAuth client lookups.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByClientID retrieves a registered client.
func (r *ClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.GetContext(ctx, &client,
		`SELECT client_id, name, client_type, created_at
		 FROM oauth_clients WHERE client_id = $1`, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find client %s: %w", clientID, err)
	}
	return &client, nil
}
