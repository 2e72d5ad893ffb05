package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id bigserial PRIMARY KEY,
    username text NOT NULL UNIQUE,
    email text NOT NULL,
    name text NOT NULL DEFAULT '',
    gender text,
    year_of_birth integer,
    level_of_education text,
    mailing_address text,
    goals text,
    country text,
    language text,
    account_privacy text,
    is_staff boolean NOT NULL DEFAULT false,
    is_active boolean NOT NULL DEFAULT true,
    date_joined timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS oauth_clients (
    client_id text PRIMARY KEY,
    name text NOT NULL DEFAULT '',
    client_type text NOT NULL CHECK (client_type IN ('public', 'confidential')),
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS social_auth (
    id bigserial PRIMARY KEY,
    provider text NOT NULL,
    uid text NOT NULL,
    user_id bigint NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT social_auth_provider_uid_unique UNIQUE (provider, uid),
    CONSTRAINT social_auth_provider_user_unique UNIQUE (provider, user_id)
);

CREATE TABLE IF NOT EXISTS access_tokens (
    id bigserial PRIMARY KEY,
    token text NOT NULL UNIQUE,
    user_id bigint NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    client_id text NOT NULL REFERENCES oauth_clients(client_id) ON DELETE CASCADE,
    scope text NOT NULL DEFAULT '',
    expires_at timestamptz NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS access_tokens_user_client_idx
ON access_tokens (user_id, client_id, expires_at);
`

// Migrate creates the tables used by the service if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
