package domain

import "time"

// LinkedIdentity associates a local user with a third-party provider account.
type LinkedIdentity struct {
	ID        int64     `json:"id" db:"id"`
	Provider  string    `json:"provider" db:"provider"`
	UID       string    `json:"uid" db:"uid"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
