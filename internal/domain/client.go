package domain

import "time"

// ClientType distinguishes clients that can keep a secret from those that cannot.
type ClientType string

const (
	ClientPublic       ClientType = "public"
	ClientConfidential ClientType = "confidential"
)

// Client represents a registered API consumer.
type Client struct {
	ClientID  string     `json:"client_id" db:"client_id"`
	Name      string     `json:"name" db:"name"`
	Type      ClientType `json:"client_type" db:"client_type"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsPublic reports whether the client authenticates by client_id alone.
func (c *Client) IsPublic() bool {
	return c.Type == ClientPublic
}
