package domain

// OAuthErrorCode is an RFC 6749 error code returned by the token exchange.
type OAuthErrorCode string

const (
	OAuthInvalidRequest     OAuthErrorCode = "invalid_request"
	OAuthInvalidClient      OAuthErrorCode = "invalid_client"
	OAuthUnauthorizedClient OAuthErrorCode = "unauthorized_client"
	OAuthInvalidGrant       OAuthErrorCode = "invalid_grant"
)

// OAuthError is a caller-visible token exchange failure.
type OAuthError struct {
	Code        OAuthErrorCode `json:"error"`
	Description string         `json:"error_description"`
}

func (e *OAuthError) Error() string {
	return string(e.Code) + ": " + e.Description
}

// NewOAuthError creates an OAuthError.
func NewOAuthError(code OAuthErrorCode, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}
