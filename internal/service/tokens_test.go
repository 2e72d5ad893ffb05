package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "lms")
	now := time.Now()

	tok, err := issuer.Mint(42, "test_client_id", "profile email", now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "test_client_id", claims.ClientID)
	assert.Equal(t, "profile email", claims.Scope)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuerDistinctTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", "lms")
	now := time.Now()

	a, err := issuer.Mint(1, "c", "", now, now.Add(time.Hour))
	require.NoError(t, err)
	b, err := issuer.Mint(1, "c", "", now, now.Add(time.Hour))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "lms")
	now := time.Now()

	expired, err := issuer.Mint(1, "c", "", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.Error(t, err)

	other, err := NewTokenIssuer("other", "lms").Mint(1, "c", "", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = issuer.Parse(other)
	assert.Error(t, err)

	_, err = issuer.Parse("not-a-token")
	assert.Error(t, err)
}
