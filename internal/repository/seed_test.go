package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lmsauth/internal/domain"
)

const testSeed = `
clients:
  - client_id: test_client_id
    name: Mobile app
    type: public
  - client_id: backend
    type: confidential
users:
  - username: alice
    email: alice@example.com
    links:
      - provider: facebook
        uid: test_social_uid
      - provider: google-oauth2
        uid: alice@example.com
  - username: staff
    email: staff@example.com
    staff: true
`

func TestLoadSeed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.LoadSeed([]byte(testSeed)))
	ctx := context.Background()

	c, err := s.FindByClientID(ctx, "test_client_id")
	require.NoError(t, err)
	assert.True(t, c.IsPublic())

	c, err = s.FindByClientID(ctx, "backend")
	require.NoError(t, err)
	assert.False(t, c.IsPublic())

	li, err := s.FindByProviderUID(ctx, "facebook", "test_social_uid")
	require.NoError(t, err)
	u, err := s.FindByID(ctx, li.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	staff, err := s.FindByUsername(ctx, "staff")
	require.NoError(t, err)
	assert.True(t, staff.IsStaff)
}

func TestLoadSeedErrors(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.LoadSeed([]byte("clients: [")))

	err := s.LoadSeed([]byte("clients:\n  - client_id: x\n    type: weird\n"))
	assert.ErrorContains(t, err, "unknown type")

	dup := `
users:
  - username: a
    links:
      - {provider: facebook, uid: "1"}
      - {provider: facebook, uid: "2"}
`
	assert.ErrorIs(t, s.LoadSeed([]byte(dup)), domain.ErrConflict)
}
