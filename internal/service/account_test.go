package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lmsauth/internal/domain"
)

type accountFixture struct {
	svc       *AccountService
	users     *memUsers
	user      *domain.User
	different *domain.User
	staff     *domain.User
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	user := &domain.User{ID: 1, Username: "user_" + gofakeit.LetterN(8), Email: gofakeit.Email(), Name: gofakeit.Name(), IsActive: true}
	different := &domain.User{ID: 2, Username: "different_" + gofakeit.LetterN(8), Email: gofakeit.Email(), Name: gofakeit.Name(), IsActive: true}
	staff := &domain.User{ID: 3, Username: "staff_" + gofakeit.LetterN(8), Email: gofakeit.Email(), IsStaff: true, IsActive: true}

	users := newMemUsers(user, different, staff)
	return &accountFixture{
		svc:       NewAccountService(users),
		users:     users,
		user:      user,
		different: different,
		staff:     staff,
	}
}

func TestGetAccountUsernameProvided(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	settings, err := f.svc.GetAccountSettings(ctx, f.user, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, f.user.Username, settings["username"])

	settings, err = f.svc.GetAccountSettings(ctx, f.user, f.user.Username, "", nil)
	require.NoError(t, err)
	assert.Equal(t, f.user.Username, settings["username"])

	settings, err = f.svc.GetAccountSettings(ctx, f.user, f.different.Username, "", nil)
	require.NoError(t, err)
	assert.Equal(t, f.different.Username, settings["username"])
}

func TestGetAccountConfigurationProvided(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	cfg := &domain.VisibilityConfig{
		DefaultVisibility: domain.VisibilityPrivate,
		ShareableFields:   []string{"name"},
		PublicFields:      []string{"email"},
	}

	settings, err := f.svc.GetAccountSettings(ctx, f.user, f.different.Username, "", nil)
	require.NoError(t, err)
	assert.NotContains(t, settings, "email")

	settings, err = f.svc.GetAccountSettings(ctx, f.user, f.different.Username, "", cfg)
	require.NoError(t, err)
	assert.Equal(t, f.different.Email, settings["email"])
}

func TestGetAccountVisibility(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	own, err := f.svc.GetAccountSettings(ctx, f.user, "", "", nil)
	require.NoError(t, err)
	assert.Contains(t, own, "email")
	assert.Contains(t, own, "date_joined")

	asStaff, err := f.svc.GetAccountSettings(ctx, f.staff, f.user.Username, "", nil)
	require.NoError(t, err)
	assert.Equal(t, own, asStaff)

	shared, err := f.svc.GetAccountSettings(ctx, f.user, "", "shared", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"username": f.user.Username}, shared)

	require.NoError(t, f.svc.SetAccountPrivacy(ctx, f.user, f.user.Username, domain.VisibilityAllUsers))
	public, err := f.svc.GetAccountSettings(ctx, f.different, f.user.Username, "", nil)
	require.NoError(t, err)
	assert.Len(t, public, 4)
	assert.Equal(t, f.user.Name, public["name"])
	assert.NotContains(t, public, "email")
}

func TestGetAccountUserNotFound(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAccountSettings(ctx, f.user, "does_not_exist", "", nil)
	assert.ErrorIs(t, err, domain.ErrAccountUserNotFound)

	ghost := *f.user
	ghost.Username = "does_not_exist"
	_, err = f.svc.GetAccountSettings(ctx, &ghost, "", "", nil)
	assert.ErrorIs(t, err, domain.ErrAccountUserNotFound)
}

func TestUpdateAccountUsernameProvided(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateAccountSettings(ctx, f.user, map[string]any{"name": "Mickey Mouse"}, "")
	require.NoError(t, err)
	settings, err := f.svc.GetAccountSettings(ctx, f.user, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Mickey Mouse", settings["name"])

	_, err = f.svc.UpdateAccountSettings(ctx, f.user, map[string]any{"name": "Donald Duck"}, f.user.Username)
	require.NoError(t, err)
	settings, err = f.svc.GetAccountSettings(ctx, f.user, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Donald Duck", settings["name"])

	_, err = f.svc.UpdateAccountSettings(ctx, f.different, map[string]any{"name": "Pluto"}, f.user.Username)
	assert.ErrorIs(t, err, domain.ErrAccountNotAuthorized)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateAccountUserNotFound(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateAccountSettings(ctx, f.user, map[string]any{}, "does_not_exist")
	assert.ErrorIs(t, err, domain.ErrAccountUserNotFound)

	ghost := *f.user
	ghost.Username = "does_not_exist"
	_, err = f.svc.UpdateAccountSettings(ctx, &ghost, map[string]any{}, "")
	assert.ErrorIs(t, err, domain.ErrAccountUserNotFound)
}

func TestUpdateAccountErrors(t *testing.T) {
	tests := []struct {
		name   string
		update map[string]any
		field  string
	}{
		{name: "read only username", update: map[string]any{"username": "not_allowed"}, field: "username"},
		{name: "read only date joined", update: map[string]any{"date_joined": "2014-01-01"}, field: "date_joined"},
		{name: "bad gender", update: map[string]any{"gender": "undecided"}, field: "gender"},
		{name: "bad education", update: map[string]any{"level_of_education": "phd"}, field: "level_of_education"},
		{name: "bad email", update: map[string]any{"email": "not-an-email"}, field: "email"},
		{name: "null name", update: map[string]any{"name": nil}, field: "name"},
		{name: "non string name", update: map[string]any{"name": 42.0}, field: "name"},
		{name: "year too old", update: map[string]any{"year_of_birth": 1800.0}, field: "year_of_birth"},
		{name: "fractional year", update: map[string]any{"year_of_birth": 1990.5}, field: "year_of_birth"},
		{name: "bad country", update: map[string]any{"country": "XX"}, field: "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			before := *f.users.items[f.user.ID]

			_, err := f.svc.UpdateAccountSettings(context.Background(), f.user, tt.update, "")
			var updateErr *domain.AccountUpdateError
			require.True(t, errors.As(err, &updateErr), "got %v", err)
			assert.Contains(t, updateErr.FieldErrors, tt.field)
			assert.Equal(t, before, *f.users.items[f.user.ID])
		})
	}
}

func TestUpdateAccountAllOrNothing(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.UpdateAccountSettings(context.Background(), f.user, map[string]any{
		"name":   "Valid Name",
		"gender": "undecided",
	}, "")
	require.Error(t, err)

	stored, err := f.users.FindByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.Name, stored.Name)
}

func TestUpdateAccountValidFields(t *testing.T) {
	f := newAccountFixture(t)

	updated, err := f.svc.UpdateAccountSettings(context.Background(), f.user, map[string]any{
		"gender":             "f",
		"year_of_birth":      json.Number("1985"),
		"level_of_education": "b",
		"country":            "US",
		"language":           "en",
		"goals":              "learn Go",
		"unknown_field":      "ignored",
	}, "")
	require.NoError(t, err)

	require.NotNil(t, updated.Gender)
	assert.Equal(t, "f", *updated.Gender)
	require.NotNil(t, updated.YearOfBirth)
	assert.Equal(t, 1985, *updated.YearOfBirth)
	assert.Equal(t, "US", *updated.Country)

	cleared, err := f.svc.UpdateAccountSettings(context.Background(), f.user, map[string]any{
		"gender":        "",
		"year_of_birth": nil,
	}, "")
	require.NoError(t, err)
	assert.Nil(t, cleared.Gender)
	assert.Nil(t, cleared.YearOfBirth)
}

func TestSetAccountPrivacy(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	err := f.svc.SetAccountPrivacy(ctx, f.different, f.user.Username, domain.VisibilityAllUsers)
	assert.ErrorIs(t, err, domain.ErrAccountNotAuthorized)

	err = f.svc.SetAccountPrivacy(ctx, f.different, "does_not_exist", domain.VisibilityAllUsers)
	assert.ErrorIs(t, err, domain.ErrAccountUserNotFound)

	err = f.svc.SetAccountPrivacy(ctx, f.user, f.user.Username, "friends")
	var updateErr *domain.AccountUpdateError
	assert.True(t, errors.As(err, &updateErr))
}
