package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sumire/lmsauth/internal/domain"
)

// UserStore defines the user data access interface consumed by the services.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) (*domain.User, error)
}

const (
	msgNotEditable = "This field is not editable via this API"
	viewShared     = "shared"
)

var readOnlyAccountFields = map[string]bool{
	"username":    true,
	"date_joined": true,
	"is_active":   true,
	"is_staff":    true,
}

// Validation rules for editable account fields.
var accountFieldRules = map[string]string{
	"email":              "required,email,max=254",
	"name":               "max=255",
	"gender":             "oneof=m f o",
	"level_of_education": "oneof=p m b a hs jhs el none other",
	"mailing_address":    "max=1024",
	"goals":              "max=4096",
	"country":            "iso3166_1_alpha2",
	"language":           "bcp47_language_tag",
}

// AccountService reads and updates account settings.
type AccountService struct {
	users    UserStore
	validate *validator.Validate
	now      func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore) *AccountService {
	return &AccountService{
		users:    users,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *AccountService) findUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetAccountSettings returns the account fields of username visible to
// requester. An empty username means the requester's own account. The owner
// and staff see every field unless view is "shared"; everyone else sees the
// fields selected by the account's privacy preference. A nil cfg uses
// domain.DefaultVisibilityConfig.
func (s *AccountService) GetAccountSettings(ctx context.Context, requester *domain.User, username, view string, cfg *domain.VisibilityConfig) (map[string]any, error) {
	if username == "" {
		username = requester.Username
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	all := user.Settings()
	fullAccess := requester.Username == username || requester.IsStaff
	if fullAccess && view != viewShared {
		return all, nil
	}

	if cfg == nil {
		def := domain.DefaultVisibilityConfig()
		cfg = &def
	}

	visibility := cfg.DefaultVisibility
	if user.AccountPrivacy != nil && *user.AccountPrivacy != "" {
		visibility = *user.AccountPrivacy
	}

	fields := cfg.PublicFields
	if visibility == domain.VisibilityAllUsers {
		fields = cfg.ShareableFields
	}

	visible := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			visible[f] = v
		}
	}
	return visible, nil
}

// UpdateAccountSettings applies update to the account of username. Only the
// owner may update an account. Either every field is applied or none is.
func (s *AccountService) UpdateAccountSettings(ctx context.Context, requester *domain.User, update map[string]any, username string) (*domain.User, error) {
	if username == "" {
		username = requester.Username
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if requester.Username != username {
		return nil, domain.ErrAccountNotAuthorized
	}

	fieldErrors := make(map[string]string)
	updated := *user
	for field, value := range update {
		if readOnlyAccountFields[field] {
			fieldErrors[field] = msgNotEditable
			continue
		}
		if err := s.applyField(&updated, field, value); err != nil {
			fieldErrors[field] = err.Error()
		}
	}
	if len(fieldErrors) > 0 {
		return nil, &domain.AccountUpdateError{FieldErrors: fieldErrors}
	}

	result, err := s.users.UpdateProfile(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("update account %s: %w", username, err)
	}
	return result, nil
}

// SetAccountPrivacy sets the account_privacy preference of username.
func (s *AccountService) SetAccountPrivacy(ctx context.Context, requester *domain.User, username, value string) error {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	if requester.Username != username {
		return domain.ErrAccountNotAuthorized
	}
	if value != domain.VisibilityPrivate && value != domain.VisibilityAllUsers {
		return &domain.AccountUpdateError{FieldErrors: map[string]string{
			"account_privacy": fmt.Sprintf("%q is not a valid choice", value),
		}}
	}

	updated := *user
	updated.AccountPrivacy = &value
	if _, err := s.users.UpdateProfile(ctx, updated); err != nil {
		return fmt.Errorf("set account privacy %s: %w", username, err)
	}
	return nil
}

// applyField validates value and writes it to the named field of u.
// Unknown fields are ignored.
func (s *AccountService) applyField(u *domain.User, field string, value any) error {
	if field == "year_of_birth" {
		year, err := s.parseYear(value)
		if err != nil {
			return err
		}
		u.YearOfBirth = year
		return nil
	}

	rule, known := accountFieldRules[field]
	if !known {
		return nil
	}

	str, isNull, err := stringValue(value)
	if err != nil {
		return err
	}

	switch field {
	case "email", "name":
		if isNull {
			return errors.New("This field may not be null")
		}
	default:
		if isNull || str == "" {
			setOptional(u, field, nil)
			return nil
		}
	}

	if err := s.validate.Var(str, rule); err != nil {
		return ruleError(err, str)
	}

	switch field {
	case "email":
		u.Email = str
	case "name":
		u.Name = str
	default:
		setOptional(u, field, &str)
	}
	return nil
}

func setOptional(u *domain.User, field string, v *string) {
	switch field {
	case "gender":
		u.Gender = v
	case "level_of_education":
		u.LevelOfEducation = v
	case "mailing_address":
		u.MailingAddress = v
	case "goals":
		u.Goals = v
	case "country":
		u.Country = v
	case "language":
		u.Language = v
	}
}

func (s *AccountService) parseYear(value any) (*int, error) {
	var year float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		year = v
	case int:
		year = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, errors.New("A valid integer is required")
		}
		year = f
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("A valid integer is required")
		}
		year = float64(n)
	default:
		return nil, errors.New("A valid integer is required")
	}

	if year != math.Trunc(year) {
		return nil, errors.New("A valid integer is required")
	}
	y := int(year)
	if err := s.validate.Var(y, fmt.Sprintf("min=1900,max=%d", s.now().Year())); err != nil {
		return nil, fmt.Errorf("%d is not a valid year of birth", y)
	}
	return &y, nil
}

func stringValue(value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", true, nil
	case string:
		return v, false, nil
	default:
		return "", false, errors.New("Not a valid string")
	}
}

func ruleError(err error, value string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return errors.New("This field may not be blank")
		case "max":
			return fmt.Errorf("Ensure this field has no more than %s characters", verrs[0].Param())
		case "email":
			return errors.New("Enter a valid email address")
		}
	}
	return fmt.Errorf("%q is not a valid choice", value)
}
