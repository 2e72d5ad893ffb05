package domain

import "time"

// Privacy preference values for the account_privacy preference.
const (
	VisibilityPrivate  = "private"
	VisibilityAllUsers = "all_users"
)

// User represents a local LMS account with its profile fields.
type User struct {
	ID               int64     `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	Name             string    `json:"name" db:"name"`
	Gender           *string   `json:"gender" db:"gender"`
	YearOfBirth      *int      `json:"year_of_birth" db:"year_of_birth"`
	LevelOfEducation *string   `json:"level_of_education" db:"level_of_education"`
	MailingAddress   *string   `json:"mailing_address" db:"mailing_address"`
	Goals            *string   `json:"goals" db:"goals"`
	Country          *string   `json:"country" db:"country"`
	Language         *string   `json:"language" db:"language"`
	AccountPrivacy   *string   `json:"-" db:"account_privacy"`
	IsStaff          bool      `json:"-" db:"is_staff"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	DateJoined       time.Time `json:"date_joined" db:"date_joined"`
	UpdatedAt        time.Time `json:"-" db:"updated_at"`
}

// Settings returns the account fields keyed by their public names.
func (u *User) Settings() map[string]any {
	return map[string]any{
		"username":           u.Username,
		"email":              u.Email,
		"name":               u.Name,
		"gender":             u.Gender,
		"year_of_birth":      u.YearOfBirth,
		"level_of_education": u.LevelOfEducation,
		"mailing_address":    u.MailingAddress,
		"goals":              u.Goals,
		"country":            u.Country,
		"language":           u.Language,
		"is_active":          u.IsActive,
		"date_joined":        u.DateJoined,
	}
}
