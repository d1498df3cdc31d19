// AngelaMos | 2026
// entity.go

package user

import (
	"errors"
	"time"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

type User struct {
	ID                    string     `db:"id"`
	Username              string     `db:"username"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	FirstName             string     `db:"first_name"`
	LastName              string     `db:"last_name"`
	Nationality           string     `db:"nationality"`
	StudyLevel            string     `db:"study_level"`
	FieldOfStudy          string     `db:"field_of_study"`
	IsActive              bool       `db:"is_active"`
	IsAdmin               bool       `db:"is_admin"`
	EmailVerified         bool       `db:"email_verified"`
	VerificationTokenHash *string    `db:"email_verification_token"`
	VerificationExpiresAt *time.Time `db:"email_token_expires_at"`
	LastLogin             *time.Time `db:"last_login"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// DisplayName is the greeting name used in emails.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

func (u *User) VerificationExpired(now time.Time) bool {
	return u.VerificationExpiresAt == nil || now.After(*u.VerificationExpiresAt)
}

// Counts summarizes the user table for the admin dashboard.
type Counts struct {
	Total    int `db:"total"    json:"total"`
	Active   int `db:"active"   json:"active"`
	Admins   int `db:"admins"   json:"admins"`
	Verified int `db:"verified" json:"verified"`
}
