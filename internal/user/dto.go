// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name,omitempty"     validate:"omitempty,max=50"`
	LastName     *string `json:"last_name,omitempty"      validate:"omitempty,max=50"`
	Nationality  *string `json:"nationality,omitempty"    validate:"omitempty,max=50"`
	StudyLevel   *string `json:"study_level,omitempty"    validate:"omitempty,max=50"`
	FieldOfStudy *string `json:"field_of_study,omitempty" validate:"omitempty,max=100"`
	Email        *string `json:"email,omitempty"          validate:"omitempty,emailaddr,max=120"`
}

var profileLabels = map[string]string{
	"first_name":     "Prénom",
	"last_name":      "Nom",
	"nationality":    "Nationalité",
	"study_level":    "Niveau d'études",
	"field_of_study": "Domaine d'études",
	"email":          "Email",
}

// UserResponse is the public shape of a user. It never carries the
// password hash or verification token.
type UserResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Nationality   string     `json:"nationality"`
	StudyLevel    string     `json:"study_level"`
	FieldOfStudy  string     `json:"field_of_study"`
	IsActive      bool       `json:"is_active"`
	IsAdmin       bool       `json:"is_admin"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login"`
}

type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Nationality:   u.Nationality,
		StudyLevel:    u.StudyLevel,
		FieldOfStudy:  u.FieldOfStudy,
		IsActive:      u.IsActive,
		IsAdmin:       u.IsAdmin,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastLogin:     u.LastLogin,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
