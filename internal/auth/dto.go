// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

type RegisterRequest struct {
	Username     string `json:"username"       validate:"required,notblank,max=80"`
	Email        string `json:"email"          validate:"required,emailaddr,max=120"`
	Password     string `json:"password"       validate:"required,max=128"`
	FirstName    string `json:"first_name"     validate:"max=50"`
	LastName     string `json:"last_name"      validate:"max=50"`
	Nationality  string `json:"nationality"    validate:"max=50"`
	StudyLevel   string `json:"study_level"    validate:"max=50"`
	FieldOfStudy string `json:"field_of_study" validate:"max=100"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=128"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}

var fieldLabels = map[string]string{
	"username":         "Nom d'utilisateur",
	"email":            "Email",
	"password":         "Mot de passe",
	"first_name":       "Prénom",
	"last_name":        "Nom",
	"nationality":      "Nationalité",
	"study_level":      "Niveau d'études",
	"field_of_study":   "Domaine d'études",
	"current_password": "Mot de passe actuel",
	"new_password":     "Nouveau mot de passe",
	"token":            "Jeton",
}

type AuthResponse struct {
	Message string            `json:"message"`
	User    user.UserResponse `json:"user"`
}

type CheckAuthResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *user.UserResponse `json:"user,omitempty"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}
