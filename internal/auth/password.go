// AngelaMos | 2026
// password.go

package auth

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
)

var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy is the rule set new passwords must satisfy.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireDigit  bool
	RequireSymbol bool
}

func PolicyFromConfig(cfg config.AuthConfig) PasswordPolicy {
	return PasswordPolicy{
		MinLength:     cfg.PasswordMinLength,
		RequireUpper:  cfg.PasswordStrict,
		RequireDigit:  cfg.PasswordStrict,
		RequireSymbol: cfg.PasswordStrict,
	}
}

// PolicyError names the first rule a password broke.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

func (p PasswordPolicy) Validate(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return &PolicyError{Reason: fmt.Sprintf(
			"Le mot de passe doit contenir au moins %d caractères", p.MinLength,
		)}
	}

	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return &PolicyError{Reason: "Le mot de passe doit contenir au moins une majuscule"}
	case p.RequireDigit && !digit:
		return &PolicyError{Reason: "Le mot de passe doit contenir au moins un chiffre"}
	case p.RequireSymbol && !symbol:
		return &PolicyError{Reason: "Le mot de passe doit contenir au moins un caractère spécial"}
	}

	return nil
}
