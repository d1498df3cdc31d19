// AngelaMos | 2026
// validation.go

package core

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewValidator returns a validator that reports JSON field names and knows
// the emailaddr and notblank rules.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return IsValidEmail(strings.TrimSpace(fl.Field().String()))
	})

	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// ValidationDetails maps each failed field to a French message. labels
// optionally gives a display name per JSON field.
func ValidationDetails(err error, labels map[string]string) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "Données invalides"}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := details[field]; seen {
			continue
		}

		label := labels[field]
		if label == "" {
			label = field
		}

		details[field] = fieldMessage(fe, label)
	}

	return details
}

func fieldMessage(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required", "notblank":
		return label + " requis"
	case "emailaddr", "email":
		return label + " invalide"
	case "min":
		return fmt.Sprintf("%s doit contenir au moins %s caractères", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s ne doit pas dépasser %s caractères", label, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s invalide (format attendu %s)", label, fe.Param())
	case "url", "http_url":
		return label + " doit être une URL valide"
	case "oneof":
		return fmt.Sprintf("%s doit valoir l'une de: %s", label, fe.Param())
	default:
		return label + " invalide"
	}
}
