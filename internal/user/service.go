// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req. A changed email must be
// unused and resets the verified flag.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := core.NormalizeEmail(*req.Email)
		if email != user.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, fmt.Errorf("update profile: %w", ErrEmailTaken)
			}
			user.Email = email
			user.EmailVerified = false
		}
	}

	assign(&user.FirstName, req.FirstName)
	assign(&user.LastName, req.LastName)
	assign(&user.Nationality, req.Nationality)
	assign(&user.StudyLevel, req.StudyLevel)
	assign(&user.FieldOfStudy, req.FieldOfStudy)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

// IsAdmin reports whether userID is an active admin.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.repo.IsActiveAdmin(ctx, userID)
}

// IsActive reports whether userID names an existing, enabled account.
func (s *Service) IsActive(ctx context.Context, userID string) (bool, error) {
	u, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

// ActiveUser returns the user behind userID, or nil when the id is empty,
// unknown or belongs to a disabled account.
func (s *Service) ActiveUser(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	return user, nil
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
