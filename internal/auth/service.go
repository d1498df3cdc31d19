// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrWrongPassword       = errors.New("current password incorrect")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrVerificationInvalid = errors.New("verification token invalid")
	ErrVerificationExpired = errors.New("verification token expired")
)

const verificationTokenBytes = 32

// UserStore is the slice of user storage the credential store needs.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*user.User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*user.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLogin(ctx context.Context, id, rehashed string) error
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
}

// VerificationSender delivers email verification links. Implementations
// must not block the caller.
type VerificationSender interface {
	NotifyVerification(email, name, token string)
}

type Service struct {
	users           UserStore
	policy          PasswordPolicy
	verifier        VerificationSender
	verificationTTL time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(
	users UserStore,
	policy PasswordPolicy,
	verifier VerificationSender,
	verificationTTL time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:           users,
		policy:          policy,
		verifier:        verifier,
		verificationTTL: verificationTTL,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	email := core.NormalizeEmail(req.Email)

	if err := s.policy.Validate(req.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("register: %w", user.ErrUsernameTaken)
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("register: %w", user.ErrEmailTaken)
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := core.GenerateSecureToken(verificationTokenBytes)
	if err != nil {
		return nil, err
	}
	tokenHash := core.HashToken(token)
	expires := s.now().Add(s.verificationTTL)

	u := &user.User{
		ID:                    uuid.New().String(),
		Username:              username,
		Email:                 email,
		PasswordHash:          hash,
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		Nationality:           strings.TrimSpace(req.Nationality),
		StudyLevel:            strings.TrimSpace(req.StudyLevel),
		FieldOfStudy:          strings.TrimSpace(req.FieldOfStudy),
		IsActive:              true,
		VerificationTokenHash: &tokenHash,
		VerificationExpiresAt: &expires,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.verifier.NotifyVerification(u.Email, u.DisplayName(), token)

	return u, nil
}

// Authenticate checks identifier (username or email) and password. Unknown
// users cost the same hashing work as known ones.
func (s *Service) Authenticate(
	ctx context.Context,
	identifier, password string,
) (*user.User, error) {
	u, err := s.users.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, &u.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unreadable",
			"user_id", u.ID,
			"error", err,
		)
		return nil, ErrInvalidCredentials
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.users.RecordLogin(ctx, u.ID, newHash); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	now := s.now()
	u.LastLogin = &now

	return u, nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(currentPassword, u.PasswordHash)
	if err != nil || !valid {
		return ErrWrongPassword
	}

	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) (*user.User, error) {
	u, err := s.users.GetByVerificationToken(ctx, core.HashToken(strings.TrimSpace(token)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrVerificationInvalid
		}
		return nil, err
	}

	if u.VerificationExpired(s.now()) {
		return nil, ErrVerificationExpired
	}

	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return nil, err
	}

	u.EmailVerified = true
	u.VerificationTokenHash = nil
	u.VerificationExpiresAt = nil

	return u, nil
}

func (s *Service) ResendVerification(ctx context.Context, userID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if u.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := core.GenerateSecureToken(verificationTokenBytes)
	if err != nil {
		return err
	}

	if err := s.users.SetVerificationToken(
		ctx, u.ID, core.HashToken(token), s.now().Add(s.verificationTTL),
	); err != nil {
		return err
	}

	s.verifier.NotifyVerification(u.Email, u.DisplayName(), token)
	return nil
}
