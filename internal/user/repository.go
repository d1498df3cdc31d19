// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLogin(ctx context.Context, id, rehashed string) error
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
	IsActiveAdmin(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	Counts(ctx context.Context) (Counts, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
		       nationality, study_level, field_of_study, is_active, is_admin,
		       email_verified, email_verification_token, email_token_expires_at,
		       last_login, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name,
		                   last_name, nationality, study_level, field_of_study,
		                   email_verification_token, email_token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING is_active, is_admin, email_verified, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Nationality,
		user.StudyLevel,
		user.FieldOfStudy,
		user.VerificationTokenHash,
		user.VerificationExpiresAt,
	).Scan(
		&user.IsActive,
		&user.IsAdmin,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", duplicateError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user", query, id)
}

// GetByIdentifier matches the username case-insensitively or the email.
func (r *repository) GetByIdentifier(
	ctx context.Context,
	identifier string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(username) = LOWER($1) OR email = LOWER($1)
		LIMIT 1`
	return r.getOne(ctx, "get user by identifier", query, identifier)
}

func (r *repository) GetByVerificationToken(
	ctx context.Context,
	tokenHash string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE email_verification_token = $1`
	return r.getOne(ctx, "get user by verification token", query, tokenHash)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	arg any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *repository) ExistsByUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, nationality = $4,
		    study_level = $5, field_of_study = $6, email = $7,
		    email_verified = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Nationality,
		user.StudyLevel,
		user.FieldOfStudy,
		user.Email,
		user.EmailVerified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", duplicateError(err))
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

// RecordLogin stamps last_login and swaps in rehashed when it is non-empty.
func (r *repository) RecordLogin(ctx context.Context, id, rehashed string) error {
	query := `
		UPDATE users
		SET last_login = NOW(),
		    password_hash = COALESCE(NULLIF($2, ''), password_hash)
		WHERE id = $1`

	return r.execOne(ctx, "record login", query, id, rehashed)
}

func (r *repository) SetVerificationToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET email_verification_token = $2, email_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set verification token", query, id, tokenHash, expiresAt)
}

func (r *repository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL,
		    email_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "mark email verified", query, id)
}

func (r *repository) IsActiveAdmin(ctx context.Context, id string) (bool, error) {
	query := `SELECT is_admin AND is_active FROM users WHERE id = $1`

	var ok bool
	err := r.db.GetContext(ctx, &ok, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	argIdx := 1

	if params.Search != "" {
		where = fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, where, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Counts(ctx context.Context) (Counts, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_active) AS active,
		       COUNT(*) FILTER (WHERE is_admin) AS admins,
		       COUNT(*) FILTER (WHERE email_verified) AS verified
		FROM users`

	var c Counts
	if err := r.db.GetContext(ctx, &c, query); err != nil {
		return Counts{}, fmt.Errorf("count users: %w", err)
	}
	return c, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// duplicateError maps unique violations to the field that collided.
func duplicateError(err error) error {
	constraint, ok := core.UniqueViolation(err)
	if !ok {
		return err
	}

	switch {
	case strings.Contains(constraint, "username"):
		return ErrUsernameTaken
	case strings.Contains(constraint, "email"):
		return ErrEmailTaken
	default:
		return core.ErrDuplicateKey
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
