// AngelaMos | 2026
// repository.go

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

// slotIndex is the partial unique index guarding active slots.
const slotIndex = "rdv_active_slot_uniq"

// MutateFunc edits a locked booking. It reports whether the row must be
// written back.
type MutateFunc func(b *Booking) (bool, error)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	IsSlotAvailable(ctx context.Context, date time.Time, heure string) (bool, error)
	OccupiedTimes(ctx context.Context, date time.Time) ([]string, error)
	ListByEmail(ctx context.Context, email string) ([]Booking, error)
	Update(ctx context.Context, id string, fn MutateFunc) (*Booking, error)
	MarkEmailsSent(ctx context.Context, id string, userSent, adminSent bool) error
	List(ctx context.Context, params ListParams) ([]Booking, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `id, prenom, nom, email, telephone, pays, type_rdv,
		       consultation_type, sujet, message, date_rdv, heure_rdv, statut,
		       user_id, notes_admin, email_admin_sent, email_user_sent,
		       created_at, updated_at`

// Create inserts b only if its slot has no active booking. Concurrent
// inserts that pass the NOT EXISTS check still collide on slotIndex.
func (r *repository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO rdv_reservations (id, prenom, nom, email, telephone, pays,
		                              type_rdv, consultation_type, sujet, message,
		                              date_rdv, heure_rdv, statut, user_id)
		SELECT $1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		       $11::date, $12, $13, $14::uuid
		WHERE NOT EXISTS (
			SELECT 1 FROM rdv_reservations
			WHERE date_rdv = $11::date AND heure_rdv = $12
			  AND statut IN ('pending', 'confirmed')
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID,
		b.Prenom,
		b.Nom,
		b.Email,
		b.Telephone,
		b.Pays,
		b.TypeRdv,
		b.ConsultationType,
		b.Sujet,
		b.Message,
		b.Date(),
		b.HeureRdv,
		b.Statut,
		b.UserID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	return wrapSlotError("create booking", err)
}

func (r *repository) IsSlotAvailable(
	ctx context.Context,
	date time.Time,
	heure string,
) (bool, error) {
	query := `
		SELECT NOT EXISTS(
			SELECT 1 FROM rdv_reservations
			WHERE date_rdv = $1::date AND heure_rdv = $2
			  AND statut IN ('pending', 'confirmed')
		)`

	var free bool
	if err := r.db.GetContext(ctx, &free, query, date.Format(DateLayout), heure); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return free, nil
}

func (r *repository) OccupiedTimes(ctx context.Context, date time.Time) ([]string, error) {
	query := `
		SELECT heure_rdv FROM rdv_reservations
		WHERE date_rdv = $1::date AND statut IN ('pending', 'confirmed')
		ORDER BY heure_rdv`

	times := []string{}
	if err := r.db.SelectContext(ctx, &times, query, date.Format(DateLayout)); err != nil {
		return nil, fmt.Errorf("list occupied times: %w", err)
	}
	return times, nil
}

// ListByEmail expects email already normalized; rows are stored lower-cased
// so the lookup stays on rdv_reservations_email_idx.
func (r *repository) ListByEmail(ctx context.Context, email string) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM rdv_reservations
		WHERE email = $1
		ORDER BY date_rdv DESC, heure_rdv DESC`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, email); err != nil {
		return nil, fmt.Errorf("list bookings by email: %w", err)
	}
	return bookings, nil
}

// Update locks the row, applies fn and writes statut and notes_admin back
// when fn asks for it.
func (r *repository) Update(
	ctx context.Context,
	id string,
	fn MutateFunc,
) (*Booking, error) {
	var out Booking

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `SELECT ` + bookingColumns + `
			FROM rdv_reservations WHERE id = $1 FOR UPDATE`

		var b Booking
		err := tx.GetContext(ctx, &b, query, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}

		changed, err := fn(&b)
		if err != nil {
			return err
		}

		if changed {
			update := `
				UPDATE rdv_reservations
				SET statut = $2, notes_admin = $3, updated_at = NOW()
				WHERE id = $1
				RETURNING updated_at`

			err = tx.QueryRowxContext(ctx, update, b.ID, b.Statut, b.NotesAdmin).
				Scan(&b.UpdatedAt)
			if err != nil {
				return slotError(err)
			}
		}

		out = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	return &out, nil
}

func (r *repository) MarkEmailsSent(
	ctx context.Context,
	id string,
	userSent, adminSent bool,
) error {
	query := `
		UPDATE rdv_reservations
		SET email_user_sent = $2, email_admin_sent = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, userSent, adminSent)
	if err != nil {
		return fmt.Errorf("mark emails sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark emails sent: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark emails sent: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Booking, int, error) {
	var (
		where []string
		args  []any
	)

	if params.Statut != "" {
		args = append(args, params.Statut)
		where = append(where, fmt.Sprintf("statut = $%d", len(args)))
	}
	if params.Date != nil {
		args = append(args, params.Date.Format(DateLayout))
		where = append(where, fmt.Sprintf("date_rdv = $%d::date", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM rdv_reservations` + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`SELECT %s FROM rdv_reservations%s
		ORDER BY date_rdv DESC, heure_rdv DESC
		LIMIT $%d OFFSET $%d`, bookingColumns, clause, len(args)-1, len(args))

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, total, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT statut, COUNT(*) AS n FROM rdv_reservations GROUP BY statut`

	var rows []struct {
		Statut Status `db:"statut"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count bookings by status: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Statut] = row.N
	}
	return counts, nil
}

func wrapSlotError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrSlotTaken)
	}
	return fmt.Errorf("%s: %w", op, slotError(err))
}

func slotError(err error) error {
	if constraint, ok := core.UniqueViolation(err); ok && constraint == slotIndex {
		return ErrSlotTaken
	}
	return err
}
