// AngelaMos | 2026
// entity.go

package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrSlotTaken      = fmt.Errorf("slot already booked: %w", core.ErrConflict)
	ErrEmailMismatch  = fmt.Errorf("booking email mismatch: %w", core.ErrUnauthorized)
	ErrNotCancellable = fmt.Errorf("booking cannot be cancelled: %w", core.ErrConflict)
	ErrInvalidDate    = errors.New("invalid date")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Active reports whether a booking in this status holds its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID               string    `db:"id"`
	Prenom           string    `db:"prenom"`
	Nom              string    `db:"nom"`
	Email            string    `db:"email"`
	Telephone        string    `db:"telephone"`
	Pays             string    `db:"pays"`
	TypeRdv          string    `db:"type_rdv"`
	ConsultationType string    `db:"consultation_type"`
	Sujet            string    `db:"sujet"`
	Message          string    `db:"message"`
	DateRdv          time.Time `db:"date_rdv"`
	HeureRdv         string    `db:"heure_rdv"`
	Statut           Status    `db:"statut"`
	UserID           *string   `db:"user_id"`
	NotesAdmin       string    `db:"notes_admin"`
	EmailAdminSent   bool      `db:"email_admin_sent"`
	EmailUserSent    bool      `db:"email_user_sent"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Date renders DateRdv as YYYY-MM-DD.
func (b *Booking) Date() string {
	return b.DateRdv.Format(DateLayout)
}

func (b *Booking) FullName() string {
	return b.Prenom + " " + b.Nom
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// NormalizeTime parses an HH:MM time and renders it zero-padded, so "9:00"
// and "09:00" name the same slot.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Format(TimeLayout), nil
}
