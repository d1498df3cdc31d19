// AngelaMos | 2026
// service.go

package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/events"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/metrics"
)

const tracerName = "booking"

// Notifier queues the confirmation emails of a new booking. It must not
// block.
type Notifier interface {
	NotifyReservation(b Booking)
}

type Service struct {
	repo      Repository
	notifier  Notifier
	events    events.Publisher
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	notifier Notifier,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		notifier:  notifier,
		events:    publisher,
		validator: core.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// Validate trims req in place and returns a message per invalid field, or
// nil when req is acceptable.
func (s *Service) Validate(req *ReserveRequest) map[string]string {
	req.trim()
	if err := s.validator.Struct(req); err != nil {
		return core.ValidationDetails(err, fieldLabels)
	}
	return nil
}

func (s *Service) IsSlotAvailable(ctx context.Context, date time.Time, heure string) (bool, error) {
	return s.repo.IsSlotAvailable(ctx, date, heure)
}

// Reserve books the requested slot for a pending appointment. userID links
// the booking to a logged-in user and may be empty.
func (s *Service) Reserve(
	ctx context.Context,
	req ReserveRequest,
	userID string,
) (b *Booking, err error) {
	if details := s.Validate(&req); details != nil {
		metrics.Reservations.WithLabelValues("invalid").Inc()
		return nil, core.ValidationError(details)
	}

	date, err := ParseDate(req.DateRdv)
	if err != nil {
		return nil, core.ValidationError(map[string]string{
			"date_rdv": fieldLabels["date_rdv"] + " invalide",
		})
	}
	heure, err := NormalizeTime(req.HeureRdv)
	if err != nil {
		return nil, core.ValidationError(map[string]string{
			"heure_rdv": fieldLabels["heure_rdv"] + " invalide",
		})
	}
	req.HeureRdv = heure

	ctx, span := core.StartSpan(ctx, tracerName, "booking.reserve",
		attribute.String("rdv.date", req.DateRdv),
		attribute.String("rdv.heure", req.HeureRdv),
	)
	defer func() { core.EndSpan(span, err) }()

	free, err := s.repo.IsSlotAvailable(ctx, date, req.HeureRdv)
	if err != nil {
		return nil, err
	}
	if !free {
		metrics.Reservations.WithLabelValues("conflict").Inc()
		return nil, ErrSlotTaken
	}

	b = &Booking{
		ID:               uuid.New().String(),
		Prenom:           req.Prenom,
		Nom:              req.Nom,
		Email:            core.NormalizeEmail(req.Email),
		Telephone:        req.Telephone,
		Pays:             req.Pays,
		TypeRdv:          req.TypeRdv,
		ConsultationType: req.ConsultationType,
		Sujet:            req.Sujet,
		Message:          req.Message,
		DateRdv:          date,
		HeureRdv:         req.HeureRdv,
		Statut:           StatusPending,
	}
	if userID != "" {
		b.UserID = &userID
	}

	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.Reservations.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	metrics.Reservations.WithLabelValues("created").Inc()
	s.logger.InfoContext(ctx, "booking created",
		"booking_id", b.ID,
		"date", b.Date(),
		"heure", b.HeureRdv,
	)

	if s.notifier != nil {
		s.notifier.NotifyReservation(*b)
	}
	s.publish(ctx, events.RdvReserved, b, "")

	return b, nil
}

// ListForEmail returns the bookings made with email, latest slot first.
func (s *Service) ListForEmail(ctx context.Context, email string) ([]Booking, error) {
	email = core.NormalizeEmail(email)
	if email == "" {
		return nil, core.ValidationError(map[string]string{"email": "Email requis"})
	}
	return s.repo.ListByEmail(ctx, email)
}

// Cancel cancels booking id on behalf of the person who made it. A booking
// that is already cancelled is returned as is.
func (s *Service) Cancel(
	ctx context.Context,
	id, email string,
) (b *Booking, err error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", core.ErrNotFound)
	}

	ctx, span := core.StartSpan(ctx, tracerName, "booking.cancel",
		attribute.String("rdv.id", id),
	)
	defer func() { core.EndSpan(span, err) }()

	email = core.NormalizeEmail(email)
	var previous Status

	b, err = s.repo.Update(ctx, id, func(cur *Booking) (bool, error) {
		if email == "" || !strings.EqualFold(cur.Email, email) {
			return false, ErrEmailMismatch
		}
		previous = cur.Statut
		switch cur.Statut {
		case StatusCancelled:
			return false, nil
		case StatusCompleted:
			return false, ErrNotCancellable
		}
		cur.Statut = StatusCancelled
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if previous != StatusCancelled {
		metrics.Reservations.WithLabelValues("cancelled").Inc()
		s.publish(ctx, events.RdvCancelled, b, previous)
	}

	return b, nil
}

// SlotsOccupied lists the times already held on date.
func (s *Service) SlotsOccupied(ctx context.Context, date time.Time) ([]string, error) {
	return s.repo.OccupiedTimes(ctx, date)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Booking, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

// UpdateStatus applies an administrative status change. Moving a booking
// back to an active status fails with ErrSlotTaken when its slot was
// rebooked meanwhile.
func (s *Service) UpdateStatus(
	ctx context.Context,
	id string,
	req UpdateStatusRequest,
) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("update booking status: %w", core.ErrNotFound)
	}

	var previous Status
	b, err := s.repo.Update(ctx, id, func(cur *Booking) (bool, error) {
		previous = cur.Statut
		changed := cur.Statut != req.Statut
		cur.Statut = req.Statut
		if req.NotesAdmin != nil && *req.NotesAdmin != cur.NotesAdmin {
			cur.NotesAdmin = *req.NotesAdmin
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.Reservations.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	if previous != b.Statut {
		metrics.Reservations.WithLabelValues("status_changed").Inc()
		s.publish(ctx, events.RdvStatusChanged, b, previous)
	}

	return b, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) publish(ctx context.Context, subject string, b *Booking, previous Status) {
	ev := events.BookingEvent{
		BookingID:      b.ID,
		DateRdv:        b.Date(),
		HeureRdv:       b.HeureRdv,
		Statut:         string(b.Statut),
		PreviousStatut: string(previous),
	}
	if b.UserID != nil {
		ev.UserID = *b.UserID
	}

	if err := s.events.Publish(ctx, subject, ev); err != nil {
		s.logger.WarnContext(ctx, "publish booking event",
			"subject", subject,
			"booking_id", b.ID,
			"error", err,
		)
	}
}
