// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/metrics"
)

const (
	RdvReserved      = "rdv.reserved"
	RdvCancelled     = "rdv.cancelled"
	RdvStatusChanged = "rdv.status_changed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// Envelope wraps every payload published on the bus.
type Envelope struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// BookingEvent is the payload of every rdv.* subject.
type BookingEvent struct {
	BookingID      string `json:"booking_id"`
	DateRdv        string `json:"date_rdv"`
	HeureRdv       string `json:"heure_rdv"`
	Statut         string `json:"statut"`
	PreviousStatut string `json:"previous_statut,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type conn interface {
	Publish(subject string, data []byte) error
}

type NATS struct {
	conn   conn
	close  func()
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewNATS(url, prefix string, logger *slog.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("etudiantesolidaire-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	n := newNATS(nc, prefix, logger)
	n.close = func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return n, nil
}

func newNATS(c conn, prefix string, logger *slog.Logger) *NATS {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATS{
		conn:   c,
		close:  func() {},
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

// Subject returns the fully qualified subject for name.
func (n *NATS) Subject(name string) string {
	if n.prefix == "" {
		return name
	}
	return n.prefix + "." + name
}

func (n *NATS) Publish(ctx context.Context, subject string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	full := n.Subject(subject)
	payload, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Subject:    full,
		OccurredAt: n.now().UTC(),
		Data:       raw,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := n.conn.Publish(full, payload); err != nil {
		metrics.EventsPublished.WithLabelValues(subject, "failed").Inc()
		return fmt.Errorf("publish %s: %w", full, err)
	}

	metrics.EventsPublished.WithLabelValues(subject, "ok").Inc()
	n.logger.DebugContext(ctx, "event published", "subject", full)
	return nil
}

func (n *NATS) Close() error {
	n.close()
	return nil
}

// Noop discards events. It is used when no NATS url is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

func (Noop) Close() error { return nil }
