// AngelaMos | 2026
// dispatcher.go

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/metrics"
)

const (
	defaultSendTimeout = 10 * time.Second
	defaultQueueSize   = 100
	defaultWorkers     = 2
)

// DeliveryRecorder persists which confirmation emails of a booking were
// accepted by the provider.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, bookingID string, userSent, adminSent bool) error
}

type RecorderFunc func(ctx context.Context, bookingID string, userSent, adminSent bool) error

func (f RecorderFunc) RecordDelivery(ctx context.Context, bookingID string, userSent, adminSent bool) error {
	return f(ctx, bookingID, userSent, adminSent)
}

type Delivery struct {
	UserSent  bool
	AdminSent bool
}

// OK reports whether both messages were accepted.
func (d Delivery) OK() bool {
	return d.UserSent && d.AdminSent
}

type Options struct {
	AdminEmail  string
	FrontendURL string
	SendTimeout time.Duration
	QueueSize   int
	Workers     int
}

func OptionsFromConfig(cfg config.MailConfig, frontendURL string) Options {
	return Options{
		AdminEmail:  cfg.AdminEmail,
		FrontendURL: frontendURL,
		SendTimeout: cfg.SendTimeout,
		QueueSize:   cfg.QueueSize,
		Workers:     cfg.Workers,
	}
}

type verificationJob struct {
	email string
	name  string
	token string
}

type job struct {
	reservation  *booking.Booking
	verification *verificationJob
}

// Dispatcher sends notification emails from a bounded queue so callers
// never wait on the mail provider.
type Dispatcher struct {
	mailer   Mailer
	recorder DeliveryRecorder
	opts     Options
	logger   *slog.Logger

	queue chan job
	wg    sync.WaitGroup
	start sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(
	mailer Mailer,
	recorder DeliveryRecorder,
	opts Options,
	logger *slog.Logger,
) *Dispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		mailer:   mailer,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		queue:    make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.start.Do(func() {
		for range d.opts.Workers {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

func (d *Dispatcher) NotifyReservation(b booking.Booking) {
	d.enqueue(job{reservation: &b}, "reservation")
}

func (d *Dispatcher) NotifyVerification(email, name, token string) {
	d.enqueue(job{verification: &verificationJob{email: email, name: name, token: token}}, "verification")
}

func (d *Dispatcher) enqueue(j job, kind string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.EmailsSent.WithLabelValues(kind, "dropped").Inc()
		d.logger.Warn("notification dropped, dispatcher closed", "kind", kind)
		return
	}

	select {
	case d.queue <- j:
		metrics.MailQueueDepth.Inc()
	default:
		metrics.EmailsSent.WithLabelValues(kind, "dropped").Inc()
		d.logger.Warn("notification dropped, queue full",
			"kind", kind,
			"queue_size", d.opts.QueueSize,
		)
	}
}

// Send delivers the requester confirmation and the admin alert for b.
// Failures are logged and reported as false.
func (d *Dispatcher) Send(ctx context.Context, b booking.Booking) Delivery {
	user, admin, err := reservationMessages(b, d.opts.AdminEmail)
	if err != nil {
		d.logger.ErrorContext(ctx, "render reservation emails",
			"booking_id", b.ID,
			"error", err,
		)
		return Delivery{}
	}

	return Delivery{
		UserSent:  d.deliver(ctx, user, "user"),
		AdminSent: d.deliver(ctx, admin, "admin"),
	}
}

func (d *Dispatcher) SendVerification(ctx context.Context, email, name, token string) bool {
	msg, err := verificationMessage(d.opts.FrontendURL, email, name, token)
	if err != nil {
		d.logger.ErrorContext(ctx, "render verification email", "error", err)
		return false
	}
	return d.deliver(ctx, msg, "verification")
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message, kind string) (ok bool) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			d.logger.ErrorContext(ctx, "mailer panic", "kind", kind, "panic", fmt.Sprint(p))
			metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
			ok = false
		}
	}()

	if err := d.mailer.Send(ctx, msg); err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
		d.logger.WarnContext(ctx, "email send failed",
			"kind", kind,
			"subject", msg.Subject,
			"error", err,
		)
		return false
	}

	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return true
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for j := range d.queue {
		metrics.MailQueueDepth.Dec()
		d.process(j)
	}
}

func (d *Dispatcher) process(j job) {
	ctx := context.Background()

	switch {
	case j.reservation != nil:
		b := j.reservation
		delivery := d.Send(ctx, *b)
		if !delivery.OK() {
			d.logger.Warn("reservation emails incomplete",
				"booking_id", b.ID,
				"user_sent", delivery.UserSent,
				"admin_sent", delivery.AdminSent,
			)
		}
		if d.recorder == nil {
			return
		}
		if err := d.recorder.RecordDelivery(ctx, b.ID, delivery.UserSent, delivery.AdminSent); err != nil {
			d.logger.Error("record email delivery", "booking_id", b.ID, "error", err)
		}

	case j.verification != nil:
		v := j.verification
		d.SendVerification(ctx, v.email, v.name, v.token)
	}
}

// Shutdown stops accepting jobs and waits for the queued ones to finish
// or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}
