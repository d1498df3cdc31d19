// AngelaMos | 2026
// mailer.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mailersend/mailersend-go"
	"github.com/wneessen/go-mail"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
)

var ErrNoRecipient = errors.New("empty recipient")

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the provider selected by cfg.Provider.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "mailersend":
		return NewMailerSend(cfg.APIKey, cfg.FromName, cfg.FromEmail), nil
	case "smtp":
		return NewSMTP(cfg.SMTP, cfg.FromName, cfg.FromEmail)
	case "log", "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

type MailerSend struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	return &MailerSend{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	email := m.client.Email.NewMessage()
	email.SetFrom(m.from)
	email.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	email.SetSubject(msg.Subject)
	email.SetHTML(msg.HTML)

	res, err := m.client.Email.Send(ctx, email)
	if err != nil {
		return fmt.Errorf("mailersend send: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck // read-only body

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096)) //nolint:errcheck // best-effort detail
		return fmt.Errorf("mailersend: status=%d body=%s",
			res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

type SMTP struct {
	client   *mail.Client
	fromName string
	from     string
}

func NewSMTP(cfg config.SMTPConfig, fromName, fromEmail string) (*SMTP, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}

	if cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTP{client: client, fromName: fromName, from: fromEmail}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer only logs the recipient and subject. Used in development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	l.logger.InfoContext(ctx, "email not sent (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
