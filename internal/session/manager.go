// AngelaMos | 2026
// manager.go

package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

const csrfTokenBytes = 32

// Manager moves sessions between requests and cookies.
type Manager struct {
	codec      *Codec
	cookieName string
	ttl        time.Duration
	secure     bool
	sameSite   http.SameSite
}

func NewManager(cfg config.SessionConfig) (*Manager, error) {
	codec, err := NewCodec(cfg.SecretKey, cfg.Issuer, cfg.TTL)
	if err != nil {
		return nil, err
	}

	return &Manager{
		codec:      codec,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.CookieSecure,
		sameSite:   parseSameSite(cfg.SameSite),
	}, nil
}

// Load returns the session carried by the request. A missing, forged or
// expired cookie yields a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	s, err := m.codec.Decode(cookie.Value)
	if err != nil {
		return &Session{}
	}

	return s
}

func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	value, err := m.codec.Encode(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})

	return nil
}

// Clear expires the session cookie. Safe to call without a session.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
}

// EnsureCSRFToken returns the session's CSRF token, generating and
// persisting one when absent.
func (m *Manager) EnsureCSRFToken(w http.ResponseWriter, s *Session) (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}

	token, err := core.GenerateSecureToken(csrfTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	s.CSRFToken = token

	if err := m.Save(w, s); err != nil {
		return "", err
	}

	return token, nil
}

// Bind attaches userID to s and writes the cookie.
func (m *Manager) Bind(w http.ResponseWriter, s *Session, userID string) error {
	s.UserID = userID
	return m.Save(w, s)
}

func parseSameSite(v string) http.SameSite {
	switch v {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
