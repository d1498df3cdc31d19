// AngelaMos | 2026
// session.go

package session

import (
	"context"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

// Session is the client-held state carried by the signed cookie.
// UserID is empty for anonymous sessions.
type Session struct {
	UserID    string
	CSRFToken string
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// MatchCSRF reports whether token equals the session's CSRF token.
// An empty session token never matches.
func (s *Session) MatchCSRF(token string) bool {
	if s == nil || s.CSRFToken == "" || token == "" {
		return false
	}
	return core.ConstantTimeEqual(s.CSRFToken, token)
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request session, or nil when none was loaded.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}
	return nil
}

func UserID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}
