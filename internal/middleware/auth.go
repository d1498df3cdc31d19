// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
)

// SessionLoader reads the session carried by a request.
type SessionLoader interface {
	Load(r *http.Request) *session.Session
}

// ActiveChecker confirms that a user id still belongs to an enabled account.
type ActiveChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// AdminChecker confirms that a user id belongs to an active admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// LoadSession attaches the request session to the context. Requests
// without a valid cookie get an empty anonymous session.
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := loader.Load(r)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireSession rejects anonymous requests and sessions whose account was
// deleted or disabled after login.
func RequireSession(checker ActiveChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := session.UserID(r.Context())
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			ok, err := checker.IsActive(r.Context(), userID)
			if err != nil {
				slog.ErrorContext(r.Context(), "session check failed",
					"error", err,
					"user_id", userID,
				)
				core.InternalServerError(w, err)
				return
			}
			if !ok {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin re-checks admin status against storage on every request.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := session.UserID(r.Context())
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			ok, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				slog.ErrorContext(r.Context(), "admin check failed",
					"error", err,
					"user_id", userID,
				)
				core.InternalServerError(w, err)
				return
			}
			if !ok {
				core.JSONError(w, core.ForbiddenError(""))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
