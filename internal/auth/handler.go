// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/loginlimit"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/metrics"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/middleware"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

// SessionStore writes session changes back to the client.
type SessionStore interface {
	EnsureCSRFToken(w http.ResponseWriter, s *session.Session) (string, error)
	Bind(w http.ResponseWriter, s *session.Session, userID string) error
	Clear(w http.ResponseWriter)
}

type ActiveUserFinder interface {
	ActiveUser(ctx context.Context, userID string) (*user.User, error)
}

type Handler struct {
	service   *Service
	sessions  SessionStore
	users     ActiveUserFinder
	limiter   loginlimit.Limiter
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(
	service *Service,
	sessions SessionStore,
	users ActiveUserFinder,
	limiter loginlimit.Limiter,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		sessions:  sessions,
		users:     users,
		limiter:   limiter,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, csrf func(http.Handler) http.Handler,
) {
	r.Get("/csrf-token", h.CSRFToken)
	r.Get("/check-auth", h.CheckAuth)
	r.Post("/logout", h.Logout)
	r.Post("/verify-email", h.VerifyEmail)

	r.With(csrf).Post("/register", h.Register)
	r.With(csrf).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(requireSession, csrf)

		r.Post("/change-password", h.ChangePassword)
		r.Post("/resend-verification", h.ResendVerification)
	})
}

func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	token, err := h.sessions.EnsureCSRFToken(w, s)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, CSRFTokenResponse{CSRFToken: token})
}

func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.ActiveUser(r.Context(), session.UserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if u == nil {
		core.OK(w, CheckAuthResponse{Authenticated: false})
		return
	}

	resp := user.ToUserResponse(u)
	core.OK(w, CheckAuthResponse{Authenticated: true, User: &resp})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.sessions.Bind(w, currentSession(r), u.ID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", u.ID)

	core.Created(w, AuthResponse{
		Message: "Inscription réussie",
		User:    user.ToUserResponse(u),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	key := middleware.ClientIP(r)

	if res, err := h.limiter.Check(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "login limiter check failed, allowing",
			"error", err,
		)
	} else if res.Blocked {
		metrics.LoginAttempts.WithLabelValues("blocked").Inc()
		secs := res.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		core.JSONError(w, core.RateLimitedError(secs))
		return
	}

	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountDisabled) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			if lerr := h.limiter.RecordFailure(r.Context(), key); lerr != nil {
				h.logger.WarnContext(r.Context(), "login limiter record failed",
					"error", lerr,
				)
			}
		}
		h.handleError(w, r, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	if err := h.limiter.Clear(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "login limiter clear failed", "error", err)
	}

	if err := h.sessions.Bind(w, currentSession(r), u.ID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, AuthResponse{
		Message: "Connexion réussie",
		User:    user.ToUserResponse(u),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w)
	core.Message(w, "Déconnexion réussie")
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		session.UserID(r.Context()),
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		var policyErr *PolicyError
		if errors.As(err, &policyErr) {
			core.JSONError(w, core.ValidationError(map[string]string{
				"new_password": policyErr.Reason,
			}))
			return
		}
		h.handleError(w, r, err)
		return
	}

	core.Message(w, "Mot de passe modifié avec succès")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	core.OK(w, AuthResponse{
		Message: "Email vérifié avec succès",
		User:    user.ToUserResponse(u),
	})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResendVerification(r.Context(), session.UserID(r.Context())); err != nil {
		h.handleError(w, r, err)
		return
	}

	core.Message(w, "Email de vérification envoyé")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.DecodeJSON(r, dst); err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{
			"body": "Corps de requête JSON invalide",
		}))
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.JSONError(w, core.ValidationError(core.ValidationDetails(err, fieldLabels)))
		return false
	}

	return true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var policyErr *PolicyError

	switch {
	case errors.As(err, &policyErr):
		core.JSONError(w, core.ValidationError(map[string]string{
			"password": policyErr.Reason,
		}))
	case errors.Is(err, user.ErrUsernameTaken):
		core.JSONError(w, core.DuplicateError("username", "Ce nom d'utilisateur existe déjà"))
	case errors.Is(err, user.ErrEmailTaken):
		core.JSONError(w, core.DuplicateError("email", "Cet email est déjà utilisé"))
	case errors.Is(err, ErrInvalidCredentials):
		core.Unauthorized(w, "Identifiants incorrects")
	case errors.Is(err, ErrAccountDisabled):
		core.Unauthorized(w, "Compte désactivé")
	case errors.Is(err, ErrWrongPassword):
		core.JSONError(w, badRequest("INVALID_PASSWORD", "Mot de passe actuel incorrect"))
	case errors.Is(err, ErrVerificationInvalid):
		core.JSONError(w, badRequest("TOKEN_INVALID", "Lien de vérification invalide"))
	case errors.Is(err, ErrVerificationExpired):
		core.JSONError(w, badRequest("TOKEN_EXPIRED", "Lien de vérification expiré"))
	case errors.Is(err, ErrAlreadyVerified):
		core.JSONError(w, badRequest("ALREADY_VERIFIED", "Email déjà vérifié"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Utilisateur non trouvé")
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "error", err)
		core.InternalServerError(w, err)
	}
}

func badRequest(code, message string) *core.AppError {
	return core.NewAppError(core.ErrInvalidInput, message, http.StatusBadRequest, code)
}

// currentSession returns the loaded session or a detached empty one.
func currentSession(r *http.Request) *session.Session {
	if s := session.FromContext(r.Context()); s != nil {
		return s
	}
	return &session.Session{}
}
