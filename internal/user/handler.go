// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, csrf func(http.Handler) http.Handler,
) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/", h.GetProfile)
		r.With(csrf).Put("/", h.UpdateProfile)
	})
}

// RegisterAdminRoutes registers admin-only user listing.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	requireSession, adminOnly func(http.Handler) http.Handler,
) {
	r.With(requireSession, adminOnly).Get("/users", h.ListUsers)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), session.UserID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{
			"body": "Corps de requête JSON invalide",
		}))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.ValidationDetails(err, profileLabels)))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session.UserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// ListUsers returns a paginated list of users, newest first.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Utilisateur non trouvé")
	case errors.Is(err, ErrEmailTaken):
		core.JSONError(w, core.DuplicateError("email", "Cet email est déjà utilisé"))
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
