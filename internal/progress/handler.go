// AngelaMos | 2026
// handler.go

package progress

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
)

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, validator: core.NewValidator()}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, csrf func(http.Handler) http.Handler,
) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/", h.List)
		r.With(csrf).Post("/", h.Upsert)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListByUser(r.Context(), session.UserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, items)
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{
			"body": "Corps de requête JSON invalide",
		}))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.ValidationDetails(err, labels)))
		return
	}

	p := &Progress{
		ID:        uuid.New().String(),
		UserID:    session.UserID(r.Context()),
		Category:  strings.TrimSpace(req.Category),
		Step:      strings.TrimSpace(req.Step),
		Completed: req.Completed,
		Notes:     req.Notes,
	}

	if err := h.repo.Upsert(r.Context(), p); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, p)
}
