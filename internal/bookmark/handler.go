// AngelaMos | 2026
// handler.go

package bookmark

import (
	"errors"
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
	r.Route("/bookmarks", func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/", h.List)
		r.With(csrf).Post("/", h.Create)
		r.With(csrf).Delete("/{bookmarkID}", h.Delete)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
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

	b := &Bookmark{
		ID:       uuid.New().String(),
		UserID:   session.UserID(r.Context()),
		Title:    strings.TrimSpace(req.Title),
		URL:      strings.TrimSpace(req.URL),
		Category: strings.TrimSpace(req.Category),
	}

	if err := h.repo.Create(r.Context(), b); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		core.NotFound(w, "Favori non trouvé")
		return
	}

	err = h.repo.Delete(r.Context(), id.String(), session.UserID(r.Context()))
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "Favori non trouvé")
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Message(w, "Favori supprimé")
}
