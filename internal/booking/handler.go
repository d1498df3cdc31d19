// AngelaMos | 2026
// handler.go

package booking

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
	requireSession, adminOnly, csrf func(http.Handler) http.Handler,
) {
	r.Route("/rdv", func(r chi.Router) {
		r.Post("/reserver", h.Reserve)
		r.Get("/disponibilites/{date}", h.Availability)
		r.Get("/mes-reservations", h.ListMine)
		r.Post("/annuler/{bookingID}", h.Cancel)

		r.Route("/admin/reservations", func(r chi.Router) {
			r.Use(requireSession, adminOnly)

			r.Get("/", h.AdminList)
			r.With(csrf).Put("/{bookingID}", h.AdminUpdate)
		})
	})
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		invalidBody(w)
		return
	}

	b, err := h.service.Reserve(r.Context(), req, session.UserID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ActionResponse{
		Success: true,
		Message: "Réservation créée avec succès",
		Rdv:     ToResponse(b),
	})
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	date, err := ParseDate(raw)
	if err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{
			"date": "Date invalide (format attendu AAAA-MM-JJ)",
		}))
		return
	}

	times, err := h.service.SlotsOccupied(r.Context(), date)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, AvailabilityResponse{
		Date:              date.Format(DateLayout),
		HeuresOccupees:    times,
		TotalReservations: len(times),
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListForEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"reservations": ToResponseList(bookings)})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		invalidBody(w)
		return
	}

	b, err := h.service.Cancel(r.Context(), chi.URLParam(r, "bookingID"), req.Email)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ActionResponse{
		Success: true,
		Message: "Réservation annulée",
		Rdv:     ToResponse(b),
	})
}

// AdminList returns bookings filtered by ?statut= and ?date=, paginated.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Statut:   Status(q.Get("statut")),
	}

	if params.Statut != "" && !params.Statut.Valid() {
		core.JSONError(w, core.ValidationError(map[string]string{"statut": "Statut invalide"}))
		return
	}
	if raw := q.Get("date"); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			core.JSONError(w, core.ValidationError(map[string]string{"date": "Date invalide"}))
			return
		}
		params.Date = &date
	}
	params.Normalize()

	bookings, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToAdminResponseList(bookings), params.Page, params.PageSize, total)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		invalidBody(w)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.ValidationDetails(err, fieldLabels)))
		return
	}

	b, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "bookingID"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success": true,
		"message": "Réservation mise à jour",
		"rdv": AdminResponse{
			Response:   ToResponse(b),
			NotesAdmin: b.NotesAdmin,
		},
	})
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, ErrSlotTaken):
		core.JSONError(w, core.ConflictError("Ce créneau est déjà réservé", map[string]string{
			"slot": "Ce créneau n'est plus disponible. Veuillez en choisir un autre.",
		}))
	case errors.Is(err, ErrNotCancellable):
		core.JSONError(w, core.ConflictError("Cette réservation ne peut plus être annulée", nil))
	case errors.Is(err, ErrEmailMismatch):
		core.Unauthorized(w, "Non autorisé")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Réservation non trouvée")
	default:
		core.InternalServerError(w, err)
	}
}

func invalidBody(w http.ResponseWriter) {
	core.JSONError(w, core.ValidationError(map[string]string{
		"body": "Corps de requête JSON invalide",
	}))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	parsed, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return defaultVal
	}
	return parsed
}
