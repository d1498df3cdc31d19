// AngelaMos | 2026
// routes.go

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/admin"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/auth"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/bookmark"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/middleware"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/progress"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

type apiHandlers struct {
	Sessions  middleware.SessionLoader
	Actives   middleware.ActiveChecker
	Admins    middleware.AdminChecker
	Auth      *auth.Handler
	Users     *user.Handler
	Progress  *progress.Handler
	Bookmarks *bookmark.Handler
	Bookings  *booking.Handler
	Admin     *admin.Handler
}

// mountAPI registers every /api route. Sessions are decoded once per
// request before any handler runs.
func mountAPI(r chi.Router, h apiHandlers) {
	requireSession := middleware.RequireSession(h.Actives)
	adminOnly := middleware.RequireAdmin(h.Admins)
	csrf := middleware.CSRF

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(h.Sessions))

		h.Auth.RegisterRoutes(r, requireSession, csrf)
		h.Users.RegisterRoutes(r, requireSession, csrf)
		h.Users.RegisterAdminRoutes(r, requireSession, adminOnly)
		h.Progress.RegisterRoutes(r, requireSession, csrf)
		h.Bookmarks.RegisterRoutes(r, requireSession, csrf)
		h.Bookings.RegisterRoutes(r, requireSession, adminOnly, csrf)
		h.Admin.RegisterRoutes(r, requireSession, adminOnly)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	core.NotFound(w, "Ressource introuvable")
}
