// AngelaMos | 2026
// routes_test.go

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/admin"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/auth"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/bookmark"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/loginlimit"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/middleware"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/progress"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

// userStore implements the handful of user.Repository methods the
// register flow touches. Anything else panics on the nil embed.
type userStore struct {
	user.Repository

	mu    sync.Mutex
	users map[string]*user.User
}

func (s *userStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (s *userStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *userStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) disable(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u.IsActive = false
		}
	}
}

func (s *userStore) IsActiveAdmin(context.Context, string) (bool, error) {
	return false, nil
}

// slotStore enforces one active booking per slot.
type slotStore struct {
	booking.Repository

	mu       sync.Mutex
	bookings map[string]*booking.Booking
}

func (s *slotStore) taken(date time.Time, heure string) bool {
	for _, b := range s.bookings {
		if b.DateRdv.Equal(date) && b.HeureRdv == heure && b.Statut.Active() {
			return true
		}
	}
	return false
}

func (s *slotStore) IsSlotAvailable(_ context.Context, date time.Time, heure string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.taken(date, heure), nil
}

func (s *slotStore) Create(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken(b.DateRdv, b.HeureRdv) {
		return fmt.Errorf("create booking: %w", booking.ErrSlotTaken)
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *slotStore) OccupiedTimes(_ context.Context, date time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, b := range s.bookings {
		if b.DateRdv.Equal(date) && b.Statut.Active() {
			out = append(out, b.HeureRdv)
		}
	}
	return out, nil
}

func (s *slotStore) Update(_ context.Context, id string, fn booking.MutateFunc) (*booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *cur
	changed, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	if changed {
		*cur = cp
	}
	return &cp, nil
}

type silentNotifier struct{}

func (silentNotifier) NotifyReservation(booking.Booking) {}
func (silentNotifier) NotifyVerification(_, _, _ string) {}

type apiClient struct {
	t      *testing.T
	users  *userStore
	base   string
	client *http.Client
	csrf   string
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFHeader, c.csrf)
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close() //nolint:errcheck // test

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out) //nolint:errcheck // some bodies are empty
	return resp.StatusCode, out
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	sessions, err := session.NewManager(config.SessionConfig{
		SecretKey:  "0123456789abcdef0123456789abcdef",
		CookieName: "es_session",
		TTL:        time.Hour,
		SameSite:   "lax",
		Issuer:     "test",
	})
	require.NoError(t, err)

	users := &userStore{users: map[string]*user.User{}}
	userSvc := user.NewService(users)

	authSvc := auth.NewService(
		users,
		auth.PolicyFromConfig(config.AuthConfig{PasswordMinLength: 8, PasswordStrict: true}),
		silentNotifier{},
		24*time.Hour,
		nil,
	)
	limiter := loginlimit.NewMemory(loginlimit.Policy{MaxAttempts: 5, Window: time.Minute})

	bookings := &slotStore{bookings: map[string]*booking.Booking{}}
	bookingSvc := booking.NewService(bookings, silentNotifier{}, nil, nil)

	r := chi.NewRouter()
	r.NotFound(notFound)
	mountAPI(r, apiHandlers{
		Sessions:  sessions,
		Actives:   userSvc,
		Admins:    userSvc,
		Auth:      auth.NewHandler(authSvc, sessions, userSvc, limiter, nil),
		Users:     user.NewHandler(userSvc),
		Bookings:  booking.NewHandler(bookingSvc),
		Admin:     admin.NewHandler(admin.HandlerConfig{Users: userSvc, Bookings: bookingSvc}),
		Progress:  progress.NewHandler(nil),
		Bookmarks: bookmark.NewHandler(nil),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &apiClient{t: t, users: users, base: srv.URL, client: &http.Client{Jar: jar}}
}

func reservation(email string) map[string]any {
	return map[string]any{
		"prenom":            "Alice",
		"nom":               "Martin",
		"email":             email,
		"pays":              "Sénégal",
		"type_rdv":          "orientation",
		"consultation_type": "visio",
		"date_rdv":          "2025-06-01",
		"heure_rdv":         "09:00",
	}
}

func TestStudentBookingScenario(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodGet, "/api/csrf-token", nil)
	require.Equal(t, http.StatusOK, status)
	api.csrf, _ = body["csrf_token"].(string)
	require.NotEmpty(t, api.csrf)

	status, body = api.do(http.MethodPost, "/api/register", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "Str0ng!pw",
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = api.do(http.MethodGet, "/api/check-auth", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["authenticated"])

	status, body = api.do(http.MethodPost, "/api/rdv/reserver", reservation("alice@x.com"))
	require.Equal(t, http.StatusCreated, status, body)
	rdv, ok := body["rdv"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pending", rdv["statut"])
	assert.NotNil(t, rdv["user_id"], "logged-in reservations are linked to the user")
	bookingID, _ := rdv["id"].(string)
	require.NotEmpty(t, bookingID)

	status, body = api.do(http.MethodGet, "/api/rdv/disponibilites/2025-06-01", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"09:00"}, body["heures_occupees"])

	status, _ = api.do(http.MethodPost, "/api/rdv/reserver", reservation("bob@x.com"))
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPost, "/api/rdv/annuler/"+bookingID,
		map[string]any{"email": "bob@x.com"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodPost, "/api/rdv/annuler/"+bookingID,
		map[string]any{"email": "ALICE@x.com"})
	require.Equal(t, http.StatusOK, status, body)
	rdv, _ = body["rdv"].(map[string]any)
	assert.Equal(t, "cancelled", rdv["statut"])

	status, body = api.do(http.MethodGet, "/api/rdv/disponibilites/2025-06-01", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["heures_occupees"])

	status, _ = api.do(http.MethodPost, "/api/rdv/reserver", reservation("bob@x.com"))
	assert.Equal(t, http.StatusCreated, status)
}

func TestAdminRoutesRejectStudents(t *testing.T) {
	api := newAPI(t)

	status, _ := api.do(http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodGet, "/api/csrf-token", nil)
	require.Equal(t, http.StatusOK, status)
	api.csrf, _ = body["csrf_token"].(string)

	status, _ = api.do(http.MethodPost, "/api/register", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "Str0ng!pw",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodGet, "/api/rdv/admin/reservations", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDisabledAccountIsLoggedOutOfStudentRoutes(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodGet, "/api/csrf-token", nil)
	require.Equal(t, http.StatusOK, status)
	api.csrf, _ = body["csrf_token"].(string)

	status, _ = api.do(http.MethodPost, "/api/register", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "Str0ng!pw",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, status)

	api.users.disable("alice")

	for _, path := range []string{"/api/profile", "/api/progress", "/api/bookmarks"} {
		status, _ = api.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, body = api.do(http.MethodGet, "/api/check-auth", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["authenticated"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body)
}
