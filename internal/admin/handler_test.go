// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

type stubUsers struct {
	counts user.Counts
	err    error
}

func (s stubUsers) Counts(context.Context) (user.Counts, error) { return s.counts, s.err }

type stubBookings map[booking.Status]int

func (s stubBookings) CountByStatus(context.Context) (map[booking.Status]int, error) {
	return s, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func serveStats(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r, passthrough, passthrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	return rec
}

func TestGetStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:    stubUsers{counts: user.Counts{Total: 4, Active: 3, Admins: 1, Verified: 2}},
		Bookings: stubBookings{booking.StatusPending: 2, booking.StatusCancelled: 1},
		DBStats:  func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 1} },
	})

	rec := serveStats(t, h)
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 4, body.Users.Total)
	assert.Equal(t, 3, body.Bookings.Total)
	assert.Equal(t, 2, body.Bookings.Pending)
	assert.Equal(t, 1, body.Bookings.Cancelled)
	require.NotNil(t, body.System.Database)
	assert.Equal(t, 25, body.System.Database.MaxOpen)
	assert.InDelta(t, 0.04, body.System.Database.Utilization, 1e-9)
	assert.Nil(t, body.System.Redis)
	assert.NotEmpty(t, body.System.Process.GoVersion)
}

func TestGetStatsRedisHitRatio(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:    stubUsers{},
		Bookings: stubBookings{},
		RedisStats: func() *redis.PoolStats {
			return &redis.PoolStats{Hits: 3, Misses: 1, TotalConns: 4, IdleConns: 2}
		},
	})

	rec := serveStats(t, h)
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.System.Redis)
	assert.InDelta(t, 0.75, body.System.Redis.HitRatio, 1e-9)
	assert.Equal(t, uint32(4), body.System.Redis.Total)
	assert.Nil(t, body.System.Database)
}

func TestGetStatsStorageError(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:    stubUsers{err: errors.New("db down")},
		Bookings: stubBookings{},
	})

	rec := serveStats(t, h)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
