// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/booking"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

type UserCounter interface {
	Counts(ctx context.Context) (user.Counts, error)
}

type BookingCounter interface {
	CountByStatus(ctx context.Context) (map[booking.Status]int, error)
}

type Handler struct {
	users      UserCounter
	bookings   BookingCounter
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	startedAt  time.Time
}

type HandlerConfig struct {
	Users      UserCounter
	Bookings   BookingCounter
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:      cfg.Users,
		bookings:   cfg.Bookings,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		startedAt:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(adminOnly)

		r.Get("/stats", h.GetStats)
	})
}

// GetStats serves the admin dashboard: user and booking counts plus
// connection pool and process figures.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.Counts(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	byStatus, err := h.bookings.CountByStatus(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, StatsResponse{
		Users:    users,
		Bookings: newBookingStats(byStatus),
		System:   h.systemStats(),
	})
}

func newBookingStats(byStatus map[booking.Status]int) BookingStats {
	stats := BookingStats{
		Pending:   byStatus[booking.StatusPending],
		Confirmed: byStatus[booking.StatusConfirmed],
		Cancelled: byStatus[booking.StatusCancelled],
		Completed: byStatus[booking.StatusCompleted],
	}
	stats.Total = stats.Pending + stats.Confirmed + stats.Cancelled + stats.Completed
	return stats
}

func (h *Handler) systemStats() SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	sys := SystemStats{
		Process: ProcessStats{
			UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
			Goroutines:    runtime.NumGoroutine(),
			HeapMB:        float64(mem.HeapAlloc) / (1 << 20),
			GoVersion:     runtime.Version(),
		},
	}

	if h.dbStats != nil {
		st := h.dbStats()
		pool := &DBPool{
			Open:    st.OpenConnections,
			InUse:   st.InUse,
			Idle:    st.Idle,
			MaxOpen: st.MaxOpenConnections,
			Waits:   st.WaitCount,
		}
		if st.MaxOpenConnections > 0 {
			pool.Utilization = float64(st.InUse) / float64(st.MaxOpenConnections)
		}
		sys.Database = pool
	}

	if h.redisStats != nil {
		st := h.redisStats()
		pool := &RedisPool{
			Total:    st.TotalConns,
			Idle:     st.IdleConns,
			Timeouts: st.Timeouts,
		}
		if lookups := st.Hits + st.Misses; lookups > 0 {
			pool.HitRatio = float64(st.Hits) / float64(lookups)
		}
		sys.Redis = pool
	}

	return sys
}

type StatsResponse struct {
	Users    user.Counts  `json:"users"`
	Bookings BookingStats `json:"bookings"`
	System   SystemStats  `json:"system"`
}

type BookingStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}

// SystemStats is omitted piecewise when a pool source is not configured.
type SystemStats struct {
	Database *DBPool      `json:"database,omitempty"`
	Redis    *RedisPool   `json:"redis,omitempty"`
	Process  ProcessStats `json:"process"`
}

type DBPool struct {
	Open        int     `json:"open"`
	InUse       int     `json:"in_use"`
	Idle        int     `json:"idle"`
	MaxOpen     int     `json:"max_open"`
	Waits       int64   `json:"waits"`
	Utilization float64 `json:"utilization"`
}

// RedisPool reports connection reuse from the client pool. HitRatio is the
// share of checkouts served by an idle connection.
type RedisPool struct {
	Total    uint32  `json:"total"`
	Idle     uint32  `json:"idle"`
	Timeouts uint32  `json:"timeouts"`
	HitRatio float64 `json:"hit_ratio"`
}

type ProcessStats struct {
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapMB        float64 `json:"heap_mb"`
	GoVersion     string  `json:"go_version"`
}
