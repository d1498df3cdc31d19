// AngelaMos | 2026
// fakes_test.go

package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

// memRepo keeps bookings in memory and enforces slot exclusivity under its
// mutex, the way the partial unique index does in Postgres.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	sent     map[string][2]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		bookings: map[string]*Booking{},
		sent:     map[string][2]bool{},
	}
}

func (m *memRepo) slotTaken(date time.Time, heure string) bool {
	for _, b := range m.bookings {
		if b.DateRdv.Equal(date) && b.HeureRdv == heure && b.Statut.Active() {
			return true
		}
	}
	return false
}

func (m *memRepo) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slotTaken(b.DateRdv, b.HeureRdv) {
		return fmt.Errorf("create booking: %w", ErrSlotTaken)
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memRepo) IsSlotAvailable(_ context.Context, date time.Time, heure string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.slotTaken(date, heure), nil
}

func (m *memRepo) OccupiedTimes(_ context.Context, date time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, b := range m.bookings {
		if b.DateRdv.Equal(date) && b.Statut.Active() {
			out = append(out, b.HeureRdv)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRepo) ListByEmail(_ context.Context, email string) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Booking{}
	for _, b := range m.bookings {
		if b.Email == email {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateRdv.Equal(out[j].DateRdv) {
			return out[i].DateRdv.After(out[j].DateRdv)
		}
		return out[i].HeureRdv > out[j].HeureRdv
	})
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id string, fn MutateFunc) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("update booking: %w", core.ErrNotFound)
	}

	cp := *cur
	changed, err := fn(&cp)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	if changed {
		if cp.Statut.Active() && !cur.Statut.Active() && m.slotTaken(cp.DateRdv, cp.HeureRdv) {
			return nil, fmt.Errorf("update booking: %w", ErrSlotTaken)
		}
		cp.UpdatedAt = time.Now()
		*cur = cp
	}
	return &cp, nil
}

func (m *memRepo) MarkEmailsSent(_ context.Context, id string, userSent, adminSent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("mark emails sent: %w", core.ErrNotFound)
	}
	b.EmailUserSent = userSent
	b.EmailAdminSent = adminSent
	return nil
}

func (m *memRepo) List(_ context.Context, params ListParams) ([]Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Booking{}
	for _, b := range m.bookings {
		if params.Statut != "" && b.Statut != params.Statut {
			continue
		}
		if params.Date != nil && !b.DateRdv.Equal(*params.Date) {
			continue
		}
		out = append(out, *b)
	}
	total := len(out)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return out[start:end], total, nil
}

func (m *memRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[Status]int{}
	for _, b := range m.bookings {
		counts[b.Statut]++
	}
	return counts, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []Booking
}

func (n *recordingNotifier) NotifyReservation(b Booking) {
	n.mu.Lock()
	n.bookings = append(n.bookings, b)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bookings)
}

type publishedEvent struct {
	subject string
	data    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data any) error {
	p.mu.Lock()
	p.events = append(p.events, publishedEvent{subject, data})
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.subject
	}
	return out
}
