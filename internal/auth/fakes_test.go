// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*user.User{}}
}

func (m *memStore) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if strings.EqualFold(other.Username, u.Username) {
			return user.ErrUsernameTaken
		}
		if other.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByIdentifier(_ context.Context, identifier string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, identifier) || u.Email == strings.ToLower(identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *memStore) GetByVerificationToken(_ context.Context, hash string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.VerificationTokenHash != nil && *u.VerificationTokenHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *memStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id, hash string) error {
	return m.mutate(id, func(u *user.User) { u.PasswordHash = hash })
}

func (m *memStore) RecordLogin(_ context.Context, id, rehashed string) error {
	return m.mutate(id, func(u *user.User) {
		now := time.Now()
		u.LastLogin = &now
		if rehashed != "" {
			u.PasswordHash = rehashed
		}
	})
}

func (m *memStore) SetVerificationToken(_ context.Context, id, hash string, exp time.Time) error {
	return m.mutate(id, func(u *user.User) {
		u.VerificationTokenHash = &hash
		u.VerificationExpiresAt = &exp
	})
}

func (m *memStore) MarkEmailVerified(_ context.Context, id string) error {
	return m.mutate(id, func(u *user.User) {
		u.EmailVerified = true
		u.VerificationTokenHash = nil
		u.VerificationExpiresAt = nil
	})
}

func (m *memStore) ActiveUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) IsActive(ctx context.Context, id string) (bool, error) {
	u, err := m.ActiveUser(ctx, id)
	return u != nil, err
}

func (m *memStore) mutate(id string, fn func(*user.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("mutate user: %w", core.ErrNotFound)
	}
	fn(u)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memStore) setActive(username string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u.IsActive = active
		}
	}
}

type sentVerification struct {
	email, name, token string
}

type recordingVerifier struct {
	mu   sync.Mutex
	sent []sentVerification
}

func (r *recordingVerifier) NotifyVerification(email, name, token string) {
	r.mu.Lock()
	r.sent = append(r.sent, sentVerification{email, name, token})
	r.mu.Unlock()
}

func (r *recordingVerifier) last() sentVerification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentVerification{}
	}
	return r.sent[len(r.sent)-1]
}
