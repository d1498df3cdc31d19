// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/user"
)

var strictPolicy = PasswordPolicy{
	MinLength: 8, RequireUpper: true, RequireDigit: true, RequireSymbol: true,
}

func newTestService() (*Service, *memStore, *recordingVerifier) {
	store := newMemStore()
	verifier := &recordingVerifier{}
	return NewService(store, strictPolicy, verifier, 24*time.Hour, nil), store, verifier
}

func registerAlice(t *testing.T, svc *Service) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "Alice@X.com",
		Password: "Str0ng!pw",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterHashesPasswordAndSendsVerification(t *testing.T) {
	svc, _, verifier := newTestService()

	u := registerAlice(t, svc)

	assert.Equal(t, "alice@x.com", u.Email)
	assert.NotEqual(t, "Str0ng!pw", u.PasswordHash)
	assert.True(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	require.NotNil(t, u.VerificationTokenHash)

	sent := verifier.last()
	assert.Equal(t, "alice@x.com", sent.email)
	assert.NotEmpty(t, sent.token)
	assert.NotEqual(t, sent.token, *u.VerificationTokenHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestService()
	registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "ALICE", Email: "other@x.com", Password: "Str0ng!pw",
	})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "bob", Email: "alice@x.com", Password: "Str0ng!pw",
	})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterEnforcesPolicy(t *testing.T) {
	svc, store, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "bob", Email: "bob@x.com", Password: "weakpass",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.Zero(t, store.count())
}

func TestAuthenticateByUsernameOrEmail(t *testing.T) {
	svc, _, _ := newTestService()
	registerAlice(t, svc)
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "Alice", "Str0ng!pw")
	require.NoError(t, err)
	assert.NotNil(t, u.LastLogin)

	_, err = svc.Authenticate(ctx, "alice@x.com", "Str0ng!pw")
	require.NoError(t, err)
}

func TestAuthenticateFailures(t *testing.T) {
	svc, store, _ := newTestService()
	registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "Str0ng!pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	store.setActive("alice", false)

	_, err = svc.Authenticate(ctx, "alice", "Str0ng!pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService()
	u := registerAlice(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, "wrong", "N3w!passw")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, u.ID, "Str0ng!pw", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "Str0ng!pw", "N3w!passw"))

	_, err = svc.Authenticate(ctx, "alice", "Str0ng!pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "N3w!passw")
	assert.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	svc, _, verifier := newTestService()
	registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.VerifyEmail(ctx, "bogus")
	assert.ErrorIs(t, err, ErrVerificationInvalid)

	u, err := svc.VerifyEmail(ctx, verifier.last().token)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	_, err = svc.VerifyEmail(ctx, verifier.last().token)
	assert.ErrorIs(t, err, ErrVerificationInvalid)

	err = svc.ResendVerification(ctx, u.ID)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmailExpired(t *testing.T) {
	svc, _, verifier := newTestService()
	registerAlice(t, svc)

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err := svc.VerifyEmail(context.Background(), verifier.last().token)
	assert.ErrorIs(t, err, ErrVerificationExpired)
}

func TestResendVerificationIssuesNewToken(t *testing.T) {
	svc, _, verifier := newTestService()
	u := registerAlice(t, svc)
	first := verifier.last().token

	require.NoError(t, svc.ResendVerification(context.Background(), u.ID))
	second := verifier.last().token
	assert.NotEqual(t, first, second)

	_, err := svc.VerifyEmail(context.Background(), first)
	assert.ErrorIs(t, err, ErrVerificationInvalid)

	_, err = svc.VerifyEmail(context.Background(), second)
	assert.NoError(t, err)
}

func TestPasswordPolicy(t *testing.T) {
	cases := []struct {
		pw     string
		policy PasswordPolicy
		ok     bool
	}{
		{"Str0ng!pw", strictPolicy, true},
		{"Sh0!t", strictPolicy, false},
		{"nouppercase1!", strictPolicy, false},
		{"NoDigits!!", strictPolicy, false},
		{"NoSymbol12", strictPolicy, false},
		{"simple", PasswordPolicy{MinLength: 6}, true},
		{"short", PasswordPolicy{MinLength: 6}, false},
		{"Éé1!Éé1!", strictPolicy, true},
	}

	for _, tc := range cases {
		err := tc.policy.Validate(tc.pw)
		if tc.ok {
			assert.NoError(t, err, tc.pw)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, tc.pw)
		}
	}
}
