// AngelaMos | 2026
// session_test.go

package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/config"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		SecretKey:  testSecret,
		CookieName: "es_session",
		TTL:        time.Hour,
		SameSite:   "lax",
		Issuer:     "test",
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c, err := NewCodec(testSecret, "test", time.Hour)
	require.NoError(t, err)

	raw, err := c.Encode(&Session{UserID: "u-1", CSRFToken: "tok"})
	require.NoError(t, err)

	s, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "tok", s.CSRFToken)
}

func TestCodecAnonymousSession(t *testing.T) {
	c, err := NewCodec(testSecret, "test", time.Hour)
	require.NoError(t, err)

	raw, err := c.Encode(&Session{})
	require.NoError(t, err)

	s, err := c.Decode(raw)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.CSRFToken)
}

func TestCodecRejectsShortSecret(t *testing.T) {
	_, err := NewCodec("short", "test", time.Hour)
	assert.Error(t, err)
}

func TestCodecRejectsForeignKey(t *testing.T) {
	a, err := NewCodec(testSecret, "test", time.Hour)
	require.NoError(t, err)
	b, err := NewCodec(strings.Repeat("z", 32), "test", time.Hour)
	require.NoError(t, err)

	raw, err := a.Encode(&Session{UserID: "u-1"})
	require.NoError(t, err)

	_, err = b.Decode(raw)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestCodecRejectsWrongIssuer(t *testing.T) {
	a, err := NewCodec(testSecret, "one", time.Hour)
	require.NoError(t, err)
	b, err := NewCodec(testSecret, "two", time.Hour)
	require.NoError(t, err)

	raw, err := a.Encode(&Session{UserID: "u-1"})
	require.NoError(t, err)

	_, err = b.Decode(raw)
	assert.Error(t, err)
}

func TestCodecRejectsExpired(t *testing.T) {
	c, err := NewCodec(testSecret, "test", time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	c.now = func() time.Time { return issued }
	raw, err := c.Encode(&Session{UserID: "u-1"})
	require.NoError(t, err)

	c.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = c.Decode(raw)
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, core.ErrTokenExpired) || errors.Is(err, core.ErrTokenInvalid),
	)
}

func TestMatchCSRF(t *testing.T) {
	s := &Session{CSRFToken: "abc"}
	assert.True(t, s.MatchCSRF("abc"))
	assert.False(t, s.MatchCSRF("abd"))
	assert.False(t, s.MatchCSRF(""))

	empty := &Session{}
	assert.False(t, empty.MatchCSRF(""))

	var nilSession *Session
	assert.False(t, nilSession.MatchCSRF("abc"))
}

func TestManagerSaveAndLoad(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, &Session{UserID: "u-1", CSRFToken: "tok"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "es_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	s := m.Load(req)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "tok", s.CSRFToken)
}

func TestManagerLoadIgnoresGarbage(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "es_session", Value: "not-a-token"})

	s := m.Load(req)
	require.NotNil(t, s)
	assert.False(t, s.Authenticated())
}

func TestManagerClear(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestEnsureCSRFTokenIsStable(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	s := &Session{}
	rec := httptest.NewRecorder()
	first, err := m.EnsureCSRFToken(rec, s)
	require.NoError(t, err)
	assert.Len(t, first, 43)
	assert.Len(t, rec.Result().Cookies(), 1)

	rec = httptest.NewRecorder()
	second, err := m.EnsureCSRFToken(rec, s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, rec.Result().Cookies())
}

func TestContextHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(req.Context()))
	assert.Empty(t, UserID(req.Context()))

	ctx := WithSession(req.Context(), &Session{UserID: "u-9"})
	assert.Equal(t, "u-9", UserID(ctx))
}
