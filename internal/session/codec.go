// AngelaMos | 2026
// codec.go

package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

const csrfClaim = "csrf"

// Codec signs and verifies session cookies as HS256 JWS tokens.
type Codec struct {
	key    jwk.Key
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret, issuer string, ttl time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}

	key, err := jwk.Import([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("import session key: %w", err)
	}

	return &Codec{
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (c *Codec) Encode(s *Session) (string, error) {
	now := c.now()

	b := jwt.NewBuilder().
		Issuer(c.issuer).
		IssuedAt(now).
		Expiration(now.Add(c.ttl))

	if s.UserID != "" {
		b = b.Subject(s.UserID)
	}
	if s.CSRFToken != "" {
		b = b.Claim(csrfClaim, s.CSRFToken)
	}

	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), c.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return string(signed), nil
}

func (c *Codec) Decode(raw string) (*Session, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), c.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(c.issuer),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("decode session: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("decode session: %w", core.ErrTokenInvalid)
	}

	s := &Session{}
	if sub, ok := token.Subject(); ok {
		s.UserID = sub
	}

	var csrf string
	if err := token.Get(csrfClaim, &csrf); err == nil {
		s.CSRFToken = csrf
	}

	return s, nil
}

func isTokenExpiredError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
