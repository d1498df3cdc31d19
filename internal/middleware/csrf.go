// AngelaMos | 2026
// csrf.go

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/session"
)

const (
	CSRFHeader  = "X-CSRF-Token"
	maxCSRFBody = 1 << 20
)

// CSRF rejects the request with 403 unless it presents the session's CSRF
// token in the X-CSRF-Token header or the csrf_token JSON body field.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())

		token := r.Header.Get(CSRFHeader)
		if token == "" {
			token = tokenFromBody(r)
		}

		if !s.MatchCSRF(token) {
			core.JSONError(w, core.CSRFError())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// tokenFromBody peeks at a JSON body and restores it for the handler.
func tokenFromBody(r *http.Request) string {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCSRFBody))
	_ = r.Body.Close() //nolint:errcheck // body replaced below
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var payload struct {
		CSRFToken string `json:"csrf_token"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}

	return payload.CSRFToken
}
