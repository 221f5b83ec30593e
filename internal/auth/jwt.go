// Package auth guards the detail report behind a bearer token: a raw
// virtual-memory map leaks the process's ASLR layout, so it gets the
// one access control this tracker needs. It is adapted from the
// teacher's internal/auth/jwt.go env-key-loading convention, trimmed
// down to verification only — this tracker never issues tokens, it
// only checks ones issued by whatever identity system the host
// operates.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks bearer tokens signed with an HMAC secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier that checks tokens signed with secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Middleware rejects requests without a valid bearer token.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		})
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
