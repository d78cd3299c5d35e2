package httpx

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const AdminTokenHeader = "X-Admin-Token"

// WithAdminToken guards a handler behind a shared administrator token. The
// configured value is a bcrypt hash of the token, so the secret itself never
// sits in the environment. An empty hash disables the guard (dev mode).
func WithAdminToken(tokenBcryptHash string) Middleware {
	hash := strings.TrimSpace(tokenBcryptHash)
	if hash == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(AdminTokenHeader))
			if token == "" {
				http.Error(w, "admin token required", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				http.Error(w, "invalid admin token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
