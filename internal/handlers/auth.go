package handlers

import (
	"crypto/subtle"
	"net/http"
)

const basicAuthRealm = "Administration"

// RequireBasicAuth guards the admin area with the statically configured
// credentials. The comparison is constant-time and the response never hints
// whether the username or the password was wrong.
func (h *Handlers) RequireBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !h.credentialsMatch(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+basicAuthRealm+`"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) credentialsMatch(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(h.config.AdminUsername)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(h.config.AdminPassword)) == 1
	return usernameMatch && passwordMatch
}
