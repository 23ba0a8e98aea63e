package auth

import "net/http"

// SessionCookieName carries the owner session token.
const SessionCookieName = "rabieh_owner_session"

// TokenFromRequest extracts the owner session token from the request cookie.
// Returns an empty string when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireOwner returns middleware that rejects requests without an active
// owner session.
func RequireOwner(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Elevated(TokenFromRequest(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"owner session required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
