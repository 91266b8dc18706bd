package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type contextKey string

const sessionContextKey = contextKey("session")

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// CurrentUser returns the signed in user or nil.
func CurrentUser(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}

func IsAuthenticated(ctx context.Context) bool {
	return CurrentUser(ctx) != nil
}

// LoadSession puts the cookie session, if any, into the request context.
// Invalid cookies are cleared. Sessions older than half their lifetime are
// reissued so active users stay signed in.
func (c *CookieStore) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, issued, err := c.Load(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				c.Clear(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		if !issued.IsZero() && c.now().Sub(issued) > c.ttl/2 {
			if err := c.Save(w, s); err != nil {
				log.Printf("Failed to refresh session for %s: %v", s.Email, err)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequireSession sends visitors without a session to the sign in page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSessionAPI answers 401 with a JSON error body instead of
// redirecting.
func RequireSessionAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
