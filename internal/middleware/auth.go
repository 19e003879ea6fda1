package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brokerapp/server/internal/auth"
	"github.com/brokerapp/server/internal/model"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session-token"

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a session token to the user it belongs to.
type Authenticator interface {
	GetCurrentUser(ctx context.Context, token string) (model.UserView, error)
}

// TokenFromRequest returns the session token cookie value, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Session attaches the current user to the request context when the session
// cookie resolves. Requests without a valid session pass through untouched.
func Session(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := authn.GetCurrentUser(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects requests whose session cookie does not resolve, with
// the facade's message and status.
func RequireUser(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUser(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := authn.GetCurrentUser(r.Context(), TokenFromRequest(r))
			if err != nil {
				status, msg := http.StatusUnauthorized, auth.MsgNotAuthenticated
				var ae *auth.Error
				if errors.As(err, &ae) {
					status, msg = ae.Kind().StatusCode(), ae.Msg()
				}
				respondWithError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user model.UserView) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the user attached to the request context
func GetUser(ctx context.Context) (model.UserView, bool) {
	u, ok := ctx.Value(userKey).(model.UserView)
	return u, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
