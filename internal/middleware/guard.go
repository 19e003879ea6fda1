package middleware

import (
	"net/http"
	"strings"
)

// GuardConfig names the protected area and the login entry point.
type GuardConfig struct {
	ProtectedPrefix string
	LoginPath       string
}

// DefaultGuard protects /dashboard and sends anonymous visitors to /login.
var DefaultGuard = GuardConfig{ProtectedPrefix: "/dashboard", LoginPath: "/login"}

// Guard redirects anonymous requests for the protected area to the login
// page, and signed-in requests for the login page to the protected area.
// It relies on Session having run first.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, signedIn := GetUser(r.Context())
			path := r.URL.Path

			switch {
			case !signedIn && underPrefix(path, cfg.ProtectedPrefix):
				http.Redirect(w, r, cfg.LoginPath, http.StatusFound)
				return
			case signedIn && path == cfg.LoginPath:
				http.Redirect(w, r, cfg.ProtectedPrefix, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
