package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/http/handlers"
	"github.com/brokerapp/server/internal/middleware"
)

// RouterConfig carries the HTTP-only settings.
type RouterConfig struct {
	StaticDir        string
	RequestCodeLimit int
	VerifyCodeLimit  int
	RateWindow       time.Duration
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	authn middleware.Authenticator,
	cfg RouterConfig,
	clk clock.Clocker,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	sendLimiter := middleware.NewRateLimiter(cfg.RateWindow, cfg.RequestCodeLimit, clk)
	verifyLimiter := middleware.NewRateLimiter(cfg.RateWindow, cfg.VerifyCodeLimit, clk)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.RateLimitMiddleware(sendLimiter, middleware.GetIPKey)).
			Post("/send-otp", authHandler.HandleSendOTP)
		r.With(middleware.RateLimitMiddleware(verifyLimiter, middleware.GetIPKey)).
			Post("/verify-otp", authHandler.HandleVerifyOTP)
		r.Post("/logout", authHandler.HandleLogout)

		r.With(middleware.RequireUser(authn)).Get("/me", authHandler.HandleMe)
	})

	// Pages: the guard decides redirects, the static tree serves the rest.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(authn))
		r.Use(middleware.Guard(middleware.DefaultGuard))
		r.Handle("/*", pages(cfg.StaticDir))
	})

	return r
}

func pages(dir string) http.Handler {
	if dir == "" {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(dir))
}
