package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/auth"
	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/config"
	"github.com/brokerapp/server/internal/db"
	httphandler "github.com/brokerapp/server/internal/http"
	"github.com/brokerapp/server/internal/http/handlers"
	"github.com/brokerapp/server/internal/job"
	"github.com/brokerapp/server/internal/logging"
	"github.com/brokerapp/server/internal/mail"
	"github.com/brokerapp/server/internal/repo"
	"github.com/brokerapp/server/internal/schedule"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repo.Store, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory credential store; data is lost on restart")
		return repo.NewMemoryStore(), func() {}, nil
	}

	database, err := db.Open(ctx, cfg.URL, logger)
	if err != nil {
		return repo.Store{}, nil, err
	}
	if err := db.Migrate(database); err != nil {
		_ = database.Close()
		return repo.Store{}, nil, err
	}
	return repo.NewPostgresStore(database), func() { _ = database.Close() }, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	clk := clock.New()

	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sender, err := mail.New(cfg.Mail, os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("init mail: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, clk)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}
	otps := auth.NewOtpManager(store.Otps, cfg.Auth.OTPTTL, clk)
	sessions := auth.NewSessionManager(store.Sessions, tokens, cfg.Auth.SessionTTL, clk)
	authService := auth.NewService(otps, sessions, store.Users, sender, clk, logger, auth.Options{
		OtpTTL:         cfg.Auth.OTPTTL,
		MailTimeout:    cfg.Mail.Timeout,
		RevokeOnLogout: cfg.Auth.RevokeOnLogout,
	})

	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		Secure: cfg.Production(),
		MaxAge: cfg.Auth.SessionTTL,
	}, logger)

	router := httphandler.NewRouter(authHandler, authService, httphandler.RouterConfig{
		StaticDir:        cfg.HTTP.StaticDir,
		RequestCodeLimit: cfg.HTTP.RequestCodeLimit,
		VerifyCodeLimit:  cfg.HTTP.VerifyCodeLimit,
		RateWindow:       cfg.HTTP.RateWindow,
	}, clk, logger)

	if cfg.Auth.SweepSchedule != "" {
		scheduler := schedule.NewCronScheduler(logger)
		if err := scheduler.AddJob(job.NewSessionSweepJob(sessions, logger), cfg.Auth.SweepSchedule); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Mail.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.HTTP.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Database.Driver),
			zap.String("mail", cfg.Mail.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
