package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/logger"
	"github.com/spf13/cobra"

	"github.com/atmosgear/skate-league/internal/config"
	"github.com/atmosgear/skate-league/internal/handler"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registration API and confirmation page",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireStripe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect the participant store ─────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, serveMigrate)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeStore()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	svc, err := newService(cfg, store)
	if err != nil {
		return err
	}
	if cfg.AdminPassword == "" {
		logger.Warning("ADMIN_PASSWORD not set, admin endpoints will reject every request")
	}
	h := handler.NewRegistrationHandler(svc, handler.Options{
		AdminPassword:  cfg.AdminPassword,
		TestSecret:     cfg.TestSecret,
		SupportEmail:   cfg.SupportEmail,
		AdminRateLimit: cfg.AdminRateLimit,
		AdminRateBurst: cfg.AdminRateBurst,
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
