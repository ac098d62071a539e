package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openbookings/reservation-backend/internal/app"
	"github.com/openbookings/reservation-backend/internal/config"
	"github.com/openbookings/reservation-backend/internal/db"
	"github.com/openbookings/reservation-backend/internal/identity"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if cfg.IsProduction {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect DB and apply the schema
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	container := app.NewContainer(app.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		DBPool:       pool,
		Identity: identity.Config{
			BaseURL:       cfg.IDPBaseURL,
			Realm:         cfg.IDPRealm,
			ClientID:      cfg.IDPClientID,
			ClientSecret:  cfg.IDPClientSecret,
			AdminUsername: cfg.IDPAdminUsername,
			AdminPassword: cfg.IDPAdminPassword,
		},
		TokenSecret:       cfg.IDPJWTSecret,
		LogoutRedirectURL: cfg.LogoutRedirectURL,
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logrus.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("server forced to shutdown")
	}

	logrus.Info("server exited gracefully")
}
