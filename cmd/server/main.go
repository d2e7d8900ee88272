package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/router"
	"github.com/anonto42/nano-social/backend/internal/validators"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.WithSource("main")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize databases")
	}
	defer db.CloseDB()

	// Firebase login is only offered when credentials are configured
	var firebaseAuth handlers.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		client, err := firebase.NewAuthClient(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize Firebase")
		}
		firebaseAuth = client
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	config.SetupMiddleware(e, cfg)

	if err := router.SetupRoutes(e, cfg, db, firebaseAuth); err != nil {
		log.WithError(err).Fatal("failed to set up routes")
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
