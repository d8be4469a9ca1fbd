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

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/app"
	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/internal/handler/agent"
	"github.com/jwalitptl/hairline-crm/internal/handler/auth"
	"github.com/jwalitptl/hairline-crm/internal/handler/employee"
	"github.com/jwalitptl/hairline-crm/internal/handler/health"
	"github.com/jwalitptl/hairline-crm/internal/handler/patient"
	"github.com/jwalitptl/hairline-crm/internal/handler/report"
	"github.com/jwalitptl/hairline-crm/internal/middleware"
	"github.com/jwalitptl/hairline-crm/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	app.SetupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise application")
	}
	defer a.Close(context.Background())

	// Initialize handlers
	handlers := router.Handlers{
		Health: health.NewHandler(a.Patients, a.Metrics),
		Auth: auth.NewHandler(a.Auth, auth.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Secure: cfg.JWT.SecureCookie,
		}),
		Patient:  patient.NewHandler(a.Patient, a.Dashboard),
		Agent:    agent.NewHandler(a.Reports),
		Employee: employee.NewHandler(a.Reports),
		Report:   report.NewHandler(a.Reports),
	}

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(a.Auth, cfg.JWT.CookieName),
		handlers,
		a.Metrics,
		router.RouterConfig{
			Mode:         cfg.Server.Mode,
			RateLimit:    cfg.RateLimit.RequestsPerSecond,
			RateBurst:    cfg.RateLimit.Burst,
			RateLimitOff: !cfg.RateLimit.Enabled,
			Timeout:      time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins: cfg.CORS.AllowedOrigins,
				MaxAge:       12 * time.Hour,
			},
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
