package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/app"
	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/internal/email"
	"github.com/jwalitptl/hairline-crm/internal/worker"
)

func setupHealthCheck(a *app.App, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Patients.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", a.Metrics.HTTPHandler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	app.SetupLogger(cfg.Log)

	if !cfg.Mailer.Enabled {
		log.Fatal().Msg("mailer.enabled is false, nothing to run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close(context.Background())

	mailer := worker.NewReportMailer(
		a.Reports,
		email.NewSMTPService(cfg.SMTP),
		worker.ReportMailerConfig{
			At:         cfg.Mailer.At,
			Recipients: cfg.Mailer.Recipients,
			Reports:    cfg.Mailer.Reports,
		},
		a.Metrics,
	)
	scheduler, err := mailer.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start report mailer")
	}

	health := setupHealthCheck(a, ":8081")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = health.Shutdown(shutdownCtx)
}
