// Package app wires configuration into the stores and services shared by the
// api, worker and crmctl binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	"github.com/jwalitptl/hairline-crm/internal/repository/memory"
	"github.com/jwalitptl/hairline-crm/internal/repository/mongodb"
	authService "github.com/jwalitptl/hairline-crm/internal/service/auth"
	dashboardService "github.com/jwalitptl/hairline-crm/internal/service/dashboard"
	eventService "github.com/jwalitptl/hairline-crm/internal/service/event"
	patientService "github.com/jwalitptl/hairline-crm/internal/service/patient"
	reportService "github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/auth"
	"github.com/jwalitptl/hairline-crm/pkg/logger"
	"github.com/jwalitptl/hairline-crm/pkg/messaging"
	"github.com/jwalitptl/hairline-crm/pkg/messaging/redis"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
	"github.com/jwalitptl/hairline-crm/pkg/security"
)

// App holds everything built from one configuration.
type App struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Location *time.Location

	Patients repository.PatientRepository
	Users    repository.UserRepository
	Broker   messaging.Broker

	Auth      *authService.Service
	Patient   *patientService.Service
	Dashboard *dashboardService.Service
	Reports   *reportService.Service

	closers []func(ctx context.Context) error
}

// SetupLogger makes the configured zerolog logger the global one.
func SetupLogger(cfg config.LogConfig) {
	logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.JSON,
	}).SetGlobal()
}

// New connects the store and the event broker and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid server.timezone %q: %w", cfg.Server.Timezone, err)
	}

	a := &App{
		Config:   cfg,
		Metrics:  metrics.NewMetrics(cfg.Metrics.Namespace),
		Location: loc,
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	a.openBroker(ctx)

	a.Auth = authService.NewService(
		a.Users,
		auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		authService.Options{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockoutDuration:  time.Duration(cfg.Auth.LockoutMinutes) * time.Minute,
		},
	)
	events := eventService.NewService(a.Broker, cfg.Redis.Channel, a.Metrics)
	a.Patient = patientService.NewService(a.Patients, model.Workflow{Strict: cfg.Workflow.StrictTransitions}, events)
	a.Dashboard = dashboardService.NewService(a.Patients, loc)
	a.Reports = reportService.NewService(a.Patients, a.Users, a.Metrics, loc)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.Database.Driver == "memory" {
		log.Warn().Msg("Using the in-memory store, data is lost on exit")
		a.Patients = memory.NewPatientRepository()
		a.Users = memory.NewUserRepository()
		return nil
	}

	db, err := mongodb.NewDB(ctx, a.Config.Database, a.Metrics)
	if err != nil {
		return err
	}
	a.Patients = mongodb.NewPatientRepository(db)
	a.Users = mongodb.NewUserRepository(db)
	a.closers = append(a.closers, db.Close)
	log.Info().Str("database", a.Config.Database.Name).Msg("Connected to MongoDB")
	return nil
}

// openBroker connects Redis when configured. Events are best effort, so an
// unreachable Redis downgrades to a broker that drops them.
func (a *App) openBroker(ctx context.Context) {
	if a.Config.Redis.URL == "" {
		a.Broker = messaging.NopBroker{}
		return
	}
	broker, err := redis.NewRedisBroker(ctx, redis.Config{URL: a.Config.Redis.URL, MaxRetries: 3})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Redis, patient events are disabled")
		a.Broker = messaging.NopBroker{}
		return
	}
	a.Broker = broker
	a.closers = append(a.closers, func(context.Context) error { return broker.Close() })
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close connection")
		}
	}
}
