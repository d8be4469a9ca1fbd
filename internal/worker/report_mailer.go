package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/email"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/service/export"
	"github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

type ReportMailerConfig struct {
	// At is the local time of day the reports go out, "HH:MM".
	At         string
	Recipients []string
	// Reports lists the report types attached to each mail.
	Reports []string
	Timeout time.Duration
}

// ReportMailer e-mails the day's reports as spreadsheets once a day.
type ReportMailer struct {
	reports *report.Service
	mailer  email.Service
	config  ReportMailerConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewReportMailer(reports *report.Service, mailer email.Service, config ReportMailerConfig, m *metrics.Metrics) *ReportMailer {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &ReportMailer{
		reports: reports,
		mailer:  mailer,
		config:  config,
		metrics: m,
		now:     time.Now,
	}
}

// Start schedules the daily run and returns the running scheduler; callers
// stop it on shutdown.
func (w *ReportMailer) Start() (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(w.reports.Location())
	_, err := scheduler.Every(1).Day().At(w.config.At).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.config.Timeout)
		defer cancel()
		if err := w.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to mail daily reports")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule report mailer at %q: %w", w.config.At, err)
	}

	scheduler.StartAsync()
	log.Info().Str("at", w.config.At).Strs("reports", w.config.Reports).Msg("Report mailer started")
	return scheduler, nil
}

// Run builds today's reports and mails them in one message.
func (w *ReportMailer) Run(ctx context.Context) error {
	err := w.run(ctx)
	if w.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		w.metrics.ReportsMailed.WithLabelValues(status).Inc()
	}
	return err
}

func (w *ReportMailer) run(ctx context.Context) error {
	today := w.now().In(w.reports.Location())

	attachments := make([]email.Attachment, 0, len(w.config.Reports))
	titles := make([]string, 0, len(w.config.Reports))
	for _, t := range w.config.Reports {
		table, err := w.reports.Report(ctx, &model.ReportRequest{
			Type:   t,
			Period: model.PeriodToday,
			Format: "xlsx",
		})
		if err != nil {
			return fmt.Errorf("failed to build %s report: %w", t, err)
		}
		data, err := export.XLSX(table)
		if err != nil {
			return fmt.Errorf("failed to export %s report: %w", t, err)
		}
		attachments = append(attachments, email.Attachment{
			Filename:    export.Filename(t, today),
			ContentType: export.ContentType,
			Data:        data,
		})
		titles = append(titles, fmt.Sprintf("- %s (%d rows)", table.Title, len(table.Rows)))
	}

	msg := email.Message{
		To:          w.config.Recipients,
		Subject:     fmt.Sprintf("Clinic reports for %s", today.Format("2006-01-02")),
		Body:        "Today's reports are attached:\n" + strings.Join(titles, "\n") + "\n",
		Attachments: attachments,
	}
	if err := w.mailer.Send(ctx, msg); err != nil {
		return err
	}

	log.Info().Int("reports", len(attachments)).Strs("to", w.config.Recipients).Msg("Daily reports mailed")
	return nil
}
