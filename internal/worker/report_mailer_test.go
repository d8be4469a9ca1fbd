package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hairline-crm/internal/email"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository/memory"
	"github.com/jwalitptl/hairline-crm/internal/service/export"
	"github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

type recordingMailer struct {
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newMailer(t *testing.T, mailer email.Service, types ...string) (*ReportMailer, *metrics.Metrics) {
	t.Helper()
	patients := memory.NewPatientRepository()
	p := &model.Patient{Personal: model.Personal{Name: "A", Phone: "1"}}
	p.Normalize()
	p.Ops.CreatedAt = time.Now()
	require.NoError(t, patients.Create(context.Background(), p))

	m := metrics.NewMetrics("test")
	svc := report.NewService(patients, memory.NewUserRepository(), m, time.UTC)
	w := NewReportMailer(svc, mailer, ReportMailerConfig{
		At:         "20:00",
		Recipients: []string{"owner@clinic.in"},
		Reports:    types,
	}, m)
	w.now = func() time.Time { return time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC) }
	return w, m
}

func TestRunMailsReports(t *testing.T) {
	mailer := &recordingMailer{}
	w, m := newMailer(t, mailer, model.ReportStatus, model.ReportTransactions)

	require.NoError(t, w.Run(context.Background()))
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, []string{"owner@clinic.in"}, msg.To)
	assert.Equal(t, "Clinic reports for 2024-03-14", msg.Subject)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "status-2024-03-14.xlsx", msg.Attachments[0].Filename)
	assert.Equal(t, export.ContentType, msg.Attachments[1].ContentType)
	assert.NotEmpty(t, msg.Attachments[0].Data)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsMailed.WithLabelValues("ok")))
}

func TestRunFailures(t *testing.T) {
	w, m := newMailer(t, &recordingMailer{err: errors.New("smtp down")}, model.ReportStatus)
	assert.Error(t, w.Run(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsMailed.WithLabelValues("error")))

	w, _ = newMailer(t, &recordingMailer{}, "payroll")
	assert.Error(t, w.Run(context.Background()))
}

func TestStartRejectsBadTime(t *testing.T) {
	w, _ := newMailer(t, &recordingMailer{}, model.ReportStatus)
	w.config.At = "25:99"
	_, err := w.Start()
	assert.Error(t, err)
}
