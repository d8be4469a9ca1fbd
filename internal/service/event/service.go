package event

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/pkg/messaging"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

const (
	PatientCreated       = "PATIENT_CREATED"
	PatientUpdated       = "PATIENT_UPDATED"
	PatientStatusChanged = "PATIENT_STATUS_CHANGED"
	PaymentReceived      = "PAYMENT_RECEIVED"
)

// PatientEvent is the payload published for every patient write.
type PatientEvent struct {
	PatientID  string       `json:"patientId"`
	Name       string       `json:"name"`
	Branch     model.Branch `json:"branch,omitempty"`
	Status     model.Status `json:"status"`
	PrevStatus model.Status `json:"prevStatus,omitempty"`
	Amount     float64      `json:"amount,omitempty"`
	Actor      string       `json:"actor,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Service publishes patient events. Publishing is best effort: the write that
// triggered the event has already been committed, so failures are logged and
// counted but never returned to the caller.
type Service struct {
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
}

func NewService(broker messaging.Broker, channel string, m *metrics.Metrics) *Service {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &Service{broker: broker, channel: channel, metrics: m}
}

func (s *Service) Emit(ctx context.Context, eventType string, evt PatientEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	status := "ok"
	if err := s.broker.Publish(ctx, s.channel, messaging.Message{Type: eventType, Payload: evt}); err != nil {
		status = "error"
		log.Warn().Err(err).
			Str("event_type", eventType).
			Str("patient_id", evt.PatientID).
			Msg("failed to publish patient event")
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}

// FromPatient fills the common event fields from p.
func FromPatient(p *model.Patient, actor string) PatientEvent {
	return PatientEvent{
		PatientID: p.ID.Hex(),
		Name:      p.Personal.Name,
		Branch:    p.Personal.Location,
		Status:    p.Ops.Status,
		Actor:     actor,
	}
}
