package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	"github.com/jwalitptl/hairline-crm/internal/service/event"
	apperrors "github.com/jwalitptl/hairline-crm/pkg/errors"
	"github.com/jwalitptl/hairline-crm/pkg/validator"
)

// MaxListSize caps the patient list endpoint.
const MaxListSize = 100

type PatientService interface {
	Create(ctx context.Context, patient *model.Patient, actor string) (*model.Patient, error)
	Get(ctx context.Context, id string) (*model.Patient, error)
	Update(ctx context.Context, id string, patient *model.Patient, actor string) (*model.Patient, error)
	UpdateStatus(ctx context.Context, id string, status model.Status, actor string) (*model.Patient, error)
	AddTransaction(ctx context.Context, id string, req *model.TransactionRequest, actor string) (*model.Patient, error)
	List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error)
}

type Service struct {
	repo      repository.PatientRepository
	workflow  model.Workflow
	events    *event.Service
	validator validator.Validator
	now       func() time.Time
}

func NewService(repo repository.PatientRepository, workflow model.Workflow, events *event.Service) *Service {
	if events == nil {
		events = event.NewService(nil, "", nil)
	}
	return &Service{
		repo:      repo,
		workflow:  workflow,
		events:    events,
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC().Truncate(model.StoredPrecision) },
	}
}

// Create stores a new patient. Every patient enters the workflow at NEW; a
// supplied status is only checked for being a known one.
func (s *Service) Create(ctx context.Context, patient *model.Patient, actor string) (*model.Patient, error) {
	if patient.Ops.Status != "" && !patient.Ops.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown status %q", patient.Ops.Status), nil)
	}
	if err := s.validator.Validate(patient); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := s.now()
	patient.ID = primitive.NilObjectID
	patient.Normalize()
	patient.Payments.RecomputePending()
	patient.Ops.Status = model.StatusNew
	patient.Ops.CreatedAt = now
	patient.Ops.UpdatedAt = now
	patient.TruncateTimes()
	if patient.Ops.CreatedBy == "" {
		patient.Ops.CreatedBy = actor
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create patient: %w", err))
	}

	s.events.Emit(ctx, event.PatientCreated, event.FromPatient(patient, actor))
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Patient, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, oid)
}

// Update replaces the stored document with patient, keeping the identity and
// creation metadata of the existing record.
func (s *Service) Update(ctx context.Context, id string, patient *model.Patient, actor string) (*model.Patient, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(patient); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	existing, err := s.get(ctx, oid)
	if err != nil {
		return nil, err
	}

	status := existing.Ops.Status
	if patient.Ops.Status != "" {
		status, err = s.workflow.Transition(existing.Ops.Status, patient.Ops.Status)
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
	}

	patient.ID = oid
	patient.Normalize()
	patient.Payments.RecomputePending()
	patient.Ops = model.Ops{
		CreatedBy: existing.Ops.CreatedBy,
		Status:    status,
		CreatedAt: existing.Ops.CreatedAt,
		UpdatedAt: s.now(),
	}
	patient.TruncateTimes()

	if err := s.repo.Replace(ctx, patient); err != nil {
		return nil, s.storeError("failed to update patient", err)
	}

	evt := event.FromPatient(patient, actor)
	if status != existing.Ops.Status {
		evt.PrevStatus = existing.Ops.Status
		s.events.Emit(ctx, event.PatientStatusChanged, evt)
	} else {
		s.events.Emit(ctx, event.PatientUpdated, evt)
	}
	return patient, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status model.Status, actor string) (*model.Patient, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.get(ctx, oid)
	if err != nil {
		return nil, err
	}

	next, err := s.workflow.Transition(existing.Ops.Status, status)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if next == existing.Ops.Status {
		return existing, nil
	}

	if err := s.repo.UpdateStatus(ctx, oid, next); err != nil {
		return nil, s.storeError("failed to update status", err)
	}

	prev := existing.Ops.Status
	existing.Ops.Status = next
	existing.Ops.UpdatedAt = s.now()

	evt := event.FromPatient(existing, actor)
	evt.PrevStatus = prev
	s.events.Emit(ctx, event.PatientStatusChanged, evt)
	return existing, nil
}

// AddTransaction appends a payment and increases the amount received by its
// amount. A missing date defaults to now.
func (s *Service) AddTransaction(ctx context.Context, id string, req *model.TransactionRequest, actor string) (*model.Patient, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	tx := model.Transaction{Method: req.Method, Amount: req.Amount, Date: s.now()}
	if req.Date != nil {
		tx.Date = req.Date.UTC().Truncate(model.StoredPrecision)
	}
	if err := s.validator.Validate(&tx); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	patient, err := s.repo.AddTransaction(ctx, oid, tx)
	if err != nil {
		return nil, s.storeError("failed to add transaction", err)
	}
	patient.Normalize()

	evt := event.FromPatient(patient, actor)
	evt.Amount = tx.Amount
	s.events.Emit(ctx, event.PaymentReceived, evt)
	return patient, nil
}

// List returns at most MaxListSize patients, newest first.
func (s *Service) List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown status %q", filters.Status), nil)
	}
	if filters.Limit <= 0 || filters.Limit > MaxListSize {
		filters.Limit = MaxListSize
	}

	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list patients: %w", err))
	}
	for _, p := range patients {
		p.Normalize()
	}
	return patients, nil
}

func (s *Service) get(ctx context.Context, id primitive.ObjectID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.storeError("failed to get patient", err)
	}
	patient.Normalize()
	return patient, nil
}

func (s *Service) storeError(msg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("patient", err)
	}
	return apperrors.Internal(fmt.Errorf("%s: %w", msg, err))
}

// ParseID parses a patient id, rejecting anything that is not a 24 character
// hex object id.
func ParseID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, apperrors.BadRequest("patient id is required", nil)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.BadRequest("invalid patient id", err)
	}
	return oid, nil
}
