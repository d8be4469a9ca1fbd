// Package memory keeps patients and users in process memory. It backs local
// development (database.driver: memory) and the handler and service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
)

type PatientRepository struct {
	mu       sync.RWMutex
	patients map[primitive.ObjectID]*model.Patient
	// Err, when set, is returned by every call.
	Err error
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[primitive.ObjectID]*model.Patient)}
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if patient.ID.IsZero() {
		patient.ID = primitive.NewObjectID()
	}
	if _, ok := r.patients[patient.ID]; ok {
		return repository.ErrDuplicateKey
	}
	r.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id primitive.ObjectID) (*model.Patient, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePatient(p), nil
}

func (r *PatientRepository) Replace(ctx context.Context, patient *model.Patient) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	r.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Ops.Status = status
	p.Ops.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PatientRepository) AddTransaction(ctx context.Context, id primitive.ObjectID, tx model.Transaction) (*model.Patient, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Payments.Transactions = append(p.Payments.Transactions, tx)
	p.Payments.AmountReceived += tx.Amount
	p.Payments.PendingAmount -= tx.Amount
	p.Ops.UpdatedAt = time.Now().UTC()
	return clonePatient(p), nil
}

func (r *PatientRepository) List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Patient, 0)
	for _, p := range r.patients {
		if filters.Location != "" && p.Personal.Location != filters.Location {
			continue
		}
		if filters.Status != "" && p.Ops.Status != filters.Status {
			continue
		}
		out = append(out, clonePatient(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ops.CreatedAt.After(out[j].Ops.CreatedAt)
	})
	if filters.Limit > 0 && int64(len(out)) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r *PatientRepository) Find(ctx context.Context, q model.PatientQuery) ([]*model.Patient, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Patient, 0)
	for _, p := range r.patients {
		if Matches(q, p) {
			out = append(out, clonePatient(p))
		}
	}
	return out, nil
}

func (r *PatientRepository) Ping(ctx context.Context) error {
	return r.Err
}

// Matches applies the same selection as the Mongo filter for q.
func Matches(q model.PatientQuery, p *model.Patient) bool {
	if q.Branch != "" && p.Personal.Location != q.Branch {
		return false
	}
	if !inRange(&p.Ops.CreatedAt, q.CreatedFrom, q.CreatedTo) {
		return false
	}
	if !inRange(p.Personal.VisitDate, q.VisitFrom, q.VisitTo) {
		return false
	}
	if !inRange(p.Surgery.SurgeryDate, q.SurgeryFrom, q.SurgeryTo) {
		return false
	}
	if q.TransactionsIn != nil {
		found := false
		for _, tx := range p.Payments.Transactions {
			if q.TransactionsIn.Contains(tx.Date) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func inRange(t *time.Time, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	return model.Window{From: from, To: to}.ContainsPtr(t)
}

type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]*model.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func clonePatient(p *model.Patient) *model.Patient {
	cp := *p
	cp.Counselling.Medicines = append([]string(nil), p.Counselling.Medicines...)
	cp.Payments.Transactions = append([]model.Transaction(nil), p.Payments.Transactions...)
	cp.Documents.Images = append([]string(nil), p.Documents.Images...)
	cp.Documents.SurgeryForm = append([]string(nil), p.Documents.SurgeryForm...)
	cp.Documents.ConsultForm = append([]string(nil), p.Documents.ConsultForm...)
	cp.Personal.VisitDate = cloneTime(p.Personal.VisitDate)
	cp.Surgery.SurgeryDate = cloneTime(p.Surgery.SurgeryDate)
	cp.Normalize()
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
