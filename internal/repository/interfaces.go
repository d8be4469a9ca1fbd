package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// All repository interfaces in one file
type (
	// PatientRepository persists patient documents. Patients are never deleted.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id primitive.ObjectID) (*model.Patient, error)
		Replace(ctx context.Context, patient *model.Patient) error
		UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) error
		AddTransaction(ctx context.Context, id primitive.ObjectID, tx model.Transaction) (*model.Patient, error)
		// List returns the newest patients first, capped at filters.Limit.
		List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error)
		// Find returns every patient matching the query, unordered.
		Find(ctx context.Context, q model.PatientQuery) ([]*model.Patient, error)
		Ping(ctx context.Context) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id primitive.ObjectID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
	}
)
