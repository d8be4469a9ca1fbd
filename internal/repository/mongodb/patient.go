package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
)

type patientRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewPatientRepository(db *DB) repository.PatientRepository {
	return &patientRepository{db: db, coll: db.db.Collection(patientsCollection)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	start := time.Now()
	if patient.ID.IsZero() {
		patient.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, patient)
	r.db.observe("patient_create", start, err)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id primitive.ObjectID) (*model.Patient, error) {
	start := time.Now()
	var patient model.Patient
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&patient)
	r.db.observe("patient_get", start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Replace(ctx context.Context, patient *model.Patient) error {
	start := time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": patient.ID}, patient)
	r.db.observe("patient_replace", start, err)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) error {
	start := time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"ops.status":    status,
			"ops.updatedAt": time.Now().UTC(),
		},
	})
	r.db.observe("patient_update_status", start, err)
	if err != nil {
		return fmt.Errorf("failed to update patient status: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) AddTransaction(ctx context.Context, id primitive.ObjectID, tx model.Transaction) (*model.Patient, error) {
	start := time.Now()
	update := bson.M{
		"$push": bson.M{"payments.transactions": tx},
		"$inc": bson.M{
			"payments.amountReceived": tx.Amount,
			"payments.pendingAmount":  -tx.Amount,
		},
		"$set": bson.M{"ops.updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var patient model.Patient
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&patient)
	r.db.observe("patient_add_transaction", start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	start := time.Now()
	filter, opts := BuildListQuery(filters)
	patients, err := r.find(ctx, filter, opts)
	r.db.observe("patient_list", start, err)
	return patients, err
}

func (r *patientRepository) Find(ctx context.Context, q model.PatientQuery) ([]*model.Patient, error) {
	start := time.Now()
	patients, err := r.find(ctx, BuildPatientFilter(q))
	r.db.observe("patient_find", start, err)
	return patients, err
}

func (r *patientRepository) Ping(ctx context.Context) error {
	return r.db.client.Ping(ctx, nil)
}

func (r *patientRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Patient, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := make([]*model.Patient, 0)
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

// BuildListQuery selects the patient list: newest first, capped at
// filters.Limit when it is set.
func BuildListQuery(filters model.PatientFilters) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	if filters.Location != "" {
		filter["personal.location"] = filters.Location
	}
	if filters.Status != "" {
		filter["ops.status"] = filters.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "ops.createdAt", Value: -1}})
	if filters.Limit > 0 {
		opts.SetLimit(filters.Limit)
	}
	return filter, opts
}

// BuildPatientFilter translates a reporting query into a Mongo filter.
func BuildPatientFilter(q model.PatientQuery) bson.M {
	filter := bson.M{}
	if q.Branch != "" {
		filter["personal.location"] = q.Branch
	}
	if r := rangeFilter(q.CreatedFrom, q.CreatedTo); r != nil {
		filter["ops.createdAt"] = r
	}
	if r := rangeFilter(q.VisitFrom, q.VisitTo); r != nil {
		filter["personal.visitDate"] = r
	}
	if r := rangeFilter(q.SurgeryFrom, q.SurgeryTo); r != nil {
		filter["surgery.surgeryDate"] = r
	}
	if q.TransactionsIn != nil {
		match := bson.M{}
		if r := rangeFilter(q.TransactionsIn.From, q.TransactionsIn.To); r != nil {
			match["date"] = r
		}
		filter["payments.transactions"] = bson.M{"$elemMatch": match}
	}
	return filter
}

func rangeFilter(from, to time.Time) bson.M {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lte"] = to
	}
	return r
}
