package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

const (
	patientsCollection = "patients"
	usersCollection    = "users"
)

// DB bundles the client and the application database.
type DB struct {
	client  *mongo.Client
	db      *mongo.Database
	metrics *metrics.Metrics
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSeconds)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{client: client, db: client.Database(cfg.Name), metrics: m}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = d.db.Collection(patientsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ops.createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "personal.location", Value: 1}, {Key: "ops.status", Value: 1}}},
		{Keys: bson.D{{Key: "personal.visitDate", Value: 1}}},
		{Keys: bson.D{{Key: "surgery.surgeryDate", Value: 1}}},
		{Keys: bson.D{{Key: "payments.transactions.date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create patients indexes: %w", err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// observe records the outcome of one store operation.
func (d *DB) observe(op string, start time.Time, err error) {
	if d.metrics == nil {
		return
	}
	status := "ok"
	if err != nil && err != mongo.ErrNoDocuments {
		status = "error"
		log.Warn().Err(err).Str("operation", op).Msg("database operation failed")
	}
	d.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	d.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
