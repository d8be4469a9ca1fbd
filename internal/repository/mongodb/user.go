package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
)

type userRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db, coll: db.db.Collection(usersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	start := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(user.Email)

	_, err := r.coll.InsertOne(ctx, user)
	r.db.observe("user_create", start, err)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, "user_get", bson.M{"_id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "user_get_by_email", bson.M{"email": strings.ToLower(email)})
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	start := time.Now()
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		r.db.observe("user_list", start, err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*model.User, 0)
	err = cursor.All(ctx, &users)
	r.db.observe("user_list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) findOne(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	start := time.Now()
	var user model.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	r.db.observe(op, start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
