// Package store implements the account, appointment and review stores on MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/models"
)

// Collection names.
const (
	UsersCollection        = "users"
	DoctorsCollection      = "doctors"
	AdminsCollection       = "admins"
	AppointmentsCollection = "appointments"
	SpecialtiesCollection  = "specialties"
	ReviewsCollection      = "reviews"
)

// CollectionFor returns the collection that holds accounts of the given role.
// Unknown roles map to the users collection.
func CollectionFor(role models.Role) string {
	switch role {
	case models.RoleDoctor:
		return DoctorsCollection
	case models.RoleAdmin:
		return AdminsCollection
	}
	return UsersCollection
}

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	// Phone is only unique when present.
	phonePartial := options.Index().SetUnique(true).
		SetPartialFilterExpression(bson.M{"phone": bson.M{"$gt": ""}})

	for _, name := range []string{UsersCollection, DoctorsCollection, AdminsCollection} {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: phonePartial},
		})
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}

	_, err := db.Collection(AppointmentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctor", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("doctor_slot_unique"),
		},
		{Keys: bson.D{{Key: "patient", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", AppointmentsCollection, err)
	}

	_, err = db.Collection(ReviewsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "doctor", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("doctor_user_unique"),
	})
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", ReviewsCollection, err)
	}

	log.Info("mongo indexes ensured", zap.String("database", db.Name()))
	return nil
}

// translate maps driver errors onto the apperr taxonomy.
func translate(err error, resource, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(resource)
	case mongo.IsDuplicateKeyError(err):
		return &apperr.AppError{Kind: apperr.KindConflict, Message: conflictMsg, Err: err}
	}
	return fmt.Errorf("%s store: %w", resource, err)
}
