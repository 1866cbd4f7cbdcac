package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

const reviewConflict = "You have already reviewed this doctor"

type Reviews struct {
	db  *mongo.Database
	now func() time.Time
}

func NewReviews(db *mongo.Database) *Reviews {
	return &Reviews{db: db, now: time.Now}
}

func (s *Reviews) coll() *mongo.Collection {
	return s.db.Collection(ReviewsCollection)
}

// Create inserts r. A second review of the same doctor by the same user hits the unique
// doctor/user index and returns Conflict.
func (s *Reviews) Create(ctx context.Context, r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	now := s.now()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.coll().InsertOne(ctx, r)
	return translate(err, "Review", reviewConflict)
}

func (s *Reviews) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err, "Review", reviewConflict)
	}
	return &r, nil
}

func (s *Reviews) Delete(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := s.coll().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err, "Review", reviewConflict)
	}
	return &r, nil
}

func (s *Reviews) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll().Find(ctx, bson.M{"doctor": doctorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, nil
}
