package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

const accountConflict = "An account with this email or phone already exists"

// Accounts stores User, Doctor and Admin records in their own collections.
type Accounts struct {
	db           *mongo.Database
	transactions bool
	log          *zap.Logger
	now          func() time.Time
}

// NewAccounts returns an account store. With transactions enabled, Transfer runs inside a
// multi-document transaction; otherwise it compensates a failed insert by restoring the
// deleted record.
func NewAccounts(db *mongo.Database, transactions bool, log *zap.Logger) *Accounts {
	return &Accounts{db: db, transactions: transactions, log: log, now: time.Now}
}

func (s *Accounts) coll(role models.Role) *mongo.Collection {
	return s.db.Collection(CollectionFor(role))
}

func (s *Accounts) FindByID(ctx context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error) {
	var acct models.Account
	err := s.coll(role).FindOne(ctx, bson.M{"_id": id}).Decode(&acct)
	if err != nil {
		return nil, translate(err, resourceName(role), accountConflict)
	}
	return &acct, nil
}

func (s *Accounts) FindByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	var acct models.Account
	err := s.coll(role).FindOne(ctx, bson.M{"email": email}).Decode(&acct)
	if err != nil {
		return nil, translate(err, resourceName(role), accountConflict)
	}
	return &acct, nil
}

func (s *Accounts) List(ctx context.Context, role models.Role) ([]models.Account, error) {
	cursor, err := s.coll(role).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, translate(err, resourceName(role), accountConflict)
	}
	defer cursor.Close(ctx)

	accounts := make([]models.Account, 0)
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CollectionFor(role), err)
	}
	return accounts, nil
}

func (s *Accounts) Create(ctx context.Context, acct *models.Account) error {
	s.stamp(acct)
	_, err := s.coll(acct.Role).InsertOne(ctx, acct)
	return translate(err, resourceName(acct.Role), accountConflict)
}

func (s *Accounts) stamp(acct *models.Account) {
	if acct.ID.IsZero() {
		acct.ID = primitive.NewObjectID()
	}
	now := s.now()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
}

func (s *Accounts) Update(ctx context.Context, role models.Role, id primitive.ObjectID, fields models.AccountFields) (*models.Account, error) {
	set := accountSet(fields)
	set["updatedAt"] = s.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var acct models.Account
	err := s.coll(role).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&acct)
	if err != nil {
		return nil, translate(err, resourceName(role), accountConflict)
	}
	return &acct, nil
}

func accountSet(f models.AccountFields) bson.M {
	set := bson.M{}
	if f.Name != nil {
		set["name"] = *f.Name
	}
	if f.Email != nil {
		set["email"] = *f.Email
	}
	if f.Phone != nil {
		set["phone"] = *f.Phone
	}
	if f.Password != nil {
		set["password"] = *f.Password
	}
	if f.Address != nil {
		set["address"] = *f.Address
	}
	if f.Description != nil {
		set["description"] = *f.Description
	}
	if f.AvatarURL != nil {
		set["avatarURL"] = *f.AvatarURL
	}
	return set
}

func (s *Accounts) Delete(ctx context.Context, role models.Role, id primitive.ObjectID) error {
	res, err := s.coll(role).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, resourceName(role), accountConflict)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(resourceName(role))
	}
	return nil
}

func (s *Accounts) Transfer(ctx context.Context, from, to *models.Account) error {
	s.stamp(to)
	if s.transactions {
		return s.transferInTransaction(ctx, from, to)
	}
	return s.transferCompensated(ctx, from, to)
}

func (s *Accounts) transferInTransaction(ctx context.Context, from, to *models.Account) error {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, s.move(sc, from, to)
	})
	return translate(err, resourceName(to.Role), accountConflict)
}

// move deletes from and inserts to. Inside a transaction ctx is the session context.
func (s *Accounts) move(ctx context.Context, from, to *models.Account) error {
	res, err := s.coll(from.Role).DeleteOne(ctx, bson.M{"_id": from.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(resourceName(from.Role))
	}
	_, err = s.coll(to.Role).InsertOne(ctx, to)
	return err
}

func (s *Accounts) transferCompensated(ctx context.Context, from, to *models.Account) error {
	var old bson.Raw
	err := s.coll(from.Role).FindOneAndDelete(ctx, bson.M{"_id": from.ID}).Decode(&old)
	if err != nil {
		return translate(err, resourceName(from.Role), accountConflict)
	}

	if _, err := s.coll(to.Role).InsertOne(ctx, to); err != nil {
		if _, restoreErr := s.coll(from.Role).InsertOne(ctx, old); restoreErr != nil {
			s.log.Error("role transition left account in no collection",
				zap.String("id", from.ID.Hex()),
				zap.String("from", string(from.Role)),
				zap.String("to", string(to.Role)),
				zap.Error(restoreErr))
		}
		return translate(err, resourceName(to.Role), accountConflict)
	}
	return nil
}

func resourceName(role models.Role) string {
	switch role {
	case models.RoleDoctor:
		return "Doctor"
	case models.RoleAdmin:
		return "Admin"
	}
	return "User"
}
