package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
)

// AccountStore persists accounts in one collection per role.
// Lookups return an apperr NotFound error when nothing matches; inserts that collide on a
// unique field return apperr Conflict.
type AccountStore interface {
	FindByID(ctx context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error)
	FindByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	List(ctx context.Context, role models.Role) ([]models.Account, error)
	Create(ctx context.Context, acct *models.Account) error
	Update(ctx context.Context, role models.Role, id primitive.ObjectID, fields models.AccountFields) (*models.Account, error)
	Delete(ctx context.Context, role models.Role, id primitive.ObjectID) error
	// Transfer deletes from (in from.Role's collection) and inserts to (in to.Role's
	// collection) as one unit: either both happen or neither does.
	Transfer(ctx context.Context, from, to *models.Account) error
}

// AppointmentStore persists appointments. Create returns apperr Conflict when the
// (doctor, date, time) slot is already held.
type AppointmentStore interface {
	Create(ctx context.Context, apt *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	SlotTaken(ctx context.Context, doctorID primitive.ObjectID, date, time string) (bool, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.AppointmentPatch) (*models.Appointment, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter, expand models.Expansion) ([]models.AppointmentView, error)
}

// ReviewStore persists doctor reviews. Create returns apperr Conflict when the user has
// already reviewed the doctor.
type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	// ListByDoctor returns the doctor's reviews, newest first.
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error)
}

// Cache is a best-effort key/value store with per-entry TTL. Get reports a miss with
// found == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type TokenIssuer interface {
	Issue(userID, email, name, role string) (string, error)
}

// Uploader stores an image payload under folder and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data, folder string) (string, error)
}

// Notifier delivers a message to an account. Implementations must not block the caller
// on delivery.
type Notifier interface {
	Notify(ctx context.Context, recipient *models.Account, title, body string)
}
