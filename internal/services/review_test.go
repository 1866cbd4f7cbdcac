package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store/memory"
)

type reviewFixture struct {
	svc   *ReviewService
	store *memory.Store
	cache *fakeCache
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	st := memory.New()
	c := newFakeCache()
	return &reviewFixture{
		svc:   NewReviewService(st.Reviews(), st, c, 30*time.Minute, zap.NewNop()),
		store: st,
		cache: c,
	}
}

func (f *reviewFixture) account(t *testing.T, role models.Role, email string) *models.Account {
	t.Helper()
	acct := &models.Account{Name: email, Email: email, Role: role, Password: "x"}
	require.NoError(t, f.store.Create(context.Background(), acct))
	return acct
}

func TestCreateReview_OncePerDoctor(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	doc := f.account(t, models.RoleDoctor, "d@clinic.test")
	user := f.account(t, models.RoleUser, "u@clinic.test")

	review, err := f.svc.CreateReview(ctx, user.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, review.DoctorID)
	assert.Equal(t, user.ID, review.UserID)

	_, err = f.svc.CreateReview(ctx, user.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 1})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "You have already reviewed this doctor", apperr.Message(err))
}

func TestCreateReview_Errors(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	doc := f.account(t, models.RoleDoctor, "d@clinic.test")
	user := f.account(t, models.RoleUser, "u@clinic.test")

	_, err := f.svc.CreateReview(ctx, user.ID.Hex(), models.ReviewRequest{DoctorID: "bad", Rating: 3})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.CreateReview(ctx, user.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 6})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.CreateReview(ctx, user.ID.Hex(), models.ReviewRequest{DoctorID: primitive.NewObjectID().Hex(), Rating: 3})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Doctor not found", apperr.Message(err))

	// doctors and admins cannot author reviews
	_, err = f.svc.CreateReview(ctx, doc.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 3})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found", apperr.Message(err))
}

func TestGetDoctorReviews_CachedAndInvalidated(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	doc := f.account(t, models.RoleDoctor, "d@clinic.test")
	u1 := f.account(t, models.RoleUser, "u1@clinic.test")
	u2 := f.account(t, models.RoleUser, "u2@clinic.test")
	key := "doctor_reviews_" + doc.ID.Hex()

	_, err := f.svc.CreateReview(ctx, u1.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 4})
	require.NoError(t, err)

	page, err := f.svc.GetDoctorReviews(ctx, doc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.InDelta(t, 4.0, page.Average, 0.001)
	assert.Equal(t, 30*time.Minute, f.cache.ttls[key])

	_, err = f.svc.GetDoctorReviews(ctx, doc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls("ListReviews"))

	second, err := f.svc.CreateReview(ctx, u2.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 1})
	require.NoError(t, err)
	assert.False(t, f.cache.has(key))

	page, err = f.svc.GetDoctorReviews(ctx, doc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.InDelta(t, 2.5, page.Average, 0.001)

	require.NoError(t, f.svc.DeleteReview(ctx, second.ID.Hex(), u2.ID.Hex(), models.RoleUser))
	assert.False(t, f.cache.has(key))

	page, err = f.svc.GetDoctorReviews(ctx, doc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}

func TestGetDoctorReviews_Empty(t *testing.T) {
	f := newReviewFixture(t)
	doc := f.account(t, models.RoleDoctor, "d@clinic.test")

	page, err := f.svc.GetDoctorReviews(context.Background(), doc.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Zero(t, page.Average)
	assert.Empty(t, page.Reviews)

	_, err = f.svc.GetDoctorReviews(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteReview_Ownership(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	doc := f.account(t, models.RoleDoctor, "d@clinic.test")
	author := f.account(t, models.RoleUser, "a@clinic.test")
	other := f.account(t, models.RoleUser, "o@clinic.test")
	review, err := f.svc.CreateReview(ctx, author.ID.Hex(), models.ReviewRequest{DoctorID: doc.ID.Hex(), Rating: 3})
	require.NoError(t, err)

	err = f.svc.DeleteReview(ctx, review.ID.Hex(), other.ID.Hex(), models.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.svc.DeleteReview(ctx, review.ID.Hex(), "", models.RoleAdmin))
	err = f.svc.DeleteReview(ctx, review.ID.Hex(), "", models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
