package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

const doctorReviewsKey = "doctor_reviews_"

// ReviewService records patient reviews of doctors and serves each doctor's reviews from
// the cache.
type ReviewService struct {
	reviews  ReviewStore
	accounts AccountStore
	cache    Cache
	ttl      time.Duration
	log      *zap.Logger
}

func NewReviewService(reviews ReviewStore, accounts AccountStore, cache Cache, ttl time.Duration, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, accounts: accounts, cache: cache, ttl: ttl, log: log}
}

// CreateReview records authorID's review of the requested doctor. The author must be a
// patient account.
func (s *ReviewService) CreateReview(ctx context.Context, authorID string, req models.ReviewRequest) (*models.Review, error) {
	doctorID, err := parseID(req.DoctorID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(authorID)
	if err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.InvalidArgument("Rating must be between 1 and 5")
	}
	if _, err := s.accounts.FindByID(ctx, models.RoleDoctor, doctorID); err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, models.RoleUser, userID); err != nil {
		return nil, err
	}

	review := &models.Review{
		DoctorID: doctorID,
		UserID:   userID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.invalidate(ctx, review)
	s.log.Info("review created",
		zap.String("id", review.ID.Hex()),
		zap.String("doctor", doctorID.Hex()),
		zap.Int("rating", review.Rating))
	return review, nil
}

func (s *ReviewService) GetDoctorReviews(ctx context.Context, doctorID string) (*models.DoctorReviews, error) {
	oid, err := parseID(doctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, models.RoleDoctor, oid); err != nil {
		return nil, err
	}
	return readThrough(ctx, s.cache, doctorReviewsKey+oid.Hex(), s.ttl, s.log, func(ctx context.Context) (*models.DoctorReviews, error) {
		reviews, err := s.reviews.ListByDoctor(ctx, oid)
		if err != nil {
			return nil, err
		}
		out := &models.DoctorReviews{DoctorID: oid, Count: len(reviews), Reviews: reviews}
		if len(reviews) > 0 {
			total := 0
			for _, r := range reviews {
				total += r.Rating
			}
			out.Average = float64(total) / float64(len(reviews))
		}
		return out, nil
	})
}

// DeleteReview removes a review. Admins may delete any review, patients only their own.
func (s *ReviewService) DeleteReview(ctx context.Context, id, callerID string, callerRole models.Role) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	review, err := s.reviews.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if callerRole != models.RoleAdmin && review.UserID.Hex() != callerID {
		return apperr.Forbidden("Permission denied.")
	}
	if _, err := s.reviews.Delete(ctx, oid); err != nil {
		return err
	}
	s.invalidate(ctx, review)
	s.log.Info("review deleted", zap.String("id", id))
	return nil
}

func (s *ReviewService) invalidate(ctx context.Context, r *models.Review) {
	key := doctorReviewsKey + r.DoctorID.Hex()
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("failed to invalidate review cache", zap.String("key", key), zap.Error(err))
	}
}
