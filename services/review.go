package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
)

type ReviewInput struct {
	DoctorID uint
	Rating   int
	Title    string
	Body     string
}

type ReviewUpdate struct {
	Rating *int
	Title  *string
	Body   *string
}

type ReviewService struct {
	reviews  repositories.ReviewRepository
	doctors  repositories.DoctorRepository
	patients repositories.PatientRepository
	now      func() time.Time
}

func NewReviewService(reviews repositories.ReviewRepository, doctors repositories.DoctorRepository, patients repositories.PatientRepository) *ReviewService {
	return &ReviewService{reviews: reviews, doctors: doctors, patients: patients, now: time.Now}
}

func validateRating(r int) error {
	if !models.ValidRating(r) {
		return utils.InvalidInput("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return nil
}

// Create stores a review written by the calling patient.
func (s *ReviewService) Create(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	if !actor.Is(models.RolePatient) {
		return nil, utils.Forbidden("only patients can write reviews")
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	ok, err := s.doctors.Exists(ctx, in.DoctorID)
	if err := requireExists(ok, err, "doctor", in.DoctorID); err != nil {
		return nil, err
	}
	ok, err = s.patients.Exists(ctx, actor.UserID)
	if err := requireExists(ok, err, "patient", actor.UserID); err != nil {
		return nil, err
	}

	review := &models.Review{
		DoctorID:  in.DoctorID,
		PatientID: actor.UserID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) load(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review", id)
	}
	return review, nil
}

// Update changes a review. Only its author may do so.
func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, in ReviewUpdate) (*models.Review, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(models.RolePatient) || review.PatientID != actor.UserID {
		return nil, utils.Forbidden("review %d was written by another patient", id)
	}

	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		review.Rating = *in.Rating
	}
	if in.Title != nil {
		review.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		review.Body = *in.Body
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review %d: %w", id, err)
	}
	return review, nil
}

// Delete removes a review. Patients may only delete their own; doctors and
// admins may delete any.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.Is(models.RolePatient) && review.PatientID != actor.UserID {
		return utils.Forbidden("review %d was written by another patient", id)
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return notFoundOr(err, "review", id)
	}
	return nil
}

func (s *ReviewService) ListForDoctor(ctx context.Context, doctorID uint, page utils.PageRequest) (utils.Page[models.Review], error) {
	ok, err := s.doctors.Exists(ctx, doctorID)
	if err := requireExists(ok, err, "doctor", doctorID); err != nil {
		return utils.Page[models.Review]{}, err
	}
	reviews, total, err := s.reviews.ListByDoctor(ctx, doctorID, page)
	if err != nil {
		return utils.Page[models.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	return utils.NewPage(reviews, total, page), nil
}
