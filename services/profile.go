package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
)

// ProfileUpdate lists the fields a user may change on their own account.
// Nil fields are left untouched. Patient and doctor fields are ignored for
// other roles.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Password    *string
	DateOfBirth *models.Date
	Sex         *string

	PhoneNumber *string
	Height      *float64
	Weight      *float64
	BloodType   *models.BloodType
	Conditions  *string

	Specialization      *string
	StartedPracticingAt *models.Date
	Education           *string
	Bio                 *string

	Picture *storage.Upload
}

// PictureStore validates and stores profile pictures.
type PictureStore interface {
	StoreProfilePicture(ctx context.Context, file storage.Upload) (key, url string, err error)
	DiscardBlob(ctx context.Context, key string)
}

type ProfileService struct {
	users    repositories.UserRepository
	patients repositories.PatientRepository
	doctors  repositories.DoctorRepository
	pictures PictureStore
	blobs    storage.BlobStore
	log      zerolog.Logger
}

func NewProfileService(
	users repositories.UserRepository,
	patients repositories.PatientRepository,
	doctors repositories.DoctorRepository,
	pictures PictureStore,
	blobs storage.BlobStore,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{users: users, patients: patients, doctors: doctors, pictures: pictures, blobs: blobs, log: log}
}

// GetAccount loads the user and the profile matching its role.
func (s *ProfileService) GetAccount(ctx context.Context, userID uint) (models.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Account{}, notFoundOr(err, "user", userID)
	}

	var profile models.Profile
	switch user.Role {
	case models.RolePatient:
		p, err := s.patients.GetByID(ctx, userID)
		if err != nil {
			return models.Account{}, notFoundOr(err, "patient", userID)
		}
		profile = p
	case models.RoleDoctor:
		d, err := s.doctors.GetByID(ctx, userID)
		if err != nil {
			return models.Account{}, notFoundOr(err, "doctor", userID)
		}
		profile = d
	case models.RoleAdmin:
		profile = models.Admin{}
	default:
		return models.Account{}, fmt.Errorf("user %d has unknown role %q", userID, user.Role)
	}

	acc, ok := models.NewAccount(*user, profile)
	if !ok {
		return models.Account{}, fmt.Errorf("user %d profile does not match role %s", userID, user.Role)
	}
	return acc, nil
}

// UpdateProfile validates every field before anything is written. The user
// and its profile are then saved in one transaction.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (models.Account, error) {
	acc, err := s.GetAccount(ctx, userID)
	if err != nil {
		return models.Account{}, err
	}
	user := acc.User

	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return models.Account{}, utils.InvalidInput("first name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		if err := validateIdentity(user.FirstName, *in.Email); err != nil {
			return models.Account{}, err
		}
		user.Email = repositories.NormalizeEmail(*in.Email)
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = in.DateOfBirth
	}
	if in.Sex != nil {
		user.Sex = *in.Sex
	}

	switch p := acc.Profile.(type) {
	case *models.Patient:
		if err := mergePatient(p, in); err != nil {
			return models.Account{}, err
		}
	case *models.Doctor:
		mergeDoctor(p, in)
	}

	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return models.Account{}, err
		}
		user.Password = hash
	}

	oldKey, newKey := user.ProfilePictureKey, ""
	if in.Picture != nil {
		key, url, err := s.pictures.StoreProfilePicture(ctx, *in.Picture)
		if err != nil {
			return models.Account{}, err
		}
		newKey = key
		user.ProfilePictureKey, user.ProfilePictureURL = key, url
	}

	if err := s.users.UpdateAccount(ctx, &user, acc.Profile); err != nil {
		s.pictures.DiscardBlob(ctx, newKey)
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Account{}, utils.Conflict("email %s is already registered", user.Email)
		}
		return models.Account{}, fmt.Errorf("update account %d: %w", userID, err)
	}
	if newKey != "" && oldKey != newKey {
		s.pictures.DiscardBlob(ctx, oldKey)
	}
	return s.GetAccount(ctx, userID)
}

func mergePatient(p *models.Patient, in ProfileUpdate) error {
	if in.BloodType != nil && *in.BloodType != "" && !in.BloodType.Valid() {
		return utils.InvalidInput("unknown blood type %q", *in.BloodType)
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = *in.PhoneNumber
	}
	if in.Height != nil {
		p.Height = in.Height
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.BloodType != nil {
		p.BloodType = *in.BloodType
	}
	if in.Conditions != nil {
		p.Conditions = *in.Conditions
	}
	return nil
}

func mergeDoctor(d *models.Doctor, in ProfileUpdate) {
	if in.Specialization != nil {
		d.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.StartedPracticingAt != nil {
		d.StartedPracticingAt = in.StartedPracticingAt
	}
	if in.Education != nil {
		d.Education = *in.Education
	}
	if in.Bio != nil {
		d.Bio = *in.Bio
	}
}

// DeleteAccount removes the user with its profile, documents, appointments,
// reviews and doctor links. Blobs are removed best effort afterwards.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	keys, err := s.users.Delete(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if user.ProfilePictureKey != "" {
		keys = append(keys, user.ProfilePictureKey)
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to remove blob of deleted account")
		}
	}
	s.log.Info().Uint("user_id", userID).Int("blobs", len(keys)).Msg("account deleted")
	return nil
}
