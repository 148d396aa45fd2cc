package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type RegisterPatientInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth *models.Date
	Sex         string
	PhoneNumber string
}

type RegisterDoctorInput struct {
	FirstName           string
	LastName            string
	Email               string
	Password            string
	Specialization      string
	StartedPracticingAt *models.Date
	Education           string
	Bio                 string
	AdminSecret         string
}

// ProviderIdentity is what an external identity provider tells us about a user.
type ProviderIdentity struct {
	Email   string
	Name    string
	Picture string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService struct {
	users       repositories.UserRepository
	patients    repositories.PatientRepository
	doctors     repositories.DoctorRepository
	tokens      *TokenService
	denylist    redis.Denylist
	adminSecret string
	log         zerolog.Logger
}

func NewAuthService(
	users repositories.UserRepository,
	patients repositories.PatientRepository,
	doctors repositories.DoctorRepository,
	tokens *TokenService,
	denylist redis.Denylist,
	adminSecret string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		patients:    patients,
		doctors:     doctors,
		tokens:      tokens,
		denylist:    denylist,
		adminSecret: adminSecret,
		log:         log,
	}
}

func validateIdentity(firstName, email string) error {
	if strings.TrimSpace(firstName) == "" {
		return utils.InvalidInput("first name is required")
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return utils.InvalidInput("a valid email is required")
	}
	return nil
}

func (s *AuthService) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*models.Patient, error) {
	if err := validateIdentity(in.FirstName, in.Email); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		User: models.User{
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			Email:       in.Email,
			Password:    hash,
			DateOfBirth: in.DateOfBirth,
			Sex:         in.Sex,
		},
		PhoneNumber: in.PhoneNumber,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("email %s is already registered", repositories.NormalizeEmail(in.Email))
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.log.Info().Uint("user_id", patient.UserID).Msg("patient registered")
	return patient, nil
}

// RegisterDoctor creates a doctor account. The caller must present the
// configured admin secret.
func (s *AuthService) RegisterDoctor(ctx context.Context, in RegisterDoctorInput) (*models.Doctor, error) {
	if subtle.ConstantTimeCompare([]byte(in.AdminSecret), []byte(s.adminSecret)) != 1 {
		return nil, utils.Forbidden("invalid admin secret")
	}
	if err := validateIdentity(in.FirstName, in.Email); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	doctor := &models.Doctor{
		User: models.User{
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Email:     in.Email,
			Password:  hash,
		},
		Specialization:      strings.TrimSpace(in.Specialization),
		StartedPracticingAt: in.StartedPracticingAt,
		Education:           in.Education,
		Bio:                 in.Bio,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("email %s is already registered", repositories.NormalizeEmail(in.Email))
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.log.Info().Uint("user_id", doctor.UserID).Msg("doctor registered")
	return doctor, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	// Accounts created through a provider login have no password.
	if user.Password == "" {
		return nil, utils.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, utils.Unauthorized("invalid credentials")
	}
	return s.issue(user)
}

// LoginWithProvider signs in the owner of a provider identity, creating a
// patient account the first time the email is seen.
func (s *AuthService) LoginWithProvider(ctx context.Context, id ProviderIdentity) (*AuthResult, error) {
	if strings.TrimSpace(id.Email) == "" {
		return nil, utils.Unauthorized("identity provider returned no email")
	}
	user, err := s.users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		return s.issue(user)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("load user: %w", err)
	}

	first, last := SplitName(id.Name)
	if first == "" {
		first = strings.SplitN(id.Email, "@", 2)[0]
	}
	patient := &models.Patient{User: models.User{
		FirstName:         first,
		LastName:          last,
		Email:             id.Email,
		ProfilePictureURL: id.Picture,
	}}
	if err := s.patients.Create(ctx, patient); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("create patient: %w", err)
		}
		// Lost a race with a concurrent first login.
		user, err := s.users.GetByEmail(ctx, id.Email)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		return s.issue(user)
	}
	s.log.Info().Uint("user_id", patient.UserID).Msg("patient registered through identity provider")
	return s.issue(&patient.User)
}

// Logout revokes the token id until the token expires.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return utils.InvalidInput("token has no id")
	}
	if err := s.denylist.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// SplitName splits a display name into first name and the rest.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
