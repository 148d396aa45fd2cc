package repositories

import (
	"context"
	"strings"

	"github.com/meinhoongagan/clinic-server/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// UpdateAccount saves the user and its patient or doctor row together.
	// Other profiles are ignored.
	UpdateAccount(ctx context.Context, user *models.User, profile models.Profile) error
	// Delete removes the user with everything that references it and
	// returns the storage keys of the medical documents it owned.
	Delete(ctx context.Context, id uint) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

func (r *userRepository) UpdateAccount(ctx context.Context, user *models.User, profile models.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return translate(err)
		}
		switch p := profile.(type) {
		case *models.Patient:
			return translate(tx.Omit(clause.Associations).Save(p).Error)
		case *models.Doctor:
			return translate(tx.Omit(clause.Associations).Save(p).Error)
		}
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MedicalDocument{}).Where("patient_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return translate(err)
		}
		owner := map[string]any{"id": id}
		dependents := []struct {
			model any
			query string
		}{
			{&models.MedicalDocument{}, "patient_id = @id"},
			{&models.Appointment{}, "patient_id = @id OR doctor_id = @id"},
			{&models.Review{}, "patient_id = @id OR doctor_id = @id"},
			{&models.DoctorPatient{}, "patient_id = @id OR doctor_id = @id"},
			{&models.Patient{}, "user_id = @id"},
			{&models.Doctor{}, "user_id = @id"},
		}
		for _, d := range dependents {
			if err := tx.Where(d.query, owner).Delete(d.model).Error; err != nil {
				return translate(err)
			}
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
