package repositories

import (
	"context"

	"github.com/meinhoongagan/clinic-server/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatientRepository interface {
	// Create inserts the patient and its embedded user in one transaction.
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id uint) (*models.Patient, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	patient.User.Email = NormalizeEmail(patient.User.Email)
	patient.User.Role = models.RolePatient
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&patient.User).Error; err != nil {
			return translate(err)
		}
		patient.UserID = patient.User.ID
		return translate(tx.Omit(clause.Associations).Create(patient).Error)
	})
}

func (r *patientRepository) GetByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	if err := r.db.WithContext(ctx).Preload("User").First(&patient, "user_id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (r *patientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).Where("user_id = ?", id).Count(&count).Error
	return count > 0, translate(err)
}
