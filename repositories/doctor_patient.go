package repositories

import (
	"context"
	"strings"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DoctorPatientRepository interface {
	Exists(ctx context.Context, doctorID, patientID uint) (bool, error)
	Create(ctx context.Context, link *models.DoctorPatient) error
	// ListPatients returns the patients linked to doctorID, optionally
	// filtered by a case-insensitive first or last name match.
	ListPatients(ctx context.Context, doctorID uint, name string, page utils.PageRequest) ([]models.Patient, int64, error)
	DeleteByPair(ctx context.Context, doctorID, patientID uint) error
}

type doctorPatientRepository struct {
	db *gorm.DB
}

func NewDoctorPatientRepository(db *gorm.DB) DoctorPatientRepository {
	return &doctorPatientRepository{db: db}
}

func (r *doctorPatientRepository) Exists(ctx context.Context, doctorID, patientID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DoctorPatient{}).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *doctorPatientRepository) Create(ctx context.Context, link *models.DoctorPatient) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error)
}

func (r *doctorPatientRepository) ListPatients(ctx context.Context, doctorID uint, name string, page utils.PageRequest) ([]models.Patient, int64, error) {
	matching := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Patient{}).
			Joins("JOIN doctor_patients ON doctor_patients.patient_id = patients.user_id").
			Joins("JOIN users ON users.id = patients.user_id").
			Where("doctor_patients.doctor_id = ?", doctorID)
		if name = strings.TrimSpace(name); name != "" {
			like := "%" + strings.ToLower(name) + "%"
			db = db.Where("(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?)", like, like)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(matching).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var patients []models.Patient
	err := r.db.WithContext(ctx).
		Scopes(matching, paginate(page)).
		Select("patients.*").
		Preload("User").
		Order("users.last_name").Order("users.first_name").Order("patients.user_id").
		Find(&patients).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return patients, total, nil
}

func (r *doctorPatientRepository) DeleteByPair(ctx context.Context, doctorID, patientID uint) error {
	res := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Delete(&models.DoctorPatient{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
