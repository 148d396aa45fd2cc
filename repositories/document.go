package repositories

import (
	"context"

	"github.com/meinhoongagan/clinic-server/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.MedicalDocument) error
	GetByID(ctx context.Context, id uint) (*models.MedicalDocument, error)
	ListByPatient(ctx context.Context, patientID uint) ([]models.MedicalDocument, error)
	Delete(ctx context.Context, id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.MedicalDocument) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(doc).Error)
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (*models.MedicalDocument, error) {
	var doc models.MedicalDocument
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patientID uint) ([]models.MedicalDocument, error) {
	var docs []models.MedicalDocument
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&docs).Error
	return docs, translate(err)
}

func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.MedicalDocument{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
