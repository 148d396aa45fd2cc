package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// doctorSortColumns is the set of fields a directory search may be ordered by.
var doctorSortColumns = map[string]string{
	"id":                  "doctors.user_id",
	"firstName":           "users.first_name",
	"lastName":            "users.last_name",
	"specialization":      "doctors.specialization",
	"startedPracticingAt": "doctors.started_practicing_at",
}

const DefaultDoctorSort = "firstName"

// ValidDoctorSort reports whether field may be used to order a search.
func ValidDoctorSort(field string) bool {
	_, ok := doctorSortColumns[field]
	return ok
}

type DoctorSort struct {
	Field string
	Desc  bool
}

type DoctorFilter struct {
	Name           string
	Specialization string
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id uint) (*models.Doctor, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Search(ctx context.Context, filter DoctorFilter, sort DoctorSort, page utils.PageRequest) ([]models.Doctor, int64, error)
}

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	doctor.User.Email = NormalizeEmail(doctor.User.Email)
	doctor.User.Role = models.RoleDoctor
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doctor.User).Error; err != nil {
			return translate(err)
		}
		doctor.UserID = doctor.User.ID
		return translate(tx.Omit(clause.Associations).Create(doctor).Error)
	})
}

func (r *doctorRepository) GetByID(ctx context.Context, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := r.db.WithContext(ctx).Preload("User").First(&doctor, "user_id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Doctor{}).Where("user_id = ?", id).Count(&count).Error
	return count > 0, translate(err)
}

func (r *doctorRepository) Search(ctx context.Context, filter DoctorFilter, sort DoctorSort, page utils.PageRequest) ([]models.Doctor, int64, error) {
	if sort.Field == "" {
		sort.Field = DefaultDoctorSort
	}
	column, ok := doctorSortColumns[sort.Field]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", sort.Field)
	}

	matching := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Doctor{}).Joins("JOIN users ON users.id = doctors.user_id")
		if name := strings.TrimSpace(filter.Name); name != "" {
			like := "%" + strings.ToLower(name) + "%"
			db = db.Where("(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?)", like, like)
		}
		if spec := strings.TrimSpace(filter.Specialization); spec != "" {
			db = db.Where("LOWER(doctors.specialization) LIKE ?", "%"+strings.ToLower(spec)+"%")
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(matching).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var doctors []models.Doctor
	err := r.db.WithContext(ctx).
		Scopes(matching, paginate(page)).
		Select("doctors.*").
		Preload("User").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: sort.Desc}).
		Order("doctors.user_id").
		Find(&doctors).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return doctors, total, nil
}
