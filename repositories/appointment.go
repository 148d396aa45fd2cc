package repositories

import (
	"context"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, id uint) error
	// ExistsAtSlot reports whether any appointment other than excludeID
	// holds the slot, whatever its status.
	ExistsAtSlot(ctx context.Context, doctorID uint, date models.Date, at models.Clock, excludeID uint) (bool, error)
	ListByDoctorAndStatus(ctx context.Context, doctorID uint, status models.AppointmentStatus, page utils.PageRequest) ([]models.Appointment, int64, error)
	ListByPatientAndStatus(ctx context.Context, patientID uint, status models.AppointmentStatus, page utils.PageRequest) ([]models.Appointment, int64, error)
	ListByDoctorAndDate(ctx context.Context, doctorID uint, date models.Date) ([]models.Appointment, error)
	// ListConfirmedBetween returns confirmed appointments starting in [from, to).
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) withParties(db *gorm.DB) *gorm.DB {
	return db.Preload("Doctor.User").Preload("Patient.User")
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(appointment).Error)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).Scopes(r.withParties).First(&appointment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(appointment).Error)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) ExistsAtSlot(ctx context.Context, doctorID uint, date models.Date, at models.Clock, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("appointments.doctor_id = ? AND appointments.date = ? AND appointments.time = ?", doctorID, date, at)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *appointmentRepository) list(ctx context.Context, where string, id uint, status models.AppointmentStatus, page utils.PageRequest) ([]models.Appointment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Appointment{}).Where(where+" AND status = ?", id, status)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var appointments []models.Appointment
	err := base.Session(&gorm.Session{}).
		Scopes(r.withParties, paginate(page)).
		Order("appointments.date").Order("appointments.time").Order("id").
		Find(&appointments).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) ListByDoctorAndStatus(ctx context.Context, doctorID uint, status models.AppointmentStatus, page utils.PageRequest) ([]models.Appointment, int64, error) {
	return r.list(ctx, "doctor_id = ?", doctorID, status, page)
}

func (r *appointmentRepository) ListByPatientAndStatus(ctx context.Context, patientID uint, status models.AppointmentStatus, page utils.PageRequest) ([]models.Appointment, int64, error) {
	return r.list(ctx, "patient_id = ?", patientID, status, page)
}

func (r *appointmentRepository) ListByDoctorAndDate(ctx context.Context, doctorID uint, date models.Date) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Scopes(r.withParties).
		Where("appointments.doctor_id = ? AND appointments.date = ?", doctorID, date).
		Order("appointments.time").
		Find(&appointments).Error
	return appointments, translate(err)
}

func (r *appointmentRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	var candidates []models.Appointment
	err := r.db.WithContext(ctx).
		Scopes(r.withParties).
		Where("status = ? AND appointments.date BETWEEN ? AND ?", models.StatusConfirmed, models.DateOf(from), models.DateOf(to)).
		Order("appointments.date").Order("appointments.time").
		Find(&candidates).Error
	if err != nil {
		return nil, translate(err)
	}

	// Date and time live in separate columns, so the exact window is
	// applied here rather than in SQL.
	var due []models.Appointment
	for _, a := range candidates {
		at := a.StartsAt(from.Location())
		if !at.Before(from) && at.Before(to) {
			due = append(due, a)
		}
	}
	return due, nil
}
