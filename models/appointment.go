package models

import (
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment occupies one (doctor, date, time) slot. The slot index covers
// every status, so a cancelled booking still holds its slot.
type Appointment struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	DoctorID  uint              `json:"doctor_id" gorm:"not null;uniqueIndex:idx_appointments_slot,priority:1"`
	Doctor    Doctor            `json:"doctor,omitempty" gorm:"foreignKey:DoctorID;references:UserID"`
	PatientID uint              `json:"patient_id" gorm:"not null;index"`
	Patient   Patient           `json:"patient,omitempty" gorm:"foreignKey:PatientID;references:UserID"`
	Date      Date              `json:"date" gorm:"not null;uniqueIndex:idx_appointments_slot,priority:2"`
	Time      Clock             `json:"time" gorm:"not null;uniqueIndex:idx_appointments_slot,priority:3"`
	Reason    string            `json:"reason,omitempty" gorm:"type:text"`
	Status    AppointmentStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// StartsAt is the appointment's date and time in loc.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Time.On(a.Date, loc)
}
