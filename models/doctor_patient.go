package models

import "time"

// DoctorPatient records that a doctor has treated a patient. There is at
// most one row per pair.
type DoctorPatient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DoctorID  uint      `json:"doctor_id" gorm:"not null;uniqueIndex:idx_doctor_patient,priority:1"`
	Doctor    Doctor    `json:"-" gorm:"foreignKey:DoctorID;references:UserID"`
	PatientID uint      `json:"patient_id" gorm:"not null;uniqueIndex:idx_doctor_patient,priority:2"`
	Patient   Patient   `json:"patient,omitempty" gorm:"foreignKey:PatientID;references:UserID"`
	CreatedAt time.Time `json:"created_at"`
}
