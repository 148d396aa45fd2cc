package models

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DoctorID  uint      `json:"doctor_id" gorm:"not null;index"`
	Doctor    Doctor    `json:"-" gorm:"foreignKey:DoctorID;references:UserID"`
	PatientID uint      `json:"patient_id" gorm:"not null;index"`
	Patient   Patient   `json:"-" gorm:"foreignKey:PatientID;references:UserID"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title"`
	Body      string    `json:"body" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
