package models

import "time"

type MedicalDocument struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FileName   string    `json:"file_name" gorm:"not null"`
	StorageKey string    `json:"-" gorm:"not null;uniqueIndex"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
	PatientID  uint      `json:"patient_id" gorm:"not null;index"`
	Patient    Patient   `json:"-" gorm:"foreignKey:PatientID;references:UserID"`
}
