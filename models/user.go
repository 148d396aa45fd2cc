package models

import (
	"strings"
	"time"
)

type User struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	FirstName         string    `json:"first_name" gorm:"not null"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email" gorm:"uniqueIndex;not null"`
	Password          string    `json:"-"`
	Role              Role      `json:"role" gorm:"type:varchar(16);not null;index"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	ProfilePictureKey string    `json:"-"`
	DateOfBirth       *Date     `json:"date_of_birth,omitempty"`
	Sex               string    `json:"sex,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
