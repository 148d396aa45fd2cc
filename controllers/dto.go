package controllers

import (
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
)

type UserResponse struct {
	ID                uint         `json:"id"`
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Email             string       `json:"email"`
	Role              models.Role  `json:"role"`
	ProfilePictureURL string       `json:"profile_picture_url,omitempty"`
	DateOfBirth       *models.Date `json:"date_of_birth,omitempty"`
	Sex               string       `json:"sex,omitempty"`
}

func toUser(u models.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
		DateOfBirth:       u.DateOfBirth,
		Sex:               u.Sex,
	}
}

type PatientDetails struct {
	PhoneNumber string           `json:"phone_number,omitempty"`
	Height      *float64         `json:"height,omitempty"`
	Weight      *float64         `json:"weight,omitempty"`
	BloodType   models.BloodType `json:"blood_type,omitempty"`
	Conditions  string           `json:"conditions,omitempty"`
}

type PatientResponse struct {
	UserResponse
	PatientDetails
}

func patientDetails(p *models.Patient) PatientDetails {
	return PatientDetails{
		PhoneNumber: p.PhoneNumber,
		Height:      p.Height,
		Weight:      p.Weight,
		BloodType:   p.BloodType,
		Conditions:  p.Conditions,
	}
}

func toPatient(p models.Patient) PatientResponse {
	return PatientResponse{UserResponse: toUser(p.User), PatientDetails: patientDetails(&p)}
}

type DoctorDetails struct {
	Specialization      string       `json:"specialization"`
	StartedPracticingAt *models.Date `json:"started_practicing_at,omitempty"`
	Education           string       `json:"education,omitempty"`
	Bio                 string       `json:"bio,omitempty"`
}

type DoctorResponse struct {
	UserResponse
	DoctorDetails
}

func doctorDetails(d *models.Doctor) DoctorDetails {
	return DoctorDetails{
		Specialization:      d.Specialization,
		StartedPracticingAt: d.StartedPracticingAt,
		Education:           d.Education,
		Bio:                 d.Bio,
	}
}

func toDoctor(d models.Doctor) DoctorResponse {
	return DoctorResponse{UserResponse: toUser(d.User), DoctorDetails: doctorDetails(&d)}
}

// AccountResponse is the caller's own account. Exactly one of Patient and
// Doctor is set for those roles, neither for admins.
type AccountResponse struct {
	User    UserResponse    `json:"user"`
	Patient *PatientDetails `json:"patient,omitempty"`
	Doctor  *DoctorDetails  `json:"doctor,omitempty"`
}

func toAccount(acc models.Account) AccountResponse {
	out := AccountResponse{User: toUser(acc.User)}
	switch p := acc.Profile.(type) {
	case *models.Patient:
		d := patientDetails(p)
		out.Patient = &d
	case *models.Doctor:
		d := doctorDetails(p)
		out.Doctor = &d
	}
	return out
}

type AppointmentResponse struct {
	ID          uint                     `json:"id"`
	DoctorID    uint                     `json:"doctor_id"`
	DoctorName  string                   `json:"doctor_name,omitempty"`
	PatientID   uint                     `json:"patient_id"`
	PatientName string                   `json:"patient_name,omitempty"`
	Date        models.Date              `json:"date"`
	Time        models.Clock             `json:"time"`
	Reason      string                   `json:"reason,omitempty"`
	Status      models.AppointmentStatus `json:"status"`
}

func toAppointment(a models.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		DoctorName:  a.Doctor.User.FullName(),
		PatientID:   a.PatientID,
		PatientName: a.Patient.User.FullName(),
		Date:        a.Date,
		Time:        a.Time,
		Reason:      a.Reason,
		Status:      a.Status,
	}
}

func toAppointments(items []models.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAppointment(a))
	}
	return out
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func toAuth(r *services.AuthResult) AuthResponse {
	return AuthResponse{Token: r.Token, ExpiresAt: r.ExpiresAt, User: toUser(*r.User)}
}
