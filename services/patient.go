package services

import (
	"context"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
)

type PatientService struct {
	patients repositories.PatientRepository
}

func NewPatientService(patients repositories.PatientRepository) *PatientService {
	return &PatientService{patients: patients}
}

func (s *PatientService) Get(ctx context.Context, id uint) (*models.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "patient", id)
	}
	return patient, nil
}
