package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
)

type DoctorPatientService struct {
	links   repositories.DoctorPatientRepository
	doctors repositories.DoctorRepository
}

func NewDoctorPatientService(links repositories.DoctorPatientRepository, doctors repositories.DoctorRepository) *DoctorPatientService {
	return &DoctorPatientService{links: links, doctors: doctors}
}

// Ensure creates the doctor-patient link unless it already exists.
func (s *DoctorPatientService) Ensure(ctx context.Context, doctorID, patientID uint) error {
	ok, err := s.links.Exists(ctx, doctorID, patientID)
	if err != nil {
		return fmt.Errorf("check link: %w", err)
	}
	if ok {
		return nil
	}
	err = s.links.Create(ctx, &models.DoctorPatient{DoctorID: doctorID, PatientID: patientID})
	if err != nil && !errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

func ownDoctor(actor Actor, doctorID uint) error {
	if actor.Is(models.RoleDoctor) && actor.UserID == doctorID {
		return nil
	}
	return utils.Forbidden("doctors may only manage their own patients")
}

// ListPatients pages through the patients of doctorID whose first or last
// name contains name.
func (s *DoctorPatientService) ListPatients(ctx context.Context, actor Actor, doctorID uint, name string, page utils.PageRequest) (utils.Page[models.Patient], error) {
	if err := ownDoctor(actor, doctorID); err != nil {
		return utils.Page[models.Patient]{}, err
	}
	ok, err := s.doctors.Exists(ctx, doctorID)
	if err := requireExists(ok, err, "doctor", doctorID); err != nil {
		return utils.Page[models.Patient]{}, err
	}
	patients, total, err := s.links.ListPatients(ctx, doctorID, name, page)
	if err != nil {
		return utils.Page[models.Patient]{}, fmt.Errorf("list patients of doctor %d: %w", doctorID, err)
	}
	return utils.NewPage(patients, total, page), nil
}

func (s *DoctorPatientService) Remove(ctx context.Context, actor Actor, doctorID, patientID uint) error {
	if err := ownDoctor(actor, doctorID); err != nil {
		return err
	}
	if err := s.links.DeleteByPair(ctx, doctorID, patientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.NotFound("doctor %d has no patient %d", doctorID, patientID)
		}
		return fmt.Errorf("remove link: %w", err)
	}
	return nil
}
