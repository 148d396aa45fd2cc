package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
)

type CreateAppointmentInput struct {
	DoctorID uint
	Date     models.Date
	Time     models.Clock
	Reason   string
	// Status is accepted for compatibility and always replaced by PENDING.
	Status models.AppointmentStatus
}

// AppointmentUpdate is a partial update. Nil fields are left untouched.
type AppointmentUpdate struct {
	DoctorID *uint
	Date     *models.Date
	Time     *models.Clock
	Reason   *string
	Status   *models.AppointmentStatus
}

// DoctorPatientLinker records that a doctor treats a patient.
type DoctorPatientLinker interface {
	Ensure(ctx context.Context, doctorID, patientID uint) error
}

type AppointmentService struct {
	appointments repositories.AppointmentRepository
	doctors      repositories.DoctorRepository
	patients     repositories.PatientRepository
	links        DoctorPatientLinker
	notifier     Notifier
	log          zerolog.Logger
}

func NewAppointmentService(
	appointments repositories.AppointmentRepository,
	doctors repositories.DoctorRepository,
	patients repositories.PatientRepository,
	links DoctorPatientLinker,
	notifier Notifier,
	log zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		links:        links,
		notifier:     notifier,
		log:          log,
	}
}

var errSlotTaken = utils.Conflict("slot unavailable")

// IsAvailable reports whether no appointment, in any status, holds the slot.
func (s *AppointmentService) IsAvailable(ctx context.Context, doctorID uint, date models.Date, at models.Clock) (bool, error) {
	ok, err := s.doctors.Exists(ctx, doctorID)
	if err := requireExists(ok, err, "doctor", doctorID); err != nil {
		return false, err
	}
	taken, err := s.appointments.ExistsAtSlot(ctx, doctorID, date, at, 0)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return !taken, nil
}

// Create books a slot for patientID. The new appointment is always PENDING.
func (s *AppointmentService) Create(ctx context.Context, patientID uint, in CreateAppointmentInput) (*models.Appointment, error) {
	if in.DoctorID == 0 {
		return nil, utils.InvalidInput("doctor id is required")
	}
	if in.Date.IsZero() || in.Time.IsZero() {
		return nil, utils.InvalidInput("date and time are required")
	}
	ok, err := s.doctors.Exists(ctx, in.DoctorID)
	if err := requireExists(ok, err, "doctor", in.DoctorID); err != nil {
		return nil, err
	}
	ok, err = s.patients.Exists(ctx, patientID)
	if err := requireExists(ok, err, "patient", patientID); err != nil {
		return nil, err
	}

	taken, err := s.appointments.ExistsAtSlot(ctx, in.DoctorID, in.Date, in.Time, 0)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, errSlotTaken
	}

	appointment := &models.Appointment{
		DoctorID:  in.DoctorID,
		PatientID: patientID,
		Date:      in.Date,
		Time:      in.Time,
		Reason:    in.Reason,
		Status:    models.StatusPending,
	}
	// The unique slot index closes the gap between the check above and this insert.
	if err := s.appointments.Create(ctx, appointment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, errSlotTaken
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	full, err := s.appointments.GetByID(ctx, appointment.ID)
	if err != nil {
		return nil, notFoundOr(err, "appointment", appointment.ID)
	}
	if err := s.notifier.AppointmentBooked(ctx, full); err != nil {
		s.log.Warn().Err(err).Uint("appointment_id", full.ID).Msg("booking notification failed")
	}
	s.log.Info().Uint("appointment_id", full.ID).Uint("doctor_id", full.DoctorID).Uint("patient_id", full.PatientID).Msg("appointment booked")
	return full, nil
}

// authorize lets a patient reach their own appointments, a doctor the
// appointments booked with them and an admin everything.
func authorize(actor Actor, a *models.Appointment) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RolePatient:
		if a.PatientID == actor.UserID {
			return nil
		}
	case models.RoleDoctor:
		if a.DoctorID == actor.UserID {
			return nil
		}
	}
	return utils.Forbidden("appointment %d belongs to someone else", a.ID)
}

func (s *AppointmentService) Get(ctx context.Context, actor Actor, id uint) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "appointment", id)
	}
	if err := authorize(actor, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// Update merges the non-nil fields of in. A status the actor's role may not
// set is ignored. A doctor update also records the doctor-patient relation.
func (s *AppointmentService) Update(ctx context.Context, actor Actor, id uint, in AppointmentUpdate) (*models.Appointment, error) {
	appointment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	before := *appointment

	if in.DoctorID != nil && *in.DoctorID != appointment.DoctorID {
		ok, err := s.doctors.Exists(ctx, *in.DoctorID)
		if err := requireExists(ok, err, "doctor", *in.DoctorID); err != nil {
			return nil, err
		}
		appointment.DoctorID = *in.DoctorID
	}
	if in.Date != nil {
		appointment.Date = *in.Date
	}
	if in.Time != nil {
		appointment.Time = *in.Time
	}
	if in.Reason != nil {
		appointment.Reason = *in.Reason
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, utils.InvalidInput("unknown appointment status %q", *in.Status)
		}
		if CanSetStatus(actor.Role, *in.Status) {
			appointment.Status = *in.Status
		} else {
			s.log.Debug().Uint("appointment_id", id).Str("role", actor.Role.String()).Str("status", string(*in.Status)).Msg("status change ignored")
		}
	}

	moved := appointment.DoctorID != before.DoctorID || !appointment.Date.Equal(before.Date) || !appointment.Time.Equal(before.Time)
	if moved {
		taken, err := s.appointments.ExistsAtSlot(ctx, appointment.DoctorID, appointment.Date, appointment.Time, appointment.ID)
		if err != nil {
			return nil, fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return nil, errSlotTaken
		}
	}

	if err := s.appointments.Update(ctx, appointment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, errSlotTaken
		}
		return nil, fmt.Errorf("update appointment %d: %w", id, err)
	}

	if actor.Is(models.RoleDoctor) {
		if err := s.links.Ensure(ctx, appointment.DoctorID, appointment.PatientID); err != nil {
			return nil, fmt.Errorf("link doctor %d and patient %d: %w", appointment.DoctorID, appointment.PatientID, err)
		}
	}

	updated, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "appointment", id)
	}
	if updated.Status != before.Status {
		if err := s.notifier.AppointmentStatusChanged(ctx, updated); err != nil {
			s.log.Warn().Err(err).Uint("appointment_id", id).Msg("status notification failed")
		}
	}
	return updated, nil
}

func (s *AppointmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "appointment", id)
	}
	return nil
}

func defaultStatus(status models.AppointmentStatus) (models.AppointmentStatus, error) {
	if status == "" {
		return models.StatusConfirmed, nil
	}
	if !status.Valid() {
		return "", utils.InvalidInput("unknown appointment status %q", status)
	}
	return status, nil
}

// ListForDoctor pages through a doctor's appointments in one status,
// CONFIRMED when status is empty.
func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID uint, status models.AppointmentStatus, page utils.PageRequest) (utils.Page[models.Appointment], error) {
	status, err := defaultStatus(status)
	if err != nil {
		return utils.Page[models.Appointment]{}, err
	}
	items, total, err := s.appointments.ListByDoctorAndStatus(ctx, doctorID, status, page)
	if err != nil {
		return utils.Page[models.Appointment]{}, fmt.Errorf("list doctor appointments: %w", err)
	}
	return utils.NewPage(items, total, page), nil
}

func (s *AppointmentService) ListForPatient(ctx context.Context, patientID uint, status models.AppointmentStatus, page utils.PageRequest) (utils.Page[models.Appointment], error) {
	status, err := defaultStatus(status)
	if err != nil {
		return utils.Page[models.Appointment]{}, err
	}
	items, total, err := s.appointments.ListByPatientAndStatus(ctx, patientID, status, page)
	if err != nil {
		return utils.Page[models.Appointment]{}, fmt.Errorf("list patient appointments: %w", err)
	}
	return utils.NewPage(items, total, page), nil
}

func (s *AppointmentService) ListForDoctorOnDate(ctx context.Context, doctorID uint, date models.Date) ([]models.Appointment, error) {
	ok, err := s.doctors.Exists(ctx, doctorID)
	if err := requireExists(ok, err, "doctor", doctorID); err != nil {
		return nil, err
	}
	items, err := s.appointments.ListByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments on %s: %w", date, err)
	}
	return items, nil
}

// ListStartingBetween returns confirmed appointments that start in [from, to).
func (s *AppointmentService) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	items, err := s.appointments.ListConfirmedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments between %s and %s: %w", from, to, err)
	}
	return items, nil
}
