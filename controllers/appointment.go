package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/utils"
)

type AppointmentController struct {
	appointments *services.AppointmentService
}

func NewAppointmentController(appointments *services.AppointmentService) *AppointmentController {
	return &AppointmentController{appointments: appointments}
}

type CreateAppointmentRequest struct {
	DoctorID uint                     `json:"doctor_id"`
	Date     models.Date              `json:"date"`
	Time     models.Clock             `json:"time"`
	Reason   string                   `json:"reason"`
	Status   models.AppointmentStatus `json:"status"`
}

type UpdateAppointmentRequest struct {
	DoctorID *uint                     `json:"doctor_id"`
	Date     *models.Date              `json:"date"`
	Time     *models.Clock             `json:"time"`
	Reason   *string                   `json:"reason"`
	Status   *models.AppointmentStatus `json:"status"`
}

// Create godoc
// @Summary Book an appointment for the calling patient
// @Tags appointments
// @Accept json
// @Produce json
// @Success 201 {object} AppointmentResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments [post]
func (h *AppointmentController) Create(c *fiber.Ctx) error {
	var req CreateAppointmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.appointments.Create(c.UserContext(), actor(c).UserID, services.CreateAppointmentInput{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toAppointment(*a))
}

// ListMine pages through the calling patient's appointments.
func (h *AppointmentController) ListMine(c *fiber.Ctx) error {
	status := models.AppointmentStatus(c.Query("status"))
	res, err := h.appointments.ListForPatient(c.UserContext(), actor(c).UserID, status, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(utils.MapPage(res, toAppointment))
}

// ListForDoctor pages through the calling doctor's appointments.
func (h *AppointmentController) ListForDoctor(c *fiber.Ctx) error {
	status := models.AppointmentStatus(c.Query("status"))
	res, err := h.appointments.ListForDoctor(c.UserContext(), actor(c).UserID, status, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(utils.MapPage(res, toAppointment))
}

func (h *AppointmentController) ListForDoctorOnDate(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	date, err := models.ParseDate(c.Params("date"))
	if err != nil {
		return utils.InvalidInput("%v", err)
	}
	items, err := h.appointments.ListForDoctorOnDate(c.UserContext(), doctorID, date)
	if err != nil {
		return err
	}
	return c.JSON(toAppointments(items))
}

// Availability godoc
// @Summary Check whether a doctor's slot is free
// @Tags appointments
// @Produce json
// @Param doctorId query int true "Doctor ID"
// @Param date query string true "YYYY-MM-DD"
// @Param time query string true "HH:MM"
// @Success 200 {object} map[string]bool
// @Router /appointments/availability [get]
func (h *AppointmentController) Availability(c *fiber.Ctx) error {
	doctorID, err := queryID(c, "doctorId")
	if err != nil {
		return err
	}
	date, err := queryDate(c, "date")
	if err != nil {
		return err
	}
	at, err := models.ParseClock(c.Query("time"))
	if err != nil {
		return utils.InvalidInput("time: %v", err)
	}
	free, err := h.appointments.IsAvailable(c.UserContext(), doctorID, date, at)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"available": free})
}

func (h *AppointmentController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.appointments.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(toAppointment(*a))
}

func (h *AppointmentController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateAppointmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.appointments.Update(c.UserContext(), actor(c), id, services.AppointmentUpdate{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(toAppointment(*a))
}

func (h *AppointmentController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.appointments.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
