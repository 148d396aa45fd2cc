package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/utils"
)

type DoctorController struct {
	doctors *services.DoctorService
	reviews *services.ReviewService
}

func NewDoctorController(doctors *services.DoctorService, reviews *services.ReviewService) *DoctorController {
	return &DoctorController{doctors: doctors, reviews: reviews}
}

// Search godoc
// @Summary Search the doctor directory
// @Tags doctors
// @Produce json
// @Param name query string false "First or last name contains"
// @Param specialization query string false "Specialization contains"
// @Param sort query string false "Field and optional direction, e.g. lastName,desc"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} utils.Page[DoctorResponse]
// @Router /doctors [get]
func (h *DoctorController) Search(c *fiber.Ctx) error {
	page := pageRequest(c)
	res, err := h.doctors.Search(c.UserContext(), services.DoctorQuery{
		Name:           c.Query("name"),
		Specialization: c.Query("specialization"),
		Sort:           c.Query("sort"),
		Page:           page.Page,
		Size:           page.Size,
	})
	if err != nil {
		return err
	}
	return c.JSON(utils.MapPage(res, toDoctor))
}

func (h *DoctorController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	doctor, err := h.doctors.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toDoctor(*doctor))
}

// Reviews lists the reviews written about a doctor, newest first.
func (h *DoctorController) Reviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.reviews.ListForDoctor(c.UserContext(), id, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

type PatientController struct {
	patients *services.PatientService
}

func NewPatientController(patients *services.PatientService) *PatientController {
	return &PatientController{patients: patients}
}

func (h *PatientController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	patient, err := h.patients.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toPatient(*patient))
}

type DoctorPatientController struct {
	links *services.DoctorPatientService
}

func NewDoctorPatientController(links *services.DoctorPatientService) *DoctorPatientController {
	return &DoctorPatientController{links: links}
}

// ListPatients godoc
// @Summary List the patients of a doctor
// @Tags doctor-patients
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param name query string false "Patient name contains"
// @Success 200 {object} utils.Page[PatientResponse]
// @Failure 403 {object} utils.ErrorResponse
// @Router /doctor-patients/{doctorId} [get]
func (h *DoctorPatientController) ListPatients(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	res, err := h.links.ListPatients(c.UserContext(), actor(c), doctorID, c.Query("name"), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(utils.MapPage(res, toPatient))
}

func (h *DoctorPatientController) Remove(c *fiber.Ctx) error {
	doctorID, err := queryID(c, "doctorId")
	if err != nil {
		return err
	}
	patientID, err := queryID(c, "patientId")
	if err != nil {
		return err
	}
	if err := h.links.Remove(c.UserContext(), actor(c), doctorID, patientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

