package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/controllers"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/models"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(api fiber.Router, h *controllers.AppointmentController, protected fiber.Handler) {
	appointment := api.Group("/appointments", protected)

	patientOnly := middleware.RequireRole(models.RolePatient)
	appointment.Get("/", patientOnly, h.ListMine)
	appointment.Post("/", patientOnly, h.Create)

	appointment.Get("/doctor", middleware.RequireRole(models.RoleDoctor), h.ListForDoctor)
	appointment.Get("/doctor/:doctorId/date/:date", h.ListForDoctorOnDate)
	appointment.Get("/availability", h.Availability)

	// Ownership is checked in the service.
	appointment.Get("/:id", h.Get)
	appointment.Patch("/:id", h.Update)
	appointment.Delete("/:id", h.Delete)
}
