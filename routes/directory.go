package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/controllers"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/models"
)

func SetupDoctorRoutes(api fiber.Router, h *controllers.DoctorController) {
	doctors := api.Group("/doctors")
	doctors.Get("/", h.Search)
	doctors.Get("/:id", h.Get)
	doctors.Get("/:id/reviews", h.Reviews)
}

func SetupPatientRoutes(api fiber.Router, h *controllers.PatientController, protected fiber.Handler) {
	api.Get("/patients/:id", protected, middleware.RequireRole(models.RoleDoctor), h.Get)
}

func SetupDoctorPatientRoutes(api fiber.Router, h *controllers.DoctorPatientController, protected fiber.Handler) {
	links := api.Group("/doctor-patients", protected, middleware.RequireRole(models.RoleDoctor))
	links.Get("/:doctorId", h.ListPatients)
	links.Delete("/", h.Remove)
}

func SetupDocumentRoutes(api fiber.Router, h *controllers.DocumentController, protected fiber.Handler) {
	// Owner patient or any doctor; the service checks ownership.
	documents := api.Group("/documents", protected, middleware.RequireRole(models.RolePatient, models.RoleDoctor))
	documents.Post("/upload", h.Upload)
	documents.Get("/:patientId", h.List)
	documents.Delete("/:documentId", h.Delete)
}

func SetupReviewRoutes(api fiber.Router, h *controllers.ReviewController, protected fiber.Handler) {
	reviews := api.Group("/reviews", protected)
	reviews.Post("/", middleware.RequireRole(models.RolePatient), h.Create)
	reviews.Patch("/:id", middleware.RequireRole(models.RolePatient), h.Update)
	reviews.Delete("/:id", middleware.RequireRole(models.RolePatient, models.RoleDoctor, models.RoleAdmin), h.Delete)
}
