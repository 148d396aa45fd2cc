package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/controllers"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(api fiber.Router, h *controllers.AuthController, protected fiber.Handler) {
	auth := api.Group("/auth")

	// Public routes
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/oauth2/google", h.GoogleLogin)
	auth.Get("/oauth2/google/callback", h.GoogleCallback)

	// Protected routes
	auth.Post("/logout", protected, h.Logout)
}

func SetupAdminRoutes(api fiber.Router, h *controllers.AdminController) {
	// The admin secret travels in the body.
	api.Post("/admin/register-doctor", h.RegisterDoctor)
}

func SetupProfileRoutes(api fiber.Router, h *controllers.ProfileController, protected fiber.Handler) {
	profile := api.Group("/my-profile", protected)
	profile.Get("/", h.Get)
	profile.Patch("/", h.Update)
	profile.Delete("/", h.Delete)
}
