package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/meinhoongagan/clinic-server/controllers"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Logger zerolog.Logger

	Auth           *services.AuthService
	Tokens         *services.TokenService
	Denylist       redis.Denylist
	Profiles       *services.ProfileService
	Doctors        *services.DoctorService
	Patients       *services.PatientService
	Appointments   *services.AppointmentService
	Reviews        *services.ReviewService
	Documents      *services.DocumentService
	DoctorPatients *services.DoctorPatientService

	// OAuth is nil when Google login is not configured.
	OAuth       *oauth2.Config
	UserInfoURL string
	FrontendURL string
	CORSOrigins string

	// UploadDir is served under /uploads when set.
	UploadDir string
}

// NewApp builds the fiber app with every route under /api/v1.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "clinic-server",
		ErrorHandler: middleware.ErrorHandler(d.Logger),
		BodyLimit:    services.MaxUploadSize + 1<<20,
		ReadTimeout:  30 * time.Second,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery(d.Logger))
	app.Use(middleware.Logger(d.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.UploadDir != "" {
		app.Static("/uploads", d.UploadDir)
	}

	api := app.Group("/api/v1")
	protected := middleware.Protected(d.Tokens.SigningKey(), d.Denylist, d.Logger)

	SetupAuthRoutes(api, controllers.NewAuthController(d.Auth, d.OAuth, d.UserInfoURL, d.FrontendURL), protected)
	SetupAdminRoutes(api, controllers.NewAdminController(d.Auth))
	SetupDoctorRoutes(api, controllers.NewDoctorController(d.Doctors, d.Reviews))
	SetupPatientRoutes(api, controllers.NewPatientController(d.Patients), protected)
	SetupAppointmentRoutes(api, controllers.NewAppointmentController(d.Appointments), protected)
	SetupDocumentRoutes(api, controllers.NewDocumentController(d.Documents), protected)
	SetupReviewRoutes(api, controllers.NewReviewController(d.Reviews), protected)
	SetupDoctorPatientRoutes(api, controllers.NewDoctorPatientController(d.DoctorPatients), protected)
	SetupProfileRoutes(api, controllers.NewProfileController(d.Profiles), protected)

	return app
}
