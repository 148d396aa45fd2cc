package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/meinhoongagan/clinic-server/config"
	"github.com/meinhoongagan/clinic-server/controllers"
	"github.com/meinhoongagan/clinic-server/cron"
	"github.com/meinhoongagan/clinic-server/db"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/routes"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
	robfig "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Medical practice API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg)

			gdb, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info().Msg("database migrated")
			return nil
		},
	}
}

// setupLogger configures the global zerolog logger: console output in
// development, JSON otherwise.
func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	log.Logger = logger
	return logger
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	// Database
	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	scheduler := cron.NewScheduler(logger)

	// Token denylist
	var denylist redis.Denylist
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := redis.Connect(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			return err
		}
		defer client.Close()
		denylist = redis.NewRedisDenylist(client)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis token denylist")
	} else {
		mem := redis.NewMemoryDenylist()
		if err := scheduler.Add("denylist-purge", "@hourly", robfig.FuncJob(mem.Purge)); err != nil {
			return err
		}
		denylist = mem
		logger.Warn().Msg("REDIS_ADDR not set, revoked tokens are kept in memory")
	}

	// Blob storage
	blobs, err := storage.New(cfg)
	if err != nil {
		return err
	}
	uploadDir := ""
	if local, ok := blobs.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	// Mail
	var mailer utils.Mailer = utils.LogMailer{Logger: logger}
	if cfg.MailEnabled() {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPassword)
	}
	notifier := services.NewEmailNotifier(mailer)

	// Repositories and services
	users := repositories.NewUserRepository(gdb)
	patients := repositories.NewPatientRepository(gdb)
	doctors := repositories.NewDoctorRepository(gdb)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	links := services.NewDoctorPatientService(repositories.NewDoctorPatientRepository(gdb), doctors)
	documents := services.NewDocumentService(repositories.NewDocumentRepository(gdb), patients, users, blobs, logger)
	appointments := services.NewAppointmentService(repositories.NewAppointmentRepository(gdb), doctors, patients, links, notifier, logger)

	deps := routes.Deps{
		Logger:         logger,
		Auth:           services.NewAuthService(users, patients, doctors, tokens, denylist, cfg.AdminSecret, logger),
		Tokens:         tokens,
		Denylist:       denylist,
		Profiles:       services.NewProfileService(users, patients, doctors, documents, blobs, logger),
		Doctors:        services.NewDoctorService(doctors),
		Patients:       services.NewPatientService(patients),
		Appointments:   appointments,
		Reviews:        services.NewReviewService(repositories.NewReviewRepository(gdb), doctors, patients),
		Documents:      documents,
		DoctorPatients: links,
		UserInfoURL:    controllers.GoogleUserInfoURL,
		FrontendURL:    strings.TrimRight(cfg.FrontendURL, "/"),
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      uploadDir,
	}
	if cfg.OAuthEnabled() {
		deps.OAuth = controllers.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	}
	app := routes.NewApp(deps)

	// Reminders
	if err := scheduler.Add("appointment-reminders", cfg.ReminderSchedule, cron.NewReminderJob(appointments, notifier, logger)); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
