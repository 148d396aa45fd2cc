package cron

import (
	"context"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reminders go out for appointments starting between ReminderLead and
// ReminderLead+ReminderWindow from now. Schedule the job every
// ReminderWindow so each appointment is picked up exactly once.
const (
	ReminderLead   = 55 * time.Minute
	ReminderWindow = 10 * time.Minute
)

// AppointmentSource lists confirmed appointments starting in [from, to).
type AppointmentSource interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type ReminderJob struct {
	appointments AppointmentSource
	notifier     services.Notifier
	log          zerolog.Logger
	now          func() time.Time
	timeout      time.Duration
}

func NewReminderJob(appointments AppointmentSource, notifier services.Notifier, log zerolog.Logger) *ReminderJob {
	return &ReminderJob{
		appointments: appointments,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
		timeout:      time.Minute,
	}
}

// Run implements cron.Job.
func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	j.SendReminders(ctx)
}

// SendReminders notifies the patients of upcoming appointments and returns
// how many reminders were sent.
func (j *ReminderJob) SendReminders(ctx context.Context) int {
	now := j.now()
	from := now.Add(ReminderLead)
	to := from.Add(ReminderWindow)

	appointments, err := j.appointments.ListStartingBetween(ctx, from, to)
	if err != nil {
		j.log.Error().Err(err).Msg("failed to fetch appointments for reminders")
		return 0
	}
	j.log.Debug().Int("count", len(appointments)).Msg("appointments due for reminders")

	sent := 0
	for i := range appointments {
		a := &appointments[i]
		if err := j.notifier.AppointmentReminder(ctx, a); err != nil {
			j.log.Warn().Err(err).Uint("appointment_id", a.ID).Msg("failed to send reminder")
			continue
		}
		sent++
		j.log.Info().Uint("appointment_id", a.ID).Str("to", a.Patient.User.Email).Msg("sent reminder")
	}
	return sent
}

// Scheduler runs background jobs on cron specs.
type Scheduler struct {
	c   *cron.Cron
	log zerolog.Logger
}

func NewScheduler(log zerolog.Logger) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		c:   cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		log: log,
	}
}

// Add registers job under spec, a standard five field cron expression.
func (s *Scheduler) Add(name, spec string, job cron.Job) error {
	if _, err := s.c.AddJob(spec, job); err != nil {
		return err
	}
	s.log.Info().Str("job", name).Str("schedule", spec).Msg("cron job registered")
	return nil
}

func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info().Msg("cron scheduler started")
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("cron jobs still running at shutdown")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
